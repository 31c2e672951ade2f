// Package bus provides the in-process event dispatcher that carries domain
// events (messages, notifications, payment status) between services that have
// no direct reference to each other.
package bus

import (
	"log"
	"sync"
)

// Event names published across the application.
const (
	EventNewMessage              = "newMessage"
	EventMessagesRead            = "messagesRead"
	EventChatOpened              = "chatOpened"
	EventNotificationCreated     = "notificationCreated"
	EventNotificationRead        = "notificationRead"
	EventNotificationDeleted     = "notificationDeleted"
	EventAllNotificationsDeleted = "allNotificationsDeleted"
	EventPaymentStatusChanged    = "paymentStatusChanged"
	EventGlobalUnreadRefresh     = "globalUnreadCountRefresh"
)

// pendingCap bounds each per-event replay queue. An event nothing ever
// subscribes to would otherwise retain every payload for the life of the
// process; past the cap the oldest payload is dropped.
const pendingCap = 64

// Handler receives a published payload. Handlers run synchronously inside
// the Publish call; a panicking handler is recovered and logged without
// affecting other listeners.
type Handler func(payload interface{})

type listener struct {
	id uint64
	fn Handler
}

// Bus is a synchronous publish/subscribe dispatcher. Listeners for an event
// are invoked in registration order. A Publish with no listeners queues the
// payload per event name; the first listener to register for that name gets
// the queue replayed exactly once, which covers startup ordering races
// between producers and consumers.
type Bus struct {
	mu        sync.Mutex
	seq       uint64
	listeners map[string][]listener
	pending   map[string][]interface{}
}

func New() *Bus {
	return &Bus{
		listeners: make(map[string][]listener),
		pending:   make(map[string][]interface{}),
	}
}

// Subscription identifies one registered listener.
type Subscription struct {
	bus   *Bus
	event string
	id    uint64
}

// Remove unregisters the listener. Safe to call more than once.
func (s *Subscription) Remove() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	current := s.bus.listeners[s.event]
	for i, l := range current {
		if l.id == s.id {
			s.bus.listeners[s.event] = append(current[:i:i], current[i+1:]...)
			break
		}
	}
}

// Subscribe registers fn for event. If payloads were published for event
// while it had no listeners, they are replayed in order to fn before
// Subscribe returns, then dropped; listeners registering later never see
// them.
func (b *Bus) Subscribe(event string, fn Handler) *Subscription {
	b.mu.Lock()
	b.seq++
	sub := &Subscription{bus: b, event: event, id: b.seq}
	b.listeners[event] = append(b.listeners[event], listener{id: sub.id, fn: fn})
	queued := b.pending[event]
	delete(b.pending, event)
	b.mu.Unlock()

	for _, payload := range queued {
		invoke(event, fn, payload)
	}
	return sub
}

// Publish delivers payload synchronously to every listener registered for
// event, in registration order. With zero listeners the payload is queued
// for replay to the next subscriber, keeping at most the pendingCap newest
// payloads per event.
func (b *Bus) Publish(event string, payload interface{}) {
	b.mu.Lock()
	current := b.listeners[event]
	if len(current) == 0 {
		queue := append(b.pending[event], payload)
		if over := len(queue) - pendingCap; over > 0 {
			queue = queue[over:]
		}
		b.pending[event] = queue
		b.mu.Unlock()
		return
	}
	snapshot := make([]listener, len(current))
	copy(snapshot, current)
	b.mu.Unlock()

	for _, l := range snapshot {
		invoke(event, l.fn, payload)
	}
}

// RemoveAll drops every listener for the named events, or all listeners when
// called without arguments. Pending replay queues are dropped as well.
func (b *Bus) RemoveAll(events ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(events) == 0 {
		b.listeners = make(map[string][]listener)
		b.pending = make(map[string][]interface{})
		return
	}
	for _, event := range events {
		delete(b.listeners, event)
		delete(b.pending, event)
	}
}

func invoke(event string, fn Handler, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus: listener panic on %q: %v", event, r)
		}
	}()
	fn(payload)
}

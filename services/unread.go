package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/tandia00/immobilier-mali-app-sub000/bus"
	"github.com/tandia00/immobilier-mali-app-sub000/models"
)

const (
	unreadDebounce = 500 * time.Millisecond
	viewedTTL      = 24 * time.Hour
)

// UnreadCounter maintains the per-user unread message badge. The database
// count is adjusted by a per-user viewed set in Redis: opening a chat marks
// its messages viewed immediately, before the read flags land in Postgres,
// so the badge never lags behind what the user has already seen.
//
// Recomputes triggered by bus events are debounced so a burst of messages
// produces one refresh, not one per message.
type UnreadCounter struct {
	db       *gorm.DB
	redis    *redis.Client
	bus      *bus.Bus
	debounce time.Duration
	sink     func(userID uint, count int64)

	mu     sync.Mutex
	timers map[uint]*time.Timer
	subs   []*bus.Subscription
}

func NewUnreadCounter(db *gorm.DB, rdb *redis.Client, b *bus.Bus) *UnreadCounter {
	return &UnreadCounter{
		db:       db,
		redis:    rdb,
		bus:      b,
		debounce: unreadDebounce,
		timers:   map[uint]*time.Timer{},
	}
}

// SetSink registers the consumer of recomputed counts, typically the push
// layer. Must be called before Start.
func (c *UnreadCounter) SetSink(sink func(userID uint, count int64)) {
	c.sink = sink
}

// Start wires the counter to the bus.
func (c *UnreadCounter) Start() {
	c.subs = append(c.subs,
		c.bus.Subscribe(bus.EventNewMessage, func(payload interface{}) {
			if ev, ok := payload.(MessageEvent); ok && ev.ReceiverID != 0 {
				c.Schedule(ev.ReceiverID)
			}
		}),
		c.bus.Subscribe(bus.EventMessagesRead, func(payload interface{}) {
			if ev, ok := payload.(MessagesReadEvent); ok && ev.UserID != 0 {
				c.unmarkViewed(ev.UserID, ev.MessageIDs)
				c.Schedule(ev.UserID)
			}
		}),
		c.bus.Subscribe(bus.EventChatOpened, func(payload interface{}) {
			if ev, ok := payload.(ChatOpenedEvent); ok && ev.UserID != 0 {
				if err := c.MarkViewed(context.Background(), ev.UserID, ev.MessageIDs); err != nil {
					log.Printf("unread: viewed set write failed for user %d: %v", ev.UserID, err)
				}
				c.Schedule(ev.UserID)
			}
		}),
		c.bus.Subscribe(bus.EventGlobalUnreadRefresh, func(payload interface{}) {
			if ev, ok := payload.(UnreadRefreshEvent); ok && ev.UserID != 0 {
				c.Schedule(ev.UserID)
			}
		}),
	)
}

// Stop detaches from the bus and cancels pending refreshes.
func (c *UnreadCounter) Stop() {
	for _, sub := range c.subs {
		sub.Remove()
	}
	c.subs = nil

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
}

// Count returns unread messages for the user minus those already viewed in
// an open chat. A failing viewed-set lookup degrades to the raw count.
func (c *UnreadCounter) Count(ctx context.Context, userID uint) (int64, error) {
	var ids []uint
	err := c.db.Model(&models.Message{}).
		Where("receiver_id = ? AND read = ?", userID, false).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	viewed, err := c.viewedSet(ctx, userID)
	if err != nil {
		log.Printf("unread: viewed set read failed for user %d: %v", userID, err)
		return int64(len(ids)), nil
	}

	return countUnviewed(ids, viewed), nil
}

// countUnviewed is the badge math: unread ids minus those already on screen.
func countUnviewed(ids []uint, viewed map[uint]bool) int64 {
	count := int64(0)
	for _, id := range ids {
		if !viewed[id] {
			count++
		}
	}
	return count
}

// MarkViewed records that the user has seen these messages on screen.
func (c *UnreadCounter) MarkViewed(ctx context.Context, userID uint, messageIDs []uint) error {
	if len(messageIDs) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(messageIDs))
	for _, id := range messageIDs {
		members = append(members, strconv.FormatUint(uint64(id), 10))
	}
	key := viewedKey(userID)
	pipe := c.redis.TxPipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, viewedTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// unmarkViewed drops ids whose read flag is now persisted; the database
// count covers them from here on.
func (c *UnreadCounter) unmarkViewed(userID uint, messageIDs []uint) {
	if len(messageIDs) == 0 {
		return
	}
	members := make([]interface{}, 0, len(messageIDs))
	for _, id := range messageIDs {
		members = append(members, strconv.FormatUint(uint64(id), 10))
	}
	if err := c.redis.SRem(context.Background(), viewedKey(userID), members...).Err(); err != nil {
		log.Printf("unread: viewed set trim failed for user %d: %v", userID, err)
	}
}

// Schedule queues a debounced recompute for the user. Repeated calls inside
// the window collapse into one.
func (c *UnreadCounter) Schedule(userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timer, ok := c.timers[userID]; ok {
		timer.Stop()
	}
	c.timers[userID] = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		delete(c.timers, userID)
		c.mu.Unlock()
		c.refresh(userID)
	})
}

func (c *UnreadCounter) refresh(userID uint) {
	count, err := c.Count(context.Background(), userID)
	if err != nil {
		log.Printf("unread: recompute failed for user %d: %v", userID, err)
		return
	}
	if c.sink != nil {
		c.sink(userID, count)
	}
}

func (c *UnreadCounter) viewedSet(ctx context.Context, userID uint) (map[uint]bool, error) {
	members, err := c.redis.SMembers(ctx, viewedKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return map[uint]bool{}, nil
		}
		return nil, err
	}
	viewed := make(map[uint]bool, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		viewed[uint(id)] = true
	}
	return viewed, nil
}

func viewedKey(userID uint) string {
	return fmt.Sprintf("unread:viewed:%d", userID)
}

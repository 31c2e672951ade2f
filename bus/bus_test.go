package bus

import (
	"reflect"
	"testing"
)

func TestDeliveryInRegistrationOrder(t *testing.T) {
	b := New()
	var order []int
	b.Subscribe("evt", func(interface{}) { order = append(order, 1) })
	b.Subscribe("evt", func(interface{}) { order = append(order, 2) })
	b.Subscribe("evt", func(interface{}) { order = append(order, 3) })

	b.Publish("evt", nil)

	if !reflect.DeepEqual(order, []int{1, 2, 3}) {
		t.Fatalf("expected listeners in registration order, got %v", order)
	}
}

func TestReplayToFirstSubscriberOnly(t *testing.T) {
	b := New()
	b.Publish("foo", map[string]int{"x": 1})

	var first []interface{}
	b.Subscribe("foo", func(p interface{}) { first = append(first, p) })
	if len(first) != 1 {
		t.Fatalf("expected queued event replayed once, got %d deliveries", len(first))
	}
	if got := first[0].(map[string]int)["x"]; got != 1 {
		t.Fatalf("expected replayed payload x=1, got %d", got)
	}

	var second []interface{}
	b.Subscribe("foo", func(p interface{}) { second = append(second, p) })
	if len(second) != 0 {
		t.Fatalf("second subscriber must not receive replayed events, got %d", len(second))
	}

	// A fresh publish reaches both, and exactly once each.
	b.Publish("foo", map[string]int{"x": 2})
	if len(first) != 2 || len(second) != 1 {
		t.Fatalf("expected live delivery to both listeners, got %d and %d", len(first), len(second))
	}
}

func TestReplayPreservesOrder(t *testing.T) {
	b := New()
	b.Publish("q", "a")
	b.Publish("q", "b")
	b.Publish("q", "c")

	var got []string
	b.Subscribe("q", func(p interface{}) { got = append(got, p.(string)) })

	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("expected queued events in publish order, got %v", got)
	}
}

func TestPendingQueueIsBounded(t *testing.T) {
	b := New()
	extra := 10
	for i := 0; i < pendingCap+extra; i++ {
		b.Publish("evt", i)
	}

	var got []int
	b.Subscribe("evt", func(p interface{}) { got = append(got, p.(int)) })

	if len(got) != pendingCap {
		t.Fatalf("expected replay of at most %d payloads, got %d", pendingCap, len(got))
	}
	if got[0] != extra {
		t.Errorf("expected oldest payloads dropped, first replayed = %d, want %d", got[0], extra)
	}
	if last := got[len(got)-1]; last != pendingCap+extra-1 {
		t.Errorf("expected newest payload retained, last replayed = %d", last)
	}
}

func TestListenerPanicDoesNotStopFanout(t *testing.T) {
	b := New()
	delivered := false
	b.Subscribe("evt", func(interface{}) { panic("boom") })
	b.Subscribe("evt", func(interface{}) { delivered = true })

	b.Publish("evt", nil)

	if !delivered {
		t.Fatal("expected second listener to run despite first panicking")
	}
}

func TestSubscriptionRemove(t *testing.T) {
	b := New()
	count := 0
	sub := b.Subscribe("evt", func(interface{}) { count++ })
	b.Publish("evt", nil)
	sub.Remove()
	sub.Remove() // idempotent
	b.Publish("evt", nil)

	if count != 1 {
		t.Fatalf("expected exactly one delivery before Remove, got %d", count)
	}
}

func TestRemoveAllDropsPendingQueue(t *testing.T) {
	b := New()
	b.Publish("evt", "stale")
	b.RemoveAll("evt")

	var got []interface{}
	b.Subscribe("evt", func(p interface{}) { got = append(got, p) })
	if len(got) != 0 {
		t.Fatalf("expected no replay after RemoveAll, got %v", got)
	}
}

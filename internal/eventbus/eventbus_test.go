package eventbus

import "testing"

func TestPublishSubscribe(t *testing.T) {
	b := NewTyped[int](4)
	sub := b.Subscribe()
	b.Publish(42)
	if got := <-sub; got != 42 {
		t.Fatalf("expected 42 got %d", got)
	}
}

func TestFanOut(t *testing.T) {
	b := NewTyped[string](4)
	s1 := b.Subscribe()
	s2 := b.Subscribe()
	b.Publish("ev")
	if <-s1 != "ev" || <-s2 != "ev" {
		t.Fatal("both subscribers must receive the event")
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	b := NewTyped[int](1)
	sub := b.Subscribe()
	b.Publish(1)
	b.Publish(2) // buffer full, dropped
	if got := <-sub; got != 1 {
		t.Fatalf("expected first event, got %d", got)
	}
	select {
	case v, ok := <-sub:
		if ok {
			t.Fatalf("unexpected buffered event %d", v)
		}
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewTyped[int](1)
	sub := b.Subscribe()
	b.Unsubscribe(sub)
	if _, ok := <-sub; ok {
		t.Fatal("channel must be closed after unsubscribe")
	}
	b.Publish(1) // must not panic
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewTyped[int](1)
	sub := b.Subscribe()
	b.Close()
	b.Close()
	if _, ok := <-sub; ok {
		t.Fatal("channel must be closed after Close")
	}
	if got := b.Subscribe(); got == nil {
		t.Fatal("subscribe after close must return a closed channel")
	}
}

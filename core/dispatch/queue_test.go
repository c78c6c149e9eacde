package dispatch

import (
	"fmt"
	"testing"
	"time"

	"github.com/careline/dispatch/core/model"
)

func qcall(id string, tier model.PriorityTier) *model.EmergencyCall {
	return &model.EmergencyCall{ID: id, Tier: tier, Status: model.CallQueued}
}

func TestQueueTierOrdering(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	q.Push(qcall("routine", model.TierRoutine), now)
	q.Push(qcall("critical", model.TierCritical), now)
	q.Push(qcall("urgent", model.TierUrgent), now)

	want := []string{"critical", "urgent", "routine"}
	for _, id := range want {
		c, ok := q.Pop()
		if !ok || c.ID != id {
			t.Fatalf("expected %s, got %+v", id, c)
		}
	}
}

func TestQueueFIFOWithinTier(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	for i := 0; i < 5; i++ {
		q.Push(qcall(fmt.Sprintf("c%d", i), model.TierUrgent), now)
	}
	for i := 0; i < 5; i++ {
		c, _ := q.Pop()
		if c.ID != fmt.Sprintf("c%d", i) {
			t.Fatalf("arrival order broken at %d: got %s", i, c.ID)
		}
	}
}

func TestQueueRemove(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	q.Push(qcall("a", model.TierUrgent), now)
	q.Push(qcall("b", model.TierCritical), now)
	if !q.Remove("b") {
		t.Fatal("remove should find the queued call")
	}
	if q.Remove("b") {
		t.Fatal("second remove must report absence")
	}
	c, _ := q.Pop()
	if c.ID != "a" {
		t.Fatalf("expected a, got %s", c.ID)
	}
}

func TestQueueDuplicatePushIgnored(t *testing.T) {
	q := NewQueue()
	c := qcall("a", model.TierUrgent)
	now := time.Now()
	q.Push(c, now)
	q.Push(c, now.Add(time.Minute))
	if q.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", q.Len())
	}
	if at, _ := q.QueuedAt("a"); !at.Equal(now) {
		t.Fatal("re-push must not reset the queue position")
	}
}

func TestQueueDepthsAndOrdered(t *testing.T) {
	q := NewQueue()
	now := time.Now()
	q.Push(qcall("c1", model.TierCritical), now)
	q.Push(qcall("r1", model.TierRoutine), now)
	q.Push(qcall("c2", model.TierCritical), now)

	d := q.Depths()
	if d[model.TierCritical] != 2 || d[model.TierRoutine] != 1 || d[model.TierUrgent] != 0 {
		t.Fatalf("unexpected depths %v", d)
	}

	ordered := q.Ordered()
	ids := []string{ordered[0].ID, ordered[1].ID, ordered[2].ID}
	if ids[0] != "c1" || ids[1] != "c2" || ids[2] != "r1" {
		t.Fatalf("unexpected order %v", ids)
	}
	if q.Len() != 3 {
		t.Fatal("ordered snapshot must not drain the queue")
	}
	// The heap must stay consistent after a snapshot.
	if !q.Remove("c2") {
		t.Fatal("remove after snapshot failed")
	}
	if c, _ := q.Pop(); c.ID != "c1" {
		t.Fatalf("heap corrupted after snapshot, got %s", c.ID)
	}
}

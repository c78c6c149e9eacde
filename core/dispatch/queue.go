package dispatch

import (
	"container/heap"
	"sort"
	"time"

	"github.com/careline/dispatch/core/model"
)

// item is one queued call plus its ordering key.
type item struct {
	call     *model.EmergencyCall
	queuedAt time.Time
	seq      uint64
	index    int
}

type callHeap []*item

func (h callHeap) Len() int { return len(h) }

// Higher tiers first; within a tier, strict arrival order.
func (h callHeap) Less(i, j int) bool {
	if h[i].call.Tier != h[j].call.Tier {
		return h[i].call.Tier > h[j].call.Tier
	}
	return h[i].seq < h[j].seq
}

func (h callHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *callHeap) Push(x any) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *callHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// Queue orders waiting calls by priority tier, FIFO within a tier. It is not
// safe for concurrent use; the manager serializes access under its pairing
// lock.
type Queue struct {
	h    callHeap
	byID map[string]*item
	seq  uint64
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{byID: make(map[string]*item)}
}

// Push enqueues a call. Re-pushing an already queued call is a no-op.
func (q *Queue) Push(call *model.EmergencyCall, at time.Time) {
	if _, ok := q.byID[call.ID]; ok {
		return
	}
	q.seq++
	it := &item{call: call, queuedAt: at, seq: q.seq}
	q.byID[call.ID] = it
	heap.Push(&q.h, it)
}

// Pop removes and returns the highest-priority call.
func (q *Queue) Pop() (*model.EmergencyCall, bool) {
	if q.h.Len() == 0 {
		return nil, false
	}
	it := heap.Pop(&q.h).(*item)
	delete(q.byID, it.call.ID)
	return it.call, true
}

// Remove takes a specific call out of the queue.
func (q *Queue) Remove(callID string) bool {
	it, ok := q.byID[callID]
	if !ok {
		return false
	}
	heap.Remove(&q.h, it.index)
	delete(q.byID, callID)
	return true
}

// Contains reports whether the call is still waiting.
func (q *Queue) Contains(callID string) bool {
	_, ok := q.byID[callID]
	return ok
}

// QueuedAt returns when the call entered the queue.
func (q *Queue) QueuedAt(callID string) (time.Time, bool) {
	it, ok := q.byID[callID]
	if !ok {
		return time.Time{}, false
	}
	return it.queuedAt, true
}

// Len is the number of waiting calls.
func (q *Queue) Len() int { return q.h.Len() }

// Depths counts waiting calls per tier. Every tier is present in the result
// so gauges drop back to zero.
func (q *Queue) Depths() map[model.PriorityTier]int {
	d := map[model.PriorityTier]int{
		model.TierRoutine:   0,
		model.TierUrgent:    0,
		model.TierEmergency: 0,
		model.TierCritical:  0,
	}
	for _, it := range q.h {
		d[it.call.Tier]++
	}
	return d
}

// Ordered returns the waiting calls in service order without removing them.
func (q *Queue) Ordered() []*model.EmergencyCall {
	// Sorting a copy keeps the heap's internal indices untouched.
	cp := make([]*item, len(q.h))
	copy(cp, q.h)
	sort.Slice(cp, func(i, j int) bool {
		if cp[i].call.Tier != cp[j].call.Tier {
			return cp[i].call.Tier > cp[j].call.Tier
		}
		return cp[i].seq < cp[j].seq
	})
	out := make([]*model.EmergencyCall, len(cp))
	for i, it := range cp {
		out[i] = it.call
	}
	return out
}

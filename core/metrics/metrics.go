// Package metrics defines the measurement surface of the dispatch core.
// Implementations live under infra/metrics; the core only ever talks to the
// Sink interface so observability backends stay swappable.
package metrics

import (
	"time"

	"github.com/careline/dispatch/core/model"
)

// Sink receives dispatch measurements. Implementations must be safe for
// concurrent use and must never block the caller.
type Sink interface {
	// CallQueued counts a call entering the queue at the given tier.
	CallQueued(tier model.PriorityTier)
	// AssignmentCreated records a successful pairing. Latency is the time
	// from queue entry to pairing, approximate marks a degraded ETA.
	AssignmentCreated(latency time.Duration, approximate bool)
	// Transition counts an assignment reaching the given state.
	Transition(to model.DispatchState)
	// QueueDepth reports the current number of waiting calls per tier.
	QueueDepth(tier model.PriorityTier, depth int)
	// RoutingFallback counts a routing estimate served by the degraded path.
	RoutingFallback()
	// ResponseTime records matched-to-on-scene duration for a completed run.
	ResponseTime(tier model.PriorityTier, d time.Duration)
}

// NopSink drops every measurement. It is the default when no backend is
// configured.
type NopSink struct{}

func (NopSink) CallQueued(model.PriorityTier)                  {}
func (NopSink) AssignmentCreated(time.Duration, bool)          {}
func (NopSink) Transition(model.DispatchState)                 {}
func (NopSink) QueueDepth(model.PriorityTier, int)             {}
func (NopSink) RoutingFallback()                               {}
func (NopSink) ResponseTime(model.PriorityTier, time.Duration) {}

var _ Sink = NopSink{}

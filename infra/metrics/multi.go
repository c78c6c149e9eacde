package metrics

import (
	"time"

	coremetrics "github.com/careline/dispatch/core/metrics"
	"github.com/careline/dispatch/core/model"
)

// MultiSink fans every measurement out to multiple backends.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) CallQueued(tier model.PriorityTier) {
	for _, s := range m.Sinks {
		s.CallQueued(tier)
	}
}

func (m *MultiSink) AssignmentCreated(latency time.Duration, approximate bool) {
	for _, s := range m.Sinks {
		s.AssignmentCreated(latency, approximate)
	}
}

func (m *MultiSink) Transition(to model.DispatchState) {
	for _, s := range m.Sinks {
		s.Transition(to)
	}
}

func (m *MultiSink) QueueDepth(tier model.PriorityTier, depth int) {
	for _, s := range m.Sinks {
		s.QueueDepth(tier, depth)
	}
}

func (m *MultiSink) RoutingFallback() {
	for _, s := range m.Sinks {
		s.RoutingFallback()
	}
}

func (m *MultiSink) ResponseTime(tier model.PriorityTier, d time.Duration) {
	for _, s := range m.Sinks {
		s.ResponseTime(tier, d)
	}
}

var _ coremetrics.Sink = (*MultiSink)(nil)

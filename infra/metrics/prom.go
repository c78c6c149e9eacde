// Package metrics provides the Prometheus and InfluxDB backends behind the
// core metrics sink.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/careline/dispatch/core/metrics"
	"github.com/careline/dispatch/core/model"
)

// PromSink exposes dispatch measurements as Prometheus metrics.
type PromSink struct {
	queued       *prometheus.CounterVec
	assignments  *prometheus.CounterVec
	matchLatency prometheus.Histogram
	transitions  *prometheus.CounterVec
	queueDepth   *prometheus.GaugeVec
	fallbacks    prometheus.Counter
	responseTime *prometheus.HistogramVec
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The scrape server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		queued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_calls_queued_total",
			Help: "Calls accepted into the dispatch queue",
		}, []string{"tier"}),
		assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_assignments_total",
			Help: "Call-vehicle pairings created",
		}, []string{"approximate"}),
		matchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_match_latency_seconds",
			Help:    "Time from queue entry to pairing",
			Buckets: prometheus.DefBuckets,
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_transitions_total",
			Help: "Assignment state transitions",
		}, []string{"state"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Calls currently waiting, per tier",
		}, []string{"tier"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dispatch_routing_fallback_total",
			Help: "Estimates served by the straight-line fallback",
		}),
		responseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_response_time_seconds",
			Help:    "Time from pairing to arrival on scene",
			Buckets: []float64{60, 120, 240, 480, 600, 900, 1800},
		}, []string{"tier"}),
	}

	collectors := []prometheus.Collector{
		s.queued, s.assignments, s.matchLatency, s.transitions,
		s.queueDepth, s.fallbacks, s.responseTime,
	}
	for i, c := range collectors {
		existing, err := register(reg, c)
		if err != nil {
			return nil, err
		}
		collectors[i] = existing
	}
	s.queued = collectors[0].(*prometheus.CounterVec)
	s.assignments = collectors[1].(*prometheus.CounterVec)
	s.matchLatency = collectors[2].(prometheus.Histogram)
	s.transitions = collectors[3].(*prometheus.CounterVec)
	s.queueDepth = collectors[4].(*prometheus.GaugeVec)
	s.fallbacks = collectors[5].(prometheus.Counter)
	s.responseTime = collectors[6].(*prometheus.HistogramVec)
	return s, nil
}

// register tolerates double registration so tests and restarts can share the
// global registerer.
func register(reg prometheus.Registerer, c prometheus.Collector) (prometheus.Collector, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector, nil
		}
		return nil, err
	}
	return c, nil
}

func (s *PromSink) CallQueued(tier model.PriorityTier) {
	s.queued.WithLabelValues(tier.String()).Inc()
}

func (s *PromSink) AssignmentCreated(latency time.Duration, approximate bool) {
	s.assignments.WithLabelValues(strconv.FormatBool(approximate)).Inc()
	s.matchLatency.Observe(latency.Seconds())
}

func (s *PromSink) Transition(to model.DispatchState) {
	s.transitions.WithLabelValues(string(to)).Inc()
}

func (s *PromSink) QueueDepth(tier model.PriorityTier, depth int) {
	s.queueDepth.WithLabelValues(tier.String()).Set(float64(depth))
}

func (s *PromSink) RoutingFallback() {
	s.fallbacks.Inc()
}

func (s *PromSink) ResponseTime(tier model.PriorityTier, d time.Duration) {
	s.responseTime.WithLabelValues(tier.String()).Observe(d.Seconds())
}

var _ coremetrics.Sink = (*PromSink)(nil)

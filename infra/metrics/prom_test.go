package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/careline/dispatch/core/model"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	sink.CallQueued(model.TierCritical)
	sink.CallQueued(model.TierCritical)
	sink.QueueDepth(model.TierCritical, 2)
	sink.AssignmentCreated(3*time.Second, true)
	sink.Transition(model.StateMatched)
	sink.RoutingFallback()
	sink.ResponseTime(model.TierCritical, 5*time.Minute)

	require.Equal(t, 2.0, testutil.ToFloat64(sink.queued.WithLabelValues("critical")))
	require.Equal(t, 2.0, testutil.ToFloat64(sink.queueDepth.WithLabelValues("critical")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.assignments.WithLabelValues("true")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.transitions.WithLabelValues("matched")))
	require.Equal(t, 1.0, testutil.ToFloat64(sink.fallbacks))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	// A second sink on the same registry must reuse the collectors.
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	sink.CallQueued(model.TierRoutine)
	require.Equal(t, 1.0, testutil.ToFloat64(sink.queued.WithLabelValues("routine")))
}

package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/careline/dispatch/core/metrics"
	"github.com/careline/dispatch/core/model"
	"github.com/careline/dispatch/infra/logger"
)

// InfluxSink streams dispatch events to InfluxDB for response-time analytics.
// It uses the asynchronous write API so the dispatch path never waits on the
// database.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPI(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// when the health check fails, so a down analytics store never blocks
// startup.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close flushes buffered points and releases the client.
func (s *InfluxSink) Close() {
	s.writeAPI.Flush()
	s.client.Close()
}

func (s *InfluxSink) CallQueued(tier model.PriorityTier) {
	s.writeAPI.WritePoint(write.NewPointWithMeasurement("call_queued").
		AddTag("tier", tier.String()).
		AddField("count", 1).
		SetTime(time.Now()))
}

func (s *InfluxSink) AssignmentCreated(latency time.Duration, approximate bool) {
	s.writeAPI.WritePoint(write.NewPointWithMeasurement("assignment_created").
		AddTag("approximate", strconv.FormatBool(approximate)).
		AddField("match_latency_ms", latency.Milliseconds()).
		SetTime(time.Now()))
}

func (s *InfluxSink) Transition(to model.DispatchState) {
	s.writeAPI.WritePoint(write.NewPointWithMeasurement("assignment_transition").
		AddTag("state", string(to)).
		AddField("count", 1).
		SetTime(time.Now()))
}

func (s *InfluxSink) QueueDepth(tier model.PriorityTier, depth int) {
	s.writeAPI.WritePoint(write.NewPointWithMeasurement("queue_depth").
		AddTag("tier", tier.String()).
		AddField("depth", depth).
		SetTime(time.Now()))
}

func (s *InfluxSink) RoutingFallback() {
	s.writeAPI.WritePoint(write.NewPointWithMeasurement("routing_fallback").
		AddField("count", 1).
		SetTime(time.Now()))
}

func (s *InfluxSink) ResponseTime(tier model.PriorityTier, d time.Duration) {
	s.writeAPI.WritePoint(write.NewPointWithMeasurement("response_time").
		AddTag("tier", tier.String()).
		AddField("seconds", d.Seconds()).
		SetTime(time.Now()))
}

var _ coremetrics.Sink = (*InfluxSink)(nil)

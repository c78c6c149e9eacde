package routing

import (
	"context"

	"github.com/careline/dispatch/core/geo"
	"github.com/careline/dispatch/core/logger"
	"github.com/careline/dispatch/core/model"
)

// DegradedClient wraps an oracle client with a bounded timeout and a
// straight-line fallback. Estimate never blocks past the configured timeout
// and never fails while a fallback can be computed.
type DegradedClient struct {
	inner Client
	cfg   Config
	log   logger.Logger
}

// NewDegradedClient decorates inner with the fallback policy. inner may be
// nil, in which case every estimate takes the degraded path.
func NewDegradedClient(inner Client, cfg Config, log logger.Logger) *DegradedClient {
	cfg.SetDefaults()
	return &DegradedClient{inner: inner, cfg: cfg, log: log}
}

// Estimate asks the oracle within the configured timeout; on failure or
// expiry it answers with the straight-line estimate flagged approximate.
func (d *DegradedClient) Estimate(ctx context.Context, origin, destination geo.Point, c Constraints) (Estimate, error) {
	if !origin.Valid() || !destination.Valid() {
		return Estimate{}, &model.ValidationError{Field: "coordinates", Reason: "out of range"}
	}
	if d.inner == nil {
		return StraightLine(origin, destination, d.cfg.AverageSpeedKMH), nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.timeout())
	defer cancel()

	type result struct {
		est Estimate
		err error
	}
	ch := make(chan result, 1)
	go func() {
		est, err := d.inner.Estimate(ctx, origin, destination, c)
		ch <- result{est, err}
	}()

	select {
	case res := <-ch:
		if res.err == nil {
			return res.est, nil
		}
		if d.log != nil {
			d.log.Warnf("routing oracle failed, using degraded estimate: %v", res.err)
		}
	case <-ctx.Done():
		if d.log != nil {
			d.log.Warnf("routing oracle timed out after %v, using degraded estimate", d.cfg.timeout())
		}
	}
	return StraightLine(origin, destination, d.cfg.AverageSpeedKMH), nil
}

// AverageSpeedKMH exposes the configured fallback speed so callers can
// recompute approximate durations with better speed observations.
func (d *DegradedClient) AverageSpeedKMH() float64 { return d.cfg.AverageSpeedKMH }

var _ Client = (*DegradedClient)(nil)

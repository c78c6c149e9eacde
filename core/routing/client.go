// Package routing abstracts the external routing oracle. The dispatch core
// depends only on the Client interface; the concrete provider lives in
// infra/routing. A degraded straight-line estimate is always available so
// callers never block on a slow or dead oracle.
package routing

import (
	"context"
	"time"

	"github.com/careline/dispatch/core/geo"
)

// Route is one way of getting from origin to destination.
type Route struct {
	DistanceMeters float64       `json:"distance_meters"`
	Duration       time.Duration `json:"duration"`
	Polyline       string        `json:"polyline,omitempty"`
}

// Estimate is the oracle's answer for an origin/destination pair.
// Approximate marks estimates produced by the local fallback; callers must
// treat those as lower confidence.
type Estimate struct {
	Route
	Alternatives []Route `json:"alternatives,omitempty"`
	Approximate  bool    `json:"approximate"`
}

// Constraints tune a routing request.
type Constraints struct {
	DepartAt   time.Time
	AvoidTolls bool
}

// Client answers travel estimates between two points.
type Client interface {
	Estimate(ctx context.Context, origin, destination geo.Point, c Constraints) (Estimate, error)
}

// Config bounds oracle calls and parameterizes the fallback.
type Config struct {
	// TimeoutMS caps every oracle call; on expiry the degraded path answers.
	TimeoutMS int `json:"timeout_ms" yaml:"timeout_ms"`
	// AverageSpeedKMH is the assumed travel speed for straight-line estimates.
	AverageSpeedKMH float64 `json:"average_speed_kmh" yaml:"average_speed_kmh"`
}

// SetDefaults applies the standard low-latency bounds.
func (c *Config) SetDefaults() {
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 300
	}
	if c.AverageSpeedKMH == 0 {
		c.AverageSpeedKMH = 40
	}
}

func (c Config) timeout() time.Duration { return time.Duration(c.TimeoutMS) * time.Millisecond }

// StraightLine computes the local fallback estimate: haversine distance at
// the given assumed speed. The result is always flagged approximate.
func StraightLine(origin, destination geo.Point, speedKMH float64) Estimate {
	dist := geo.DistanceMeters(origin, destination)
	metersPerSecond := speedKMH / 3.6
	var dur time.Duration
	if metersPerSecond > 0 {
		dur = time.Duration(dist / metersPerSecond * float64(time.Second))
	}
	return Estimate{
		Route:       Route{DistanceMeters: dist, Duration: dur},
		Approximate: true,
	}
}

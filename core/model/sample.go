package model

import (
	"time"

	"github.com/careline/dispatch/core/geo"
)

// LocationSample is one position report from a vehicle. Samples are
// append-only; the location store keeps a bounded window per vehicle.
type LocationSample struct {
	VehicleID  string    `json:"vehicle_id"`
	Position   geo.Point `json:"position"`
	AccuracyM  float64   `json:"accuracy_m,omitempty"`
	SpeedKMH   float64   `json:"speed_kmh,omitempty"`
	HeadingDeg float64   `json:"heading_deg,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source,omitempty"`
}

// Same reports whether two samples are duplicates for ingestion purposes:
// identical timestamp and position. Duplicate reports are a no-op.
func (s LocationSample) Same(o LocationSample) bool {
	return s.Timestamp.Equal(o.Timestamp) && s.Position == o.Position
}

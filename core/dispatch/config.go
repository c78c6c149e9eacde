package dispatch

import "fmt"

// Config tunes the matching loop and the automatic geofence transitions.
type Config struct {
	// MatchIntervalSeconds is how often the matcher sweeps the queue even
	// without a new call or freed vehicle.
	MatchIntervalSeconds int `json:"match_interval_seconds" yaml:"match_interval_seconds"`
	// SceneRadiusM is the arrival geofence around the incident.
	SceneRadiusM float64 `json:"scene_radius_m" yaml:"scene_radius_m"`
	// FacilityRadiusM is the arrival geofence around the destination.
	FacilityRadiusM float64 `json:"facility_radius_m" yaml:"facility_radius_m"`
	// ResponseTargetSeconds is the wait beyond which a call is flagged
	// overdue on the query surface.
	ResponseTargetSeconds int `json:"response_target_seconds" yaml:"response_target_seconds"`
}

// SetDefaults applies the standard operating policy.
func (c *Config) SetDefaults() {
	if c.MatchIntervalSeconds == 0 {
		c.MatchIntervalSeconds = 5
	}
	if c.SceneRadiusM == 0 {
		c.SceneRadiusM = 100
	}
	if c.FacilityRadiusM == 0 {
		c.FacilityRadiusM = 150
	}
	if c.ResponseTargetSeconds == 0 {
		c.ResponseTargetSeconds = 480
	}
}

// Validate rejects configurations the matcher cannot run with.
func (c Config) Validate() error {
	if c.MatchIntervalSeconds < 0 {
		return fmt.Errorf("match_interval_seconds must be positive")
	}
	if c.SceneRadiusM < 0 || c.FacilityRadiusM < 0 {
		return fmt.Errorf("geofence radii must be positive")
	}
	return nil
}

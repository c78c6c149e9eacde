package model

import (
	"time"

	"github.com/careline/dispatch/core/geo"
)

// Facility is a receiving destination. Capability tags are static; the live
// capacity snapshot is supplied by an external feed and is read-only here.
type Facility struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    geo.Point `json:"location"`
	TraumaLevel int       `json:"trauma_level"` // 0 = not a trauma center, 1 is highest
	Specialties []string  `json:"specialties"`
}

// HasSpecialty reports whether the facility carries the named specialty unit.
func (f Facility) HasSpecialty(name string) bool {
	for _, s := range f.Specialties {
		if s == name {
			return true
		}
	}
	return false
}

// CapacitySnapshot is the externally refreshed view of a facility's capacity.
type CapacitySnapshot struct {
	FacilityID    string    `json:"facility_id"`
	AvailableBeds int       `json:"available_beds"`
	Diversion     bool      `json:"diversion"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Stale reports whether the snapshot is older than maxAge.
func (s CapacitySnapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return s.UpdatedAt.IsZero() || now.Sub(s.UpdatedAt) > maxAge
}

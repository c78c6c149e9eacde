// Package location holds the last-known and historical position of every
// vehicle. Each vehicle's record is synchronized independently so concurrent
// reports from different vehicles never contend with each other.
package location

import (
	"iter"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/careline/dispatch/core/model"
)

// Config bounds the retained history per vehicle.
type Config struct {
	// MaxSamples caps the number of retained samples per vehicle.
	MaxSamples int `json:"max_samples" yaml:"max_samples"`
	// WindowSeconds drops samples older than this window behind the newest.
	WindowSeconds int `json:"window_seconds" yaml:"window_seconds"`
}

// SetDefaults applies sane retention bounds.
func (c *Config) SetDefaults() {
	if c.MaxSamples == 0 {
		c.MaxSamples = 120
	}
	if c.WindowSeconds == 0 {
		c.WindowSeconds = 3600
	}
}

func (c Config) window() time.Duration { return time.Duration(c.WindowSeconds) * time.Second }

// Store keeps a bounded, timestamp-ordered sample window per vehicle.
type Store struct {
	cfg Config

	mu     sync.RWMutex
	tracks map[string]*track
}

type track struct {
	mu sync.Mutex
	// samples are kept sorted by timestamp ascending; the last element is the
	// current position.
	samples []model.LocationSample
}

// NewStore creates a store with the given retention bounds.
func NewStore(cfg Config) *Store {
	cfg.SetDefaults()
	return &Store{cfg: cfg, tracks: make(map[string]*track)}
}

func (s *Store) trackFor(vehicleID string) *track {
	s.mu.RLock()
	tr := s.tracks[vehicleID]
	s.mu.RUnlock()
	if tr != nil {
		return tr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tr = s.tracks[vehicleID]; tr == nil {
		tr = &track{}
		s.tracks[vehicleID] = tr
	}
	return tr
}

// Record appends a sample to the vehicle's history. Duplicate reports
// (identical timestamp and position) are a no-op. Out-of-order samples are
// inserted into history at their timestamp position but never displace the
// current position, which is always the highest-timestamp sample seen.
func (s *Store) Record(sample model.LocationSample) {
	if sample.VehicleID == "" || !sample.Position.Valid() {
		return
	}
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	tr := s.trackFor(sample.VehicleID)
	tr.mu.Lock()
	defer tr.mu.Unlock()

	i := sort.Search(len(tr.samples), func(i int) bool {
		return !tr.samples[i].Timestamp.Before(sample.Timestamp)
	})
	// Several retained samples may share the timestamp; a duplicate of any
	// of them is a no-op.
	for j := i; j < len(tr.samples) && tr.samples[j].Timestamp.Equal(sample.Timestamp); j++ {
		if tr.samples[j].Same(sample) {
			return
		}
	}
	tr.samples = append(tr.samples, model.LocationSample{})
	copy(tr.samples[i+1:], tr.samples[i:])
	tr.samples[i] = sample

	s.evictLocked(tr)
}

// evictLocked enforces the retention window and sample cap, dropping the
// oldest samples first. The newest sample is always retained.
func (s *Store) evictLocked(tr *track) {
	if n := len(tr.samples); n > s.cfg.MaxSamples {
		tr.samples = append(tr.samples[:0], tr.samples[n-s.cfg.MaxSamples:]...)
	}
	latest := tr.samples[len(tr.samples)-1].Timestamp
	cutoff := latest.Add(-s.cfg.window())
	i := 0
	for i < len(tr.samples)-1 && tr.samples[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		tr.samples = append(tr.samples[:0], tr.samples[i:]...)
	}
}

// Current returns the most recent sample for the vehicle, or false when no
// position has ever been reported.
func (s *Store) Current(vehicleID string) (model.LocationSample, bool) {
	s.mu.RLock()
	tr := s.tracks[vehicleID]
	s.mu.RUnlock()
	if tr == nil {
		return model.LocationSample{}, false
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if len(tr.samples) == 0 {
		return model.LocationSample{}, false
	}
	return tr.samples[len(tr.samples)-1], true
}

// History returns the retained samples at or after since, in timestamp order.
// The sequence is lazy and restartable: each range re-reads a fresh snapshot.
func (s *Store) History(vehicleID string, since time.Time) iter.Seq[model.LocationSample] {
	return func(yield func(model.LocationSample) bool) {
		for _, sm := range s.snapshot(vehicleID) {
			if sm.Timestamp.Before(since) {
				continue
			}
			if !yield(sm) {
				return
			}
		}
	}
}

func (s *Store) snapshot(vehicleID string) []model.LocationSample {
	s.mu.RLock()
	tr := s.tracks[vehicleID]
	s.mu.RUnlock()
	if tr == nil {
		return nil
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]model.LocationSample, len(tr.samples))
	copy(out, tr.samples)
	return out
}

// AverageSpeedKMH returns the mean reported speed over the retained window,
// ignoring stationary samples. Used to sharpen degraded ETA estimates.
func (s *Store) AverageSpeedKMH(vehicleID string) (float64, bool) {
	var speeds []float64
	for _, sm := range s.snapshot(vehicleID) {
		if sm.SpeedKMH > 0 {
			speeds = append(speeds, sm.SpeedKMH)
		}
	}
	if len(speeds) == 0 {
		return 0, false
	}
	return stat.Mean(speeds, nil), true
}

// Vehicles lists every vehicle id with at least one recorded sample.
func (s *Store) Vehicles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.tracks))
	for id := range s.tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

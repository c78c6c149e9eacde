package facility

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/careline/dispatch/core/geo"
	"github.com/careline/dispatch/core/logger"
	"github.com/careline/dispatch/core/model"
	"github.com/careline/dispatch/core/routing"
)

// Config tunes the ranking policy.
type Config struct {
	// SpecialtyBonusSeconds is how much travel time a required-specialty
	// match is worth when ranking.
	SpecialtyBonusSeconds float64 `json:"specialty_bonus_seconds" yaml:"specialty_bonus_seconds"`
	// KeywordBonusSeconds is credited per condition keyword carried by the
	// facility's specialty tags.
	KeywordBonusSeconds float64 `json:"keyword_bonus_seconds" yaml:"keyword_bonus_seconds"`
	// SnapshotMaxAgeSeconds marks capacity data older than this as stale.
	SnapshotMaxAgeSeconds int `json:"snapshot_max_age_seconds" yaml:"snapshot_max_age_seconds"`
	// MaxResults caps the ranked list; zero means no cap.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// SetDefaults applies the standard ranking policy.
func (c *Config) SetDefaults() {
	if c.SpecialtyBonusSeconds == 0 {
		c.SpecialtyBonusSeconds = 600
	}
	if c.KeywordBonusSeconds == 0 {
		c.KeywordBonusSeconds = 120
	}
	if c.SnapshotMaxAgeSeconds == 0 {
		c.SnapshotMaxAgeSeconds = 900
	}
}

// Profile describes what the patient needs from a destination.
type Profile struct {
	Keywords          []string `json:"keywords,omitempty"`
	RequiredSpecialty string   `json:"required_specialty,omitempty"`
}

// Ranked is one candidate destination with its ranking inputs exposed, so
// dashboards can show why a facility was chosen.
type Ranked struct {
	Facility model.Facility         `json:"facility"`
	Capacity model.CapacitySnapshot `json:"capacity"`
	Travel   routing.Estimate       `json:"travel"`
	Score    float64                `json:"score"`
	// BestEffort marks results returned despite every facility being on
	// diversion; the caller should surface a warning.
	BestEffort bool `json:"best_effort,omitempty"`
	// Stale marks rankings computed from an outdated capacity snapshot.
	Stale bool `json:"stale,omitempty"`
}

// Selector ranks facilities for a patient profile and incident location.
type Selector struct {
	store *Store
	route routing.Client
	cfg   Config
	log   logger.Logger
	now   func() time.Time
}

// NewSelector builds a selector over the registry and routing client.
func NewSelector(store *Store, route routing.Client, cfg Config, log logger.Logger) *Selector {
	cfg.SetDefaults()
	return &Selector{store: store, route: route, cfg: cfg, log: log, now: time.Now}
}

// Rank returns candidate facilities ordered best-first. Facilities on
// diversion are filtered out unless none remain, in which case the full list
// is ranked best-effort with a warning flag. A routing oracle outage degrades
// travel estimates but never fails the ranking.
func (s *Selector) Rank(ctx context.Context, profile Profile, incident geo.Point) ([]Ranked, error) {
	all := s.store.List()
	if len(all) == 0 {
		return nil, fmt.Errorf("no facilities registered: %w", model.ErrNotFound)
	}

	candidates, bestEffort := s.filterDiversion(all)
	ranked := make([]Ranked, len(candidates))
	var wg sync.WaitGroup
	for i, f := range candidates {
		wg.Add(1)
		go func(i int, f model.Facility) {
			defer wg.Done()
			ranked[i] = s.rankOne(ctx, profile, incident, f, bestEffort)
		}(i, f)
	}
	wg.Wait()

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score < ranked[j].Score
		}
		if ranked[i].Capacity.AvailableBeds != ranked[j].Capacity.AvailableBeds {
			return ranked[i].Capacity.AvailableBeds > ranked[j].Capacity.AvailableBeds
		}
		return ranked[i].Facility.ID < ranked[j].Facility.ID
	})
	if s.cfg.MaxResults > 0 && len(ranked) > s.cfg.MaxResults {
		ranked = ranked[:s.cfg.MaxResults]
	}
	return ranked, nil
}

func (s *Selector) filterDiversion(all []model.Facility) ([]model.Facility, bool) {
	open := make([]model.Facility, 0, len(all))
	for _, f := range all {
		if snap, ok := s.store.Capacity(f.ID); ok && snap.Diversion {
			continue
		}
		open = append(open, f)
	}
	if len(open) == 0 {
		if s.log != nil {
			s.log.Warnf("all %d facilities on diversion, ranking best-effort", len(all))
		}
		return all, true
	}
	return open, false
}

func (s *Selector) rankOne(ctx context.Context, profile Profile, incident geo.Point, f model.Facility, bestEffort bool) Ranked {
	est, err := s.route.Estimate(ctx, incident, f.Location, routing.Constraints{})
	if err != nil {
		// Even the degraded path failed; rank on straight-line distance so
		// the selection still completes.
		est = routing.StraightLine(incident, f.Location, 1)
		est.Duration = 0
	}

	score := est.Duration.Seconds()
	if est.Duration == 0 {
		// Distance-only degradation: scale meters so ordering stays sensible.
		score = est.DistanceMeters
	}
	if profile.RequiredSpecialty != "" && f.HasSpecialty(profile.RequiredSpecialty) {
		score -= s.cfg.SpecialtyBonusSeconds
	}
	for _, kw := range profile.Keywords {
		if f.HasSpecialty(kw) {
			score -= s.cfg.KeywordBonusSeconds
		}
	}

	snap, ok := s.store.Capacity(f.ID)
	stale := !ok || snap.Stale(s.now(), time.Duration(s.cfg.SnapshotMaxAgeSeconds)*time.Second)
	return Ranked{
		Facility:   f,
		Capacity:   snap,
		Travel:     est,
		Score:      score,
		BestEffort: bestEffort,
		Stale:      stale,
	}
}

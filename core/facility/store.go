// Package facility ranks receiving destinations for a patient. Capacity data
// is supplied by an external feed and is read-only to the dispatch core.
package facility

import (
	"sort"
	"sync"

	"github.com/careline/dispatch/core/model"
)

// Store is the in-memory registry of facilities and their latest capacity
// snapshots.
type Store struct {
	mu         sync.RWMutex
	facilities map[string]model.Facility
	capacity   map[string]model.CapacitySnapshot
}

// NewStore returns an empty registry.
func NewStore() *Store {
	return &Store{
		facilities: make(map[string]model.Facility),
		capacity:   make(map[string]model.CapacitySnapshot),
	}
}

// Put registers or replaces a facility.
func (s *Store) Put(f model.Facility) {
	s.mu.Lock()
	s.facilities[f.ID] = f
	s.mu.Unlock()
}

// Get returns the facility by id.
func (s *Store) Get(id string) (model.Facility, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.facilities[id]
	return f, ok
}

// List returns all facilities ordered by id.
func (s *Store) List() []model.Facility {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Facility, 0, len(s.facilities))
	for _, f := range s.facilities {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateCapacity stores the latest snapshot from the external feed. Snapshots
// for unknown facilities are kept; the facility may register later.
func (s *Store) UpdateCapacity(snap model.CapacitySnapshot) {
	s.mu.Lock()
	s.capacity[snap.FacilityID] = snap
	s.mu.Unlock()
}

// Capacity returns the latest snapshot for the facility.
func (s *Store) Capacity(id string) (model.CapacitySnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.capacity[id]
	return c, ok
}

package dispatch

import (
	"sort"
	"sync"

	"github.com/careline/dispatch/core/model"
)

// Fleet is the in-memory registry of transport units. Status changes during
// pairing always go through the manager so that availability checks and
// reservations stay atomic.
type Fleet struct {
	mu       sync.RWMutex
	vehicles map[string]model.Vehicle
}

// NewFleet returns an empty registry.
func NewFleet() *Fleet {
	return &Fleet{vehicles: make(map[string]model.Vehicle)}
}

// Upsert registers a vehicle or updates its metadata. The operational status
// of a known vehicle is preserved; only the manager moves it.
func (f *Fleet) Upsert(v model.Vehicle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.vehicles[v.ID]; ok {
		v.Status = cur.Status
	} else if v.Status == "" {
		v.Status = model.VehicleAvailable
	}
	f.vehicles[v.ID] = v
}

// Get returns the vehicle by ID.
func (f *Fleet) Get(id string) (model.Vehicle, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.vehicles[id]
	return v, ok
}

// SetStatus moves a vehicle to the given operational status.
func (f *Fleet) SetStatus(id string, status model.VehicleStatus) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return false
	}
	v.Status = status
	f.vehicles[id] = v
	return true
}

// Dispatchable lists available vehicles meeting the minimum capability.
func (f *Fleet) Dispatchable(min model.CapabilityClass) []model.Vehicle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]model.Vehicle, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		if v.Dispatchable() && v.Class.Satisfies(min) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// All lists every vehicle sorted by ID.
func (f *Fleet) All() []model.Vehicle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]model.Vehicle, 0, len(f.vehicles))
	for _, v := range f.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

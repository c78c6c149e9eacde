// Package events defines the outbound events the dispatch core publishes.
// Consumers subscribe independently through the typed buses; the core never
// waits on delivery.
package events

import (
	"time"

	"github.com/careline/dispatch/core/model"
	"github.com/careline/dispatch/internal/eventbus"
)

// CallQueued is published when a scored call enters the dispatch queue.
type CallQueued struct {
	CallID string             `json:"call_id"`
	Number string             `json:"number"`
	Tier   model.PriorityTier `json:"tier"`
	Score  float64            `json:"score"`
	At     time.Time          `json:"at"`
}

// AssignmentCreated is published when the matcher pairs a call with a
// vehicle. The notification subsystem consumes it.
type AssignmentCreated struct {
	AssignmentID string        `json:"assignment_id"`
	CallID       string        `json:"call_id"`
	VehicleID    string        `json:"vehicle_id"`
	FacilityID   string        `json:"facility_id,omitempty"`
	ETA          time.Duration `json:"eta"`
	Approximate  bool          `json:"approximate"`
	At           time.Time     `json:"at"`
}

// StateChanged is published on every assignment transition. Analytics and
// live tracking consume it.
type StateChanged struct {
	AssignmentID string              `json:"assignment_id"`
	CallID       string              `json:"call_id"`
	VehicleID    string              `json:"vehicle_id"`
	From         model.DispatchState `json:"from"`
	To           model.DispatchState `json:"to"`
	Actor        string              `json:"actor,omitempty"`
	At           time.Time           `json:"at"`
}

// Buses groups the outbound channels the core publishes on.
type Buses struct {
	Queued      *eventbus.TypedBus[CallQueued]
	Assignments *eventbus.TypedBus[AssignmentCreated]
	Transitions *eventbus.TypedBus[StateChanged]
}

// NewBuses creates the standard set of outbound buses.
func NewBuses() *Buses {
	return &Buses{
		Queued:      eventbus.NewTyped[CallQueued](0),
		Assignments: eventbus.NewTyped[AssignmentCreated](0),
		Transitions: eventbus.NewTyped[StateChanged](0),
	}
}

// Close shuts every bus down.
func (b *Buses) Close() {
	b.Queued.Close()
	b.Assignments.Close()
	b.Transitions.Close()
}

package model

import (
	"fmt"
	"time"
)

// DispatchState is the monotonically advancing state of an assignment.
type DispatchState string

const (
	StateReceived     DispatchState = "received"
	StateScored       DispatchState = "scored"
	StateQueued       DispatchState = "queued"
	StateMatched      DispatchState = "matched"
	StateEnRoute      DispatchState = "en_route"
	StateOnScene      DispatchState = "on_scene"
	StateTransporting DispatchState = "transporting"
	StateAtFacility   DispatchState = "at_facility"
	StateCompleted    DispatchState = "completed"
	StateCancelled    DispatchState = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s DispatchState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// TransitionRecord is one entry of an assignment's status history.
type TransitionRecord struct {
	From  DispatchState `json:"from"`
	To    DispatchState `json:"to"`
	Actor string        `json:"actor,omitempty"`
	Note  string        `json:"note,omitempty"`
	At    time.Time     `json:"at"`
}

// Assignment pairs one call with one vehicle for the duration of a response.
// It is created by the matcher under the pairing lock and advanced by the
// lifecycle machine; timestamps for every state reached are retained.
type Assignment struct {
	ID         string        `json:"id"`
	Number     string        `json:"number"`
	CallID     string        `json:"call_id"`
	VehicleID  string        `json:"vehicle_id"`
	FacilityID string        `json:"facility_id,omitempty"`
	State      DispatchState `json:"state"`
	CreatedAt  time.Time     `json:"created_at"`

	// Routing summary captured at match time.
	ETA            time.Duration `json:"eta"`
	DistanceMeters float64       `json:"distance_meters"`
	ApproximateETA bool          `json:"approximate_eta"`

	Timestamps map[DispatchState]time.Time `json:"timestamps"`
	History    []TransitionRecord          `json:"history"`
}

// AssignmentNumber builds the human-facing identifier, e.g. DISP-20260831-1A2B3C.
func AssignmentNumber(at time.Time, suffix string) string {
	return fmt.Sprintf("DISP-%s-%s", at.Format("20060102"), suffix)
}

// ResponseTime returns the time from match to arrival on scene, if both
// timestamps exist.
func (a Assignment) ResponseTime() (time.Duration, bool) {
	return a.between(StateMatched, StateOnScene)
}

// TransportTime returns the time from leaving the scene to facility arrival.
func (a Assignment) TransportTime() (time.Duration, bool) {
	return a.between(StateTransporting, StateAtFacility)
}

func (a Assignment) between(from, to DispatchState) (time.Duration, bool) {
	start, ok1 := a.Timestamps[from]
	end, ok2 := a.Timestamps[to]
	if !ok1 || !ok2 || end.Before(start) {
		return 0, false
	}
	return end.Sub(start), true
}

// Package lifecycle owns the dispatch state machine. Transition legality is
// encoded as an explicit rank table rather than ad hoc conditionals: a
// transition succeeds only if it moves strictly forward, or targets the
// cancelled state from any non-terminal state.
package lifecycle

import (
	"time"

	"github.com/careline/dispatch/core/model"
)

// rank orders the forward chain. Cancelled is handled separately.
var rank = map[model.DispatchState]int{
	model.StateReceived:     0,
	model.StateScored:       1,
	model.StateQueued:       2,
	model.StateMatched:      3,
	model.StateEnRoute:      4,
	model.StateOnScene:      5,
	model.StateTransporting: 6,
	model.StateAtFacility:   7,
	model.StateCompleted:    8,
}

// vehicleStatus maps a dispatch state to the status the assigned vehicle
// should carry while the assignment is in that state.
var vehicleStatus = map[model.DispatchState]model.VehicleStatus{
	model.StateMatched:      model.VehicleAssigned,
	model.StateEnRoute:      model.VehicleEnRoute,
	model.StateOnScene:      model.VehicleOnScene,
	model.StateTransporting: model.VehicleTransporting,
	model.StateAtFacility:   model.VehicleTransporting,
}

// VehicleStatusFor returns the vehicle status implied by a dispatch state,
// or false when the state does not bind the vehicle (terminal states free it).
func VehicleStatusFor(s model.DispatchState) (model.VehicleStatus, bool) {
	st, ok := vehicleStatus[s]
	return st, ok
}

// Machine validates and applies transitions on assignments. The zero value is
// ready to use; Now may be overridden in tests.
type Machine struct {
	Now func() time.Time
}

func (m Machine) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// CanAdvance reports whether moving from one state to another is legal.
func (m Machine) CanAdvance(from, to model.DispatchState) bool {
	if from.Terminal() {
		return false
	}
	if to == model.StateCancelled {
		return true
	}
	rf, okf := rank[from]
	rt, okt := rank[to]
	if !okf || !okt || rt <= rf {
		return false
	}
	// Completion requires the patient to have been delivered.
	if to == model.StateCompleted && from != model.StateAtFacility {
		return false
	}
	return true
}

// Advance applies a transition, recording the timestamp and a history entry.
// An illegal transition returns an InvariantViolation and leaves the
// assignment untouched.
func (m Machine) Advance(a *model.Assignment, to model.DispatchState, actor, note string) error {
	if a == nil {
		return model.ErrNotFound
	}
	if !m.CanAdvance(a.State, to) {
		return &model.InvariantViolation{
			Op:     "transition",
			Reason: string(a.State) + " -> " + string(to) + " is not a legal move",
		}
	}
	now := m.now()
	a.History = append(a.History, model.TransitionRecord{
		From: a.State, To: to, Actor: actor, Note: note, At: now,
	})
	if a.Timestamps == nil {
		a.Timestamps = make(map[model.DispatchState]time.Time)
	}
	a.Timestamps[to] = now
	a.State = to
	return nil
}

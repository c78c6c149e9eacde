package lifecycle

import (
	"testing"
	"time"

	"github.com/careline/dispatch/core/model"
)

func newAssignment(state model.DispatchState) *model.Assignment {
	return &model.Assignment{ID: "a1", State: state}
}

func TestForwardChain(t *testing.T) {
	m := Machine{}
	a := newAssignment(model.StateReceived)
	chain := []model.DispatchState{
		model.StateScored, model.StateQueued, model.StateMatched,
		model.StateEnRoute, model.StateOnScene, model.StateTransporting,
		model.StateAtFacility, model.StateCompleted,
	}
	for _, next := range chain {
		if err := m.Advance(a, next, "test", ""); err != nil {
			t.Fatalf("advance to %v: %v", next, err)
		}
	}
	if a.State != model.StateCompleted {
		t.Fatalf("expected completed, got %v", a.State)
	}
	if len(a.History) != len(chain) {
		t.Fatalf("expected %d history entries, got %d", len(chain), len(a.History))
	}
}

func TestBackwardMoveRejected(t *testing.T) {
	m := Machine{}
	a := newAssignment(model.StateOnScene)
	err := m.Advance(a, model.StateMatched, "test", "")
	if !model.IsInvariantViolation(err) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	if a.State != model.StateOnScene || len(a.History) != 0 {
		t.Fatal("rejected transition must leave the assignment untouched")
	}
}

func TestForwardSkipAllowed(t *testing.T) {
	// Crew reports can arrive coarse; skipping intermediate states forward is
	// legal as long as the move is monotonic.
	m := Machine{}
	a := newAssignment(model.StateMatched)
	if err := m.Advance(a, model.StateOnScene, "crew", ""); err != nil {
		t.Fatalf("forward skip rejected: %v", err)
	}
}

func TestCompletionOnlyFromFacility(t *testing.T) {
	m := Machine{}
	a := newAssignment(model.StateEnRoute)
	if err := m.Advance(a, model.StateCompleted, "test", ""); !model.IsInvariantViolation(err) {
		t.Fatalf("completion before facility arrival must be rejected, got %v", err)
	}
}

func TestCancelFromAnyNonTerminal(t *testing.T) {
	m := Machine{}
	for _, from := range []model.DispatchState{
		model.StateReceived, model.StateQueued, model.StateMatched,
		model.StateEnRoute, model.StateTransporting,
	} {
		a := newAssignment(from)
		if err := m.Advance(a, model.StateCancelled, "dispatcher", "caller cancelled"); err != nil {
			t.Fatalf("cancel from %v: %v", from, err)
		}
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	m := Machine{}
	for _, from := range []model.DispatchState{model.StateCompleted, model.StateCancelled} {
		a := newAssignment(from)
		for _, to := range []model.DispatchState{model.StateQueued, model.StateEnRoute, model.StateCancelled} {
			if err := m.Advance(a, to, "test", ""); !model.IsInvariantViolation(err) {
				t.Fatalf("%v -> %v must be rejected, got %v", from, to, err)
			}
		}
	}
}

func TestAdvanceRecordsTimestamp(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := Machine{Now: func() time.Time { return fixed }}
	a := newAssignment(model.StateMatched)
	if err := m.Advance(a, model.StateEnRoute, "crew", ""); err != nil {
		t.Fatal(err)
	}
	if !a.Timestamps[model.StateEnRoute].Equal(fixed) {
		t.Fatalf("timestamp not recorded: %+v", a.Timestamps)
	}
}

func TestVehicleStatusFor(t *testing.T) {
	if st, ok := VehicleStatusFor(model.StateEnRoute); !ok || st != model.VehicleEnRoute {
		t.Fatalf("got %v %v", st, ok)
	}
	if _, ok := VehicleStatusFor(model.StateCompleted); ok {
		t.Fatal("terminal state must not bind the vehicle")
	}
}

// Package dispatch holds the decision core of the platform: the call queue,
// the fleet registry and the manager that pairs them. All pairing decisions
// happen under a single lock so a vehicle can never be promised to two calls.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/careline/dispatch/core/events"
	"github.com/careline/dispatch/core/facility"
	"github.com/careline/dispatch/core/geo"
	"github.com/careline/dispatch/core/lifecycle"
	"github.com/careline/dispatch/core/location"
	"github.com/careline/dispatch/core/logger"
	"github.com/careline/dispatch/core/metrics"
	"github.com/careline/dispatch/core/model"
	"github.com/careline/dispatch/core/priority"
	"github.com/careline/dispatch/core/routing"
)

// ActorMatcher tags transitions performed by the automatic matcher.
const ActorMatcher = "matcher"

// Manager owns the dispatch decision state. All mutation of calls,
// assignments and vehicle availability is serialized through mu; routing
// estimates run outside the lock and are re-verified before pairing.
type Manager struct {
	cfg Config

	mu          sync.Mutex
	queue       *Queue
	calls       map[string]*model.EmergencyCall
	assignments map[string]*model.Assignment
	byVehicle   map[string]string // vehicle ID -> active assignment ID
	byCall      map[string]string // call ID -> active assignment ID
	oosPending  map[string]bool   // out-of-service marks deferred until the assignment closes

	fleet      *Fleet
	locations  *location.Store
	route      routing.Client
	engine     priority.Engine
	machine    lifecycle.Machine
	selector   *facility.Selector
	facilities *facility.Store
	buses      *events.Buses
	sink       metrics.Sink
	log        logger.Logger
	validate   *validator.Validate

	trigger chan struct{}
	now     func() time.Time
	newID   func() string
}

// Deps carries the collaborators a Manager needs. Selector and Facilities
// are optional; without them destination selection is skipped.
type Deps struct {
	Fleet      *Fleet
	Locations  *location.Store
	Route      routing.Client
	Engine     priority.Engine
	Selector   *facility.Selector
	Facilities *facility.Store
	Buses      *events.Buses
	Sink       metrics.Sink
	Log        logger.Logger
}

// NewManager wires a manager from its dependencies. Nil Buses, Sink and Log
// fall back to no-ops.
func NewManager(cfg Config, deps Deps) (*Manager, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Fleet == nil || deps.Locations == nil || deps.Route == nil {
		return nil, fmt.Errorf("dispatch: fleet, locations and route are required")
	}
	if deps.Buses == nil {
		deps.Buses = events.NewBuses()
	}
	if deps.Sink == nil {
		deps.Sink = metrics.NopSink{}
	}
	if deps.Log == nil {
		deps.Log = logger.Nop{}
	}
	return &Manager{
		cfg:         cfg,
		queue:       NewQueue(),
		calls:       make(map[string]*model.EmergencyCall),
		assignments: make(map[string]*model.Assignment),
		byVehicle:   make(map[string]string),
		byCall:      make(map[string]string),
		oosPending:  make(map[string]bool),
		fleet:       deps.Fleet,
		locations:   deps.Locations,
		route:       deps.Route,
		engine:      deps.Engine,
		selector:    deps.Selector,
		facilities:  deps.Facilities,
		buses:       deps.Buses,
		sink:        deps.Sink,
		log:         deps.Log,
		validate:    validator.New(),
		trigger:     make(chan struct{}, 1),
		now:         time.Now,
		newID:       uuid.NewString,
	}, nil
}

// numberSuffix derives the short human-facing suffix from a generated ID.
func numberSuffix(id string) string {
	s := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(s) > 6 {
		s = s[:6]
	}
	return s
}

// SubmitCall validates and scores an intake, queues the resulting call and
// nudges the matcher. The returned call carries its tier, score and number.
func (m *Manager) SubmitCall(ctx context.Context, in model.Intake) (model.EmergencyCall, error) {
	if err := m.validate.StructCtx(ctx, in); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			return model.EmergencyCall{}, &model.ValidationError{
				Field:  invalid[0].Field(),
				Reason: "failed " + invalid[0].Tag() + " constraint",
			}
		}
		return model.EmergencyCall{}, err
	}
	if !in.Location.Valid() || in.Location.IsZero() {
		return model.EmergencyCall{}, &model.ValidationError{Field: "Location", Reason: "incident coordinates required"}
	}

	tier, score := m.engine.Score(in)
	now := m.now()
	id := m.newID()
	call := &model.EmergencyCall{
		ID:         id,
		Number:     model.CallNumber(now, numberSuffix(id)),
		ReceivedAt: now,
		Intake:     in,
		Tier:       tier,
		Score:      score,
		Status:     model.CallQueued,
	}

	m.mu.Lock()
	m.calls[call.ID] = call
	m.queue.Push(call, now)
	depths := m.queue.Depths()
	m.mu.Unlock()

	m.buses.Queued.Publish(events.CallQueued{
		CallID: call.ID, Number: call.Number, Tier: tier, Score: score, At: now,
	})
	m.sink.CallQueued(tier)
	m.reportDepths(depths)
	m.log.Debugw("call queued", map[string]any{
		"call": call.Number, "tier": tier.String(), "score": score,
	})
	m.nudge()
	return *call, nil
}

// nudge wakes the matcher without blocking.
func (m *Manager) nudge() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Run drives the matcher until the context ends. New calls and freed
// vehicles trigger an immediate pass; the ticker covers everything else,
// such as vehicles coming back into service.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(m.cfg.MatchIntervalSeconds) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-m.trigger:
		}
		m.MatchOnce(ctx)
	}
}

// MatchOnce drains the queue as far as the current fleet allows.
func (m *Manager) MatchOnce(ctx context.Context) {
	for m.matchNext(ctx) {
		if ctx.Err() != nil {
			return
		}
	}
}

// candidate is a dispatchable vehicle with its last known position.
type candidate struct {
	vehicle  model.Vehicle
	position geo.Point
}

// matchNext tries to pair one call. It walks the queue in priority order so
// a critical call with no compatible vehicle does not block an urgent call
// that has one. Returns true when a pairing happened and another pass is
// worthwhile.
func (m *Manager) matchNext(ctx context.Context) bool {
	m.mu.Lock()
	waiting := m.queue.Ordered()
	m.mu.Unlock()

	for _, call := range waiting {
		cands := m.candidatesFor(call)
		if len(cands) == 0 {
			continue
		}
		best, est, ok := m.rankCandidates(ctx, call, cands)
		if !ok {
			continue
		}
		// A failed pairing means another pairing changed the state under
		// us; either way a fresh snapshot is worth another pass.
		m.pair(call.ID, best.vehicle.ID, est, ActorMatcher)
		return true
	}
	return false
}

// candidatesFor snapshots the vehicles able to serve the call right now.
// Vehicles that never reported a position are not matchable.
func (m *Manager) candidatesFor(call *model.EmergencyCall) []candidate {
	vehicles := m.fleet.Dispatchable(call.Intake.RequiredCapability)
	cands := make([]candidate, 0, len(vehicles))
	for _, v := range vehicles {
		sample, ok := m.locations.Current(v.ID)
		if !ok {
			continue
		}
		cands = append(cands, candidate{vehicle: v, position: sample.Position})
	}
	return cands
}

// rankCandidates estimates travel for every candidate concurrently and
// returns the best one. Ties on ETA go to the least capable class that still
// satisfies the requirement, keeping specialist units free, then to the
// lowest vehicle ID for determinism.
func (m *Manager) rankCandidates(ctx context.Context, call *model.EmergencyCall, cands []candidate) (candidate, routing.Estimate, bool) {
	type result struct {
		est routing.Estimate
		err error
	}
	results := make([]result, len(cands))
	var wg sync.WaitGroup
	for i, c := range cands {
		wg.Add(1)
		go func(i int, c candidate) {
			defer wg.Done()
			est, err := m.route.Estimate(ctx, c.position, call.Intake.Location, routing.Constraints{})
			results[i] = result{est: est, err: err}
		}(i, c)
	}
	wg.Wait()

	bestIdx := -1
	for i := range cands {
		if results[i].err != nil {
			m.log.Warnf("estimate for vehicle %s failed: %v", cands[i].vehicle.ID, results[i].err)
			continue
		}
		if bestIdx < 0 || better(cands[i], results[i].est, cands[bestIdx], results[bestIdx].est) {
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return candidate{}, routing.Estimate{}, false
	}
	return cands[bestIdx], results[bestIdx].est, true
}

func better(a candidate, ea routing.Estimate, b candidate, eb routing.Estimate) bool {
	if ea.Duration != eb.Duration {
		return ea.Duration < eb.Duration
	}
	if a.vehicle.Class != b.vehicle.Class {
		return a.vehicle.Class < b.vehicle.Class
	}
	return a.vehicle.ID < b.vehicle.ID
}

// pair atomically binds a call to a vehicle, attributing the transition to
// the given actor. Both sides are re-verified under the lock because
// estimates were computed outside it. Returns a snapshot of the created
// assignment.
func (m *Manager) pair(callID, vehicleID string, est routing.Estimate, actor string) (model.Assignment, bool) {
	now := m.now()

	m.mu.Lock()
	call, ok := m.calls[callID]
	if !ok || !m.queue.Contains(callID) {
		m.mu.Unlock()
		return model.Assignment{}, false
	}
	vehicle, ok := m.fleet.Get(vehicleID)
	if !ok || !vehicle.Dispatchable() {
		m.mu.Unlock()
		return model.Assignment{}, false
	}
	queuedAt, _ := m.queue.QueuedAt(callID)
	m.queue.Remove(callID)
	call.Status = model.CallAssigned

	id := m.newID()
	a := &model.Assignment{
		ID:             id,
		Number:         model.AssignmentNumber(now, numberSuffix(id)),
		CallID:         call.ID,
		VehicleID:      vehicle.ID,
		State:          model.StateQueued,
		CreatedAt:      now,
		ETA:            est.Duration,
		DistanceMeters: est.DistanceMeters,
		ApproximateETA: est.Approximate,
		Timestamps: map[model.DispatchState]time.Time{
			model.StateReceived: call.ReceivedAt,
			model.StateScored:   call.ReceivedAt,
			model.StateQueued:   queuedAt,
		},
	}
	if err := m.machine.Advance(a, model.StateMatched, actor, ""); err != nil {
		m.mu.Unlock()
		m.log.Errorf("pairing transition rejected: %v", err)
		return model.Assignment{}, false
	}
	m.assignments[a.ID] = a
	m.byVehicle[vehicle.ID] = a.ID
	m.byCall[call.ID] = a.ID
	m.fleet.SetStatus(vehicle.ID, model.VehicleAssigned)
	depths := m.queue.Depths()
	snapshot := *a
	m.mu.Unlock()

	m.buses.Assignments.Publish(events.AssignmentCreated{
		AssignmentID: snapshot.ID,
		CallID:       snapshot.CallID,
		VehicleID:    snapshot.VehicleID,
		ETA:          snapshot.ETA,
		Approximate:  snapshot.ApproximateETA,
		At:           now,
	})
	m.buses.Transitions.Publish(events.StateChanged{
		AssignmentID: snapshot.ID,
		CallID:       snapshot.CallID,
		VehicleID:    snapshot.VehicleID,
		From:         model.StateQueued,
		To:           model.StateMatched,
		Actor:        actor,
		At:           now,
	})
	m.sink.AssignmentCreated(now.Sub(queuedAt), snapshot.ApproximateETA)
	m.sink.Transition(model.StateMatched)
	if snapshot.ApproximateETA {
		m.sink.RoutingFallback()
	}
	m.reportDepths(depths)
	m.log.Infof("assignment %s: vehicle %s to call %s, eta %s",
		snapshot.Number, snapshot.VehicleID, snapshot.CallID, snapshot.ETA)
	return snapshot, true
}

// ManualAssign pairs a specific vehicle with a queued call, bypassing the
// ranking but not the availability and capability checks.
func (m *Manager) ManualAssign(ctx context.Context, callID, vehicleID, actor string) (model.Assignment, error) {
	m.mu.Lock()
	call, ok := m.calls[callID]
	if !ok || !m.queue.Contains(callID) {
		m.mu.Unlock()
		return model.Assignment{}, fmt.Errorf("call %s is not waiting: %w", callID, model.ErrNotFound)
	}
	vehicle, ok := m.fleet.Get(vehicleID)
	if !ok {
		m.mu.Unlock()
		return model.Assignment{}, fmt.Errorf("vehicle %s: %w", vehicleID, model.ErrNotFound)
	}
	if !vehicle.Dispatchable() {
		m.mu.Unlock()
		return model.Assignment{}, &model.InvariantViolation{Op: "manual_assign", Reason: "vehicle is not available"}
	}
	if !vehicle.Class.Satisfies(call.Intake.RequiredCapability) {
		m.mu.Unlock()
		return model.Assignment{}, &model.InvariantViolation{
			Op:     "manual_assign",
			Reason: fmt.Sprintf("%s does not meet required capability %s", vehicle.Class, call.Intake.RequiredCapability),
		}
	}
	incident := call.Intake.Location
	m.mu.Unlock()

	est := routing.StraightLine(incident, incident, 0)
	if sample, ok := m.locations.Current(vehicleID); ok {
		est, _ = m.route.Estimate(ctx, sample.Position, incident, routing.Constraints{})
	}
	snapshot, ok := m.pair(callID, vehicleID, est, actor)
	if !ok {
		return model.Assignment{}, &model.InvariantViolation{Op: "manual_assign", Reason: "call or vehicle no longer eligible"}
	}
	return snapshot, nil
}

// SetVehicleStatus applies an external availability override. Only the
// available and out_of_service statuses may be set from outside; every other
// status is owned by the dispatch lifecycle. Marking a vehicle out of service
// while it is on an active assignment is deferred: the run continues and the
// vehicle leaves service when the assignment closes instead of reverting to
// available. Setting such a vehicle back to available clears the mark.
func (m *Manager) SetVehicleStatus(vehicleID string, status model.VehicleStatus) error {
	if status != model.VehicleAvailable && status != model.VehicleOutOfService {
		return &model.InvariantViolation{
			Op:     "set_vehicle_status",
			Reason: fmt.Sprintf("status %s can only be set by the dispatch lifecycle", status),
		}
	}
	m.mu.Lock()
	if _, ok := m.fleet.Get(vehicleID); !ok {
		m.mu.Unlock()
		return fmt.Errorf("vehicle %s: %w", vehicleID, model.ErrNotFound)
	}
	if _, active := m.byVehicle[vehicleID]; active {
		if status == model.VehicleOutOfService {
			m.oosPending[vehicleID] = true
			m.mu.Unlock()
			m.log.Infof("vehicle %s leaves service when its assignment closes", vehicleID)
			return nil
		}
		if m.oosPending[vehicleID] {
			delete(m.oosPending, vehicleID)
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()
		return &model.InvariantViolation{Op: "set_vehicle_status", Reason: "vehicle is on an active assignment"}
	}
	delete(m.oosPending, vehicleID)
	m.fleet.SetStatus(vehicleID, status)
	m.mu.Unlock()

	m.log.Infof("vehicle %s set %s", vehicleID, status)
	if status == model.VehicleAvailable {
		m.nudge()
	}
	return nil
}

// Advance applies an operator or crew transition to an assignment and fans
// out the side effects: vehicle status, call status, destination selection,
// events and metrics.
func (m *Manager) Advance(ctx context.Context, assignmentID string, to model.DispatchState, actor, note string) (model.Assignment, error) {
	m.mu.Lock()
	a, ok := m.assignments[assignmentID]
	if !ok {
		m.mu.Unlock()
		return model.Assignment{}, fmt.Errorf("assignment %s: %w", assignmentID, model.ErrNotFound)
	}
	from := a.State
	if err := m.machine.Advance(a, to, actor, note); err != nil {
		m.mu.Unlock()
		return model.Assignment{}, err
	}
	m.applySideEffectsLocked(a, to)
	snapshot := *a
	m.mu.Unlock()

	m.publishTransition(snapshot, from, to, actor)
	if to == model.StateTransporting && snapshot.FacilityID == "" {
		m.selectDestination(ctx, assignmentID)
		m.mu.Lock()
		snapshot = *m.assignments[assignmentID]
		m.mu.Unlock()
	}
	if to.Terminal() {
		m.nudge()
	}
	return snapshot, nil
}

// applySideEffectsLocked updates vehicle and call bookkeeping for a
// transition. Caller holds mu.
func (m *Manager) applySideEffectsLocked(a *model.Assignment, to model.DispatchState) {
	if status, ok := lifecycle.VehicleStatusFor(to); ok {
		m.fleet.SetStatus(a.VehicleID, status)
	}
	if !to.Terminal() {
		return
	}
	if m.oosPending[a.VehicleID] {
		delete(m.oosPending, a.VehicleID)
		m.fleet.SetStatus(a.VehicleID, model.VehicleOutOfService)
	} else {
		m.fleet.SetStatus(a.VehicleID, model.VehicleAvailable)
	}
	delete(m.byVehicle, a.VehicleID)
	delete(m.byCall, a.CallID)
	if call, ok := m.calls[a.CallID]; ok {
		switch to {
		case model.StateCompleted:
			call.Status = model.CallCompleted
		case model.StateCancelled:
			if call.Status == model.CallAssigned {
				call.Status = model.CallCancelled
			}
		}
	}
}

func (m *Manager) publishTransition(a model.Assignment, from, to model.DispatchState, actor string) {
	at := a.Timestamps[to]
	m.buses.Transitions.Publish(events.StateChanged{
		AssignmentID: a.ID,
		CallID:       a.CallID,
		VehicleID:    a.VehicleID,
		From:         from,
		To:           to,
		Actor:        actor,
		At:           at,
	})
	m.sink.Transition(to)
	if to == model.StateOnScene {
		if d, ok := a.ResponseTime(); ok {
			m.mu.Lock()
			call, exists := m.calls[a.CallID]
			m.mu.Unlock()
			if exists {
				m.sink.ResponseTime(call.Tier, d)
			}
		}
	}
	m.log.Debugw("assignment transition", map[string]any{
		"assignment": a.Number, "from": string(from), "to": string(to), "actor": actor,
	})
}

// selectDestination ranks facilities for the assignment's call and records
// the winner. Failures are logged, never fatal; the crew can still radio a
// destination in.
func (m *Manager) selectDestination(ctx context.Context, assignmentID string) {
	if m.selector == nil {
		return
	}
	m.mu.Lock()
	a, ok := m.assignments[assignmentID]
	if !ok {
		m.mu.Unlock()
		return
	}
	call, ok := m.calls[a.CallID]
	if !ok {
		m.mu.Unlock()
		return
	}
	profile := facility.Profile{RequiredSpecialty: call.Intake.RequiredSpecialty}
	incident := call.Intake.Location
	m.mu.Unlock()

	ranked, err := m.selector.Rank(ctx, profile, incident)
	if err != nil || len(ranked) == 0 {
		m.log.Warnf("destination selection for %s failed: %v", assignmentID, err)
		return
	}
	m.mu.Lock()
	if a, ok := m.assignments[assignmentID]; ok && a.FacilityID == "" {
		a.FacilityID = ranked[0].Facility.ID
	}
	m.mu.Unlock()
	m.log.Infof("assignment %s: destination %s", assignmentID, ranked[0].Facility.ID)
}

// SetDestination records an explicit destination choice for an assignment.
func (m *Manager) SetDestination(assignmentID, facilityID string) error {
	if m.facilities != nil {
		if _, ok := m.facilities.Get(facilityID); !ok {
			return fmt.Errorf("facility %s: %w", facilityID, model.ErrNotFound)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[assignmentID]
	if !ok {
		return fmt.Errorf("assignment %s: %w", assignmentID, model.ErrNotFound)
	}
	if a.State.Terminal() {
		return &model.InvariantViolation{Op: "set_destination", Reason: "assignment is closed"}
	}
	a.FacilityID = facilityID
	return nil
}

// CancelAssignment closes an assignment, frees its vehicle and, when
// requeue is set, puts the call back into the queue at its original tier.
func (m *Manager) CancelAssignment(ctx context.Context, assignmentID, actor, note string, requeue bool) error {
	m.mu.Lock()
	a, ok := m.assignments[assignmentID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("assignment %s: %w", assignmentID, model.ErrNotFound)
	}
	from := a.State
	if err := m.machine.Advance(a, model.StateCancelled, actor, note); err != nil {
		m.mu.Unlock()
		return err
	}
	m.applySideEffectsLocked(a, model.StateCancelled)
	var depths map[model.PriorityTier]int
	if call, ok := m.calls[a.CallID]; ok && requeue {
		call.Status = model.CallQueued
		m.queue.Push(call, m.now())
		depths = m.queue.Depths()
	}
	snapshot := *a
	m.mu.Unlock()

	m.publishTransition(snapshot, from, model.StateCancelled, actor)
	if depths != nil {
		m.reportDepths(depths)
	}
	m.nudge()
	return nil
}

// CancelCall withdraws a call entirely. A waiting call leaves the queue; an
// assigned call's assignment is cancelled without requeueing.
func (m *Manager) CancelCall(ctx context.Context, callID, actor, note string) error {
	m.mu.Lock()
	call, ok := m.calls[callID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("call %s: %w", callID, model.ErrNotFound)
	}
	if m.queue.Remove(callID) {
		call.Status = model.CallCancelled
		depths := m.queue.Depths()
		m.mu.Unlock()
		m.reportDepths(depths)
		return nil
	}
	assignmentID, active := m.byCall[callID]
	m.mu.Unlock()
	if !active {
		return &model.InvariantViolation{Op: "cancel_call", Reason: "call is already closed"}
	}
	return m.CancelAssignment(ctx, assignmentID, actor, note, false)
}

// RecordLocation ingests a position report and applies geofence transitions:
// an en-route vehicle entering the incident radius arrives on scene, a
// transporting vehicle entering the destination radius arrives at facility.
func (m *Manager) RecordLocation(ctx context.Context, sample model.LocationSample) {
	m.locations.Record(sample)

	m.mu.Lock()
	assignmentID, ok := m.byVehicle[sample.VehicleID]
	if !ok {
		m.mu.Unlock()
		return
	}
	a := m.assignments[assignmentID]
	var target model.DispatchState
	var center geo.Point
	var radius float64
	switch a.State {
	case model.StateEnRoute:
		if call, ok := m.calls[a.CallID]; ok {
			target, center, radius = model.StateOnScene, call.Intake.Location, m.cfg.SceneRadiusM
		}
	case model.StateTransporting:
		if m.facilities != nil && a.FacilityID != "" {
			if f, ok := m.facilities.Get(a.FacilityID); ok {
				target, center, radius = model.StateAtFacility, f.Location, m.cfg.FacilityRadiusM
			}
		}
	}
	if target == "" || !geo.WithinRadius(center, radius, sample.Position) {
		m.mu.Unlock()
		return
	}
	from := a.State
	if err := m.machine.Advance(a, target, "geofence", ""); err != nil {
		m.mu.Unlock()
		return
	}
	m.applySideEffectsLocked(a, target)
	snapshot := *a
	m.mu.Unlock()

	m.publishTransition(snapshot, from, target, "geofence")
}

// Call returns a copy of the call by ID.
func (m *Manager) Call(id string) (model.EmergencyCall, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[id]
	if !ok {
		return model.EmergencyCall{}, fmt.Errorf("call %s: %w", id, model.ErrNotFound)
	}
	return *c, nil
}

// Assignment returns a copy of the assignment by ID.
func (m *Manager) Assignment(id string) (model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok {
		return model.Assignment{}, fmt.Errorf("assignment %s: %w", id, model.ErrNotFound)
	}
	return *a, nil
}

// AssignmentForVehicle returns the vehicle's active assignment, if any.
func (m *Manager) AssignmentForVehicle(vehicleID string) (model.Assignment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byVehicle[vehicleID]
	if !ok {
		return model.Assignment{}, false
	}
	return *m.assignments[id], true
}

// ActiveAssignments lists open assignments ordered by creation time.
func (m *Manager) ActiveAssignments() []model.Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Assignment, 0, len(m.byCall))
	for _, id := range m.byCall {
		out = append(out, *m.assignments[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// QueueDepths reports the number of waiting calls per tier.
func (m *Manager) QueueDepths() map[model.PriorityTier]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Depths()
}

// OverdueCalls lists unresolved calls waiting past the response target.
func (m *Manager) OverdueCalls() []model.EmergencyCall {
	target := time.Duration(m.cfg.ResponseTargetSeconds) * time.Second
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.EmergencyCall, 0)
	for _, c := range m.queue.Ordered() {
		if c.Overdue(now, target) {
			out = append(out, *c)
		}
	}
	return out
}

func (m *Manager) reportDepths(depths map[model.PriorityTier]int) {
	for tier, depth := range depths {
		m.sink.QueueDepth(tier, depth)
	}
}

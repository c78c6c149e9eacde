// Package dispatch exposes the operator-facing HTTP API: intake submission,
// queue and assignment queries, and manual overrides of the matcher.
package dispatch

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	coredispatch "github.com/careline/dispatch/core/dispatch"
	"github.com/careline/dispatch/core/facility"
	"github.com/careline/dispatch/core/geo"
	"github.com/careline/dispatch/core/location"
	"github.com/careline/dispatch/core/logger"
	"github.com/careline/dispatch/core/model"
)

// Handler serves the dispatch API.
type Handler struct {
	manager    *coredispatch.Manager
	fleet      *coredispatch.Fleet
	locations  *location.Store
	facilities *facility.Store
	selector   *facility.Selector
	log        logger.Logger
}

// NewHandler wires the API over the dispatch core. The facility registry and
// selector may be nil when no facilities are configured.
func NewHandler(manager *coredispatch.Manager, fleet *coredispatch.Fleet, locations *location.Store, facilities *facility.Store, selector *facility.Selector, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop{}
	}
	return &Handler{manager: manager, fleet: fleet, locations: locations, facilities: facilities, selector: selector, log: log}
}

// Router builds the versioned route tree.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/calls", h.submitCall)
		v1.GET("/calls/:id", h.getCall)
		v1.POST("/calls/:id/cancel", h.cancelCall)
		v1.GET("/queue", h.queueStatus)

		v1.GET("/assignments", h.listAssignments)
		v1.GET("/assignments/:id", h.getAssignment)
		v1.POST("/assignments", h.manualAssign)
		v1.POST("/assignments/:id/advance", h.advance)
		v1.POST("/assignments/:id/cancel", h.cancelAssignment)
		v1.POST("/assignments/:id/destination", h.setDestination)

		v1.GET("/vehicles", h.listVehicles)
		v1.POST("/vehicles", h.upsertVehicle)
		v1.PATCH("/vehicles/:id/status", h.setVehicleStatus)

		v1.GET("/facilities", h.listFacilities)
		v1.PUT("/facilities/:id", h.upsertFacility)
		v1.POST("/facilities/:id/capacity", h.updateCapacity)
		v1.GET("/facilities/rank", h.rankFacilities)
	}
	return r
}

// fail maps core error taxonomy onto HTTP status codes.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case model.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case model.IsInvariantViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Errorf("api: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *Handler) submitCall(c *gin.Context) {
	var in model.Intake
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	call, err := h.manager.SubmitCall(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

func (h *Handler) getCall(c *gin.Context) {
	call, err := h.manager.Call(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h *Handler) cancelCall(c *gin.Context) {
	var body struct {
		Actor string `json:"actor"`
		Note  string `json:"note"`
	}
	_ = c.ShouldBindJSON(&body)
	if err := h.manager.CancelCall(c.Request.Context(), c.Param("id"), body.Actor, body.Note); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) queueStatus(c *gin.Context) {
	depths := h.manager.QueueDepths()
	byTier := make(map[string]int, len(depths))
	for tier, depth := range depths {
		byTier[tier.String()] = depth
	}
	c.JSON(http.StatusOK, gin.H{
		"depths":  byTier,
		"overdue": h.manager.OverdueCalls(),
	})
}

func (h *Handler) listAssignments(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.ActiveAssignments())
}

func (h *Handler) getAssignment(c *gin.Context) {
	a, err := h.manager.Assignment(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) manualAssign(c *gin.Context) {
	var body struct {
		CallID    string `json:"call_id" binding:"required"`
		VehicleID string `json:"vehicle_id" binding:"required"`
		Actor     string `json:"actor"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "call_id and vehicle_id are required"})
		return
	}
	a, err := h.manager.ManualAssign(c.Request.Context(), body.CallID, body.VehicleID, body.Actor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) advance(c *gin.Context) {
	var body struct {
		State string `json:"state" binding:"required"`
		Actor string `json:"actor"`
		Note  string `json:"note"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state is required"})
		return
	}
	a, err := h.manager.Advance(c.Request.Context(), c.Param("id"), model.DispatchState(body.State), body.Actor, body.Note)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) cancelAssignment(c *gin.Context) {
	var body struct {
		Actor   string `json:"actor"`
		Note    string `json:"note"`
		Requeue bool   `json:"requeue"`
	}
	_ = c.ShouldBindJSON(&body)
	if err := h.manager.CancelAssignment(c.Request.Context(), c.Param("id"), body.Actor, body.Note, body.Requeue); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) setDestination(c *gin.Context) {
	var body struct {
		FacilityID string `json:"facility_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "facility_id is required"})
		return
	}
	if err := h.manager.SetDestination(c.Param("id"), body.FacilityID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// vehicleView is a vehicle with its last reported position, if any.
type vehicleView struct {
	model.Vehicle
	Position *geo.Point `json:"position,omitempty"`
	Assigned string     `json:"assignment_id,omitempty"`
	SpeedKMH float64    `json:"speed_kmh,omitempty"`
}

func (h *Handler) listVehicles(c *gin.Context) {
	vehicles := h.fleet.All()
	out := make([]vehicleView, 0, len(vehicles))
	for _, v := range vehicles {
		view := vehicleView{Vehicle: v}
		if sample, ok := h.locations.Current(v.ID); ok {
			p := sample.Position
			view.Position = &p
			view.SpeedKMH = sample.SpeedKMH
		}
		if a, ok := h.manager.AssignmentForVehicle(v.ID); ok {
			view.Assigned = a.ID
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) upsertVehicle(c *gin.Context) {
	var v model.Vehicle
	if err := c.ShouldBindJSON(&v); err != nil || v.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle id is required"})
		return
	}
	h.fleet.Upsert(v)
	c.Status(http.StatusNoContent)
}

// setVehicleStatus takes a unit out of service or returns it to the pool.
func (h *Handler) setVehicleStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	if err := h.manager.SetVehicleStatus(c.Param("id"), model.VehicleStatus(body.Status)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listFacilities(c *gin.Context) {
	if h.facilities == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no facility registry configured"})
		return
	}
	c.JSON(http.StatusOK, h.facilities.List())
}

func (h *Handler) upsertFacility(c *gin.Context) {
	if h.facilities == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no facility registry configured"})
		return
	}
	var f model.Facility
	if err := c.ShouldBindJSON(&f); err != nil || !f.Location.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid facility location is required"})
		return
	}
	f.ID = c.Param("id")
	h.facilities.Put(f)
	c.Status(http.StatusNoContent)
}

// updateCapacity ingests a snapshot from the external capacity feed.
func (h *Handler) updateCapacity(c *gin.Context) {
	if h.facilities == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no facility registry configured"})
		return
	}
	var snap model.CapacitySnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	snap.FacilityID = c.Param("id")
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now()
	}
	h.facilities.UpdateCapacity(snap)
	c.Status(http.StatusNoContent)
}

func (h *Handler) rankFacilities(c *gin.Context) {
	if h.selector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no facility registry configured"})
		return
	}
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.Query("lon"), 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon are required"})
		return
	}
	profile := facility.Profile{RequiredSpecialty: c.Query("specialty")}
	ranked, err := h.selector.Rank(c.Request.Context(), profile, geo.Point{Lat: lat, Lon: lon})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ranked)
}

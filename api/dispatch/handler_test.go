package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	coredispatch "github.com/careline/dispatch/core/dispatch"
	"github.com/careline/dispatch/core/facility"
	"github.com/careline/dispatch/core/geo"
	"github.com/careline/dispatch/core/location"
	"github.com/careline/dispatch/core/model"
	"github.com/careline/dispatch/core/priority"
	"github.com/careline/dispatch/core/routing"
)

func setup(t *testing.T) (*gin.Engine, *coredispatch.Manager, *coredispatch.Fleet, *location.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fleet := coredispatch.NewFleet()
	locs := location.NewStore(location.Config{})
	route := routing.NewDegradedClient(nil, routing.Config{AverageSpeedKMH: 60}, nil)
	m, err := coredispatch.NewManager(coredispatch.Config{}, coredispatch.Deps{
		Fleet:     fleet,
		Locations: locs,
		Route:     route,
		Engine:    priority.New(priority.Config{}),
	})
	require.NoError(t, err)
	h := NewHandler(m, fleet, locs, nil, nil, nil)
	return h.Router(), m, fleet, locs
}

func setupWithFacilities(t *testing.T) (*gin.Engine, *facility.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fleet := coredispatch.NewFleet()
	locs := location.NewStore(location.Config{})
	route := routing.NewDegradedClient(nil, routing.Config{AverageSpeedKMH: 60}, nil)
	facilities := facility.NewStore()
	selector := facility.NewSelector(facilities, route, facility.Config{}, nil)
	m, err := coredispatch.NewManager(coredispatch.Config{}, coredispatch.Deps{
		Fleet:      fleet,
		Locations:  locs,
		Route:      route,
		Engine:     priority.New(priority.Config{}),
		Selector:   selector,
		Facilities: facilities,
	})
	require.NoError(t, err)
	h := NewHandler(m, fleet, locs, facilities, selector, nil)
	return h.Router(), facilities
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validIntake() map[string]any {
	return map[string]any{
		"address":         "3 Quai des Célestins",
		"location":        map[string]float64{"lat": 45.76, "lon": 4.84},
		"chief_complaint": "severe chest pain",
		"chest_pain":      true,
		"breathing":       "difficulty",
	}
}

func TestSubmitCallEndpoint(t *testing.T) {
	r, _, _, _ := setup(t)
	w := do(t, r, http.MethodPost, "/api/v1/calls", validIntake())
	require.Equal(t, http.StatusCreated, w.Code)

	var call model.EmergencyCall
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &call))
	require.NotEmpty(t, call.ID)
	require.Contains(t, call.Number, "EC-")

	got := do(t, r, http.MethodGet, "/api/v1/calls/"+call.ID, nil)
	require.Equal(t, http.StatusOK, got.Code)
}

func TestSubmitCallRejectsMissingAddress(t *testing.T) {
	r, _, _, _ := setup(t)
	in := validIntake()
	delete(in, "address")
	w := do(t, r, http.MethodPost, "/api/v1/calls", in)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueueStatusEndpoint(t *testing.T) {
	r, _, _, _ := setup(t)
	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/calls", validIntake()).Code)

	w := do(t, r, http.MethodGet, "/api/v1/queue", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Depths map[string]int `json:"depths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Depths["urgent"])
}

func TestVehicleLifecycleOverAPI(t *testing.T) {
	r, m, _, locs := setup(t)

	w := do(t, r, http.MethodPost, "/api/v1/vehicles", model.Vehicle{ID: "amb-1", Callsign: "Alpha 1", Class: model.ClassALS})
	require.Equal(t, http.StatusNoContent, w.Code)
	locs.Record(model.LocationSample{VehicleID: "amb-1", Position: geo.Point{Lat: 45.77, Lon: 4.84}, Timestamp: time.Now()})

	require.Equal(t, http.StatusCreated, do(t, r, http.MethodPost, "/api/v1/calls", validIntake()).Code)
	m.MatchOnce(context.Background())

	list := do(t, r, http.MethodGet, "/api/v1/vehicles", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var vehicles []vehicleView
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &vehicles))
	require.Len(t, vehicles, 1)
	require.NotNil(t, vehicles[0].Position)
	require.NotEmpty(t, vehicles[0].Assigned)

	adv := do(t, r, http.MethodPost, "/api/v1/assignments/"+vehicles[0].Assigned+"/advance",
		map[string]string{"state": "en_route", "actor": "crew"})
	require.Equal(t, http.StatusOK, adv.Code)

	// A backward move is a conflict, not a server error.
	back := do(t, r, http.MethodPost, "/api/v1/assignments/"+vehicles[0].Assigned+"/advance",
		map[string]string{"state": "matched"})
	require.Equal(t, http.StatusConflict, back.Code)
}

func TestVehicleStatusOverrideEndpoint(t *testing.T) {
	r, _, _, locs := setup(t)
	require.Equal(t, http.StatusNoContent,
		do(t, r, http.MethodPost, "/api/v1/vehicles", model.Vehicle{ID: "amb-9", Class: model.ClassALS}).Code)
	locs.Record(model.LocationSample{VehicleID: "amb-9", Position: geo.Point{Lat: 45.77, Lon: 4.84}, Timestamp: time.Now()})

	w := do(t, r, http.MethodPatch, "/api/v1/vehicles/amb-9/status", map[string]string{"status": "out_of_service"})
	require.Equal(t, http.StatusNoContent, w.Code)

	list := do(t, r, http.MethodGet, "/api/v1/vehicles", nil)
	var vehicles []vehicleView
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &vehicles))
	require.Equal(t, model.VehicleOutOfService, vehicles[0].Status)

	// Lifecycle-owned statuses cannot be forced from outside.
	w = do(t, r, http.MethodPatch, "/api/v1/vehicles/amb-9/status", map[string]string{"status": "en_route"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPatch, "/api/v1/vehicles/ghost/status", map[string]string{"status": "available"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignmentNotFound(t *testing.T) {
	r, _, _, _ := setup(t)
	w := do(t, r, http.MethodGet, "/api/v1/assignments/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestManualAssignEndpoint(t *testing.T) {
	r, _, _, locs := setup(t)
	require.Equal(t, http.StatusNoContent,
		do(t, r, http.MethodPost, "/api/v1/vehicles", model.Vehicle{ID: "amb-2", Class: model.ClassMICU}).Code)
	locs.Record(model.LocationSample{VehicleID: "amb-2", Position: geo.Point{Lat: 45.7, Lon: 4.8}, Timestamp: time.Now()})

	created := do(t, r, http.MethodPost, "/api/v1/calls", validIntake())
	var call model.EmergencyCall
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &call))

	w := do(t, r, http.MethodPost, "/api/v1/assignments",
		map[string]string{"call_id": call.ID, "vehicle_id": "amb-2", "actor": "supervisor"})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestRankFacilitiesWithoutRegistry(t *testing.T) {
	r, _, _, _ := setup(t)
	w := do(t, r, http.MethodGet, "/api/v1/facilities/rank?lat=45.76&lon=4.84", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFacilityRegistryAndCapacityFeed(t *testing.T) {
	r, _ := setupWithFacilities(t)

	near := model.Facility{Name: "Hôpital Édouard Herriot", Location: geo.Point{Lat: 45.74, Lon: 4.88}, Specialties: []string{"cardiology"}}
	far := model.Facility{Name: "CH Lyon Sud", Location: geo.Point{Lat: 45.62, Lon: 4.80}}
	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodPut, "/api/v1/facilities/hosp-1", near).Code)
	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodPut, "/api/v1/facilities/hosp-2", far).Code)

	list := do(t, r, http.MethodGet, "/api/v1/facilities", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var all []model.Facility
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &all))
	require.Len(t, all, 2)

	// Divert the near facility; the far one must win the ranking.
	require.Equal(t, http.StatusNoContent, do(t, r, http.MethodPost, "/api/v1/facilities/hosp-1/capacity",
		model.CapacitySnapshot{AvailableBeds: 0, Diversion: true}).Code)

	w := do(t, r, http.MethodGet, "/api/v1/facilities/rank?lat=45.76&lon=4.84", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ranked []facility.Ranked
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranked))
	require.Len(t, ranked, 1)
	require.Equal(t, "hosp-2", ranked[0].Facility.ID)
}

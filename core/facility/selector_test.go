package facility

import (
	"context"
	"testing"
	"time"

	"github.com/careline/dispatch/core/geo"
	"github.com/careline/dispatch/core/model"
	"github.com/careline/dispatch/core/routing"
)

var incident = geo.Point{Lat: 45.75, Lon: 4.85}

func testStore() *Store {
	s := NewStore()
	s.Put(model.Facility{
		ID: "f-near", Name: "City General",
		Location:    geo.Point{Lat: 45.76, Lon: 4.86},
		Specialties: []string{"emergency"},
	})
	s.Put(model.Facility{
		ID: "f-far", Name: "Regional Trauma Center",
		Location:    geo.Point{Lat: 45.78, Lon: 4.88},
		TraumaLevel: 1,
		Specialties: []string{"trauma", "cardiology"},
	})
	now := time.Now()
	s.UpdateCapacity(model.CapacitySnapshot{FacilityID: "f-near", AvailableBeds: 4, UpdatedAt: now})
	s.UpdateCapacity(model.CapacitySnapshot{FacilityID: "f-far", AvailableBeds: 10, UpdatedAt: now})
	return s
}

func degradedRouter() routing.Client {
	return routing.NewDegradedClient(nil, routing.Config{AverageSpeedKMH: 40}, nil)
}

func TestRankPrefersCloserWithoutSpecialtyNeed(t *testing.T) {
	sel := NewSelector(testStore(), degradedRouter(), Config{}, nil)
	ranked, err := sel.Rank(context.Background(), Profile{}, incident)
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].Facility.ID != "f-near" {
		t.Fatalf("expected nearest first, got %s", ranked[0].Facility.ID)
	}
}

func TestRankSpecialtyOutweighsDistance(t *testing.T) {
	// The trauma center is farther but the required specialty is worth ten
	// minutes of travel by default.
	sel := NewSelector(testStore(), degradedRouter(), Config{}, nil)
	ranked, err := sel.Rank(context.Background(), Profile{RequiredSpecialty: "trauma"}, incident)
	if err != nil {
		t.Fatal(err)
	}
	if ranked[0].Facility.ID != "f-far" {
		t.Fatalf("expected trauma center first, got %s", ranked[0].Facility.ID)
	}
}

func TestRankFiltersDiversion(t *testing.T) {
	s := testStore()
	s.UpdateCapacity(model.CapacitySnapshot{FacilityID: "f-near", Diversion: true, UpdatedAt: time.Now()})
	sel := NewSelector(s, degradedRouter(), Config{}, nil)
	ranked, err := sel.Rank(context.Background(), Profile{}, incident)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range ranked {
		if r.Facility.ID == "f-near" {
			t.Fatal("diverted facility must be filtered out")
		}
		if r.BestEffort {
			t.Fatal("best-effort flag must be clear while open facilities remain")
		}
	}
}

func TestRankBestEffortWhenAllDiverted(t *testing.T) {
	s := testStore()
	now := time.Now()
	s.UpdateCapacity(model.CapacitySnapshot{FacilityID: "f-near", Diversion: true, UpdatedAt: now})
	s.UpdateCapacity(model.CapacitySnapshot{FacilityID: "f-far", Diversion: true, UpdatedAt: now})
	sel := NewSelector(s, degradedRouter(), Config{}, nil)
	ranked, err := sel.Rank(context.Background(), Profile{}, incident)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 2 {
		t.Fatalf("best-effort must still rank everything, got %d", len(ranked))
	}
	for _, r := range ranked {
		if !r.BestEffort {
			t.Fatal("best-effort flag must be set when every facility is diverted")
		}
	}
}

func TestRankMarksStaleCapacity(t *testing.T) {
	s := testStore()
	s.UpdateCapacity(model.CapacitySnapshot{
		FacilityID: "f-near", AvailableBeds: 4,
		UpdatedAt: time.Now().Add(-2 * time.Hour),
	})
	sel := NewSelector(s, degradedRouter(), Config{}, nil)
	ranked, err := sel.Rank(context.Background(), Profile{}, incident)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range ranked {
		if r.Facility.ID == "f-near" && !r.Stale {
			t.Fatal("outdated snapshot must be flagged stale")
		}
	}
}

func TestRankNoFacilities(t *testing.T) {
	sel := NewSelector(NewStore(), degradedRouter(), Config{}, nil)
	if _, err := sel.Rank(context.Background(), Profile{}, incident); err == nil {
		t.Fatal("empty registry must error")
	}
}

func TestRankCapsResults(t *testing.T) {
	sel := NewSelector(testStore(), degradedRouter(), Config{MaxResults: 1}, nil)
	ranked, err := sel.Rank(context.Background(), Profile{}, incident)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected capped list, got %d", len(ranked))
	}
}

package geo

import (
	"math"
	"testing"
)

func TestDistanceMetersKnownPair(t *testing.T) {
	// Paris -> London is roughly 344 km.
	paris := Point{Lat: 48.8566, Lon: 2.3522}
	london := Point{Lat: 51.5074, Lon: -0.1278}
	d := DistanceMeters(paris, london)
	if d < 330000 || d > 350000 {
		t.Fatalf("unexpected distance %v", d)
	}
}

func TestDistanceMetersZero(t *testing.T) {
	p := Point{Lat: 45.0, Lon: 4.8}
	if d := DistanceMeters(p, p); d != 0 {
		t.Fatalf("expected 0 got %v", d)
	}
}

func TestBearingDegrees(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	cases := []struct {
		b    Point
		want float64
	}{
		{Point{Lat: 1, Lon: 0}, 0},
		{Point{Lat: 0, Lon: 1}, 90},
		{Point{Lat: -1, Lon: 0}, 180},
		{Point{Lat: 0, Lon: -1}, 270},
	}
	for _, c := range cases {
		got := BearingDegrees(a, c.b)
		if math.Abs(got-c.want) > 0.5 {
			t.Fatalf("bearing to %+v: got %v want %v", c.b, got, c.want)
		}
	}
}

func TestWithinRadius(t *testing.T) {
	center := Point{Lat: 48.8566, Lon: 2.3522}
	near := Point{Lat: 48.8570, Lon: 2.3530}
	far := Point{Lat: 48.9000, Lon: 2.4000}
	if !WithinRadius(center, 200, near) {
		t.Fatal("near point should be inside 200m")
	}
	if WithinRadius(center, 200, far) {
		t.Fatal("far point should be outside 200m")
	}
}

func TestPointValid(t *testing.T) {
	if !(Point{Lat: 90, Lon: 180}).Valid() {
		t.Fatal("boundary point should be valid")
	}
	if (Point{Lat: 91, Lon: 0}).Valid() {
		t.Fatal("out of range latitude accepted")
	}
	if (Point{Lat: 0, Lon: -181}).Valid() {
		t.Fatal("out of range longitude accepted")
	}
}

// Package geo provides great-circle math used by matching, tracking and
// facility ranking. All functions are pure.
package geo

import "math"

const earthRadiusM = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within coordinate bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// IsZero reports whether the point is the zero value. A zero point is treated
// as "no position" throughout the dispatch core.
func (p Point) IsZero() bool { return p.Lat == 0 && p.Lon == 0 }

// DistanceMeters returns the haversine distance between two points.
func DistanceMeters(a, b Point) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLon := radians(b.Lon - a.Lon)
	la := radians(a.Lat)
	lb := radians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(la)*math.Cos(lb)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BearingDegrees returns the initial bearing from a to b in [0, 360).
func BearingDegrees(a, b Point) float64 {
	la := radians(a.Lat)
	lb := radians(b.Lat)
	dLon := radians(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lb)
	x := math.Cos(la)*math.Sin(lb) - math.Sin(la)*math.Cos(lb)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// WithinRadius reports whether p lies inside the circle around center.
func WithinRadius(center Point, radiusM float64, p Point) bool {
	return DistanceMeters(center, p) <= radiusM
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

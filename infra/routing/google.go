// Package routing provides the Google Maps backend for the core routing
// client. It is always wrapped by the degraded client so an API outage
// falls back to straight-line estimates instead of failing dispatch.
package routing

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/careline/dispatch/core/geo"
	corerouting "github.com/careline/dispatch/core/routing"
)

// GoogleClient implements the routing client against the Directions API.
type GoogleClient struct {
	client *maps.Client
}

// NewGoogleClient creates a client with the given API key.
func NewGoogleClient(apiKey string) (*GoogleClient, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &GoogleClient{client: client}, nil
}

// Estimate asks the Directions API for driving routes between two points.
// The first route becomes the primary estimate, the rest are alternatives.
func (g *GoogleClient) Estimate(ctx context.Context, origin, destination geo.Point, c corerouting.Constraints) (corerouting.Estimate, error) {
	req := &maps.DirectionsRequest{
		Origin:       latLng(origin),
		Destination:  latLng(destination),
		Mode:         maps.TravelModeDriving,
		Alternatives: true,
	}
	if !c.DepartAt.IsZero() {
		req.DepartureTime = fmt.Sprintf("%d", c.DepartAt.Unix())
	}
	if c.AvoidTolls {
		req.Avoid = []maps.Avoid{maps.AvoidTolls}
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return corerouting.Estimate{}, fmt.Errorf("directions: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return corerouting.Estimate{}, fmt.Errorf("no route between %v and %v", origin, destination)
	}

	est := corerouting.Estimate{Route: toRoute(routes[0])}
	for _, r := range routes[1:] {
		if len(r.Legs) == 0 {
			continue
		}
		est.Alternatives = append(est.Alternatives, toRoute(r))
	}
	return est, nil
}

func toRoute(r maps.Route) corerouting.Route {
	leg := r.Legs[0]
	return corerouting.Route{
		DistanceMeters: float64(leg.Distance.Meters),
		Duration:       leg.Duration,
		Polyline:       r.OverviewPolyline.Points,
	}
}

func latLng(p geo.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}

var _ corerouting.Client = (*GoogleClient)(nil)

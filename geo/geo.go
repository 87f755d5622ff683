// Package geo estimates trip distance between a pickup and a dropoff point.
// Road distance comes from a routing service; great-circle distance is the
// fallback when routing or geocoding is unavailable.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

var ErrNotFound = errors.New("geo: no result")

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// FormatPoint renders coordinates the way the order form shows an address
// it could not resolve.
func FormatPoint(p Point) string {
	return fmt.Sprintf("%.5f, %.5f", p.Lat, p.Lng)
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Geocoder resolves free text to coordinates and back.
type Geocoder interface {
	Search(ctx context.Context, query string) (Point, error)
	Reverse(ctx context.Context, p Point) (string, error)
}

// Router returns the road distance between two points in kilometers.
type Router interface {
	RouteKm(ctx context.Context, from, to Point) (float64, error)
}

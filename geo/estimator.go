package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"tow-dispatch-api/pricing"
)

// ErrUnresolved means a stop had neither coordinates nor a geocodable address.
var ErrUnresolved = errors.New("geo: stop could not be located")

// StopError names the trip end that failed to resolve.
type StopError struct {
	Stop string
	Err  error
}

func (e *StopError) Error() string { return e.Stop + ": " + e.Err.Error() }
func (e *StopError) Unwrap() error { return e.Err }

const (
	SourceRoute     = "route"
	SourceHaversine = "haversine"
)

// Location is one end of a trip: coordinates, an address, or both.
type Location struct {
	Point   *Point `json:"point,omitempty"`
	Address string `json:"address,omitempty"`
}

// Estimate is a preview of the trip. Price here is informational; orders
// are always repriced when created.
type Estimate struct {
	Pickup         Point   `json:"pickup"`
	Dropoff        Point   `json:"dropoff"`
	PickupAddress  string  `json:"pickupAddress"`
	DropoffAddress string  `json:"dropoffAddress"`
	DistanceKm     float64 `json:"distanceKm"`
	Source         string  `json:"source"`
	Price          int     `json:"price"`
}

// Estimator combines a Geocoder and a Router. Either may be nil.
type Estimator struct {
	Geocoder Geocoder
	Router   Router
}

func NewEstimator(g Geocoder, r Router) *Estimator {
	return &Estimator{Geocoder: g, Router: r}
}

func (e *Estimator) Estimate(ctx context.Context, from, to Location) (Estimate, error) {
	a, err := e.locate(ctx, from)
	if err != nil {
		return Estimate{}, &StopError{Stop: "pickup", Err: err}
	}
	b, err := e.locate(ctx, to)
	if err != nil {
		return Estimate{}, &StopError{Stop: "dropoff", Err: err}
	}

	est := Estimate{
		Pickup:         a,
		Dropoff:        b,
		PickupAddress:  e.display(ctx, from, a),
		DropoffAddress: e.display(ctx, to, b),
		Source:         SourceHaversine,
	}
	km := Haversine(a, b)
	if e.Router != nil {
		if rk, err := e.Router.RouteKm(ctx, a, b); err == nil && rk >= 0 && !math.IsInf(rk, 0) && !math.IsNaN(rk) {
			km = rk
			est.Source = SourceRoute
		}
	}
	est.DistanceKm = math.Round(pricing.Sanitize(km)*100) / 100
	est.Price = pricing.Price(est.DistanceKm)
	return est, nil
}

func (e *Estimator) locate(ctx context.Context, l Location) (Point, error) {
	if l.Point != nil {
		if !l.Point.Valid() {
			return Point{}, ErrUnresolved
		}
		return *l.Point, nil
	}
	addr := strings.TrimSpace(l.Address)
	if addr == "" || e.Geocoder == nil {
		return Point{}, ErrUnresolved
	}
	p, err := e.Geocoder.Search(ctx, addr)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrUnresolved, err)
	}
	return p, nil
}

// display prefers the caller's text, then a reverse lookup, then raw coordinates.
func (e *Estimator) display(ctx context.Context, l Location, p Point) string {
	if addr := strings.TrimSpace(l.Address); addr != "" {
		return addr
	}
	if e.Geocoder != nil {
		if name, err := e.Geocoder.Reverse(ctx, p); err == nil && name != "" {
			return name
		}
	}
	return FormatPoint(p)
}

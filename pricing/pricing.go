// Package pricing holds the tow price formula. It is the only place the
// formula lives: quotes and order creation both call Price.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

const (
	// BaseFare is charged for every order regardless of distance.
	BaseFare = 2000
	// PerKmRate is charged per started kilometer.
	PerKmRate = 100
	// MaxDistanceKm is the longest trip an order may declare, roughly half
	// the Earth's circumference. Price never charges beyond it.
	MaxDistanceKm = 20000
)

// Price returns BaseFare + ceil(km) * PerKmRate. Non-finite and negative
// distances are priced as zero kilometers; anything past MaxDistanceKm is
// priced as MaxDistanceKm.
func Price(distanceKm float64) int {
	km := math.Min(math.Max(Sanitize(distanceKm), 0), MaxDistanceKm)
	return BaseFare + int(math.Ceil(km))*PerKmRate
}

// InRange reports whether an order may be created for distanceKm.
func InRange(distanceKm float64) bool {
	return distanceKm <= MaxDistanceKm
}

// Sanitize maps NaN and ±Inf to 0 and leaves other values untouched.
func Sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Coerce parses a client-supplied distance. Anything that is not a finite
// number becomes 0.
func Coerce(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return Sanitize(v)
}

package ports

import (
	"context"

	"surveydash/domain/geo"
)

// ReverseGeocoder resolves coordinates to administrative names. A nil address
// with a nil error means the lookup succeeded without finding a place;
// transient failures are returned as errors.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*geo.Address, error)
}

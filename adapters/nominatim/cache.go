package nominatim

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"surveydash/domain/geo"
	"surveydash/internal/metrics"
	"surveydash/ports"
)

// CachedGeocoder memoizes successful lookups. Survey points repeat a lot
// (several households per compound), so this saves most upstream calls.
// Failures are not cached.
type CachedGeocoder struct {
	geocoder ports.ReverseGeocoder
	cache    *cache.Cache
}

// NewCachedGeocoder wraps geocoder with a ttl-bound cache
func NewCachedGeocoder(geocoder ports.ReverseGeocoder, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{geocoder: geocoder, cache: cache.New(ttl, 2*ttl)}
}

// ReverseGeocode returns the cached address for the point when present
func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (*geo.Address, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if cached, ok := c.cache.Get(key); ok {
		metrics.CacheResult("geocoder", true)
		return cached.(*geo.Address), nil
	}
	metrics.CacheResult("geocoder", false)

	address, err := c.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, address)
	return address, nil
}

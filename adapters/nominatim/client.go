// Package nominatim reverse geocodes coordinates with an OpenStreetMap
// Nominatim server.
package nominatim

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"surveydash/adapters/ratelimit"
	"surveydash/domain/geo"
	"surveydash/internal/metrics"
)

// Config configures the geocoding client. The public Nominatim usage policy
// requires an identifying user agent and at most one request per second.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	RateLimit int // requests per minute
}

// Client implements ports.ReverseGeocoder
type Client struct {
	config      Config
	httpClient  *http.Client
	rateLimiter *ratelimit.RateLimiter
}

// NewClient creates a rate limited client
func NewClient(config Config) *Client {
	if config.RateLimit <= 0 {
		config.RateLimit = 60
	}
	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: ratelimit.NewRateLimiter(config.RateLimit, 1),
	}
}

// ReverseGeocode looks up the address at (lat, lon). It returns nil without
// an error when the server has no place there.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*geo.Address, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GeocoderRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("reverse geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GeocoderRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		metrics.GeocoderRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}
	metrics.GeocoderRequests.WithLabelValues("200").Inc()

	return parseAddress(body)
}

// Close stops request pacing
func (c *Client) Close() {
	c.rateLimiter.Stop()
}

func parseAddress(body []byte) (*geo.Address, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("geocoder returned invalid JSON")
	}
	if gjson.GetBytes(body, "error").Exists() {
		return nil, nil
	}
	address := gjson.GetBytes(body, "address")
	if !address.IsObject() {
		return nil, nil
	}
	return &geo.Address{
		State:   address.Get("state").String(),
		County:  address.Get("county").String(),
		Town:    address.Get("town").String(),
		Village: address.Get("village").String(),
	}, nil
}

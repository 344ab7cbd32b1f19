// Package metrics registers the Prometheus collectors of the dashboard.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CommandsTotal counts dispatched dashboard commands by kind and result
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surveydash_commands_total",
		Help: "Dashboard commands by kind and result",
	}, []string{"kind", "result"})

	// CommandDuration tracks command latency
	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "surveydash_command_duration_seconds",
		Help:    "Dashboard command duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
	}, []string{"kind"})

	// GeoResolutions counts per-row geo resolution outcomes
	GeoResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surveydash_geo_resolutions_total",
		Help: "Rows resolved by outcome (resolved, unknown, invalid, no_data, error)",
	}, []string{"outcome"})

	// GeocoderRequests counts upstream reverse geocoding calls
	GeocoderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surveydash_geocoder_requests_total",
		Help: "Reverse geocoding requests by result",
	}, []string{"result"})

	// CacheLookups counts memoized lookups by cache and hit/miss
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surveydash_cache_lookups_total",
		Help: "Cache lookups by cache name and result",
	}, []string{"cache", "result"}) // "hit" or "miss"

	// RowsLoaded counts submissions ingested per dataset
	RowsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "surveydash_rows_loaded_total",
		Help: "Survey submissions loaded by dataset",
	}, []string{"dataset"})

	// ActiveSessions tracks live dashboard sessions
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "surveydash_active_sessions",
		Help: "Dashboard sessions currently held in memory",
	})
)

// ObserveCommand records one command execution
func ObserveCommand(kind string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CommandsTotal.WithLabelValues(kind, result).Inc()
	CommandDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// CacheResult records a cache hit or miss
func CacheResult(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

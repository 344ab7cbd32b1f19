package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"surveydash/domain/dataset"
	"surveydash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Kobo     KoboConfig
	Geocoder GeocoderConfig
	Session  SessionConfig
	Analysis AnalysisConfig
	Database DatabaseConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// KoboConfig holds survey-collection API settings
type KoboConfig struct {
	BaseURL  string
	Token    string
	Timeout  time.Duration
	PageSize int
	CacheTTL time.Duration
	Assets   []dataset.Source
}

// GeocoderConfig holds reverse geocoding settings
type GeocoderConfig struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	RateLimit    int // requests per minute
	Retries      int
	RetryDelay   time.Duration
	RetryBackoff float64 // delay multiplier per failed attempt; 1 keeps it fixed
	Workers      int
	CacheTTL     time.Duration
}

// SessionConfig holds dashboard session settings
type SessionConfig struct {
	TTL time.Duration
}

// AnalysisConfig holds defaults for the analysis engines
type AnalysisConfig struct {
	DurationThresholdMinutes float64
	Regions                  dataset.Regions
}

// DatabaseConfig holds the optional report archive connection
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a report archive is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// DefaultAssets are the survey forms known to the dashboard
func DefaultAssets() []dataset.Source {
	return []dataset.Source{
		{Name: "AfghanAid CARL Baseline", AssetUID: "aPykjh6GrHZr4SEdkWCHE3", Description: "Household baseline survey"},
		{Name: "AfghanAid Observation Checklist", AssetUID: "aAGhH3cyoF59wFK3gHiRxg", Description: "Field observation checklist"},
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	assets, err := loadAssets()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load survey assets")
	}

	regions := dataset.DefaultRegions()
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Kobo: KoboConfig{
			BaseURL:  strings.TrimRight(getEnvOrDefault("KOBO_BASE_URL", "https://eu.kobotoolbox.org/api/v2"), "/"),
			Token:    os.Getenv("KOBO_TOKEN"),
			Timeout:  getEnvDurationOrDefault("KOBO_TIMEOUT", 60*time.Second),
			PageSize: getEnvIntOrDefault("KOBO_PAGE_SIZE", 1000),
			CacheTTL: getEnvDurationOrDefault("KOBO_CACHE_TTL", 10*time.Minute),
			Assets:   assets,
		},
		Geocoder: GeocoderConfig{
			BaseURL:      strings.TrimRight(getEnvOrDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"), "/"),
			UserAgent:    getEnvOrDefault("GEOCODER_USER_AGENT", "afghanistan_geoapi"),
			Timeout:      getEnvDurationOrDefault("GEOCODER_TIMEOUT", 10*time.Second),
			RateLimit:    getEnvIntOrDefault("GEOCODER_RATE_LIMIT", 60),
			Retries:      getEnvIntOrDefault("GEO_RETRIES", 3),
			RetryDelay:   getEnvDurationOrDefault("GEO_RETRY_DELAY", 2*time.Second),
			RetryBackoff: getEnvFloatOrDefault("GEO_RETRY_BACKOFF", 1),
			Workers:      getEnvIntOrDefault("GEO_WORKERS", 1),
			CacheTTL:     getEnvDurationOrDefault("GEOCODER_CACHE_TTL", time.Hour),
		},
		Session: SessionConfig{
			TTL: getEnvDurationOrDefault("SESSION_TTL", 2*time.Hour),
		},
		Analysis: AnalysisConfig{
			DurationThresholdMinutes: getEnvFloatOrDefault("DURATION_THRESHOLD_MINUTES", 30),
			Regions: dataset.Regions{
				Province: getEnvOrDefault("REGION_PROVINCE_COLUMN", regions.Province),
				District: getEnvOrDefault("REGION_DISTRICT_COLUMN", regions.District),
			},
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Validate checks the values that have no usable fallback
func (c *Config) Validate() error {
	if c.Kobo.PageSize <= 0 {
		return errors.ConfigInvalid("KOBO_PAGE_SIZE must be positive")
	}
	if c.Geocoder.UserAgent == "" {
		return errors.ConfigInvalid("GEOCODER_USER_AGENT is required by the geocoder usage policy")
	}
	if c.Geocoder.RateLimit <= 0 {
		return errors.ConfigInvalid("GEOCODER_RATE_LIMIT must be positive")
	}
	if c.Geocoder.Retries < 1 {
		return errors.ConfigInvalid("GEO_RETRIES must be at least 1")
	}
	if c.Geocoder.Workers < 1 {
		return errors.ConfigInvalid("GEO_WORKERS must be at least 1")
	}
	if c.Analysis.DurationThresholdMinutes <= 0 {
		return errors.ConfigInvalid("DURATION_THRESHOLD_MINUTES must be positive")
	}
	if c.Analysis.Regions.Province == "" || c.Analysis.Regions.District == "" {
		return errors.ConfigInvalid("region columns must not be empty")
	}
	return nil
}

// loadAssets merges KOBO_ASSETS ("Name=uid;Other Name=uid") over the defaults
func loadAssets() ([]dataset.Source, error) {
	assets := DefaultAssets()
	raw := strings.TrimSpace(os.Getenv("KOBO_ASSETS"))
	if raw == "" {
		return assets, nil
	}

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, uid, ok := strings.Cut(entry, "=")
		name, uid = strings.TrimSpace(name), strings.TrimSpace(uid)
		if !ok || name == "" || uid == "" {
			return nil, errors.ConfigInvalid("KOBO_ASSETS entry " + strconv.Quote(entry) + " must be Name=uid")
		}

		replaced := false
		for i := range assets {
			if assets[i].Name == name {
				assets[i].AssetUID = uid
				replaced = true
			}
		}
		if !replaced {
			assets = append(assets, dataset.Source{Name: name, AssetUID: uid})
		}
	}
	return assets, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveydash/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KOBO_ASSETS", "")
	t.Setenv("GEO_RETRIES", "")
	t.Setenv("GEO_RETRY_BACKOFF", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://eu.kobotoolbox.org/api/v2", cfg.Kobo.BaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Kobo.CacheTTL)
	assert.Equal(t, "afghanistan_geoapi", cfg.Geocoder.UserAgent)
	assert.Equal(t, 3, cfg.Geocoder.Retries)
	assert.Equal(t, 2*time.Second, cfg.Geocoder.RetryDelay)
	assert.Equal(t, 1.0, cfg.Geocoder.RetryBackoff)
	assert.Equal(t, 30.0, cfg.Analysis.DurationThresholdMinutes)
	assert.Equal(t, "gen_info/province", cfg.Analysis.Regions.Province)
	assert.Len(t, cfg.Kobo.Assets, 2)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KOBO_BASE_URL", "http://kobo.local/api/v2/")
	t.Setenv("GEO_RETRY_DELAY", "500ms")
	t.Setenv("GEO_RETRY_BACKOFF", "2")
	t.Setenv("KOBO_ASSETS", "AfghanAid CARL Baseline=newuid; Endline=enduid")
	t.Setenv("DATABASE_URL", "postgres://localhost/surveydash")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://kobo.local/api/v2", cfg.Kobo.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Geocoder.RetryDelay)
	assert.Equal(t, 2.0, cfg.Geocoder.RetryBackoff)
	require.Len(t, cfg.Kobo.Assets, 3)
	assert.Equal(t, "newuid", cfg.Kobo.Assets[0].AssetUID)
	assert.Equal(t, "Endline", cfg.Kobo.Assets[2].Name)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("malformed assets", func(t *testing.T) {
		t.Setenv("KOBO_ASSETS", "no-separator")
		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	})

	t.Run("zero retries", func(t *testing.T) {
		t.Setenv("GEO_RETRIES", "0")
		_, err := Load()
		require.Error(t, err)
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	})
}

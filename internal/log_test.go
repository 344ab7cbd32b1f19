package internal

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel(" WARN "))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestComponentLoggerFiltersAndTags(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelWarn)
	logger.SetOutput(log.New(&buf, "", 0))

	geo := logger.WithComponent("GeoResolver")
	geo.Info("not shown")
	geo.Warn("row %d failed", 4)

	assert.Equal(t, "[WARN] [GeoResolver] row 4 failed\n", buf.String())
}

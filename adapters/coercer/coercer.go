package coercer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"surveydash/domain/dataset"
)

// TypeCoercer converts raw survey cells into numbers and timestamps. A cell
// that cannot be converted becomes missing; coercion never fails.
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold   float64  `json:"numeric_threshold"`   // share of values that must parse as numbers
	TimestampThreshold float64  `json:"timestamp_threshold"` // share of values that must parse as timestamps
	TimestampLayouts   []string `json:"timestamp_layouts"`
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   0.8,
		TimestampThreshold: 0.8,
		TimestampLayouts: []string{
			time.RFC3339Nano,
			"2006-01-02T15:04:05.999999999",
			"2006-01-02 15:04:05.999999999Z07:00",
			"2006-01-02 15:04:05.999999999",
			"2006-01-02T15:04",
			"2006-01-02",
			"2006/01/02",
			"01/02/2006 15:04:05",
			"01/02/2006",
			"02-Jan-2006",
		},
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// Default is the coercer used by the analysis engines
var Default = NewTypeCoercer(DefaultCoercionConfig())

// ToNumber coerces a cell to a number. Strings are trimmed first.
func (c *TypeCoercer) ToNumber(v dataset.Value) dataset.Value {
	if n, ok := v.Float(); ok {
		return dataset.NewNumber(n)
	}
	s, ok := v.Str()
	if !ok {
		return dataset.Missing()
	}
	if n, ok := c.parseNumeric(s); ok {
		return dataset.NewNumber(n)
	}
	return dataset.Missing()
}

// ToTimestamp coerces a cell to a UTC timestamp. Offset-aware inputs are
// converted to UTC, naive inputs are taken as UTC.
func (c *TypeCoercer) ToTimestamp(v dataset.Value) dataset.Value {
	if t, ok := v.Time(); ok {
		return dataset.NewTimestamp(t.UTC())
	}
	s, ok := v.Str()
	if !ok {
		return dataset.Missing()
	}
	if t, ok := c.parseTimestamp(s); ok {
		return dataset.NewTimestamp(t)
	}
	return dataset.Missing()
}

// Normalize trims string cells and turns them into numbers when they parse as
// one. Strings that do not parse are kept; blank strings become missing.
func (c *TypeCoercer) Normalize(v dataset.Value) dataset.Value {
	s, ok := v.Str()
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if n, ok := c.parseNumeric(s); ok {
		return dataset.NewNumber(n)
	}
	return dataset.NewString(s)
}

// Numbers coerces every value and returns the non-missing numbers in order
func (c *TypeCoercer) Numbers(values []dataset.Value) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if n, ok := c.ToNumber(v).Float(); ok {
			out = append(out, n)
		}
	}
	return out
}

// AnalyzeTypeDistribution reports how many values of a column coerce to each type
func (c *TypeCoercer) AnalyzeTypeDistribution(values []dataset.Value) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}

	for _, v := range values {
		if v.IsMissing() {
			continue
		}
		analysis.ValidCount++
		if !c.ToNumber(v).IsMissing() {
			analysis.NumericCount++
		}
		if !c.ToTimestamp(v).IsMissing() {
			analysis.TimestampCount++
		}
	}

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
		analysis.TimestampRatio = float64(analysis.TimestampCount) / float64(analysis.ValidCount)
	}
	analysis.RecommendedType = c.determineRecommendedType(analysis)

	return analysis
}

func (c *TypeCoercer) parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isHexLiteral(s) {
		return 0, false
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// isHexLiteral reports Go hex float syntax, which survey answers never use
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func (c *TypeCoercer) parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range c.config.TimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// determineRecommendedType chooses the best type based on analysis
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) dataset.ValueKind {
	if analysis.ValidCount == 0 {
		return dataset.KindMissing
	}
	if analysis.NumericRatio >= c.config.NumericThreshold {
		return dataset.KindNumber
	}
	if analysis.TimestampRatio >= c.config.TimestampThreshold {
		return dataset.KindTimestamp
	}
	return dataset.KindString
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int               `json:"total_count"`
	ValidCount      int               `json:"valid_count"`
	NumericCount    int               `json:"numeric_count"`
	TimestampCount  int               `json:"timestamp_count"`
	NumericRatio    float64           `json:"numeric_ratio"`
	TimestampRatio  float64           `json:"timestamp_ratio"`
	RecommendedType dataset.ValueKind `json:"recommended_type"`
}

package profiling

import (
	"encoding/json"
	"math"
)

// Stat is a summary statistic. NaN marks a statistic that could not be
// computed because the column held no numeric values; it encodes as null.
type Stat float64

// Valid reports whether the statistic was computed
func (s Stat) Valid() bool {
	return !math.IsNaN(float64(s))
}

// OrZero returns the statistic, or 0 when it could not be computed
func (s Stat) OrZero() float64 {
	if !s.Valid() {
		return 0
	}
	return float64(s)
}

func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid() || math.IsInf(float64(s), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(s))
}

func (s *Stat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = Stat(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Stat(f)
	return nil
}

var nan = Stat(math.NaN())

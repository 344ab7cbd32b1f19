package profiling

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"surveydash/adapters/coercer"
	"surveydash/domain/dataset"
)

// ColumnProfile describes the numeric shape of one column
type ColumnProfile struct {
	Column       string               `json:"column"`
	Count        int                  `json:"count"`         // numeric values
	MissingCount int                  `json:"missing_count"` // rows that did not coerce
	Mean         Stat                 `json:"mean"`
	StdDev       Stat                 `json:"std_dev"`
	Min          Stat                 `json:"min"`
	Q1           Stat                 `json:"q1"`
	Median       Stat                 `json:"median"`
	Q3           Stat                 `json:"q3"`
	Max          Stat                 `json:"max"`
	Skewness     Stat                 `json:"skewness"`
	OutlierCount int                  `json:"outlier_count"`
	Types        coercer.TypeAnalysis `json:"types"`
}

// Profile computes the distribution of one column
func Profile(table *dataset.Table, column string) (ColumnProfile, error) {
	raw, err := table.Column(column)
	if err != nil {
		return ColumnProfile{}, err
	}

	data := coercer.Default.Numbers(raw)
	profile := ColumnProfile{
		Column:       column,
		Count:        len(data),
		MissingCount: len(raw) - len(data),
		Mean:         nan,
		StdDev:       nan,
		Min:          nan,
		Q1:           nan,
		Median:       nan,
		Q3:           nan,
		Max:          nan,
		Skewness:     nan,
		Types:        coercer.Default.AnalyzeTypeDistribution(raw),
	}
	if len(data) == 0 {
		return profile, nil
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mean := guard(stats.Mean(data))
	// sample standard deviation, matching the dataframe describe() output
	stdDev := guard(stats.StandardDeviationSample(data))

	profile.Mean = mean
	profile.StdDev = stdDev
	profile.Min = Stat(sorted[0])
	profile.Max = Stat(sorted[len(sorted)-1])
	profile.Q1 = Stat(quantile(sorted, 0.25))
	profile.Median = guard(stats.Median(data))
	profile.Q3 = Stat(quantile(sorted, 0.75))
	profile.Skewness = skewness(data, float64(stdDev))

	lower, upper := OutlierBounds(data)
	profile.OutlierCount = countOutside(data, lower, upper)

	return profile, nil
}

// skewness is the adjusted Fisher-Pearson coefficient; it needs three values
// and some spread
func skewness(data []float64, stdDev float64) Stat {
	if len(data) < 3 || stdDev == 0 || math.IsNaN(stdDev) {
		return nan
	}
	return Stat(stat.Skew(data, nil))
}

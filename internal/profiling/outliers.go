package profiling

import (
	"math"
	"sort"

	"surveydash/adapters/coercer"
	"surveydash/domain/dataset"
)

// OutlierBounds returns the IQR fences [Q1 - 1.5*IQR, Q3 + 1.5*IQR]. Both
// bounds are NaN when there are no values.
func OutlierBounds(values []float64) (lower, upper float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

// IdentifyOutliers returns the rows whose numeric value in column lies
// strictly outside the IQR fences. Rows without a numeric value are never
// outliers.
func IdentifyOutliers(table *dataset.Table, column string) (*dataset.Table, error) {
	values, err := table.Column(column)
	if err != nil {
		return nil, err
	}

	lower, upper := OutlierBounds(coercer.Default.Numbers(values))
	return table.Where(func(r dataset.Row) bool {
		x, ok := coercer.Default.ToNumber(r.Get(column)).Float()
		return ok && (x < lower || x > upper)
	}), nil
}

// quantile interpolates linearly between the closest ranks of sorted data,
// with position (n-1)*p
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[i]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

func countOutside(values []float64, lower, upper float64) int {
	count := 0
	for _, x := range values {
		if x < lower || x > upper {
			count++
		}
	}
	return count
}

// Package profiling computes descriptive statistics and IQR outliers over
// numeric-coercible survey columns.
package profiling

import (
	"github.com/montanaflynn/stats"

	"surveydash/adapters/coercer"
	"surveydash/domain/dataset"
)

// Summary is the statistics card of a table. The first requested column
// feeds Mean and Median, the second Min and Max, the third OutlierCount.
// Outputs for columns that were not requested are 0.
type Summary struct {
	Total        int  `json:"total"`
	Mean         Stat `json:"mean"`
	Median       Stat `json:"median"`
	Min          Stat `json:"min"`
	Max          Stat `json:"max"`
	OutlierCount int  `json:"outlier_count"`
}

// Describe builds the statistics card for up to three columns
func Describe(table *dataset.Table, columns []string) (Summary, error) {
	summary := Summary{Total: table.Len()}
	if err := table.RequireColumns(columns...); err != nil {
		return summary, err
	}

	if len(columns) > 0 {
		values := numericColumn(table, columns[0])
		summary.Mean = guard(stats.Mean(values))
		summary.Median = guard(stats.Median(values))
	}
	if len(columns) > 1 {
		values := numericColumn(table, columns[1])
		summary.Min = guard(stats.Min(values))
		summary.Max = guard(stats.Max(values))
	}
	if len(columns) > 2 {
		values := numericColumn(table, columns[2])
		lower, upper := OutlierBounds(values)
		summary.OutlierCount = countOutside(values, lower, upper)
	}

	return summary, nil
}

func numericColumn(table *dataset.Table, column string) []float64 {
	values, _ := table.Column(column)
	return coercer.Default.Numbers(values)
}

// guard turns the empty-input error of the stats package into NaN
func guard(v float64, err error) Stat {
	if err != nil {
		return nan
	}
	return Stat(v)
}

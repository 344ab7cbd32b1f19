// Package quality holds the data-quality filters of the dashboard: short
// interviews and cross-question consistency checks.
package quality

import (
	"math"

	"surveydash/adapters/coercer"
	"surveydash/domain/core"
	"surveydash/domain/dataset"
)

const (
	// DurationColumn holds the interview length in minutes
	DurationColumn = "duration"
	// DefaultThresholdMinutes is the cut-off below which an interview counts as short
	DefaultThresholdMinutes = 30.0
)

// FilterShortDurations returns the rows whose interview took less than
// thresholdMinutes. Start and end are replaced by their parsed UTC
// timestamps and a duration column is added. The span is absolute, so
// swapped timestamps still count. Columns left empty by the filter are
// dropped.
func FilterShortDurations(table *dataset.Table, startCol, endCol string, thresholdMinutes float64) (*dataset.Table, error) {
	var absent []string
	for _, c := range []string{startCol, endCol} {
		if !table.HasColumn(c) {
			absent = append(absent, c)
		}
	}
	if len(absent) > 0 {
		return nil, core.NewInvalidColumnError(absent...)
	}
	if thresholdMinutes <= 0 {
		thresholdMinutes = DefaultThresholdMinutes
	}

	starts, err := parseTimestamps(table, startCol)
	if err != nil {
		return nil, err
	}
	ends, err := parseTimestamps(table, endCol)
	if err != nil {
		return nil, err
	}

	durations := make([]dataset.Value, table.Len())
	for i := range durations {
		s, okStart := starts[i].Time()
		e, okEnd := ends[i].Time()
		if !okStart || !okEnd {
			continue
		}
		durations[i] = dataset.NewNumber(math.Abs(e.Sub(s).Minutes()))
	}

	out, err := table.WithColumn(startCol, starts)
	if err != nil {
		return nil, err
	}
	if out, err = out.WithColumn(endCol, ends); err != nil {
		return nil, err
	}
	if out, err = out.WithColumn(DurationColumn, durations); err != nil {
		return nil, err
	}

	return out.Where(func(r dataset.Row) bool {
		d, ok := r.Get(DurationColumn).Float()
		return ok && d < thresholdMinutes
	}).DropEmptyColumns(), nil
}

func parseTimestamps(table *dataset.Table, column string) ([]dataset.Value, error) {
	raw, err := table.Column(column)
	if err != nil {
		return nil, err
	}
	parsed := make([]dataset.Value, len(raw))
	valid := 0
	for i, v := range raw {
		parsed[i] = coercer.Default.ToTimestamp(v)
		if !parsed[i].IsMissing() {
			valid++
		}
	}
	if valid == 0 {
		return nil, core.NewUnparseableTimestampsError(column)
	}
	return parsed, nil
}

// FilterByTwoResponses returns the rows answering q1 with v1 and q2 with v2.
// Comparison is exact and a missing answer matches no row; columns left empty
// are dropped.
func FilterByTwoResponses(table *dataset.Table, q1, q2 string, v1, v2 dataset.Value) (*dataset.Table, error) {
	if err := table.RequireColumns(q1, q2); err != nil {
		return nil, err
	}
	if v1.IsMissing() || v2.IsMissing() {
		return table.Take(nil).DropEmptyColumns(), nil
	}
	return table.Where(func(r dataset.Row) bool {
		return r.Get(q1).Equal(v1) && r.Get(q2).Equal(v2)
	}).DropEmptyColumns(), nil
}

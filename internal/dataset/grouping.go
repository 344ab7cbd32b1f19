// Package dataset holds the table aggregations used by the dashboard's
// group-by and time-series views.
package dataset

import (
	"sort"
	"strings"

	"surveydash/adapters/coercer"
	"surveydash/domain/dataset"
)

// Output column names
const (
	CountColumn = "Count"
	DateColumn  = "Date"
)

// GroupCounts counts the rows sharing each combination of values in columns.
// Rows missing any of the columns are left out. Groups are ordered by their
// values; total is the number of counted rows.
func GroupCounts(table *dataset.Table, columns []string) (*dataset.Table, int, error) {
	if err := table.RequireColumns(columns...); err != nil {
		return nil, 0, err
	}

	type group struct {
		values []dataset.Value
		count  int
	}
	groups := make(map[string]*group)
	var order []*group

	for _, r := range table.Rows() {
		values := make([]dataset.Value, len(columns))
		keys := make([]string, len(columns))
		skip := false
		for i, c := range columns {
			values[i] = r.Get(c)
			if values[i].IsMissing() {
				skip = true
				break
			}
			keys[i] = values[i].Key()
		}
		if skip {
			continue
		}

		key := strings.Join(keys, "\x1f")
		g, ok := groups[key]
		if !ok {
			g = &group{values: values}
			groups[key] = g
			order = append(order, g)
		}
		g.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		for k := range columns {
			if c := dataset.Compare(order[i].values[k], order[j].values[k]); c != 0 {
				return c < 0
			}
		}
		return false
	})

	out := dataset.New(append(append([]string{}, columns...), CountColumn)...)
	total := 0
	for _, g := range order {
		row := make(map[string]dataset.Value, len(columns)+1)
		for k, c := range columns {
			row[c] = g.values[k]
		}
		row[CountColumn] = dataset.NewNumber(float64(g.count))
		out.AppendRow(row)
		total += g.count
	}
	return out, total, nil
}

// DailySubmissions counts rows per calendar day (UTC) of a timestamp column.
// Cells that do not parse as timestamps are ignored.
func DailySubmissions(table *dataset.Table, column string) (*dataset.Table, error) {
	values, err := table.Column(column)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, v := range values {
		ts, ok := coercer.Default.ToTimestamp(v).Time()
		if !ok {
			continue
		}
		counts[ts.Format("2006-01-02")]++
	}

	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)

	out := dataset.New(DateColumn, CountColumn)
	for _, d := range days {
		out.AppendRow(map[string]dataset.Value{
			DateColumn:  dataset.NewString(d),
			CountColumn: dataset.NewNumber(float64(counts[d])),
		})
	}
	return out, nil
}

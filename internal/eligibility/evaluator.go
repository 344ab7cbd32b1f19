// Package eligibility classifies households against aid program criteria and
// reports per-region percentages.
package eligibility

import (
	"math"
	"sort"
	"strings"

	"surveydash/adapters/coercer"
	"surveydash/domain/core"
	"surveydash/domain/dataset"
	"surveydash/domain/eligibility"
)

// UnassignedRegion labels rows whose region cell is missing
const UnassignedRegion = "No Data"

// Results table column names
const (
	ColumnProvince    = "Province"
	ColumnDistrict    = "District"
	ColumnTotal       = "Total HHs"
	ColumnEligible    = "Eligible (%)"
	ColumnNotEligible = "Not Eligible (%)"
	ColumnNull        = "Null Values (%)"
)

type class int

const (
	classNull class = iota
	classEligible
	classNotEligible
)

// Outcome is the result of evaluating one criterion. Every row of the input
// is counted in exactly one of eligible, NotEligible and Nulls.
type Outcome struct {
	Criterion   eligibility.Criterion   `json:"criterion"`
	Results     []eligibility.ResultRow `json:"results"`
	NotEligible *dataset.Table          `json:"-"`
	Nulls       *dataset.Table          `json:"-"`
}

// AverageEligible returns the mean eligible percentage across the groups
func (o *Outcome) AverageEligible() float64 {
	return AverageEligible(o.Results)
}

// ResultsTable renders the per-group results as a table
func (o *Outcome) ResultsTable() *dataset.Table {
	t := dataset.New(ColumnProvince, ColumnDistrict, ColumnTotal, ColumnEligible, ColumnNotEligible, ColumnNull)
	for _, r := range o.Results {
		t.AppendRow(map[string]dataset.Value{
			ColumnProvince:    dataset.NewString(r.Province),
			ColumnDistrict:    dataset.NewString(r.District),
			ColumnTotal:       dataset.NewNumber(float64(r.Total)),
			ColumnEligible:    dataset.NewNumber(r.EligiblePct),
			ColumnNotEligible: dataset.NewNumber(r.NotEligiblePct),
			ColumnNull:        dataset.NewNumber(r.NullPct),
		})
	}
	return t
}

type regionKey struct {
	province string
	district string
}

// Evaluate classifies every row of table against criterion, grouped by the
// province and district columns of regions.
//
// A single column is trimmed and read as a number when it parses as one. A
// multi-column criterion sums the numeric value of each column, counting
// missing or unparseable cells as 0, and stores the sum in
// eligibility.SumColumn. Value predicates compare case-insensitively; range
// predicates are inclusive and treat non-numeric values as not eligible.
func Evaluate(table *dataset.Table, regions dataset.Regions, criterion eligibility.Criterion) (*Outcome, error) {
	if len(criterion.Columns) == 0 {
		return nil, core.NewCriterionError("no columns")
	}
	if err := table.RequireColumns(regions.Columns()...); err != nil {
		return nil, err
	}
	if err := table.RequireColumns(criterion.Columns...); err != nil {
		return nil, err
	}

	working, targets, err := resolveTargets(table, criterion)
	if err != nil {
		return nil, err
	}

	groups := make(map[regionKey][]int)
	for i, r := range working.Rows() {
		key := regionKey{
			province: regionName(r.Get(regions.Province)),
			district: regionName(r.Get(regions.District)),
		}
		groups[key] = append(groups[key], i)
	}

	keys := make([]regionKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].province != keys[j].province {
			return keys[i].province < keys[j].province
		}
		return keys[i].district < keys[j].district
	})

	outcome := &Outcome{Criterion: criterion, Results: make([]eligibility.ResultRow, 0, len(keys))}
	var notEligible, nulls []int
	for _, key := range keys {
		members := groups[key]
		var eligibleCount, notEligibleCount, nullCount int
		for _, pos := range members {
			switch classify(targets[pos], criterion) {
			case classEligible:
				eligibleCount++
			case classNotEligible:
				notEligibleCount++
				notEligible = append(notEligible, pos)
			default:
				nullCount++
				nulls = append(nulls, pos)
			}
		}

		total := len(members)
		outcome.Results = append(outcome.Results, eligibility.ResultRow{
			Province:       key.province,
			District:       key.district,
			Total:          total,
			EligiblePct:    percentage(eligibleCount, total),
			NotEligiblePct: percentage(notEligibleCount, total),
			NullPct:        percentage(nullCount, total),
		})
	}

	outcome.NotEligible = working.Take(notEligible)
	outcome.Nulls = working.Take(nulls)
	return outcome, nil
}

// resolveTargets computes the per-row value the predicate is applied to
func resolveTargets(table *dataset.Table, criterion eligibility.Criterion) (*dataset.Table, []dataset.Value, error) {
	rows := table.Rows()
	targets := make([]dataset.Value, len(rows))

	if !criterion.IsComposite() {
		column := criterion.Columns[0]
		for i, r := range rows {
			targets[i] = coercer.Default.Normalize(r.Get(column))
		}
		return table, targets, nil
	}

	for i, r := range rows {
		sum := 0.0
		for _, column := range criterion.Columns {
			if n, ok := coercer.Default.ToNumber(r.Get(column)).Float(); ok {
				sum += n
			}
		}
		targets[i] = dataset.NewNumber(sum)
	}
	working, err := table.WithColumn(eligibility.SumColumn, targets)
	if err != nil {
		return nil, nil, err
	}
	return working, targets, nil
}

func classify(target dataset.Value, criterion eligibility.Criterion) class {
	if target.IsMissing() {
		return classNull
	}
	switch {
	case criterion.Value != nil:
		if strings.EqualFold(target.Text(), *criterion.Value) {
			return classEligible
		}
	case criterion.Range != nil:
		if n, ok := target.Float(); ok && criterion.Range.Contains(n) {
			return classEligible
		}
	}
	return classNotEligible
}

func regionName(v dataset.Value) string {
	if v.IsMissing() {
		return UnassignedRegion
	}
	return v.Text()
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(count) / float64(total) * 100)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

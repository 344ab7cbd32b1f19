package eligibility

import (
	"strings"

	"surveydash/domain/core"
)

// SumColumn is the derived column holding the summed value of a multi-column criterion
const SumColumn = "eligibility_sum"

// Range is an inclusive numeric interval
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether x lies in [Min, Max]
func (r Range) Contains(x float64) bool {
	return x >= r.Min && x <= r.Max
}

// Criterion is a named eligibility rule. A single column is evaluated as-is,
// several columns are summed. Exactly one of Value and Range should be set.
type Criterion struct {
	Columns     []string `json:"columns"`
	Value       *string  `json:"value,omitempty"`
	Range       *Range   `json:"range,omitempty"`
	Description string   `json:"description"`
}

// IsComposite reports whether the criterion sums several columns
func (c Criterion) IsComposite() bool {
	return len(c.Columns) > 1
}

// Validate checks that the criterion is well formed
func (c Criterion) Validate() error {
	if len(c.Columns) == 0 {
		return core.NewCriterionError("no columns")
	}
	for _, col := range c.Columns {
		if strings.TrimSpace(col) == "" {
			return core.NewCriterionError("empty column name")
		}
	}
	if c.Value != nil && c.Range != nil {
		return core.NewCriterionError("both value and range are set")
	}
	if c.Range != nil && c.Range.Min > c.Range.Max {
		return core.NewCriterionError("range minimum exceeds maximum")
	}
	return nil
}

// ValueCriterion builds a case-insensitive value-match criterion on one column
func ValueCriterion(column, value, description string) Criterion {
	return Criterion{Columns: []string{column}, Value: &value, Description: description}
}

// RangeCriterion builds an inclusive range criterion; several columns are summed
func RangeCriterion(columns []string, min, max float64, description string) Criterion {
	return Criterion{Columns: columns, Range: &Range{Min: min, Max: max}, Description: description}
}

// Intervention is a named aid program with its eligibility criteria
type Intervention struct {
	Name     string      `json:"name"`
	Criteria []Criterion `json:"criteria"`
}

// ResultRow holds per region-group percentages. The three percentages sum to
// 100 within rounding when Total > 0 and are all zero otherwise.
type ResultRow struct {
	Province       string  `json:"province"`
	District       string  `json:"district"`
	Total          int     `json:"total"`
	EligiblePct    float64 `json:"eligible_pct"`
	NotEligiblePct float64 `json:"not_eligible_pct"`
	NullPct        float64 `json:"null_pct"`
}

// ProvinceSummary aggregates district rows of one province. The percentages
// are unweighted means of the district percentages.
type ProvinceSummary struct {
	Province       string  `json:"province"`
	Total          int     `json:"total"`
	EligiblePct    float64 `json:"eligible_pct"`
	NotEligiblePct float64 `json:"not_eligible_pct"`
}

// CriterionAverage is the mean eligible percentage of one criterion across groups
type CriterionAverage struct {
	Description string  `json:"description"`
	EligiblePct float64 `json:"eligible_pct"`
}

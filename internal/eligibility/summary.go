package eligibility

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"surveydash/domain/eligibility"
)

// Summarize rolls district results up to provinces. Totals are summed and
// percentages are the unweighted mean of the district percentages, so a
// small district weighs as much as a large one.
func Summarize(rows []eligibility.ResultRow) []eligibility.ProvinceSummary {
	type acc struct {
		total       int
		eligible    []float64
		notEligible []float64
	}

	byProvince := make(map[string]*acc)
	var order []string
	for _, r := range rows {
		a, ok := byProvince[r.Province]
		if !ok {
			a = &acc{}
			byProvince[r.Province] = a
			order = append(order, r.Province)
		}
		a.total += r.Total
		a.eligible = append(a.eligible, r.EligiblePct)
		a.notEligible = append(a.notEligible, r.NotEligiblePct)
	}
	sort.Strings(order)

	out := make([]eligibility.ProvinceSummary, 0, len(order))
	for _, p := range order {
		a := byProvince[p]
		out = append(out, eligibility.ProvinceSummary{
			Province:       p,
			Total:          a.total,
			EligiblePct:    stat.Mean(a.eligible, nil),
			NotEligiblePct: stat.Mean(a.notEligible, nil),
		})
	}
	return out
}

// AverageEligible is the mean eligible percentage across groups, 0 when there
// are none
func AverageEligible(rows []eligibility.ResultRow) float64 {
	if len(rows) == 0 {
		return 0
	}
	pcts := make([]float64, len(rows))
	for i, r := range rows {
		pcts[i] = r.EligiblePct
	}
	return stat.Mean(pcts, nil)
}

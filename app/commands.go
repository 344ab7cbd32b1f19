package app

import (
	"fmt"

	"surveydash/domain/core"
	"surveydash/domain/dataset"
	"surveydash/domain/eligibility"
	"surveydash/domain/geo"
	elig "surveydash/internal/eligibility"
	apperrors "surveydash/internal/errors"
	"surveydash/internal/filter"
	"surveydash/internal/profiling"
)

// CommandKind selects the engine a dashboard request runs
type CommandKind string

const (
	CommandFilterOptions    CommandKind = "filter_options"
	CommandFilter           CommandKind = "filter"
	CommandDescribe         CommandKind = "describe"
	CommandOutliers         CommandKind = "outliers"
	CommandShortDurations   CommandKind = "short_durations"
	CommandUniqueResponses  CommandKind = "unique_responses"
	CommandConsistency      CommandKind = "consistency"
	CommandEligibility      CommandKind = "eligibility"
	CommandIntervention     CommandKind = "intervention"
	CommandGeoResolve       CommandKind = "geo_resolve"
	CommandGroupCounts      CommandKind = "group_counts"
	CommandDailySubmissions CommandKind = "daily_submissions"
)

// CommandKinds lists every supported command
func CommandKinds() []CommandKind {
	return []CommandKind{
		CommandFilterOptions, CommandFilter, CommandDescribe, CommandOutliers,
		CommandShortDurations, CommandUniqueResponses, CommandConsistency,
		CommandEligibility, CommandIntervention, CommandGeoResolve,
		CommandGroupCounts, CommandDailySubmissions,
	}
}

// DefaultSubmissionColumn is the submission time field of survey exports
const DefaultSubmissionColumn = "_submission_time"

// Request is one dashboard command. Filters narrow the session table before
// the command runs; the remaining fields are read by the commands that need
// them.
type Request struct {
	Kind    CommandKind `json:"kind"`
	Filters filter.Spec `json:"filters,omitempty"`

	// filter_options, describe, group_counts
	Columns []string `json:"columns,omitempty"`
	// outliers, unique_responses, geo_resolve, daily_submissions
	Column string `json:"column,omitempty"`

	// short_durations
	Start            string  `json:"start,omitempty"`
	End              string  `json:"end,omitempty"`
	ThresholdMinutes float64 `json:"threshold_minutes,omitempty"`

	// consistency
	Question1 string        `json:"question1,omitempty"`
	Question2 string        `json:"question2,omitempty"`
	Answer1   dataset.Value `json:"answer1"`
	Answer2   dataset.Value `json:"answer2"`

	// eligibility, intervention
	Criterion    *eligibility.Criterion `json:"criterion,omitempty"`
	Intervention string                 `json:"intervention,omitempty"`
	Regions      *dataset.Regions       `json:"regions,omitempty"`
}

// Response carries the output of a command. Only the fields relevant to the
// command kind are set.
type Response struct {
	Kind CommandKind `json:"kind"`
	Rows int         `json:"rows"` // rows after filtering

	Table       *dataset.Table                `json:"table,omitempty"`
	Total       int                           `json:"total,omitempty"`
	Options     filter.Spec                   `json:"options,omitempty"`
	Summary     *profiling.Summary            `json:"summary,omitempty"`
	Values      []dataset.Value               `json:"values,omitempty"`
	Outcome     *elig.Outcome                 `json:"outcome,omitempty"`
	Provinces   []eligibility.ProvinceSummary `json:"provinces,omitempty"`
	Report      *elig.InterventionReport      `json:"report,omitempty"`
	Resolutions []geo.Resolution              `json:"resolutions,omitempty"`
	RunID       core.RunID                    `json:"run_id,omitempty"`
}

// Export buckets of an eligibility outcome
const (
	BucketResults     = "results"
	BucketNotEligible = "not_eligible"
	BucketNulls       = "nulls"
)

// ExportTable returns the table a response exports as a workbook. Bucket
// selects the results, non-eligible rows or null rows of an eligibility
// outcome and is ignored otherwise.
func (r *Response) ExportTable(bucket string) (*dataset.Table, error) {
	switch {
	case r.Outcome != nil:
		switch bucket {
		case "", BucketResults:
			return r.Outcome.ResultsTable(), nil
		case BucketNotEligible:
			return r.Outcome.NotEligible, nil
		case BucketNulls:
			return r.Outcome.Nulls, nil
		}
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown export bucket %q", bucket))
	case r.Report != nil:
		return reportTable(r.Report), nil
	case r.Table != nil:
		return r.Table, nil
	case r.Options != nil:
		return optionsTable(r.Options), nil
	case r.Values != nil:
		t := dataset.New("Response")
		for _, v := range r.Values {
			t.AppendRow(map[string]dataset.Value{"Response": v})
		}
		return t, nil
	}
	return nil, apperrors.InvalidInput(fmt.Sprintf("%s produces no table", r.Kind))
}

// reportTable stacks the criterion results of an intervention with a leading
// Criterion column
func reportTable(report *elig.InterventionReport) *dataset.Table {
	parts := make([]*dataset.Table, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		results := o.ResultsTable()
		desc := make([]dataset.Value, results.Len())
		for i := range desc {
			desc[i] = dataset.NewString(o.Criterion.Description)
		}
		withDesc, _ := results.WithColumn("Criterion", desc)
		parts = append(parts, withDesc)
	}
	return dataset.Concat([]string{"Criterion",
		elig.ColumnProvince, elig.ColumnDistrict, elig.ColumnTotal,
		elig.ColumnEligible, elig.ColumnNotEligible, elig.ColumnNull}, parts...)
}

func optionsTable(spec filter.Spec) *dataset.Table {
	t := dataset.New("Column", "Value")
	for _, c := range spec.Columns() {
		for _, v := range spec[c] {
			t.AppendRow(map[string]dataset.Value{"Column": dataset.NewString(c), "Value": v})
		}
	}
	return t
}

// Package app wires the survey engines behind a session-scoped command API.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"surveydash/adapters/excel"
	"surveydash/domain/core"
	"surveydash/domain/dataset"
	"surveydash/domain/eligibility"
	"surveydash/domain/run"
	"surveydash/internal"
	grouping "surveydash/internal/dataset"
	elig "surveydash/internal/eligibility"
	apperrors "surveydash/internal/errors"
	"surveydash/internal/filter"
	"surveydash/internal/geo"
	"surveydash/internal/metrics"
	"surveydash/internal/profiling"
	"surveydash/internal/quality"
	"surveydash/internal/report"
	"surveydash/internal/session"
	"surveydash/ports"
)

// Dependencies are the collaborators of the dashboard service. Resolver and
// Reports are optional.
type Dependencies struct {
	Registry ports.DatasetRegistry
	Source   ports.SurveySource
	Sessions *session.Manager
	Resolver *geo.Resolver
	Reports  ports.ReportRepository

	Regions                  dataset.Regions
	DurationThresholdMinutes float64
}

// DashboardService loads survey datasets into sessions and runs dashboard
// commands against them
type DashboardService struct {
	registry ports.DatasetRegistry
	source   ports.SurveySource
	sessions *session.Manager
	resolver *geo.Resolver
	reports  ports.ReportRepository

	regions           dataset.Regions
	durationThreshold float64
	now               func() time.Time
	logger            *internal.Logger
}

// NewDashboardService creates the service
func NewDashboardService(deps Dependencies) *DashboardService {
	regions := deps.Regions
	if regions.Province == "" || regions.District == "" {
		regions = dataset.DefaultRegions()
	}
	threshold := deps.DurationThresholdMinutes
	if threshold <= 0 {
		threshold = quality.DefaultThresholdMinutes
	}
	return &DashboardService{
		registry:          deps.Registry,
		source:            deps.Source,
		sessions:          deps.Sessions,
		resolver:          deps.Resolver,
		reports:           deps.Reports,
		regions:           regions,
		durationThreshold: threshold,
		now:               time.Now,
		logger:            internal.DefaultLogger.WithComponent("Dashboard"),
	}
}

// Datasets lists the registered survey datasets
func (s *DashboardService) Datasets() []dataset.Source {
	return s.registry.List()
}

// Interventions lists the preset aid programs
func (s *DashboardService) Interventions() []eligibility.Intervention {
	return elig.Interventions()
}

// Sessions exposes the session store
func (s *DashboardService) Sessions() *session.Manager {
	return s.sessions
}

// ArchiveEnabled reports whether intervention runs are archived
func (s *DashboardService) ArchiveEnabled() bool {
	return s.reports != nil
}

// LoadSession fetches a dataset by name and opens a session over it. A zero
// submittedAfter loads every submission.
func (s *DashboardService) LoadSession(ctx context.Context, name string, submittedAfter time.Time) (*session.Session, error) {
	src, err := s.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	table, err := s.source.Load(ctx, dataset.Query{AssetUID: src.AssetUID, SubmittedAfter: submittedAfter})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", src.Name, err)
	}
	metrics.RowsLoaded.WithLabelValues(src.Name).Add(float64(table.Len()))

	return s.sessions.Create(src.Name, submittedAfter, table), nil
}

// FlushSourceCache drops cached survey loads so the next load reaches the
// survey server. It reports whether the source caches at all.
func (s *DashboardService) FlushSourceCache() bool {
	cached, ok := s.source.(interface{ Flush() })
	if !ok {
		return false
	}
	cached.Flush()
	s.logger.Info("survey cache flushed")
	return true
}

// OpenSession wraps an already loaded table, as for uploaded files
func (s *DashboardService) OpenSession(name string, table *dataset.Table) *session.Session {
	metrics.RowsLoaded.WithLabelValues(name).Add(float64(table.Len()))
	return s.sessions.Create(name, time.Time{}, table)
}

// Dispatch runs one command against the session. The request filters are
// applied first and all-missing columns dropped; the session table itself is
// never modified.
func (s *DashboardService) Dispatch(ctx context.Context, sess *session.Session, req Request) (resp *Response, err error) {
	started := time.Now()
	defer func() { metrics.ObserveCommand(string(req.Kind), started, err) }()

	table, err := filter.Apply(sess.Table, req.Filters)
	if err != nil {
		return nil, err
	}
	table = table.DropEmptyColumns()

	resp = &Response{Kind: req.Kind, Rows: table.Len()}

	switch req.Kind {
	case CommandFilterOptions:
		resp.Options, err = filter.BuildOptions(table, req.Columns)

	case CommandFilter:
		resp.Table = table

	case CommandDescribe:
		var summary profiling.Summary
		summary, err = profiling.Describe(table, req.Columns)
		resp.Summary = &summary

	case CommandOutliers:
		resp.Table, err = profiling.IdentifyOutliers(table, req.Column)

	case CommandShortDurations:
		threshold := req.ThresholdMinutes
		if threshold <= 0 {
			threshold = s.durationThreshold
		}
		resp.Table, err = quality.FilterShortDurations(table, req.Start, req.End, threshold)

	case CommandUniqueResponses:
		resp.Values, err = filter.UniqueResponses(table, req.Column)

	case CommandConsistency:
		resp.Table, err = quality.FilterByTwoResponses(table, req.Question1, req.Question2, req.Answer1, req.Answer2)

	case CommandEligibility:
		err = s.runEligibility(table, req, resp)

	case CommandIntervention:
		err = s.runIntervention(ctx, sess, table, req, resp)

	case CommandGeoResolve:
		if s.resolver == nil {
			return nil, apperrors.ConfigInvalid("geocoder is not configured")
		}
		resp.Table, resp.Resolutions, err = s.resolver.Resolve(ctx, table, req.Column)

	case CommandGroupCounts:
		resp.Table, resp.Total, err = grouping.GroupCounts(table, req.Columns)

	case CommandDailySubmissions:
		column := req.Column
		if column == "" {
			column = DefaultSubmissionColumn
		}
		resp.Table, err = grouping.DailySubmissions(table, column)

	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownCommand, req.Kind)
	}

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *DashboardService) regionsFor(req Request) dataset.Regions {
	if req.Regions != nil && req.Regions.Province != "" && req.Regions.District != "" {
		return *req.Regions
	}
	return s.regions
}

func (s *DashboardService) runEligibility(table *dataset.Table, req Request, resp *Response) error {
	if req.Criterion == nil {
		return core.NewCriterionError("no criterion given")
	}
	if err := req.Criterion.Validate(); err != nil {
		return err
	}
	outcome, err := elig.Evaluate(table, s.regionsFor(req), *req.Criterion)
	if err != nil {
		return err
	}
	resp.Outcome = outcome
	resp.Provinces = elig.Summarize(outcome.Results)
	return nil
}

func (s *DashboardService) runIntervention(ctx context.Context, sess *session.Session, table *dataset.Table, req Request, resp *Response) error {
	intervention, err := elig.Lookup(req.Intervention)
	if err != nil {
		return err
	}
	report, err := elig.EvaluateIntervention(ctx, table, s.regionsFor(req), intervention)
	if err != nil {
		return err
	}
	resp.Report = report

	if s.reports != nil {
		rn := s.newRun(sess.Dataset, table.Len(), report)
		if err := s.reports.SaveRun(ctx, rn); err != nil {
			// archive failures do not fail the command
			s.logger.Warn("failed to archive %s run: %v", report.Intervention, err)
		} else {
			resp.RunID = rn.ID
		}
	}
	return nil
}

func (s *DashboardService) newRun(datasetName string, rows int, report *elig.InterventionReport) *run.Run {
	rn := &run.Run{
		ID:           core.NewRunID(),
		Dataset:      datasetName,
		Intervention: report.Intervention,
		RowCount:     rows,
		CreatedAt:    s.now().UTC(),
		Criteria:     make([]run.CriterionRun, len(report.Outcomes)),
	}
	for i, o := range report.Outcomes {
		rn.Criteria[i] = run.CriterionRun{
			Position:        i,
			Description:     o.Criterion.Description,
			AverageEligible: o.AverageEligible(),
			Results:         o.Results,
		}
	}
	return rn
}

// Export writes the response table selected by bucket as a workbook
func (s *DashboardService) Export(w io.Writer, resp *Response, bucket string) error {
	table, err := resp.ExportTable(bucket)
	if err != nil {
		return err
	}
	return excel.Write(w, table, excel.DefaultSheet)
}

// ListRuns returns archived intervention runs
func (s *DashboardService) ListRuns(ctx context.Context, f run.Filter) ([]*run.Run, error) {
	if s.reports == nil {
		return nil, apperrors.ConfigInvalid("report archive is not configured")
	}
	return s.reports.ListRuns(ctx, f)
}

// GetRun returns one archived run
func (s *DashboardService) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	if s.reports == nil {
		return nil, apperrors.ConfigInvalid("report archive is not configured")
	}
	return s.reports.GetRun(ctx, id)
}

// RenderReport evaluates an intervention over the filtered session table and
// renders the result as markdown and as an HTML page
func (s *DashboardService) RenderReport(ctx context.Context, sess *session.Session, req Request) (markdown string, page []byte, err error) {
	req.Kind = CommandIntervention
	resp, err := s.Dispatch(ctx, sess, req)
	if err != nil {
		return "", nil, err
	}
	md := report.Markdown(resp.Report, report.Meta{
		Dataset:     sess.Dataset,
		Rows:        resp.Rows,
		GeneratedAt: s.now(),
	})
	return md, report.HTML(md, resp.Report.Intervention+" eligibility"), nil
}

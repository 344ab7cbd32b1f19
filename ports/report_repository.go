package ports

import (
	"context"

	"surveydash/domain/core"
	"surveydash/domain/run"
)

// ReportRepository archives intervention evaluations
type ReportRepository interface {
	SaveRun(ctx context.Context, r *run.Run) error
	GetRun(ctx context.Context, id core.RunID) (*run.Run, error)
	ListRuns(ctx context.Context, filter run.Filter) ([]*run.Run, error)
}

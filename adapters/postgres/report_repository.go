// Package postgres archives intervention evaluations in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"surveydash/domain/core"
	"surveydash/domain/eligibility"
	"surveydash/domain/run"
	apperrors "surveydash/internal/errors"
	"surveydash/ports"
)

const uniqueViolation = "23505"

// ResultRows stores eligibility result rows in a JSONB column
type ResultRows []eligibility.ResultRow

// Value implements driver.Valuer
func (r ResultRows) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner
func (r *ResultRows) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*r = ResultRows{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into result rows", value)
	}
	if len(raw) == 0 {
		*r = ResultRows{}
		return nil
	}
	return json.Unmarshal(raw, (*[]eligibility.ResultRow)(r))
}

type criterionRecord struct {
	RunID           string     `db:"run_id"`
	Position        int        `db:"position"`
	Description     string     `db:"description"`
	AverageEligible float64    `db:"average_eligible"`
	Results         ResultRows `db:"results"`
}

func (c criterionRecord) toDomain() run.CriterionRun {
	return run.CriterionRun{
		Position:        c.Position,
		Description:     c.Description,
		AverageEligible: c.AverageEligible,
		Results:         []eligibility.ResultRow(c.Results),
	}
}

// ReportRepositoryImpl implements ports.ReportRepository for PostgreSQL
type ReportRepositoryImpl struct {
	db *sqlx.DB
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &ReportRepositoryImpl{db: db}
}

// Connect opens the database and applies pending migrations
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to connect", err)
	}
	if err := NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, apperrors.DatabaseError("failed to migrate", err)
	}
	return db, nil
}

// SaveRun stores a run and its criteria in one transaction
func (r *ReportRepositoryImpl) SaveRun(ctx context.Context, rn *run.Run) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO report_runs (id, dataset, intervention, row_count, created_at)
		VALUES (:id, :dataset, :intervention, :row_count, :created_at)
	`, rn)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.InvalidInput(fmt.Sprintf("run %s already archived", rn.ID))
		}
		return apperrors.DatabaseError("failed to insert run", err)
	}

	for _, c := range rn.Criteria {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_criteria (run_id, position, description, average_eligible, results)
			VALUES ($1, $2, $3, $4, $5)
		`, rn.ID.String(), c.Position, c.Description, c.AverageEligible, ResultRows(c.Results))
		if err != nil {
			return apperrors.DatabaseError("failed to insert criterion", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// GetRun retrieves a run with its criteria
func (r *ReportRepositoryImpl) GetRun(ctx context.Context, id core.RunID) (*run.Run, error) {
	var rn run.Run
	err := r.db.GetContext(ctx, &rn, `
		SELECT id, dataset, intervention, row_count, created_at
		FROM report_runs
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("run", id.String())
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to get run", err)
	}

	runs := []*run.Run{&rn}
	if err := r.attachCriteria(ctx, runs); err != nil {
		return nil, err
	}
	return &rn, nil
}

// ListRuns returns archived runs, newest first
func (r *ReportRepositoryImpl) ListRuns(ctx context.Context, filter run.Filter) ([]*run.Run, error) {
	query := `
		SELECT id, dataset, intervention, row_count, created_at
		FROM report_runs
	`
	args := []interface{}{}
	if filter.Intervention != "" {
		args = append(args, filter.Intervention)
		query += fmt.Sprintf(" WHERE intervention = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var runs []*run.Run
	if err := r.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, apperrors.DatabaseError("failed to list runs", err)
	}
	if err := r.attachCriteria(ctx, runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// attachCriteria loads the criteria of all runs with one query
func (r *ReportRepositoryImpl) attachCriteria(ctx context.Context, runs []*run.Run) error {
	if len(runs) == 0 {
		return nil
	}
	ids := make([]string, len(runs))
	byID := make(map[string]*run.Run, len(runs))
	for i, rn := range runs {
		ids[i] = rn.ID.String()
		byID[ids[i]] = rn
		rn.Criteria = []run.CriterionRun{}
	}

	var records []criterionRecord
	err := r.db.SelectContext(ctx, &records, `
		SELECT run_id, position, description, average_eligible, results
		FROM report_criteria
		WHERE run_id = ANY($1)
		ORDER BY run_id, position
	`, pq.Array(ids))
	if err != nil {
		return apperrors.DatabaseError("failed to load criteria", err)
	}

	for _, rec := range records {
		if rn, ok := byID[rec.RunID]; ok {
			rn.Criteria = append(rn.Criteria, rec.toDomain())
		}
	}
	return nil
}

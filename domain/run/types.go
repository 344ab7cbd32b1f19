package run

import (
	"time"

	"surveydash/domain/core"
	"surveydash/domain/eligibility"
)

// Run is an archived intervention evaluation
type Run struct {
	ID           core.RunID     `json:"id" db:"id"`
	Dataset      string         `json:"dataset" db:"dataset"`
	Intervention string         `json:"intervention" db:"intervention"`
	RowCount     int            `json:"row_count" db:"row_count"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	Criteria     []CriterionRun `json:"criteria" db:"-"`
}

// CriterionRun is the archived outcome of one criterion
type CriterionRun struct {
	Position        int                     `json:"position"`
	Description     string                  `json:"description"`
	AverageEligible float64                 `json:"average_eligible"`
	Results         []eligibility.ResultRow `json:"results"`
}

// Filter narrows a run listing
type Filter struct {
	Intervention string
	Limit        int
}

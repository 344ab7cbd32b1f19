package ports

import (
	"context"

	"surveydash/domain/dataset"
)

// SurveySource loads form submissions from the survey-collection service
type SurveySource interface {
	Load(ctx context.Context, query dataset.Query) (*dataset.Table, error)
}

// DatasetRegistry maps dataset names to remote forms
type DatasetRegistry interface {
	List() []dataset.Source
	Resolve(name string) (dataset.Source, error)
}

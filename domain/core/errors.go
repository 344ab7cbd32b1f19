package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound            = errors.New("resource not found")
	ErrColumnNotFound      = fmt.Errorf("%w: column", ErrNotFound)
	ErrSessionNotFound     = fmt.Errorf("%w: session", ErrNotFound)
	ErrDatasetNotFound     = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrUnknownIntervention = fmt.Errorf("%w: intervention", ErrNotFound)

	// Structural input errors
	ErrInvalidColumn         = errors.New("invalid column")
	ErrUnparseableTimestamps = errors.New("column could not be converted to timestamps")
	ErrInvalidCriterion      = errors.New("invalid eligibility criterion")
	ErrUnknownCommand        = errors.New("unknown command")

	// External collaborator errors
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// Error constructors with context
func NewColumnNotFoundError(column string) error {
	return fmt.Errorf("%w: %q", ErrColumnNotFound, column)
}

func NewInvalidColumnError(columns ...string) error {
	return fmt.Errorf("%w: %q not found in table", ErrInvalidColumn, columns)
}

func NewUnparseableTimestampsError(column string) error {
	return fmt.Errorf("%w: %q (check data for invalid formats)", ErrUnparseableTimestamps, column)
}

func NewCriterionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidCriterion, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInputError reports errors caused by a request that names columns or
// criteria the table cannot satisfy.
func IsInputError(err error) bool {
	return errors.Is(err, ErrColumnNotFound) ||
		errors.Is(err, ErrInvalidColumn) ||
		errors.Is(err, ErrUnparseableTimestamps) ||
		errors.Is(err, ErrInvalidCriterion) ||
		errors.Is(err, ErrUnknownCommand)
}

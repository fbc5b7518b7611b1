// Package store provides persistence for scouts, execution records and
// account activity. The orchestrator treats it as a generic transactional
// record store; PostgresStore is the production implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/locotown/open-scouts/internal/scout"
)

var (
	ErrScoutNotFound   = errors.New("scout not found")
	ErrAccountNotFound = errors.New("account activity not found")
)

// ExecutionSummary is the read model for the execution history surface.
type ExecutionSummary struct {
	ExecutionID string     `json:"execution_id"`
	ScoutID     string     `json:"scout_id"`
	ScoutTitle  string     `json:"scout_title"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type Store interface {
	GetScout(ctx context.Context, scoutID string) (*scout.Scout, error)
	ListActiveScouts(ctx context.Context) ([]*scout.Scout, error)
	ActiveScoutOwners(ctx context.Context) ([]string, error)

	// DeactivateScouts flips the active flag off for every currently-active
	// scout owned by one of the given accounts, in a single statement, and
	// reports how many rows changed.
	DeactivateScouts(ctx context.Context, accountIDs []string) (int, error)

	InsertExecution(ctx context.Context, e *scout.Execution) error
	CompleteExecution(ctx context.Context, executionID string, completedAt time.Time) error
	FailExecution(ctx context.Context, executionID string, reason string, completedAt time.Time) error

	// LatestExecution returns the most recent execution of a scout by start
	// time, or nil when the scout has never run.
	LatestExecution(ctx context.Context, scoutID string) (*scout.Execution, error)

	// ListStuckExecutions returns every execution still in status running
	// whose start time is before cutoff.
	ListStuckExecutions(ctx context.Context, cutoff time.Time) ([]*scout.Execution, error)

	AccountLastSignIn(ctx context.Context, accountID string) (time.Time, error)

	RecentExecutions(ctx context.Context, limit int) ([]ExecutionSummary, error)

	Close() error
}

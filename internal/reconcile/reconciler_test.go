package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locotown/open-scouts/internal/scout"
	"github.com/locotown/open-scouts/internal/store"
)

func addExecution(st *store.MockStore, id, scoutID string, status scout.ExecutionStatus, startedAt time.Time) {
	st.Executions[id] = &scout.Execution{
		ID:        id,
		ScoutID:   scoutID,
		Status:    status,
		StartedAt: startedAt,
	}
}

func TestRun_ReconcilesOnlyStaleRunningExecutions(t *testing.T) {
	st := store.NewMockStore()
	now := time.Now()

	addExecution(st, "exec-stale-1", "scout-1", scout.StatusRunning, now.Add(-10*time.Minute))
	addExecution(st, "exec-stale-2", "scout-2", scout.StatusRunning, now.Add(-4*time.Minute))
	addExecution(st, "exec-fresh", "scout-3", scout.StatusRunning, now.Add(-time.Minute))
	addExecution(st, "exec-done", "scout-4", scout.StatusSucceeded, now.Add(-10*time.Minute))

	r := NewReconciler(st, zerolog.Nop())
	reconciled := r.Run(context.Background(), now, DefaultTimeout)

	assert.Equal(t, 2, reconciled)

	for _, id := range []string{"exec-stale-1", "exec-stale-2"} {
		e := st.Executions[id]
		assert.Equal(t, scout.StatusFailed, e.Status, id)
		assert.Equal(t, TimeoutMessage, e.Error, id)
		require.NotNil(t, e.CompletedAt, id)
	}

	assert.Equal(t, scout.StatusRunning, st.Executions["exec-fresh"].Status)
	assert.Equal(t, scout.StatusSucceeded, st.Executions["exec-done"].Status)
}

func TestRun_SecondPassIsIdempotent(t *testing.T) {
	st := store.NewMockStore()
	now := time.Now()

	addExecution(st, "exec-stale", "scout-1", scout.StatusRunning, now.Add(-10*time.Minute))

	r := NewReconciler(st, zerolog.Nop())
	assert.Equal(t, 1, r.Run(context.Background(), now, DefaultTimeout))
	assert.Equal(t, 0, r.Run(context.Background(), now, DefaultTimeout))
}

func TestRun_ListFailureDegradesToZero(t *testing.T) {
	st := store.NewMockStore()
	st.ListStuckError = errors.New("connection refused")

	r := NewReconciler(st, zerolog.Nop())
	assert.Equal(t, 0, r.Run(context.Background(), time.Now(), DefaultTimeout))
}

func TestRun_WriteFailureSkipsExecution(t *testing.T) {
	st := store.NewMockStore()
	now := time.Now()

	addExecution(st, "exec-stale", "scout-1", scout.StatusRunning, now.Add(-10*time.Minute))
	st.FailError = errors.New("write refused")

	r := NewReconciler(st, zerolog.Nop())
	assert.Equal(t, 0, r.Run(context.Background(), now, DefaultTimeout))
}

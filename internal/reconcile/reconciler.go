// Package reconcile repairs executions stranded in a non-terminal state.
// An execution still marked running past the executor's hard ceiling can only
// be a leftover of a truncated cycle; the reconciler force-fails it so the
// due-date policy can consider the scout again.
package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/locotown/open-scouts/internal/store"
)

// TimeoutMessage is the fixed diagnostic stamped on force-failed executions.
const TimeoutMessage = "execution timed out and was terminated by the reconciler"

// DefaultTimeout matches the executor's own hard ceiling. It must never be
// shorter than the executor's maximum run time, otherwise the reconciler
// races a legitimately-finishing execution.
const DefaultTimeout = 3 * time.Minute

type Reconciler struct {
	store store.Store
	log   zerolog.Logger
}

func NewReconciler(st store.Store, log zerolog.Logger) *Reconciler {
	return &Reconciler{store: st, log: log}
}

// Run transitions every execution running longer than timeout to failed and
// returns how many it reconciled. Store failures are logged and degrade to
// zero reconciled; they never abort the cycle.
func (r *Reconciler) Run(ctx context.Context, now time.Time, timeout time.Duration) int {
	cutoff := now.Add(-timeout)

	stuck, err := r.store.ListStuckExecutions(ctx, cutoff)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to list stuck executions")
		return 0
	}

	reconciled := 0
	for _, e := range stuck {
		if err := r.store.FailExecution(ctx, e.ID, TimeoutMessage, now); err != nil {
			r.log.Error().Err(err).
				Str("execution_id", e.ID).
				Str("scout_id", e.ScoutID).
				Msg("failed to reconcile stuck execution")
			continue
		}

		r.log.Warn().
			Str("execution_id", e.ID).
			Str("scout_id", e.ScoutID).
			Time("started_at", e.StartedAt).
			Msg("reconciled stuck execution")
		reconciled++
	}

	return reconciled
}

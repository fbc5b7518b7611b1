// Package orchestrator runs one scheduling cycle: reconcile stuck executions,
// sweep dormant accounts, dispatch due scouts, and report the outcome.
package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/locotown/open-scouts/internal/dispatch"
	"github.com/locotown/open-scouts/internal/dormancy"
	"github.com/locotown/open-scouts/internal/metrics"
	"github.com/locotown/open-scouts/internal/reconcile"
)

// Guard provides best-effort exclusion of overlapping scheduled cycles.
// It is advisory: a guard that cannot be consulted must not block the cycle.
type Guard interface {
	TryAcquire(ctx context.Context) bool
	Release(ctx context.Context)
}

type Orchestrator struct {
	reconciler *reconcile.Reconciler
	sweeper    *dormancy.Sweeper
	dispatcher *dispatch.Dispatcher
	guard      Guard
	log        zerolog.Logger

	stuckTimeout      time.Duration
	dormancyThreshold time.Duration
}

type Config struct {
	// StuckTimeout must be >= the executor's maximum run time.
	StuckTimeout      time.Duration
	DormancyThreshold time.Duration
}

func New(r *reconcile.Reconciler, s *dormancy.Sweeper, d *dispatch.Dispatcher, guard Guard, cfg Config, log zerolog.Logger) *Orchestrator {
	if cfg.StuckTimeout <= 0 {
		cfg.StuckTimeout = reconcile.DefaultTimeout
	}
	if cfg.DormancyThreshold <= 0 {
		cfg.DormancyThreshold = dormancy.DefaultThreshold
	}

	return &Orchestrator{
		reconciler:        r,
		sweeper:           s,
		dispatcher:        d,
		guard:             guard,
		log:               log,
		stuckTimeout:      cfg.StuckTimeout,
		dormancyThreshold: cfg.DormancyThreshold,
	}
}

// RunCycle executes the stages sequentially. Reconciliation and the dormancy
// sweep are best-effort side steps; dispatch is the primary objective. The
// returned error is non-nil only for manual-trigger selection failures.
func (o *Orchestrator) RunCycle(ctx context.Context, trigger dispatch.Trigger) (dispatch.Report, error) {
	start := time.Now()

	if o.guard != nil && !trigger.Manual() {
		if !o.guard.TryAcquire(ctx) {
			o.log.Info().Msg("another scheduled cycle holds the run window, skipping")
			return dispatch.BuildReport(trigger, nil, 0, 0), nil
		}
		defer o.guard.Release(ctx)
	}

	reconciled := o.reconciler.Run(ctx, start, o.stuckTimeout)
	deactivated := o.sweeper.Run(ctx, start, o.dormancyThreshold)

	outcomes, err := o.dispatcher.SelectAndRun(ctx, trigger)
	if err != nil {
		metrics.RecordCycle(trigger.Manual(), false, time.Since(start))
		return dispatch.Report{}, err
	}

	report := dispatch.BuildReport(trigger, outcomes, reconciled, deactivated)

	metrics.RecordCycle(trigger.Manual(), true, time.Since(start))
	metrics.RecordReconciled(reconciled)
	metrics.RecordDeactivated(deactivated)
	for _, out := range outcomes {
		metrics.RecordScoutExecution(out.Status)
	}

	o.log.Info().
		Bool("manual", trigger.Manual()).
		Int("executed", report.ScoutsExecuted).
		Int("reconciled", reconciled).
		Int("deactivated", deactivated).
		Dur("duration", time.Since(start)).
		Msg("cycle complete")

	return report, nil
}

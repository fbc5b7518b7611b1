// Package dispatch selects the run set for a cycle, fans execution out across
// it concurrently, and aggregates per-scout outcomes into a run report.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/locotown/open-scouts/internal/schedule"
	"github.com/locotown/open-scouts/internal/scout"
	"github.com/locotown/open-scouts/internal/store"
)

var (
	ErrScoutInactive   = errors.New("scout is not active")
	ErrScoutIncomplete = errors.New("scout configuration is incomplete")
)

// Result is the payload produced by a successful execution.
type Result struct {
	ExecutionID string `json:"execution_id"`
	Summary     string `json:"summary"`
	ItemCount   int    `json:"item_count"`
}

// Executor runs one scout and owns its execution record lifecycle. It must
// tolerate concurrent invocations for disjoint scouts.
type Executor interface {
	Execute(ctx context.Context, s *scout.Scout) (*Result, error)
}

// Notifier delivers a completed scout's result to an external channel.
// Delivery is best-effort; the dispatcher never waits on it.
type Notifier interface {
	Notify(ctx context.Context, s *scout.Scout, res *Result) error
}

// Trigger selects the run set. A zero ScoutID means "run everything due";
// a non-zero ScoutID forces that one scout regardless of its schedule.
type Trigger struct {
	ScoutID string
}

func (t Trigger) Manual() bool {
	return t.ScoutID != ""
}

// Outcome is the per-scout record of one dispatch.
type Outcome struct {
	ScoutID string  `json:"scout_id"`
	Title   string  `json:"title"`
	Status  string  `json:"status"`
	Error   string  `json:"error,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

type Dispatcher struct {
	store    store.Store
	executor Executor
	notifier Notifier
	log      zerolog.Logger
}

func NewDispatcher(st store.Store, exec Executor, notifier Notifier, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{store: st, executor: exec, notifier: notifier, log: log}
}

// SelectAndRun resolves the run set for the trigger and executes every scout
// in it concurrently. The returned error is non-nil only for manual-trigger
// selection failures; automatic selection degrades to an empty run set.
func (d *Dispatcher) SelectAndRun(ctx context.Context, trigger Trigger) ([]Outcome, error) {
	runSet, err := d.selectScouts(ctx, trigger)
	if err != nil {
		return nil, err
	}

	return d.runAll(ctx, runSet), nil
}

func (d *Dispatcher) selectScouts(ctx context.Context, trigger Trigger) ([]*scout.Scout, error) {
	if trigger.Manual() {
		sc, err := d.store.GetScout(ctx, trigger.ScoutID)
		if err != nil {
			return nil, fmt.Errorf("scout %s: %w", trigger.ScoutID, err)
		}
		if !sc.Active {
			return nil, fmt.Errorf("scout %s: %w", trigger.ScoutID, ErrScoutInactive)
		}
		if !sc.Complete() {
			return nil, fmt.Errorf("scout %s: %w", trigger.ScoutID, ErrScoutIncomplete)
		}

		// Manual triggers bypass due-ness entirely.
		return []*scout.Scout{sc}, nil
	}

	active, err := d.store.ListActiveScouts(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("failed to list active scouts, dispatching nothing this cycle")
		return nil, nil
	}

	now := time.Now()
	var due []*scout.Scout
	for _, sc := range active {
		if !sc.Complete() {
			continue
		}

		last, err := d.store.LatestExecution(ctx, sc.ID)
		if err != nil {
			d.log.Error().Err(err).Str("scout_id", sc.ID).Msg("failed to load latest execution, skipping scout")
			continue
		}

		if schedule.IsDue(sc, last, now) {
			due = append(due, sc)
		}
	}

	return due, nil
}

// runAll fans out one goroutine per scout and blocks until all of them have
// finished. There is no concurrency cap: the run set is small and each unit
// of work is I/O bound. A failure or panic in one scout never affects its
// siblings.
func (d *Dispatcher) runAll(ctx context.Context, runSet []*scout.Scout) []Outcome {
	outcomes := make([]Outcome, len(runSet))

	var wg sync.WaitGroup
	for i, sc := range runSet {
		wg.Add(1)
		go func(i int, sc *scout.Scout) {
			defer wg.Done()
			outcomes[i] = d.runOne(ctx, sc)
		}(i, sc)
	}
	wg.Wait()

	return outcomes
}

func (d *Dispatcher) runOne(ctx context.Context, sc *scout.Scout) (out Outcome) {
	out = Outcome{ScoutID: sc.ID, Title: sc.Title}

	defer func() {
		if r := recover(); r != nil {
			out.Status = string(scout.StatusFailed)
			out.Error = fmt.Sprintf("executor panicked: %v", r)
			d.log.Error().Str("scout_id", sc.ID).Any("panic", r).Msg("recovered executor panic")
		}
	}()

	res, err := d.executor.Execute(ctx, sc)
	if err != nil {
		out.Status = string(scout.StatusFailed)
		out.Error = err.Error()
		d.log.Error().Err(err).Str("scout_id", sc.ID).Msg("scout execution failed")
		return out
	}

	out.Status = string(scout.StatusSucceeded)
	out.Result = res
	d.log.Info().
		Str("scout_id", sc.ID).
		Int("items", res.ItemCount).
		Msg("scout execution succeeded")

	if d.notifier != nil {
		// Fire and forget. Delivery failure is logged at the source and
		// never reaches the cycle's outcome.
		go func(sc *scout.Scout, res *Result) {
			if err := d.notifier.Notify(context.WithoutCancel(ctx), sc, res); err != nil {
				d.log.Warn().Err(err).Str("scout_id", sc.ID).Msg("result notification failed")
			}
		}(sc, res)
	}

	return out
}

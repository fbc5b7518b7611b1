// Package schedule implements the due-date policy: a pure decision over a
// scout's schedule configuration and its most recent execution.
package schedule

import (
	"time"

	"github.com/locotown/open-scouts/internal/scout"
)

// StuckTimeout is the ceiling on a single execution. The reconciler uses the
// same value; due-ness of a scout with a still-running execution is deferred
// until that execution is older than this, so a cycle never overlaps a run
// the reconciler has not yet cleared.
const StuckTimeout = 3 * time.Minute

// IsDue decides whether a scout should run in the current cycle. last is the
// scout's most recent execution, nil when it has never run.
func IsDue(s *scout.Scout, last *scout.Execution, now time.Time) bool {
	if last == nil {
		return true
	}

	if last.Status == scout.StatusRunning {
		// Not yet reconciled. Only a stale leftover makes the scout due again.
		return now.Sub(last.StartedAt) > StuckTimeout
	}

	if now.Sub(last.StartedAt) < s.Frequency.Interval() {
		return false
	}

	return matchesSchedule(s.Schedule, now)
}

func matchesSchedule(sch scout.Schedule, now time.Time) bool {
	if sch.HourOfDay != nil && now.Hour() != *sch.HourOfDay {
		return false
	}
	if sch.DayOfWeek != nil && now.Weekday() != *sch.DayOfWeek {
		return false
	}
	return true
}

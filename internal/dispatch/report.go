package dispatch

import "time"

// Report is the structured summary of one orchestrator cycle. It always
// lists every scout attempted in the cycle; reconciliation and sweep
// failures show up as zero counters, never as a top-level failure.
type Report struct {
	Success              bool      `json:"success"`
	Trigger              string    `json:"trigger"`
	ScoutsExecuted       int       `json:"scouts_executed"`
	ExecutionsReconciled int       `json:"executions_reconciled"`
	ScoutsDeactivated    int       `json:"scouts_deactivated"`
	Outcomes             []Outcome `json:"outcomes"`
	FinishedAt           time.Time `json:"finished_at"`
}

// BuildReport assembles the cycle summary. Pure aggregation; a failed scout
// outcome does not suppress reporting of its siblings.
func BuildReport(trigger Trigger, outcomes []Outcome, reconciled, deactivated int) Report {
	kind := "scheduled"
	if trigger.Manual() {
		kind = "manual"
	}

	return Report{
		Success:              true,
		Trigger:              kind,
		ScoutsExecuted:       len(outcomes),
		ExecutionsReconciled: reconciled,
		ScoutsDeactivated:    deactivated,
		Outcomes:             outcomes,
		FinishedAt:           time.Now(),
	}
}

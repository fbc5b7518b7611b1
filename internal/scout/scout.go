// Package scout defines the core scout domain model shared by the scheduling,
// persistence and dispatch layers. It contains the scout definition, its
// schedule configuration, and the execution record lifecycle.
package scout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type (
	Frequency       string
	ExecutionStatus string
)

const (
	FrequencyHourly Frequency = "hourly"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

const (
	StatusRunning   ExecutionStatus = "running"
	StatusSucceeded ExecutionStatus = "succeeded"
	StatusFailed    ExecutionStatus = "failed"
)

// ParseFrequency validates a frequency code at save time. Unrecognized codes
// are rejected here so the due-date evaluation never sees one.
func ParseFrequency(code string) (Frequency, error) {
	switch Frequency(code) {
	case FrequencyHourly, FrequencyDaily, FrequencyWeekly:
		return Frequency(code), nil
	default:
		return "", fmt.Errorf("unknown frequency %q (supported: hourly, daily, weekly)", code)
	}
}

// Interval maps a frequency to the minimum gap between two automatic runs.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyHourly:
		return time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (f Frequency) String() string {
	return string(f)
}

// Schedule optionally pins a scout to an explicit hour of day and/or day of
// week on top of its frequency. Nil pointers mean "any".
type Schedule struct {
	HourOfDay *int          `json:"hour_of_day,omitempty"`
	DayOfWeek *time.Weekday `json:"day_of_week,omitempty"`
}

type Scout struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Title       string    `json:"title"`
	Goal        string    `json:"goal"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Queries     []string  `json:"queries"`
	Frequency   Frequency `json:"frequency"`
	Schedule    Schedule  `json:"schedule"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewScout(accountID, title, goal, description, location string, queries []string, freq Frequency) *Scout {
	return &Scout{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Title:       title,
		Goal:        goal,
		Description: description,
		Location:    location,
		Queries:     queries,
		Frequency:   freq,
		Active:      true,
		CreatedAt:   time.Now(),
	}
}

// Complete reports whether the scout's configuration is sufficient for an
// automatic run: title, goal, description, location, at least one query and a
// frequency must all be present.
func (s *Scout) Complete() bool {
	return s.Title != "" &&
		s.Goal != "" &&
		s.Description != "" &&
		s.Location != "" &&
		len(s.Queries) > 0 &&
		s.Frequency != ""
}

// Execution is one run attempt of a scout. It is created with status running
// and transitions exactly once to a terminal status, either by the executor
// on completion or by the reconciler on timeout.
type Execution struct {
	ID          string          `json:"id"`
	ScoutID     string          `json:"scout_id"`
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func NewExecution(scoutID string) *Execution {
	return &Execution{
		ID:        uuid.New().String(),
		ScoutID:   scoutID,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
}

// Terminal reports whether the execution has reached a final status.
func (e *Execution) Terminal() bool {
	return e.Status == StatusSucceeded || e.Status == StatusFailed
}

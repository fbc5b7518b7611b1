package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/locotown/open-scouts/internal/scout"
)

// MockStore is an in-memory Store used by component tests. Errors can be
// injected per operation and every mutating call is recorded.
type MockStore struct {
	mu sync.Mutex

	Scouts     map[string]*scout.Scout
	Executions map[string]*scout.Execution
	SignIns    map[string]time.Time

	DeactivateCalls []DeactivateCall
	FailedIDs       []string

	GetScoutError       error
	ListActiveError     error
	OwnersError         error
	DeactivateError     error
	InsertError         error
	CompleteError       error
	FailError           error
	LatestError         error
	ListStuckError      error
	LastSignInErrors    map[string]error
	RecentExecutionsErr error
}

type DeactivateCall struct {
	AccountIDs []string
}

func NewMockStore() *MockStore {
	return &MockStore{
		Scouts:           make(map[string]*scout.Scout),
		Executions:       make(map[string]*scout.Execution),
		SignIns:          make(map[string]time.Time),
		LastSignInErrors: make(map[string]error),
	}
}

func (m *MockStore) GetScout(_ context.Context, scoutID string) (*scout.Scout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetScoutError != nil {
		return nil, m.GetScoutError
	}

	sc, ok := m.Scouts[scoutID]
	if !ok {
		return nil, ErrScoutNotFound
	}

	return sc, nil
}

func (m *MockStore) ListActiveScouts(_ context.Context) ([]*scout.Scout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListActiveError != nil {
		return nil, m.ListActiveError
	}

	var scouts []*scout.Scout
	for _, sc := range m.Scouts {
		if sc.Active {
			scouts = append(scouts, sc)
		}
	}
	sort.Slice(scouts, func(i, j int) bool { return scouts[i].ID < scouts[j].ID })

	return scouts, nil
}

func (m *MockStore) ActiveScoutOwners(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.OwnersError != nil {
		return nil, m.OwnersError
	}

	seen := make(map[string]bool)
	var owners []string
	for _, sc := range m.Scouts {
		if sc.Active && !seen[sc.AccountID] {
			seen[sc.AccountID] = true
			owners = append(owners, sc.AccountID)
		}
	}
	sort.Strings(owners)

	return owners, nil
}

func (m *MockStore) DeactivateScouts(_ context.Context, accountIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeactivateCalls = append(m.DeactivateCalls, DeactivateCall{AccountIDs: accountIDs})

	if m.DeactivateError != nil {
		return 0, m.DeactivateError
	}

	targets := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		targets[id] = true
	}

	count := 0
	for _, sc := range m.Scouts {
		if sc.Active && targets[sc.AccountID] {
			sc.Active = false
			count++
		}
	}

	return count, nil
}

func (m *MockStore) InsertExecution(_ context.Context, e *scout.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertError != nil {
		return m.InsertError
	}

	copied := *e
	m.Executions[e.ID] = &copied
	return nil
}

func (m *MockStore) CompleteExecution(_ context.Context, executionID string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CompleteError != nil {
		return m.CompleteError
	}

	if e, ok := m.Executions[executionID]; ok {
		e.Status = scout.StatusSucceeded
		e.CompletedAt = &completedAt
	}
	return nil
}

func (m *MockStore) FailExecution(_ context.Context, executionID string, reason string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FailedIDs = append(m.FailedIDs, executionID)

	if m.FailError != nil {
		return m.FailError
	}

	if e, ok := m.Executions[executionID]; ok {
		e.Status = scout.StatusFailed
		e.Error = reason
		e.CompletedAt = &completedAt
	}
	return nil
}

func (m *MockStore) LatestExecution(_ context.Context, scoutID string) (*scout.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LatestError != nil {
		return nil, m.LatestError
	}

	var latest *scout.Execution
	for _, e := range m.Executions {
		if e.ScoutID != scoutID {
			continue
		}
		if latest == nil || e.StartedAt.After(latest.StartedAt) {
			latest = e
		}
	}

	return latest, nil
}

func (m *MockStore) ListStuckExecutions(_ context.Context, cutoff time.Time) ([]*scout.Execution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListStuckError != nil {
		return nil, m.ListStuckError
	}

	var stuck []*scout.Execution
	for _, e := range m.Executions {
		if e.Status == scout.StatusRunning && e.StartedAt.Before(cutoff) {
			stuck = append(stuck, e)
		}
	}
	sort.Slice(stuck, func(i, j int) bool { return stuck[i].ID < stuck[j].ID })

	return stuck, nil
}

func (m *MockStore) AccountLastSignIn(_ context.Context, accountID string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.LastSignInErrors[accountID]; ok {
		return time.Time{}, err
	}

	ts, ok := m.SignIns[accountID]
	if !ok {
		return time.Time{}, ErrAccountNotFound
	}

	return ts, nil
}

func (m *MockStore) RecentExecutions(_ context.Context, limit int) ([]ExecutionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.RecentExecutionsErr != nil {
		return nil, m.RecentExecutionsErr
	}

	var all []*scout.Execution
	for _, e := range m.Executions {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartedAt.After(all[j].StartedAt) })

	var summaries []ExecutionSummary
	for _, e := range all {
		if len(summaries) == limit {
			break
		}
		title := ""
		if sc, ok := m.Scouts[e.ScoutID]; ok {
			title = sc.Title
		}
		summaries = append(summaries, ExecutionSummary{
			ExecutionID: e.ID,
			ScoutID:     e.ScoutID,
			ScoutTitle:  title,
			Status:      string(e.Status),
			StartedAt:   e.StartedAt,
			CompletedAt: e.CompletedAt,
			Error:       e.Error,
		})
	}

	return summaries, nil
}

func (m *MockStore) Close() error {
	return nil
}

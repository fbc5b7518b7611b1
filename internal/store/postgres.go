package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/locotown/open-scouts/internal/scout"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetScout(ctx context.Context, scoutID string) (*scout.Scout, error) {
	query := `
		SELECT id, account_id, title, goal, description, location,
		       queries, frequency, hour_of_day, day_of_week, active, created_at
		FROM scouts
		WHERE id = $1
	`

	sc, err := scanScout(s.db.QueryRowContext(ctx, query, scoutID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scout %s: %w", scoutID, err)
	}

	return sc, nil
}

func (s *PostgresStore) ListActiveScouts(ctx context.Context) ([]*scout.Scout, error) {
	query := `
		SELECT id, account_id, title, goal, description, location,
		       queries, frequency, hour_of_day, day_of_week, active, created_at
		FROM scouts
		WHERE active = true
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active scouts: %w", err)
	}
	defer closeRows(rows)

	var scouts []*scout.Scout
	for rows.Next() {
		sc, err := scanScout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scout: %w", err)
		}
		scouts = append(scouts, sc)
	}

	return scouts, rows.Err()
}

func (s *PostgresStore) ActiveScoutOwners(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT account_id FROM scouts WHERE active = true`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scout owners: %w", err)
	}
	defer closeRows(rows)

	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan owner id: %w", err)
		}
		owners = append(owners, id)
	}

	return owners, rows.Err()
}

func (s *PostgresStore) DeactivateScouts(ctx context.Context, accountIDs []string) (int, error) {
	if len(accountIDs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE scouts
		SET active = false
		WHERE active = true AND account_id = ANY($1)
	`

	res, err := s.db.ExecContext(ctx, query, pq.Array(accountIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate scouts: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

func (s *PostgresStore) InsertExecution(ctx context.Context, e *scout.Execution) error {
	query := `
		INSERT INTO executions (id, scout_id, status, started_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(ctx, query, e.ID, e.ScoutID, e.Status, e.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}

	return nil
}

func (s *PostgresStore) CompleteExecution(ctx context.Context, executionID string, completedAt time.Time) error {
	query := `
		UPDATE executions
		SET status = 'succeeded',
		    completed_at = $1
		WHERE id = $2
	`

	_, err := s.db.ExecContext(ctx, query, completedAt, executionID)
	if err != nil {
		return fmt.Errorf("failed to complete execution %s: %w", executionID, err)
	}

	return nil
}

func (s *PostgresStore) FailExecution(ctx context.Context, executionID string, reason string, completedAt time.Time) error {
	query := `
		UPDATE executions
		SET status = 'failed',
		    completed_at = $1,
		    error_message = $2
		WHERE id = $3
	`

	_, err := s.db.ExecContext(ctx, query, completedAt, reason, executionID)
	if err != nil {
		return fmt.Errorf("failed to fail execution %s: %w", executionID, err)
	}

	return nil
}

func (s *PostgresStore) LatestExecution(ctx context.Context, scoutID string) (*scout.Execution, error) {
	query := `
		SELECT id, scout_id, status, started_at, completed_at, error_message
		FROM executions
		WHERE scout_id = $1
		ORDER BY started_at DESC
		LIMIT 1
	`

	e, err := scanExecution(s.db.QueryRowContext(ctx, query, scoutID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest execution for scout %s: %w", scoutID, err)
	}

	return e, nil
}

func (s *PostgresStore) ListStuckExecutions(ctx context.Context, cutoff time.Time) ([]*scout.Execution, error) {
	query := `
		SELECT id, scout_id, status, started_at, completed_at, error_message
		FROM executions
		WHERE status = 'running' AND started_at < $1
	`

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stuck executions: %w", err)
	}
	defer closeRows(rows)

	var executions []*scout.Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, e)
	}

	return executions, rows.Err()
}

func (s *PostgresStore) AccountLastSignIn(ctx context.Context, accountID string) (time.Time, error) {
	query := `SELECT last_sign_in_at FROM account_activity WHERE account_id = $1`

	var lastSignIn time.Time
	err := s.db.QueryRowContext(ctx, query, accountID).Scan(&lastSignIn)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrAccountNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last sign-in for account %s: %w", accountID, err)
	}

	return lastSignIn, nil
}

func (s *PostgresStore) RecentExecutions(ctx context.Context, limit int) ([]ExecutionSummary, error) {
	query := `
		SELECT e.id, e.scout_id, s.title, e.status, e.started_at, e.completed_at,
		       COALESCE(e.error_message, '')
		FROM executions e
		JOIN scouts s ON s.id = e.scout_id
		ORDER BY e.started_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent executions: %w", err)
	}
	defer closeRows(rows)

	var summaries []ExecutionSummary
	for rows.Next() {
		var sum ExecutionSummary
		err := rows.Scan(&sum.ExecutionID, &sum.ScoutID, &sum.ScoutTitle,
			&sum.Status, &sum.StartedAt, &sum.CompletedAt, &sum.Error)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution summary: %w", err)
		}
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScout(row rowScanner) (*scout.Scout, error) {
	var (
		sc        scout.Scout
		queries   pq.StringArray
		hourOfDay sql.NullInt64
		dayOfWeek sql.NullInt64
	)

	err := row.Scan(&sc.ID, &sc.AccountID, &sc.Title, &sc.Goal, &sc.Description,
		&sc.Location, &queries, &sc.Frequency, &hourOfDay, &dayOfWeek,
		&sc.Active, &sc.CreatedAt)
	if err != nil {
		return nil, err
	}

	sc.Queries = queries
	if hourOfDay.Valid {
		h := int(hourOfDay.Int64)
		sc.Schedule.HourOfDay = &h
	}
	if dayOfWeek.Valid {
		d := time.Weekday(dayOfWeek.Int64)
		sc.Schedule.DayOfWeek = &d
	}

	return &sc, nil
}

func scanExecution(row rowScanner) (*scout.Execution, error) {
	var (
		e      scout.Execution
		errMsg sql.NullString
	)

	err := row.Scan(&e.ID, &e.ScoutID, &e.Status, &e.StartedAt, &e.CompletedAt, &errMsg)
	if err != nil {
		return nil, err
	}

	e.Error = errMsg.String
	return &e, nil
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}

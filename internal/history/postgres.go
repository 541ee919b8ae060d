package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierBriggs/fortuna/services/goal-analysis/pkg/models"
	_ "github.com/lib/pq"
)

// Recorder persists finished analysis runs
type Recorder interface {
	Record(ctx context.Context, result *models.AnalysisResult) error
	Recent(ctx context.Context, limit int) ([]models.AnalysisResult, error)
}

// MaxRecent caps how many runs Recent returns
const MaxRecent = 100

// PostgresLog logs analysis runs to the analysis_runs table
type PostgresLog struct {
	db *sql.DB
}

// Connect opens a Postgres connection and verifies it
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewPostgresLog creates a new analysis log
func NewPostgresLog(db *sql.DB) *PostgresLog {
	return &PostgresLog{db: db}
}

// Migrate creates the analysis_runs table if it does not exist
func (l *PostgresLog) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id             UUID PRIMARY KEY,
			strategy       TEXT        NOT NULL,
			fixture_window INT         NOT NULL,
			home_team_id   INT         NOT NULL,
			home_team      TEXT        NOT NULL,
			home_status    TEXT        NOT NULL,
			away_team_id   INT         NOT NULL,
			away_team      TEXT        NOT NULL,
			away_status    TEXT        NOT NULL,
			outcomes       JSONB       NOT NULL,
			capital        DOUBLE PRECISION,
			started_at     TIMESTAMPTZ NOT NULL,
			finished_at    TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS analysis_runs_finished_at_idx ON analysis_runs (finished_at DESC);`,
	}
	for _, q := range queries {
		if _, err := l.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// Record inserts one finished analysis run
func (l *PostgresLog) Record(ctx context.Context, result *models.AnalysisResult) error {
	outcomes, err := json.Marshal(result.Teams)
	if err != nil {
		return fmt.Errorf("marshaling outcomes: %w", err)
	}

	query := `
		INSERT INTO analysis_runs (
			id, strategy, fixture_window,
			home_team_id, home_team, home_status,
			away_team_id, away_team, away_status,
			outcomes, capital, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	home, away := result.Teams[0], result.Teams[1]
	_, err = l.db.ExecContext(ctx, query,
		result.ID,
		result.Strategy,
		result.Window,
		home.Team.ID, home.Team.Name, home.Status,
		away.Team.ID, away.Team.Name, away.Status,
		outcomes,
		result.Capital,
		result.StartedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis %s: %w", result.ID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first
func (l *PostgresLog) Recent(ctx context.Context, limit int) ([]models.AnalysisResult, error) {
	limit = clampLimit(limit)

	const q = `
		SELECT id, strategy, fixture_window, outcomes, capital, started_at, finished_at
		FROM analysis_runs
		ORDER BY finished_at DESC
		LIMIT $1
	`
	rows, err := l.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []models.AnalysisResult
	for rows.Next() {
		var (
			run      models.AnalysisResult
			outcomes []byte
			capital  sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &run.Strategy, &run.Window, &outcomes, &capital, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning analysis run: %w", err)
		}
		if err := json.Unmarshal(outcomes, &run.Teams); err != nil {
			return nil, fmt.Errorf("unmarshaling outcomes for %s: %w", run.ID, err)
		}
		if capital.Valid {
			v := capital.Float64
			run.Capital = &v
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating analysis runs: %w", err)
	}
	return runs, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > MaxRecent {
		return MaxRecent
	}
	return limit
}

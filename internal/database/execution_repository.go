package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CycleExecution is the outcome of one scheduled crawl cycle.
type CycleExecution struct {
	ID            string    `db:"id"`
	StartedAt     time.Time `db:"started_at"`
	CompletedAt   time.Time `db:"completed_at"`
	DurationMs    int64     `db:"duration_ms"`
	SitesTotal    int       `db:"sites_total"`
	SitesFailed   int       `db:"sites_failed"`
	ArticlesSaved int       `db:"articles_saved"`
	Duplicates    int       `db:"duplicates"`
	Skipped       int       `db:"skipped"`
	ErrorMessage  string    `db:"error_message"`
}

// ExecutionRecorder persists crawl cycle outcomes.
type ExecutionRecorder interface {
	Record(ctx context.Context, execution *CycleExecution) error
	Close() error
}

// NoopRecorder discards cycle outcomes. Used when no history database
// is configured.
type NoopRecorder struct{}

// NewNoopRecorder creates a recorder that discards everything.
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

// Record discards the execution.
func (*NoopRecorder) Record(_ context.Context, _ *CycleExecution) error {
	return nil
}

// Close is a no-op.
func (*NoopRecorder) Close() error {
	return nil
}

// ExecutionRepository stores crawl cycle executions in PostgreSQL.
type ExecutionRepository struct {
	db *sqlx.DB
}

// NewExecutionRepository creates an execution repository and ensures
// its table exists.
func NewExecutionRepository(ctx context.Context, db *sqlx.DB) (*ExecutionRepository, error) {
	r := &ExecutionRepository{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// ensureSchema creates the executions table when it does not exist.
func (r *ExecutionRepository) ensureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS crawl_executions (
			id UUID PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL,
			duration_ms BIGINT NOT NULL,
			sites_total INT NOT NULL,
			sites_failed INT NOT NULL,
			articles_saved INT NOT NULL,
			duplicates INT NOT NULL,
			skipped INT NOT NULL,
			error_message TEXT NOT NULL DEFAULT ''
		)
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure executions table: %w", err)
	}
	return nil
}

// Record inserts a cycle execution record.
func (r *ExecutionRepository) Record(ctx context.Context, execution *CycleExecution) error {
	if execution.ID == "" {
		execution.ID = uuid.NewString()
	}

	query := `
		INSERT INTO crawl_executions (
			id, started_at, completed_at, duration_ms,
			sites_total, sites_failed,
			articles_saved, duplicates, skipped, error_message
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		execution.ID,
		execution.StartedAt,
		execution.CompletedAt,
		execution.DurationMs,
		execution.SitesTotal,
		execution.SitesFailed,
		execution.ArticlesSaved,
		execution.Duplicates,
		execution.Skipped,
		execution.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}

	return nil
}

// Recent returns the latest cycle executions, newest first.
func (r *ExecutionRepository) Recent(ctx context.Context, limit int) ([]CycleExecution, error) {
	query := `
		SELECT id, started_at, completed_at, duration_ms,
		       sites_total, sites_failed,
		       articles_saved, duplicates, skipped, error_message
		FROM crawl_executions
		ORDER BY started_at DESC
		LIMIT $1
	`

	var executions []CycleExecution
	if err := r.db.SelectContext(ctx, &executions, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	return executions, nil
}

// Close closes the underlying connection pool.
func (r *ExecutionRepository) Close() error {
	return r.db.Close()
}

// Package db provides PostgreSQL access for the optional export run ledger.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the ledger tables if they do not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// CreateRun inserts a run in the running state and returns its ID
func (db *DB) CreateRun(ctx context.Context, input RunInput) (uuid.UUID, error) {
	id := uuid.New()
	_, err := db.pool.Exec(ctx,
		`INSERT INTO export_runs (id, base_url, jql, output_dir, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, input.BaseURL, input.JQL, input.OutputDir, RunStatusRunning,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// CompleteRun records the final state of a run
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, result RunResult) error {
	var errMsg *string
	if result.Error != "" {
		errMsg = &result.Error
	}
	tag, err := db.pool.Exec(ctx,
		`UPDATE export_runs
		 SET status = $1, total = $2, processed = $3, error_message = $4, completed_at = NOW()
		 WHERE id = $5`,
		result.Status, result.Total, result.Processed, errMsg, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// RecordDocument stores one written file. Rewriting the same path in a run
// updates the existing row.
func (db *DB) RecordDocument(ctx context.Context, runID uuid.UUID, kind, key, path string, size int64) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO export_documents (run_id, kind, record_key, path, size_bytes)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, path) DO UPDATE SET kind = $2, record_key = $3, size_bytes = $5, created_at = NOW()`,
		runID, kind, key, path, size,
	)
	if err != nil {
		return fmt.Errorf("failed to record %s %s: %w", kind, key, err)
	}
	return nil
}

const runColumns = `id, base_url, jql, output_dir, status, total, processed, error_message, created_at, completed_at`

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.BaseURL, &run.JQL, &run.OutputDir, &run.Status,
		&run.Total, &run.Processed, &run.ErrorMessage, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun retrieves a run by ID, or nil when it does not exist
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM export_runs WHERE id = $1`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves the most recent runs
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM export_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListDocuments retrieves the documents of a run, optionally of one kind
func (db *DB) ListDocuments(ctx context.Context, runID uuid.UUID, kind string) ([]Document, error) {
	query := `SELECT id, run_id, kind, record_key, path, size_bytes, created_at
		FROM export_documents WHERE run_id = $1`
	args := []any{runID}
	if kind != "" {
		query += " AND kind = $2"
		args = append(args, kind)
	}
	query += " ORDER BY id ASC"

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.RunID, &d.Kind, &d.Key, &d.Path, &d.SizeBytes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// RunRecorder records documents against a single run.
type RunRecorder struct {
	db    *DB
	runID uuid.UUID
}

// Recorder returns a RunRecorder bound to runID.
func (db *DB) Recorder(runID uuid.UUID) *RunRecorder {
	return &RunRecorder{db: db, runID: runID}
}

// RunID returns the run the recorder writes to.
func (r *RunRecorder) RunID() uuid.UUID {
	return r.runID
}

// RecordDocument stores one written file for the bound run.
func (r *RunRecorder) RecordDocument(ctx context.Context, kind, key, path string, size int64) error {
	return r.db.RecordDocument(ctx, r.runID, kind, key, path, size)
}

// RedactURL hides the password of a database URL for display. Key/value
// connection strings are hidden entirely.
func RedactURL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.Scheme == "" {
		return "[redacted]"
	}
	return u.Redacted()
}

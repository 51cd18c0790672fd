package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Journal records run and per-record outcomes in SQLite.
type Journal struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
	defaultListLimit        = 50
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (j *Journal) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = j.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database file location.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// StartRun inserts a run row. StartedAt defaults to now.
func (j *Journal) StartRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("start run: id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := j.execWithRetry(ctx,
		`INSERT INTO runs (id, mode, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Mode, formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun stores the final counts, the watermark written (if any) and the
// run-aborting error message (if any).
func (j *Journal) FinishRun(ctx context.Context, id string, finishedAt time.Time, counts Counts, watermark, errMsg string) error {
	res, err := j.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, fetched = ?, submitted = ?, skipped = ?, failed = ?, watermark = ?, error_message = ? WHERE id = ?`,
		formatTime(finishedAt), counts.Fetched, counts.Submitted, counts.Skipped, counts.Failed,
		nullableString(watermark), nullableString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run: unknown run %q", id)
	}
	return nil
}

// RecordAttempt appends one record outcome and returns its row id.
func (j *Journal) RecordAttempt(ctx context.Context, a Attempt) (int64, error) {
	if strings.TrimSpace(a.RunID) == "" || strings.TrimSpace(a.State) == "" {
		return 0, errors.New("record attempt: run id and state are required")
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	res, err := j.execWithRetry(ctx,
		`INSERT INTO attempts (run_id, cris_id, registration_id, publication_type, state, error_kind, error_message, artifact_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.CrisID, nullableString(a.RegistrationID), nullableString(a.PublicationType), a.State,
		nullableString(a.ErrorKind), nullableString(a.ErrorMessage), nullableString(a.ArtifactPath),
		formatTime(a.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("record attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record attempt id: %w", err)
	}
	return id, nil
}

const attemptColumns = "id, run_id, cris_id, registration_id, publication_type, state, error_kind, error_message, artifact_path, created_at"

// Attempts lists record outcomes, newest first.
func (j *Journal) Attempts(ctx context.Context, f Filter) ([]Attempt, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if f.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, f.RunID)
	}
	if f.CrisID != "" {
		clauses = append(clauses, "cris_id = ?")
		args = append(args, f.CrisID)
	}
	if f.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, f.State)
	}
	query := "SELECT " + attemptColumns + " FROM attempts"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limitOrDefault(f.Limit))

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Runs lists runs, newest first.
func (j *Journal) Runs(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, mode, started_at, finished_at, fetched, submitted, skipped, failed, watermark, error_message
		 FROM runs ORDER BY rowid DESC LIMIT ?`, limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run         Run
			startedRaw  string
			finishedRaw sql.NullString
			watermark   sql.NullString
			errMsg      sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Mode, &startedRaw, &finishedRaw,
			&run.Counts.Fetched, &run.Counts.Submitted, &run.Counts.Skipped, &run.Counts.Failed,
			&watermark, &errMsg); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ts, err := parseTimeString(startedRaw); err == nil {
			run.StartedAt = ts
		}
		if finishedRaw.Valid {
			if ts, err := parseTimeString(finishedRaw.String); err == nil {
				run.FinishedAt = &ts
			}
		}
		run.Watermark = watermark.String
		run.Error = errMsg.String
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanAttempt(scanner interface{ Scan(dest ...any) error }) (Attempt, error) {
	var (
		a              Attempt
		registrationID sql.NullString
		pubType        sql.NullString
		errorKind      sql.NullString
		errorMessage   sql.NullString
		artifactPath   sql.NullString
		createdRaw     string
	)
	if err := scanner.Scan(&a.ID, &a.RunID, &a.CrisID, &registrationID, &pubType, &a.State,
		&errorKind, &errorMessage, &artifactPath, &createdRaw); err != nil {
		return Attempt{}, err
	}
	a.RegistrationID = registrationID.String
	a.PublicationType = pubType.String
	a.ErrorKind = errorKind.String
	a.ErrorMessage = errorMessage.String
	a.ArtifactPath = artifactPath.String
	if ts, err := parseTimeString(createdRaw); err == nil {
		a.CreatedAt = ts
	}
	return a, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// Package ledger records every submitted analysis in a local SQLite database
// so the results commands can poll a previous run without re-reading the
// original input table.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS submissions (
	id          TEXT PRIMARY KEY,
	endpoint    TEXT NOT NULL,
	source_row  INTEGER NOT NULL,
	identifier  TEXT NOT NULL,
	analysis_id TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'SUBMITTED',
	attempts    INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL,
	resolved_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_submissions_endpoint_status
	ON submissions (endpoint, status);
`

// Submission is one recorded analysis request.
type Submission struct {
	ID         string
	Endpoint   string
	SourceRow  int
	Identifier string
	AnalysisID string
	Status     string
	Attempts   int
	CreatedAt  time.Time
}

// Ledger wraps the SQLite database holding submissions.
type Ledger struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects to the ledger database, creating the file and schema when
// missing.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize ledger schema: %w", err)
	}

	logger.Info("ledger.opened", "path", path)
	return &Ledger{db: db, log: logger}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

// RecordSubmission stores a newly submitted analysis and returns the ledger
// row id.
func (l *Ledger) RecordSubmission(ctx context.Context, endpoint string, sourceRow int, identifier, analysisID string) (string, error) {
	id := uuid.New().String()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO submissions (id, endpoint, source_row, identifier, analysis_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, 'SUBMITTED', ?)`,
		id, endpoint, sourceRow, identifier, analysisID, time.Now().UTC(),
	)
	if err != nil {
		l.log.Error("ledger.record_failed", "endpoint", endpoint, "analysis_id", analysisID, "error", err)
		return "", fmt.Errorf("record submission: %w", err)
	}
	return id, nil
}

// Pending returns the unresolved submissions for an endpoint, oldest first.
func (l *Ledger) Pending(ctx context.Context, endpoint string) ([]Submission, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, endpoint, source_row, identifier, analysis_id, status, attempts, created_at
		 FROM submissions
		 WHERE endpoint = ? AND status = 'SUBMITTED'
		 ORDER BY created_at, source_row`,
		endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("query pending submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.ID, &s.Endpoint, &s.SourceRow, &s.Identifier, &s.AnalysisID, &s.Status, &s.Attempts, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkResolved records the terminal outcome of a submission by analysis id.
func (l *Ledger) MarkResolved(ctx context.Context, analysisID, status string, attempts int) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE submissions SET status = ?, attempts = ?, resolved_at = ? WHERE analysis_id = ?`,
		status, attempts, time.Now().UTC(), analysisID,
	)
	if err != nil {
		return fmt.Errorf("mark resolved: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		l.log.Warn("ledger.unknown_analysis_id", "analysis_id", analysisID)
	}
	return nil
}

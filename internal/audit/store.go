// ABOUTME: SQLite-backed audit log of auth decisions using modernc.org/sqlite
// ABOUTME: Append-only with automatic schema creation; recording is best-effort

package audit

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

	"github.com/jaggalex/authgate/internal/auth"
)

// Entry is one persisted auth decision.
type Entry struct {
	ID      string // UUID v4
	Subject string // authenticated principal, empty when authentication failed
	Path    string // request path the decision was made for
	OrgID   string // organization scope, when present
	Outcome string // "allowed", "denied", or a taxonomy error string
	At      time.Time
}

// Filter specifies filtering options for listing audit entries.
type Filter struct {
	Since   *time.Time // entries at or after this time
	Subject *string    // filter by principal
	Outcome *string    // filter by outcome
	Limit   int        // max results (default 100, max 1000)
}

// Store is a SQLite-backed decision log.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (or creates) the audit database at the given path.
// Parent directories are created if needed.
func NewStore(path string) (*Store, error) {
	logger := slog.Default().With("component", "audit")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database: %w", err)
	}

	// WAL keeps appends from blocking concurrent readers
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("audit store initialized", "path", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// createSchema creates the audit table if it doesn't exist
func (s *Store) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS decisions (
			decision_id TEXT PRIMARY KEY,
			subject TEXT NOT NULL,
			path TEXT NOT NULL,
			org_id TEXT NOT NULL,
			outcome TEXT NOT NULL,
			ts TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_decisions_ts ON decisions(ts);
		CREATE INDEX IF NOT EXISTS idx_decisions_subject ON decisions(subject);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append appends a new entry to the log. Generates ID and At if not set.
func (s *Store) Append(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	query := `
		INSERT INTO decisions (decision_id, subject, path, org_id, outcome, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.Subject,
		e.Path,
		e.OrgID,
		e.Outcome,
		e.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// normalizeLimit applies default (100) and cap (1000) to the list limit.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// List returns entries matching the filter, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Entry, error) {
	query := `SELECT decision_id, subject, path, org_id, outcome, ts FROM decisions WHERE 1=1`
	var args []any

	if f.Since != nil {
		query += " AND ts >= ?"
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	if f.Subject != nil {
		query += " AND subject = ?"
		args = append(args, *f.Subject)
	}
	if f.Outcome != nil {
		query += " AND outcome = ?"
		args = append(args, *f.Outcome)
	}
	query += " ORDER BY ts DESC LIMIT ?"
	args = append(args, normalizeLimit(f.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &e.Subject, &e.Path, &e.OrgID, &e.Outcome, &ts); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.At, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", ts, err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// RecordDecision implements auth.DecisionRecorder. Failures are logged and
// dropped; the request path never blocks on the audit log.
func (s *Store) RecordDecision(ctx context.Context, d auth.Decision) {
	e := &Entry{
		Subject: d.Subject,
		Path:    d.Path,
		OrgID:   d.OrgID,
		Outcome: d.Outcome,
		At:      d.At,
	}
	if err := s.Append(ctx, e); err != nil {
		s.logger.Warn("failed to record decision", "error", err, "outcome", d.Outcome)
	}
}

var _ auth.DecisionRecorder = (*Store)(nil)

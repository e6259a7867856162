// Package journal keeps a local, append-only log of save attempts.
//
// The document store itself has no history: create-or-replace overwrites
// the previous revision wholesale. The journal is the console's own audit
// trail, a small embedded SQLite database recording every attempt, failed
// ones included, so an operator can answer "what did I change yesterday and
// did it stick" without store access.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"go.uber.org/zap"

	"github.com/eliphany/siteadmin/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS save_log (
	id             TEXT PRIMARY KEY,
	doc_id         TEXT NOT NULL,
	doc_type       TEXT NOT NULL,
	outcome        TEXT NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	uploaded_count INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_save_log_doc ON save_log(doc_id, created_at);
CREATE INDEX IF NOT EXISTS idx_save_log_outcome ON save_log(outcome);
`

// Entry is one recorded save attempt.
type Entry struct {
	ID            string
	DocID         string
	DocType       string
	Outcome       string
	Error         string
	UploadedCount int
	CreatedAt     time.Time
}

// Failed reports whether the recorded attempt ended in a failure outcome.
func (e Entry) Failed() bool {
	return e.Outcome != session.OutcomeSaved
}

// Journal is the append-only save log backed by embedded SQLite.
type Journal struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) the journal database at path.
//
// The caller must call Close when done.
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	j := &Journal{conn: conn, path: path}

	// WAL keeps the log readable while the watch daemon appends to it.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}

	return j, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.conn == nil {
		return nil
	}
	err := j.conn.Close()
	j.conn = nil
	return err
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Append records one save attempt.
func (j *Journal) Append(result session.SaveResult) error {
	errText := ""
	if result.Err != nil {
		errText = result.Err.Error()
	}

	_, err := j.conn.Exec(
		`INSERT INTO save_log (id, doc_id, doc_type, outcome, error, uploaded_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.AttemptID.String(),
		result.DocID,
		result.DocType,
		result.Outcome,
		errText,
		result.UploadedCount,
		result.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to append save log entry: %w", err)
	}
	return nil
}

// Filter narrows a List query. Zero values match everything.
type Filter struct {
	// DocID restricts entries to one document.
	DocID string

	// Outcome restricts entries to one outcome constant.
	Outcome string

	// FailuresOnly keeps only failed attempts.
	FailuresOnly bool

	// Limit caps the number of returned entries (0 means 50).
	Limit int
}

// List returns save attempts matching the filter, newest first.
func (j *Journal) List(filter Filter) ([]Entry, error) {
	query := `SELECT id, doc_id, doc_type, outcome, error, uploaded_count, created_at
	          FROM save_log WHERE 1=1`
	var args []any

	if filter.DocID != "" {
		query += " AND doc_id = ?"
		args = append(args, filter.DocID)
	}
	if filter.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, filter.Outcome)
	}
	if filter.FailuresOnly {
		query += " AND outcome != ?"
		args = append(args, session.OutcomeSaved)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query save log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DocID, &e.DocType, &e.Outcome, &e.Error, &e.UploadedCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan save log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read save log entries: %w", err)
	}
	return entries, nil
}

// Recorder adapts a Journal into a session listener. Append failures are
// logged and swallowed; a broken journal must never block a save.
type Recorder struct {
	journal *Journal
	logger  *zap.SugaredLogger
}

// NewRecorder creates a listener that appends every save result to j.
func NewRecorder(j *Journal, logger *zap.SugaredLogger) *Recorder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Recorder{journal: j, logger: logger}
}

// SaveCompleted implements session.Listener.
func (r *Recorder) SaveCompleted(result session.SaveResult) {
	if err := r.journal.Append(result); err != nil {
		r.logger.Warnw("failed to record save attempt", "doc", result.DocID, "error", err)
	}
}

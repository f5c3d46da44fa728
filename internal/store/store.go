// Package store persists policies, resumes, job descriptions, matches and leave
// decisions in a SQLite database. Documents are kept as JSON bodies keyed by
// their natural identifiers so the schema stays close to a document store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"hrassist/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS policies (
	leave_type TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS resumes (
	filename   TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS job_descriptions (
	filename   TEXT PRIMARY KEY,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS matches (
	id               TEXT PRIMARY KEY,
	job_name         TEXT NOT NULL,
	resume_filename  TEXT NOT NULL,
	match_percentage INTEGER NOT NULL,
	body             TEXT NOT NULL,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_job ON matches(job_name, match_percentage DESC);
CREATE TABLE IF NOT EXISTS leave_requests (
	id            TEXT PRIMARY KEY,
	employee_id   TEXT NOT NULL,
	employee_name TEXT NOT NULL,
	leave_type    TEXT NOT NULL,
	status        TEXT NOT NULL,
	body          TEXT NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leave_employee ON leave_requests(employee_id, created_at DESC);
`

// Config controls how the database is opened.
type Config struct {
	// Path is a file path, or a full "file:" DSN.
	Path        string
	BusyTimeout time.Duration
}

// Store is a SQLite-backed document store. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	dsn    string
	logger *errors.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database and applies the schema.
func Open(ctx context.Context, cfg Config, logger *errors.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "storage path is required", nil)
	}
	if logger == nil {
		logger = errors.Discard()
	}

	dsn := buildDSN(cfg)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreUnavailable, "failed to open database", err).
			WithContext("database", DatabaseName(dsn))
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError(errors.ErrCodeStoreUnavailable, "failed to connect to database", err).
			WithContext("database", DatabaseName(dsn))
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to apply schema", err)
	}

	logger.Info("Connected to document store", "database", DatabaseName(dsn))
	return &Store{db: db, dsn: dsn, logger: logger, now: time.Now}, nil
}

func buildDSN(cfg Config) string {
	if strings.HasPrefix(cfg.Path, "file:") {
		return cfg.Path
	}
	timeout := cfg.BusyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", timeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + cfg.Path + "?" + q.Encode()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreUnavailable, "database ping failed", err)
	}
	return nil
}

// DatabaseName returns the file name of the database behind a DSN.
func DatabaseName(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return filepath.Base(p)
}

// RedactDSN strips credentials and query parameters so the DSN can be shown to users.
func RedactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return DatabaseName(dsn)
	}
	u.User = nil
	u.RawQuery = ""
	if u.Opaque != "" {
		if i := strings.LastIndexByte(u.Opaque, '@'); i >= 0 {
			u.Opaque = u.Opaque[i+1:]
		}
	}
	return u.String()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

func newID() string {
	return uuid.NewString()
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeStoreFailed, "failed to encode document", err)
	}
	return string(b), nil
}

func decode(body string, v any) error {
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreFailed, "failed to decode stored document", err)
	}
	return nil
}

func storageErr(op string, err error) error {
	return errors.NewStorageError(errors.ErrCodeStoreFailed, op+" failed", err)
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a local SQLite database. One row per
// session; the transcript is stored as a JSON column since it is only
// ever read and written whole.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	transcript  TEXT NOT NULL,
	progress    INTEGER NOT NULL DEFAULT 0,
	is_active   INTEGER NOT NULL DEFAULT 1,
	summary     TEXT NOT NULL DEFAULT '',
	module_name TEXT NOT NULL,
	module_len  INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// NewSQLiteStore opens (and if needed initializes) the database at
// path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Create persists a new session.
func (s *SQLiteStore) Create(ctx context.Context, sess Session) error {
	transcript, err := json.Marshal(sess.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, transcript, progress, is_active, summary, module_name, module_len, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, string(transcript), sess.Progress, boolToInt(sess.Active),
		sess.Summary, sess.Module.Name, sess.Module.InterviewLength,
		sess.CreatedAt.UTC().Format(time.RFC3339Nano),
		sess.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, transcript, progress, is_active, summary, module_name, module_len, created_at, updated_at
		 FROM sessions WHERE session_id = ?`, id)

	var sess Session
	var transcript, createdAt, updatedAt string
	var active int
	err := row.Scan(&sess.ID, &transcript, &sess.Progress, &active,
		&sess.Summary, &sess.Module.Name, &sess.Module.InterviewLength,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, fmt.Errorf("select session: %w", err)
	}

	sess.Active = active != 0
	if err := json.Unmarshal([]byte(transcript), &sess.Transcript); err != nil {
		return Session{}, fmt.Errorf("unmarshal transcript: %w", err)
	}
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Session{}, fmt.Errorf("parse created_at: %w", err)
	}
	if sess.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Session{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return sess, nil
}

// Update overwrites the stored session.
func (s *SQLiteStore) Update(ctx context.Context, sess Session) error {
	transcript, err := json.Marshal(sess.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET transcript = ?, progress = ?, is_active = ?, summary = ?, updated_at = ?
		 WHERE session_id = ?`,
		string(transcript), sess.Progress, boolToInt(sess.Active),
		sess.Summary, sess.UpdatedAt.UTC().Format(time.RFC3339Nano), sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint failures in the error
	// string; there is no portable typed error across driver versions.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

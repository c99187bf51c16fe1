package archive

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/splatbench/internal/benchmarker"
	"git.home.luguber.info/inful/splatbench/internal/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (and creates if needed) the archive at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.FileSystemError("create directory", filepath.Dir(dbPath), err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.ArchiveError("open", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.ArchiveError("initialize schema", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS samples (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		tag TEXT NOT NULL,
		tag_order INTEGER NOT NULL,
		position INTEGER NOT NULL,
		seconds REAL NOT NULL,
		PRIMARY KEY (session_id, tag, position)
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSession stores the session and all of its samples in one transaction.
func (s *SQLiteStore) SaveSession(ctx context.Context, info SessionInfo, timings *benchmarker.Timings) error {
	if info.ID == "" {
		return errors.ValidationFailed("session.id", "must not be empty")
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.ArchiveError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (id, label, created_at) VALUES (?, ?, ?)",
		info.ID, info.Label, info.CreatedAt.UnixMilli(),
	); err != nil {
		return errors.ArchiveError("insert session", err).WithContext("session_id", info.ID)
	}

	if timings != nil {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO samples (session_id, tag, tag_order, position, seconds) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return errors.ArchiveError("prepare sample insert", err)
		}
		defer func() { _ = stmt.Close() }()

		for order, tag := range timings.Tags() {
			for pos, seconds := range timings.Get(tag) {
				if _, err := stmt.ExecContext(ctx, info.ID, tag, order, pos, seconds); err != nil {
					return errors.ArchiveError("insert sample", err).WithContext("tag", tag)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.ArchiveError("commit", err)
	}
	return nil
}

// ListSessions returns archived sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT s.id, s.label, s.created_at,
		COUNT(DISTINCT x.tag), COUNT(x.seconds)
	FROM sessions s
	LEFT JOIN samples x ON x.session_id = s.id
	GROUP BY s.id, s.label, s.created_at
	ORDER BY s.created_at DESC, s.id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.ArchiveError("query sessions", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var createdMillis int64
		if err := rows.Scan(&info.ID, &info.Label, &createdMillis, &info.Tags, &info.Samples); err != nil {
			return nil, errors.ArchiveError("scan session", err)
		}
		info.CreatedAt = time.UnixMilli(createdMillis)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ArchiveError("iterate sessions", err)
	}
	return out, nil
}

// LoadSession returns the session with the given id.
func (s *SQLiteStore) LoadSession(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := &Session{Timings: benchmarker.NewTimings()}
	var createdMillis int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, label, created_at FROM sessions WHERE id = ?", id,
	).Scan(&sess.ID, &sess.Label, &createdMillis)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, errors.New(errors.CategoryNotFound, errors.SeverityError,
			fmt.Sprintf("session %s is not in the archive", id)).WithContext("session_id", id)
	}
	if err != nil {
		return nil, errors.ArchiveError("query session", err)
	}
	sess.CreatedAt = time.UnixMilli(createdMillis)

	rows, err := s.db.QueryContext(ctx,
		"SELECT tag, seconds FROM samples WHERE session_id = ? ORDER BY tag_order, position", id)
	if err != nil {
		return nil, errors.ArchiveError("query samples", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tag string
		var seconds float64
		if err := rows.Scan(&tag, &seconds); err != nil {
			return nil, errors.ArchiveError("scan sample", err)
		}
		sess.Timings.Append(tag, seconds)
		sess.Samples++
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ArchiveError("iterate samples", err)
	}
	sess.Tags = sess.Timings.Len()
	return sess, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

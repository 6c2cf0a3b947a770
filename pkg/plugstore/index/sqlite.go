package index

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists the plugin index to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite index store.
// The path should be a file path (e.g., "./plugin_index.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS plugin_refs (
			key TEXT NOT NULL PRIMARY KEY,
			hash TEXT NOT NULL,
			filename TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ref Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO plugin_refs (key, hash, filename)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			hash = excluded.hash,
			filename = excluded.filename
	`, ref.Key, ref.Hash, ref.Filename)

	if err != nil {
		return fmt.Errorf("put reference: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(key string) (Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Reference{}, ErrStoreClosed
	}

	ref := Reference{Key: key}
	err := s.db.QueryRow(`
		SELECT hash, filename FROM plugin_refs
		WHERE key = ?
	`, key).Scan(&ref.Hash, &ref.Filename)

	if err == sql.ErrNoRows {
		return Reference{}, ErrNotFound
	}
	if err != nil {
		return Reference{}, fmt.Errorf("get reference: %w", err)
	}
	return ref, nil
}

// List implements Store.
func (s *SQLiteStore) List() ([]Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT key, hash, filename
		FROM plugin_refs
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("list references: %w", err)
	}
	defer rows.Close()

	refs := make([]Reference, 0)
	for rows.Next() {
		var ref Reference
		if err := rows.Scan(&ref.Key, &ref.Hash, &ref.Filename); err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate references: %w", err)
	}

	return refs, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM plugin_refs WHERE key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("delete reference: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

package pathstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStorage keeps documents as rows of a SQLite database, one row per
// document name. It is useful when a single file must hold several
// documents.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLiteStorage opens or creates the database at path.
func OpenSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite doesn't support concurrent writes.
	db.SetMaxOpenConns(1)
	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			body BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// ReadFile returns the document body.
func (s *SQLiteStorage) ReadFile(name string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRow(`SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %q: %w", name, os.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document %q: %w", name, err)
	}
	return body, nil
}

// Exists reports whether a row exists for name.
func (s *SQLiteStorage) Exists(name string) (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents WHERE name = ?`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("checking document %q: %w", name, err)
	}
	return n > 0, nil
}

// WriteFile inserts or replaces the document body.
func (s *SQLiteStorage) WriteFile(name string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		name, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing document %q: %w", name, err)
	}
	return nil
}

// Names lists the stored documents.
func (s *SQLiteStorage) Names() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

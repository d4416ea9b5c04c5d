package visibility

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists registry entries in a SQLite database, making
// category visibility durable across viewer restarts.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("cannot open visibility database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS category_visibility (
			category   TEXT PRIMARY KEY,
			hidden     INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot create visibility schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// sqliteDSN builds the connection string. The driver applies pragmas
// only through the _pragma query parameter.
func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

func (s *SQLiteStore) Load() (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT category, hidden FROM category_visibility`)
	if err != nil {
		return nil, fmt.Errorf("loading visibility entries: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var category string
		var hidden int
		if err := rows.Scan(&category, &hidden); err != nil {
			return nil, err
		}
		out[category] = hidden != 0
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Put(category string, hidden bool) error {
	_, err := s.db.Exec(`
		INSERT INTO category_visibility (category, hidden, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(category) DO UPDATE SET hidden = excluded.hidden, updated_at = excluded.updated_at
	`, category, boolToInt(hidden), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) ReplaceAll(entries map[string]bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM category_visibility`); err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for category, hidden := range entries {
		if _, err := tx.Exec(`
			INSERT INTO category_visibility (category, hidden, updated_at) VALUES (?, ?, ?)
		`, category, boolToInt(hidden), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

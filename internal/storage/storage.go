package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrQueryNotFound = errors.New("saved query not found")

type SavedQuery struct {
	Name      string
	Source    string
	UpdatedAt time.Time
}

// Toggle is one entry of the toggle history.
type Toggle struct {
	ID          int
	Path        string
	Line        int
	Description string
	Status      string
	// SpawnedDue is the due date of the occurrence a recurring task spawned.
	SpawnedDue sql.NullTime
	At         time.Time
}

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare %s: %w", dbPath, err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	ddl := []string{`
CREATE TABLE IF NOT EXISTS saved_queries (
	name TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`, `
CREATE TABLE IF NOT EXISTS toggles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	at TEXT NOT NULL
);`}
	for _, stmt := range ddl {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return s.ensureToggleColumns()
}

// ensureToggleColumns adds the columns later versions of the history table
// carry to databases created before them.
func (s *Store) ensureToggleColumns() error {
	required := map[string]string{
		"line":        "ALTER TABLE toggles ADD COLUMN line INTEGER NOT NULL DEFAULT 0;",
		"spawned_due": "ALTER TABLE toggles ADD COLUMN spawned_due TEXT DEFAULT NULL;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(toggles);`)
	if err != nil {
		return err
	}
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	// The single connection must be released before altering the table.
	rows.Close()

	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		slog.Debug("adding history column", "column", col)
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// SaveQuery stores source under name, replacing what was there.
func (s *Store) SaveQuery(name, source string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(`INSERT INTO saved_queries (name, source, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET source = excluded.source, updated_at = excluded.updated_at;`, name, source, now)
	return err
}

func (s *Store) Query(name string) (SavedQuery, error) {
	var q SavedQuery
	var updated string
	err := s.db.QueryRow(`SELECT name, source, updated_at FROM saved_queries WHERE name = ?;`, name).
		Scan(&q.Name, &q.Source, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedQuery{}, fmt.Errorf("%q: %w", name, ErrQueryNotFound)
	}
	if err != nil {
		return SavedQuery{}, err
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		q.UpdatedAt = t
	}
	return q, nil
}

func (s *Store) ListQueries() ([]SavedQuery, error) {
	rows, err := s.db.Query(`SELECT name, source, updated_at FROM saved_queries ORDER BY name;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SavedQuery
	for rows.Next() {
		var q SavedQuery
		var updated string
		if err := rows.Scan(&q.Name, &q.Source, &updated); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			q.UpdatedAt = t
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) DeleteQuery(name string) error {
	res, err := s.db.Exec(`DELETE FROM saved_queries WHERE name = ?;`, name)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%q: %w", name, ErrQueryNotFound)
	}
	return nil
}

// RecordToggle appends t to the history. A zero At means now.
func (s *Store) RecordToggle(t Toggle) error {
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}
	spawned := sql.NullString{}
	if t.SpawnedDue.Valid {
		spawned = sql.NullString{String: t.SpawnedDue.Time.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err := s.db.Exec(`INSERT INTO toggles (path, line, description, status, spawned_due, at) VALUES (?, ?, ?, ?, ?, ?);`,
		t.Path, t.Line, t.Description, t.Status, spawned, at.UTC().Format(time.RFC3339))
	return err
}

// History returns up to limit entries, most recent first. A limit of zero
// or less returns all of them.
func (s *Store) History(limit int) ([]Toggle, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT id, path, line, description, status, spawned_due, at FROM toggles ORDER BY id DESC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Toggle
	for rows.Next() {
		var t Toggle
		var spawned sql.NullString
		var at string
		if err := rows.Scan(&t.ID, &t.Path, &t.Line, &t.Description, &t.Status, &spawned, &at); err != nil {
			return nil, err
		}
		if spawned.Valid {
			if parsed, err := time.Parse(time.RFC3339, spawned.String); err == nil {
				t.SpawnedDue = sql.NullTime{Time: parsed, Valid: true}
			}
		}
		if parsed, err := time.Parse(time.RFC3339, at); err == nil {
			t.At = parsed
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Set("_pragma", "busy_timeout(5000)")
	u.RawQuery = q.Encode()
	return u.String()
}

// Package trials persists individual oracle runs — method, input tuple,
// label, step count — in a SQLite database so campaigns can be audited
// after the fact.
package trials

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"javelin/bytecode"
	"javelin/cases"
	"javelin/vm"
)

// Trial is one recorded run.
type Trial struct {
	Method string // absolute method ID text
	Input  string // "(...)" input tuple text
	Label  string
	Steps  int
	At     time.Time
}

// Summary is the label histogram for one method.
type Summary struct {
	Method string
	Label  string
	Count  int
}

// Store is a trial database. Safe for concurrent use; SQLite serializes
// writers behind the busy timeout.
type Store struct {
	db *sql.DB
}

// Open opens or creates a trial database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trial db: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS trials (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		method  TEXT NOT NULL,
		input   TEXT NOT NULL,
		label   TEXT NOT NULL,
		steps   INTEGER NOT NULL,
		created INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating trials table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one trial, stamped now.
func (s *Store) Record(id bytecode.MethodID, inputs []vm.Arg, label string, steps int) error {
	_, err := s.db.Exec(
		"INSERT INTO trials (method, input, label, steps, created) VALUES (?, ?, ?, ?, ?)",
		id.String(), cases.FormatInputs(inputs), label, steps, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording trial: %w", err)
	}
	return nil
}

// ByMethod returns the trials recorded for a method, oldest first.
func (s *Store) ByMethod(id bytecode.MethodID) ([]Trial, error) {
	rows, err := s.db.Query(
		"SELECT method, input, label, steps, created FROM trials WHERE method = ? ORDER BY id",
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying trials: %w", err)
	}
	defer rows.Close()

	var out []Trial
	for rows.Next() {
		var t Trial
		var created int64
		if err := rows.Scan(&t.Method, &t.Input, &t.Label, &t.Steps, &created); err != nil {
			return nil, err
		}
		t.At = time.Unix(created, 0)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Summarize returns label counts per method, ordered by method then
// label.
func (s *Store) Summarize() ([]Summary, error) {
	rows, err := s.db.Query(
		`SELECT method, label, COUNT(*) FROM trials
		 GROUP BY method, label ORDER BY method, label`,
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing trials: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.Method, &sm.Label, &sm.Count); err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

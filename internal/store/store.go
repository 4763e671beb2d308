// Package store provides the SQLite database behind the undo journal: which
// commands were applied and the content each touched file had before.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS commands (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	created  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS file_deltas (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	command_id  TEXT NOT NULL,
	file_path   TEXT NOT NULL,
	op          TEXT NOT NULL,
	old_content BLOB,
	created     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_commands_created ON commands(created);
CREATE INDEX IF NOT EXISTS idx_deltas_command ON file_deltas(command_id);
`

// DefaultKeep is how many commands the journal remembers.
const DefaultKeep = 50

// ErrEmpty is returned when the journal holds no commands.
var ErrEmpty = errors.New("journal is empty")

// DB is a SQLite-backed journal database.
type DB struct {
	mu   sync.Mutex
	db   *sql.DB
	keep int
}

// Open creates or opens a journal database at the given path. Commands beyond
// the newest keep are dropped; keep <= 0 means DefaultKeep.
func Open(dbPath string, keep int) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if keep <= 0 {
		keep = DefaultKeep
	}
	s := &DB{db: db, keep: keep}
	s.prune()
	return s, nil
}

// Close closes the database.
func (s *DB) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// prune removes every command older than the newest s.keep.
func (s *DB) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT id FROM commands ORDER BY created DESC, rowid DESC LIMIT -1 OFFSET ?",
		s.keep,
	)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list old journal entries")
		return
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err == nil {
			stale = append(stale, id)
		}
	}
	rows.Close()

	for _, id := range stale {
		if err := s.deleteLocked(id); err != nil {
			log.Warn().Err(err).Str("command", id).Msg("failed to prune journal entry")
		}
	}
	if len(stale) > 0 {
		log.Info().Int("deleted", len(stale)).Msg("pruned old journal entries")
	}
}

func (s *DB) deleteLocked(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit
	if _, err := tx.Exec("DELETE FROM file_deltas WHERE command_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM commands WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

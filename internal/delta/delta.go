// Package delta journals file changes made by applied plans so they can be
// reversed on undo. Deltas are persisted to SQLite and keyed by command ID.
package delta

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/cppref/internal/store"
)

// ErrNothingToUndo is returned by Undo when no command is journaled.
var ErrNothingToUndo = errors.New("nothing to undo")

// Journal records and replays file deltas.
type Journal struct {
	db *store.DB
}

// New creates a Journal that writes to the given database.
func New(db *store.DB) *Journal {
	return &Journal{db: db}
}

// Begin starts a journal entry for a command and returns its ID.
func (j *Journal) Begin(name string) (string, error) {
	id := uuid.NewString()
	if err := j.db.CreateCommand(id, name); err != nil {
		return "", fmt.Errorf("begin %s: %w", name, err)
	}
	return id, nil
}

// Record stores the content path had before command id changed it. created
// marks a file the command creates; undo deletes it.
func (j *Journal) Record(id, path string, before []byte, created bool) error {
	op := store.OpModify
	if created {
		op = store.OpCreate
	}
	return j.db.AddDelta(id, path, op, before)
}

// History lists up to limit journaled commands, newest first.
func (j *Journal) History(limit int) ([]store.Command, error) {
	return j.db.Commands(limit)
}

// Undo reverses the most recent command. Modified files get their old
// content back; created files are removed. It returns the command and the
// affected paths.
func (j *Journal) Undo() (store.Command, []string, error) {
	cmd, err := j.db.LatestCommand()
	if errors.Is(err, store.ErrEmpty) {
		return store.Command{}, nil, ErrNothingToUndo
	}
	if err != nil {
		return store.Command{}, nil, err
	}

	deltas, err := j.db.Deltas(cmd.ID)
	if err != nil {
		return cmd, nil, err
	}

	var affected []string
	var errs []error
	for _, d := range deltas {
		affected = append(affected, d.Path)
		switch d.Op {
		case store.OpModify:
			if err := restore(d.Path, d.OldContent); err != nil {
				log.Warn().Err(err).Str("file", d.Path).Msg("undo: failed to restore file")
				errs = append(errs, err)
			}
		case store.OpCreate:
			if err := os.Remove(d.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Warn().Err(err).Str("file", d.Path).Msg("undo: failed to remove created file")
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return cmd, affected, errors.Join(errs...)
	}

	if err := j.db.DeleteCommand(cmd.ID); err != nil {
		log.Warn().Err(err).Str("command", cmd.ID).Msg("failed to drop undone command")
	}
	return cmd, affected, nil
}

func restore(path string, content []byte) error {
	perm := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return os.WriteFile(path, content, perm)
}

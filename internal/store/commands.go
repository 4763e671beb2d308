package store

import "time"

// Op is what a command did to a file.
type Op string

const (
	OpModify Op = "modify"
	OpCreate Op = "create"
)

// Command is one applied plan.
type Command struct {
	ID      string
	Name    string
	Created time.Time
	Files   int
}

// Delta is the state of one file before a command touched it.
type Delta struct {
	Path       string
	Op         Op
	OldContent []byte // nil for OpCreate
}

// CreateCommand inserts a new command entry.
func (s *DB) CreateCommand(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO commands (id, name, created) VALUES (?, ?, ?)",
		id, name, time.Now().Unix(),
	)
	return err
}

// AddDelta stores the state of path before command id changed it. Only the
// first delta per file per command is kept; later ones would hold content
// the command itself produced.
func (s *DB) AddDelta(id, path string, op Op, oldContent []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists bool
	err := s.db.QueryRow(
		"SELECT 1 FROM file_deltas WHERE command_id = ? AND file_path = ? LIMIT 1",
		id, path,
	).Scan(&exists)
	if err == nil && exists {
		return nil
	}
	if op == OpCreate {
		oldContent = nil
	}
	_, err = s.db.Exec(
		`INSERT INTO file_deltas (command_id, file_path, op, old_content, created)
		 VALUES (?, ?, ?, ?, ?)`,
		id, path, string(op), oldContent, time.Now().Unix(),
	)
	return err
}

// LatestCommand returns the most recently applied command, or ErrEmpty.
func (s *DB) LatestCommand() (Command, error) {
	cmds, err := s.Commands(1)
	if err != nil {
		return Command{}, err
	}
	if len(cmds) == 0 {
		return Command{}, ErrEmpty
	}
	return cmds[0], nil
}

// Commands lists up to limit commands, newest first.
func (s *DB) Commands(limit int) ([]Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT c.id, c.name, c.created, COUNT(d.id)
		 FROM commands c LEFT JOIN file_deltas d ON d.command_id = c.id
		 GROUP BY c.id
		 ORDER BY c.created DESC, c.rowid DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []Command
	for rows.Next() {
		var c Command
		var created int64
		if err := rows.Scan(&c.ID, &c.Name, &created, &c.Files); err != nil {
			return nil, err
		}
		c.Created = time.Unix(created, 0)
		cmds = append(cmds, c)
	}
	return cmds, rows.Err()
}

// Deltas returns the deltas of command id, most recent first.
func (s *DB) Deltas(id string) ([]Delta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT file_path, op, old_content FROM file_deltas
		 WHERE command_id = ? ORDER BY id DESC`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Delta
	for rows.Next() {
		var d Delta
		var op string
		if err := rows.Scan(&d.Path, &op, &d.OldContent); err != nil {
			return nil, err
		}
		d.Op = Op(op)
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteCommand removes a command and its deltas.
func (s *DB) DeleteCommand(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(id)
}

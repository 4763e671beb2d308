package edit

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/cppref/internal/document"
)

// ErrOverlap is returned for a plan with two edits covering the same text.
var ErrOverlap = errors.New("overlapping edits")

// ConflictError reports that a file no longer matches the snapshot the plan
// was computed from.
type ConflictError struct {
	Path string
	Err  error
}

func (e *ConflictError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *ConflictError) Unwrap() error { return e.Err }

// Change is the effect of a plan on one file.
type Change struct {
	Path    string
	Before  string
	After   string
	Created bool
}

// Prepare reads every file the plan touches, validates the anchors and
// computes the new contents. Nothing is written. Files left unchanged by the
// plan are omitted.
func Prepare(p *Plan) ([]Change, error) {
	var changes []Change
	for _, path := range p.Files() {
		c, err := prepareFile(path, p.editsFor(path))
		if err != nil {
			return nil, err
		}
		if c.Created || c.Before != c.After {
			changes = append(changes, c)
		}
	}
	return changes, nil
}

func prepareFile(path string, edits []Edit) (Change, error) {
	if slices.ContainsFunc(edits, func(e Edit) bool { return e.Create }) {
		if len(edits) > 1 {
			return Change{}, fmt.Errorf("%s: a created file takes no other edits", path)
		}
		if _, err := os.Lstat(path); err == nil {
			return Change{}, &ConflictError{Path: path, Err: fs.ErrExist}
		}
		return Change{Path: path, After: edits[0].NewText, Created: true}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Change{}, &ConflictError{Path: path, Err: err}
		}
		return Change{}, fmt.Errorf("read %s: %w", path, err)
	}
	before := string(data)
	lines := strings.Split(before, "\n")
	for _, e := range edits {
		if err := e.Anchor.Validate(lines); err != nil {
			return Change{}, &ConflictError{Path: path, Err: err}
		}
	}
	after, err := Splice(document.New(path, before), edits)
	if err != nil {
		return Change{}, fmt.Errorf("%s: %w", path, err)
	}
	return Change{Path: path, Before: before, After: after}, nil
}

// Splice applies edits to doc and returns the resulting text. Edits are
// applied from the end of the document backwards so earlier offsets stay
// valid. Insertions at the same position appear in plan order.
func Splice(doc *document.Document, edits []Edit) (string, error) {
	type span struct {
		start, end, idx int
		text            string
	}
	spans := make([]span, len(edits))
	for i, e := range edits {
		spans[i] = span{doc.Offset(e.Range.Start), doc.Offset(e.Range.End), i, e.NewText}
		if spans[i].end < spans[i].start {
			return "", fmt.Errorf("edit %d: range ends before it starts", i)
		}
	}
	slices.SortFunc(spans, func(a, b span) int {
		if c := cmp.Compare(a.start, b.start); c != 0 {
			return c
		}
		return cmp.Compare(a.idx, b.idx)
	})
	for i := 1; i < len(spans); i++ {
		if spans[i-1].end > spans[i].start {
			return "", ErrOverlap
		}
	}

	text := doc.Text()
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		text = text[:s.start] + s.text + text[s.end:]
	}
	return text, nil
}

// Write stores every change. When a write fails, files already written are
// restored and created files removed.
func Write(changes []Change) error {
	for i, c := range changes {
		if err := writeChange(c); err != nil {
			for _, done := range slices.Backward(changes[:i]) {
				rollback(done)
			}
			return fmt.Errorf("write %s: %w", c.Path, err)
		}
	}
	return nil
}

func writeChange(c Change) error {
	perm := fs.FileMode(0o644)
	if c.Created {
		if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
			return err
		}
	} else if info, err := os.Stat(c.Path); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.Path), "."+filepath.Base(c.Path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename
	if _, err := tmp.WriteString(c.After); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), c.Path)
}

func rollback(c Change) {
	var err error
	if c.Created {
		err = os.Remove(c.Path)
	} else {
		err = os.WriteFile(c.Path, []byte(c.Before), 0o644)
	}
	if err != nil {
		log.Warn().Err(err).Str("file", c.Path).Msg("rollback failed")
	}
}

// Journal keeps the prior content of files so an applied plan can be undone.
type Journal interface {
	Begin(name string) (string, error)
	Record(id, path string, before []byte, created bool) error
}

// Formatter rewrites a file in place after it was edited.
type Formatter interface {
	Format(ctx context.Context, path string) error
}

// Executor applies plans. Journal and Formatter are optional.
type Executor struct {
	Journal   Journal
	Formatter Formatter
}

// Apply validates and writes the plan. It returns the changes made, or an
// error and no changes.
func (x *Executor) Apply(ctx context.Context, p *Plan) ([]Change, error) {
	changes, err := Prepare(p)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}

	if x.Journal != nil {
		id, err := x.Journal.Begin(p.Name)
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		for _, c := range changes {
			if err := x.Journal.Record(id, c.Path, []byte(c.Before), c.Created); err != nil {
				return nil, fmt.Errorf("journal %s: %w", c.Path, err)
			}
		}
	}

	if err := Write(changes); err != nil {
		return nil, err
	}
	log.Debug().Str("command", p.Name).Int("files", len(changes)).Msg("plan applied")

	if x.Formatter != nil {
		for _, c := range changes {
			if err := x.Formatter.Format(ctx, c.Path); err != nil {
				log.Warn().Err(err).Str("file", c.Path).Msg("format hook failed")
			}
		}
	}
	return changes, nil
}

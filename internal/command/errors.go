package command

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/xonecas/cppref/internal/config"
	"github.com/xonecas/cppref/internal/edit"
	"github.com/xonecas/cppref/internal/model"
	"github.com/xonecas/cppref/internal/source"
)

// Kind classifies command failures.
type Kind int

const (
	KindIO Kind = iota
	KindNotFound
	KindAmbiguousParse
	KindConfigurationMissing
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindAmbiguousParse:
		return "ambiguous parse"
	case KindConfigurationMissing:
		return "configuration missing"
	case KindConflict:
		return "conflict"
	default:
		return "io"
	}
}

// Error is the failure of one command. No edits were applied.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Status is the one line shown to the user for the failure.
func (e *Error) Status() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s: nothing found: %v", e.Op, e.Err)
	case KindAmbiguousParse:
		return fmt.Sprintf("%s: could not read the code under the cursor: %v", e.Op, e.Err)
	case KindConfigurationMissing:
		return fmt.Sprintf("%s: %v (set it in the [generate] table of the config file)", e.Op, e.Err)
	case KindConflict:
		return fmt.Sprintf("%s: files changed while the command ran, nothing written: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
}

// wrap classifies err by the sentinel errors it carries. An *Error passes
// through unchanged.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) Kind {
	var conflict *edit.ConflictError
	switch {
	case errors.Is(err, config.ErrMissing):
		return KindConfigurationMissing
	case errors.As(err, &conflict), errors.Is(err, edit.ErrOverlap):
		return KindConflict
	case errors.Is(err, model.ErrAmbiguousParse):
		return KindAmbiguousParse
	case errors.Is(err, source.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	}
	return KindIO
}

func notFound(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf(format+": %w", append(args, source.ErrNotFound)...)}
}

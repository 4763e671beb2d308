package command

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/xonecas/cppref/internal/delta"
	"github.com/xonecas/cppref/internal/edit"
	"github.com/xonecas/cppref/internal/source"
)

// NewPair plans a header and a source file named name in dir. The header
// holds an include guard pragma and the source includes the header.
func NewPair(docs *source.Documents, dir, name string) (*Result, error) {
	const op = "new-pair"

	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, &Error{Kind: KindIO, Op: op, Err: fmt.Errorf("invalid file name %q", name)}
	}
	header := filepath.Join(dir, name+".h")
	src := filepath.Join(dir, name+".cpp")
	for _, p := range []string{header, src} {
		if docs.Exists(p) {
			return nil, &Error{Kind: KindConflict, Op: op, Err: &edit.ConflictError{Path: p, Err: fs.ErrExist}}
		}
	}

	plan := edit.NewPlan(op)
	plan.Create(header, "#pragma once\n\n")
	plan.Create(src, "#include \""+name+".h\"\n\n")
	return &Result{Plan: plan, Status: fmt.Sprintf("Created %s.h and %s.cpp", name, name)}, nil
}

// Undo reverts the most recently applied command and returns a status line.
func Undo(j *delta.Journal) (string, error) {
	cmd, files, err := j.Undo()
	if errors.Is(err, delta.ErrNothingToUndo) {
		return "Nothing to undo", nil
	}
	if err != nil {
		return "", &Error{Kind: KindIO, Op: "undo", Err: err}
	}
	return fmt.Sprintf("Undid %s (%d %s)", cmd.Name, len(files), plural(len(files), "file")), nil
}

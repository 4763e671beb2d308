// Package command runs the refactoring pipelines. Each command reads the
// generation options once, resolves the code under the cursor through a
// navigator, builds the model, synthesizes text and returns an edit plan.
// Nothing is written here; callers preview or apply the plan.
package command

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/xonecas/cppref/internal/config"
	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/edit"
	"github.com/xonecas/cppref/internal/model"
	"github.com/xonecas/cppref/internal/namespace"
	"github.com/xonecas/cppref/internal/source"
	"github.com/xonecas/cppref/internal/synth"
)

// Result is the outcome of a command: a plan, possibly empty, and the
// status line describing it.
type Result struct {
	Plan   *edit.Plan
	Status string
}

// Changes computes the effect of the plan without writing anything.
func (r *Result) Changes() ([]edit.Change, error) {
	if r.Plan.Empty() {
		return nil, nil
	}
	changes, err := edit.Prepare(r.Plan)
	return changes, wrap(r.Plan.Name, err)
}

// Apply writes the plan through x.
func (r *Result) Apply(ctx context.Context, x *edit.Executor) ([]edit.Change, error) {
	if r.Plan.Empty() {
		return nil, nil
	}
	changes, err := x.Apply(ctx, r.Plan)
	return changes, wrap(r.Plan.Name, err)
}

// Options reads the generation policy from cfg. A missing option fails with
// KindConfigurationMissing before any command runs.
func Options(cfg *config.Config) (config.Options, error) {
	opts, err := cfg.Options()
	if err != nil {
		return config.Options{}, &Error{Kind: KindConfigurationMissing, Op: "config", Err: err}
	}
	return opts, nil
}

// Session holds the collaborators of one command. A Session must not be
// reused across commands; its document snapshots would go stale.
type Session struct {
	nav     source.Navigator
	docs    *source.Documents
	builder *model.Builder
	opts    config.Options
}

// New returns a session generating code under opts.
func New(nav source.Navigator, docs *source.Documents, opts config.Options) *Session {
	return &Session{
		nav:     nav,
		docs:    docs,
		builder: model.NewBuilder(nav, docs),
		opts:    opts,
	}
}

// Cursor is the location of a position in a file.
func Cursor(path string, pos document.Position) document.Location {
	return document.Location{Path: path, Range: document.Range{Start: pos, End: pos}}
}

// pairedSource returns the file holding definitions for header.
func (s *Session) pairedSource(ctx context.Context, op, header string) (string, error) {
	paired, err := s.nav.SwitchPairedFile(ctx, header)
	if errors.Is(err, source.ErrNotFound) {
		return "", notFound(op, "no source file paired with %s", header)
	}
	if err != nil {
		return "", wrap(op, err)
	}
	return paired, nil
}

// placeDefinitions adds an insertion of defs into path. ns is the namespace
// the definitions belong to; it is ignored when definitions are written
// fully qualified at file scope.
func (s *Session) placeDefinitions(ctx context.Context, plan *edit.Plan, path string, ns []string, defs []string) error {
	doc, err := s.docs.Open(path)
	if err != nil {
		return err
	}
	outline, err := s.nav.Outline(ctx, doc.Path())
	if err != nil {
		return fmt.Errorf("outline %s: %w", path, err)
	}
	if s.opts.DefinitionWithNamespace {
		ns = nil
	}
	p := namespace.Locate(doc, outline, ns, s.opts.UseNestedNamespaces)
	plan.Insert(doc, p.Position, synth.Place(p, defs))
	return nil
}

// hasBody reports whether the function at loc is a definition.
func (s *Session) hasBody(ctx context.Context, loc document.Location) bool {
	_, err := s.builder.Definition(ctx, loc)
	return err == nil
}

// definitionOf returns the definition of fi when it lives somewhere other
// than fi itself.
func (s *Session) definitionOf(ctx context.Context, fi *model.FunctionInfo) (document.Location, bool, error) {
	def, err := s.nav.ResolveDefinition(ctx, fi.Location)
	if errors.Is(err, source.ErrNotFound) {
		return document.Location{}, false, nil
	}
	if err != nil {
		return document.Location{}, false, err
	}
	if def.Path == fi.Location.Path && def.Range.Start == fi.Location.Range.Start {
		return document.Location{}, false, nil
	}
	return def, true, nil
}

// qualifierOf returns the scope written in front of name in sig, such as
// "Circle::" in "void Circle::draw()".
func qualifierOf(sig, name string) string {
	re := regexp.MustCompile(`((?:[A-Za-z_]\w*\s*::\s*)+)` + regexp.QuoteMeta(name) + `\s*\(`)
	m := re.FindStringSubmatch(sig)
	if m == nil {
		return ""
	}
	return m[1]
}

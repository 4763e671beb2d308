package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/edit"
	"github.com/xonecas/cppref/internal/model"
	"github.com/xonecas/cppref/internal/synth"
)

// ChangeDeclaration rewrites the header of the function declared at loc to
// signature and, when the function is defined elsewhere, the definition
// header to match: qualified, without modifiers or default arguments.
func (s *Session) ChangeDeclaration(ctx context.Context, loc document.Location, signature string) (*Result, error) {
	const op = "change-decl"

	signature = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(signature), ";{"))
	if signature == "" || synth.FunctionName(signature) == "" {
		return nil, &Error{Kind: KindAmbiguousParse, Op: op, Err: fmt.Errorf("%q is not a function header: %w", signature, model.ErrAmbiguousParse)}
	}

	fi, err := s.builder.Function(ctx, loc)
	if err != nil {
		return nil, wrap(op, err)
	}
	decl, err := s.docs.Open(fi.Location.Path)
	if err != nil {
		return nil, wrap(op, err)
	}

	plan := edit.NewPlan(op)
	replaceHeader(plan, decl, fi.Extent, fi.Indent+signature)

	defLoc, ok, err := s.definitionOf(ctx, fi)
	if err != nil {
		return nil, wrap(op, err)
	}
	if !ok {
		return &Result{Plan: plan, Status: "Changed declaration of " + fi.FullName()}, nil
	}

	def, err := s.builder.Function(ctx, defLoc)
	if err != nil {
		return nil, wrap(op, err)
	}
	defDoc, err := s.docs.Open(def.Location.Path)
	if err != nil {
		return nil, wrap(op, err)
	}
	qualifier := qualifierOf(def.Signature, def.Name)
	if qualifier == "" && fi.ClassName != "" {
		qualifier = fi.ClassPath() + "::"
	}
	replaceHeader(plan, defDoc, def.Extent, def.Indent+synth.DefinitionHeader(signature, qualifier))
	return &Result{Plan: plan, Status: "Changed declaration and definition of " + fi.FullName()}, nil
}

// replaceHeader swaps the header text in r, keeping the whitespace that
// separated it from the terminator or body.
func replaceHeader(plan *edit.Plan, doc *document.Document, r document.Range, header string) {
	old := doc.Slice(r)
	trail := old[len(strings.TrimRight(old, " \t\r\n")):]
	plan.Replace(doc, r, header+trail)
}

package command

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/edit"
	"github.com/xonecas/cppref/internal/model"
	"github.com/xonecas/cppref/internal/synth"
)

// DefineStub adds an empty definition of the function declared at loc to
// the paired source file. A function that already has a definition is left
// alone.
func (s *Session) DefineStub(ctx context.Context, loc document.Location) (*Result, error) {
	const op = "define"

	fi, err := s.builder.Function(ctx, loc)
	if err != nil {
		return nil, wrap(op, err)
	}
	if fi.Signature == "" {
		return nil, &Error{Kind: KindAmbiguousParse, Op: op, Err: fmt.Errorf("empty signature for %s: %w", fi.Name, model.ErrAmbiguousParse)}
	}

	plan := edit.NewPlan(op)
	defined := s.hasBody(ctx, fi.Location)
	if !defined {
		_, defined, err = s.definitionOf(ctx, fi)
		if err != nil {
			return nil, wrap(op, err)
		}
	}
	if defined {
		return &Result{Plan: plan, Status: fmt.Sprintf("%s: already defined", fi.FullName())}, nil
	}

	paired, err := s.pairedSource(ctx, op, fi.Location.Path)
	if err != nil {
		return nil, err
	}
	def := synth.StubDefinition(*fi, s.opts.DefinitionWithNamespace)
	if err := s.placeDefinitions(ctx, plan, paired, fi.NamespacePath(), []string{def}); err != nil {
		return nil, wrap(op, err)
	}
	log.Info().Str("function", fi.FullName()).Str("file", paired).Msg("define: stub added")
	return &Result{Plan: plan, Status: "Defined " + fi.FullName()}, nil
}

// MoveDefinition moves the in-class definition at loc out of the class: the
// class keeps the declaration and the paired source file gets the
// qualified definition with the body's indentation removed.
func (s *Session) MoveDefinition(ctx context.Context, loc document.Location) (*Result, error) {
	const op = "move"

	fi, err := s.builder.Definition(ctx, loc)
	if err != nil {
		return nil, wrap(op, err)
	}
	if fi.ClassName == "" {
		return nil, notFound(op, "%s is not a member function", fi.Name)
	}
	if qualifierOf(fi.Signature, fi.Name) != "" {
		return nil, notFound(op, "%s is already defined outside its class", fi.FullName())
	}

	header, err := s.docs.Open(fi.Location.Path)
	if err != nil {
		return nil, wrap(op, err)
	}
	paired, err := s.pairedSource(ctx, op, header.Path())
	if err != nil {
		return nil, err
	}

	plan := edit.NewPlan(op)
	plan.Replace(header, fi.Extent, synth.DeclarationStub(*fi))
	def := synth.MovedDefinition(*fi, s.opts.DefinitionWithNamespace)
	if err := s.placeDefinitions(ctx, plan, paired, fi.NamespacePath(), []string{def}); err != nil {
		return nil, wrap(op, err)
	}
	log.Info().Str("function", fi.FullName()).Str("file", paired).Msg("move: definition moved")
	return &Result{Plan: plan, Status: "Moved " + fi.FullName()}, nil
}

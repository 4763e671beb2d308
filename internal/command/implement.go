package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/edit"
	"github.com/xonecas/cppref/internal/model"
	"github.com/xonecas/cppref/internal/override"
	"github.com/xonecas/cppref/internal/synth"
)

// ImplementInterface declares every inherited virtual method the class at
// loc does not override yet, right after the opening brace of its body, and
// adds an empty definition of each to the paired source file. Without a
// paired source only the declarations are added.
func (s *Session) ImplementInterface(ctx context.Context, loc document.Location) (*Result, error) {
	const op = "implement"

	ci, err := s.builder.Class(ctx, loc)
	if err != nil {
		return nil, wrap(op, err)
	}
	if !ci.HasBody {
		return nil, notFound(op, "class %s has no body", ci.FullName())
	}

	var methods []model.FunctionInfo
	for _, m := range override.VirtualMethods(ci) {
		if m.Signature == "" {
			log.Warn().Str("class", ci.FullName()).Str("method", m.Name).Msg("implement: no signature, skipping")
			continue
		}
		methods = append(methods, m)
	}
	log.Info().Str("class", ci.FullName()).Int("methods", len(methods)).Msg("implement: override set")

	plan := edit.NewPlan(op)
	if len(methods) == 0 {
		return &Result{Plan: plan, Status: fmt.Sprintf("%s: nothing to implement", ci.FullName())}, nil
	}

	header, err := s.docs.Open(ci.BodyStart.Path)
	if err != nil {
		return nil, wrap(op, err)
	}
	plan.Insert(header, ci.BodyStart.Range.End, synth.OverrideBlock(methods, s.opts.Indent))

	status := fmt.Sprintf("Implemented %d %s", len(methods), plural(len(methods), "method"))
	paired, err := s.pairedSource(ctx, op, header.Path())
	var nf *Error
	if errors.As(err, &nf) && nf.Kind == KindNotFound {
		log.Warn().Str("header", header.Path()).Msg("implement: no paired source, declarations only")
		return &Result{Plan: plan, Status: status + " (declarations only)"}, nil
	}
	if err != nil {
		return nil, err
	}

	defs := make([]string, len(methods))
	for i, m := range methods {
		defs[i] = synth.StubDefinition(m, s.opts.DefinitionWithNamespace)
	}
	if err := s.placeDefinitions(ctx, plan, paired, ci.NamespacePath(), defs); err != nil {
		return nil, wrap(op, err)
	}
	return &Result{Plan: plan, Status: status}, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

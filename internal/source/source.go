// Package source declares the services the refactoring core consumes but
// does not implement: declaration/definition lookup, document outlines and
// header/source pairing. Implementations live in internal/lsp (clangd) and
// internal/treesitter (offline).
package source

import (
	"context"
	"errors"

	"github.com/xonecas/cppref/internal/document"
)

// ErrNotFound is returned when a lookup has no answer.
var ErrNotFound = errors.New("not found")

// Kind classifies outline entries.
type Kind int

const (
	KindOther Kind = iota
	KindNamespace
	KindClass
	KindStruct
	KindMethod
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindClass:
		return "class"
	case KindStruct:
		return "struct"
	case KindMethod:
		return "method"
	case KindFunction:
		return "function"
	default:
		return "other"
	}
}

// IsType reports whether k names a class-like entry.
func (k Kind) IsType() bool { return k == KindClass || k == KindStruct }

// Symbol is one outline entry.
type Symbol struct {
	Name      string
	Kind      Kind
	Container []string       // enclosing names, outermost first
	Range     document.Range // full extent including body
	NameRange document.Range // the identifier only
	Children  []Symbol
}

// Navigator answers location queries about source files.
type Navigator interface {
	// ResolveDeclaration returns the canonical declaration of the symbol at loc.
	ResolveDeclaration(ctx context.Context, loc document.Location) (document.Location, error)
	// ResolveDefinition returns the definition (the occurrence with a body).
	ResolveDefinition(ctx context.Context, loc document.Location) (document.Location, error)
	// Outline returns the symbol tree of a file.
	Outline(ctx context.Context, path string) ([]Symbol, error)
	// SwitchPairedFile returns the header for a source file and vice versa.
	// It returns only once the pairing is known.
	SwitchPairedFile(ctx context.Context, path string) (string, error)
}

// Chain returns the path of symbols from the outline root down to the entry
// whose name range contains pos, or nil.
func Chain(syms []Symbol, pos document.Position) []Symbol {
	for _, s := range syms {
		if s.NameRange.Contains(pos) {
			return []Symbol{s}
		}
	}
	for _, s := range syms {
		if len(s.Children) == 0 || !s.Range.Contains(pos) {
			continue
		}
		if sub := Chain(s.Children, pos); sub != nil {
			return append([]Symbol{s}, sub...)
		}
	}
	return nil
}

// Walk calls fn for every symbol depth-first, parents before children.
func Walk(syms []Symbol, fn func(Symbol)) {
	for _, s := range syms {
		fn(s)
		Walk(s.Children, fn)
	}
}

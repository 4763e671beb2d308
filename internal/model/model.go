// Package model builds the lightweight structural model of C++ classes and
// methods from raw text plus navigator queries. Nothing here parses the
// language: signatures are bounded with regular expressions and the class
// graph comes from the outline and declaration services.
package model

import (
	"errors"
	"strings"

	"github.com/xonecas/cppref/internal/document"
)

// ErrAmbiguousParse is returned when a boundary scan finds no terminator.
var ErrAmbiguousParse = errors.New("ambiguous parse")

// Modifiers is the closed set of method modifiers the model tracks.
type Modifiers uint8

const (
	Virtual Modifiers = 1 << iota
	Static
	Override
)

// Has reports whether every flag in f is set.
func (m Modifiers) Has(f Modifiers) bool { return m&f == f }

func (m Modifiers) String() string {
	var parts []string
	if m.Has(Virtual) {
		parts = append(parts, "virtual")
	}
	if m.Has(Static) {
		parts = append(parts, "static")
	}
	if m.Has(Override) {
		parts = append(parts, "override")
	}
	return strings.Join(parts, "|")
}

// FunctionInfo describes one method or free function occurrence.
type FunctionInfo struct {
	Name      string // bare identifier
	Namespace string // qualified container path, including the class
	ClassName string // nearest enclosing class, may be empty
	// Enclosing is the namespace part of Namespace, without any classes.
	Enclosing string
	Modifiers Modifiers
	Pure      bool
	Signature string // trimmed, modifier-free header text
	Indent    string // indentation of the first captured line

	// Declaration is the captured header with its modifiers, trimmed of the
	// trailing terminator. Used to leave a declaration behind on move.
	Declaration string
	// Body is the text after the header through the closing brace. Only set
	// when a definition was read.
	Body string
	// BodyIndent is the leading whitespace of the document line the
	// captured definition starts on. Only set with Body.
	BodyIndent string

	Location document.Location // name location
	Extent   document.Range    // header start through body end (or header end)
}

// FullName returns Namespace::Name.
func (f FunctionInfo) FullName() string { return qualify(f.Namespace, f.Name) }

// ClassPath returns the chain of classes around a method, such as
// "Outer::Inner", or "" for a free function.
func (f FunctionInfo) ClassPath() string {
	if f.ClassName == "" {
		return ""
	}
	rest := f.Namespace
	if f.Enclosing != "" {
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, f.Enclosing), "::")
	}
	if rest == "" {
		return f.ClassName
	}
	return rest
}

// NamespacePath returns the namespace segments a definition of f belongs
// in: those around its outermost class, or its own for a free function.
func (f FunctionInfo) NamespacePath() []string {
	if f.ClassName == "" {
		return SplitPath(f.Namespace)
	}
	return SplitPath(f.Enclosing)
}

// ClassInfo is one node of a class inheritance tree. Parents are owned by
// this node; the same physical base reached through two paths is two nodes.
type ClassInfo struct {
	Name      string
	Namespace string // containers, outer classes included
	Enclosing string // namespaces only
	Methods   []FunctionInfo
	Parents   []*ClassInfo

	Declaration document.Location
	// BodyStart is the opening brace of the class body.
	BodyStart document.Location
	HasBody   bool
}

// FullName returns Namespace::Name.
func (c *ClassInfo) FullName() string { return qualify(c.Namespace, c.Name) }

// NamespacePath splits the namespaces around the class, outer classes
// excluded, into segments.
func (c *ClassInfo) NamespacePath() []string { return SplitPath(c.Enclosing) }

// SplitPath splits "a::b::c" into segments, dropping empty ones.
func SplitPath(qualified string) []string {
	var out []string
	for _, s := range strings.Split(qualified, "::") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func qualify(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "::" + name
}

// Package namespace finds where generated definitions belong in a file: just
// before the closing brace of the matching namespace block, or inside a new
// block appended at the end of the file.
package namespace

import (
	"regexp"
	"slices"
	"strings"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/model"
	"github.com/xonecas/cppref/internal/source"
)

// Point is an insertion point. When the target namespace does not exist
// yet, Open and Close hold the text that creates it; generated code goes
// between them.
type Point struct {
	Position document.Position
	Open     string
	Close    string
}

// Inside reports whether the point lies in an existing block, or at the end
// of the file for the global namespace.
func (p Point) Inside() bool { return p.Open == "" && p.Close == "" }

// Wrap surrounds text with the block-creating text, if any.
func (p Point) Wrap(text string) string { return p.Open + text + p.Close }

// Find returns the innermost namespace symbol matching path. Outline names
// may span several segments ("A::B"). When a namespace is reopened, the
// last block wins. A candidate whose end is followed by "::" is skipped.
func Find(doc *document.Document, outline []source.Symbol, path []string) (source.Symbol, bool) {
	var found source.Symbol
	var ok bool
	var walk func(syms []source.Symbol, rest []string)
	walk = func(syms []source.Symbol, rest []string) {
		for _, s := range syms {
			if s.Kind != source.KindNamespace {
				continue
			}
			segs := model.SplitPath(s.Name)
			if len(segs) == 0 || len(segs) > len(rest) || !slices.Equal(segs, rest[:len(segs)]) {
				continue
			}
			if len(segs) < len(rest) {
				walk(s.Children, rest[len(segs):])
				continue
			}
			if followedByScope(doc, s.Range.End) {
				continue
			}
			found, ok = s, true
		}
	}
	if len(path) > 0 {
		walk(outline, path)
	}
	return found, ok
}

// Locate returns the insertion point for code in namespace path. An empty
// path means the end of the document.
func Locate(doc *document.Document, outline []source.Symbol, path []string, nested bool) Point {
	end := doc.End()
	if len(path) == 0 {
		return Point{Position: end}
	}
	if ns, ok := Find(doc, outline, path); ok {
		if brace, ok := doc.SearchBackward(ns.Range.End, closeBrace); ok {
			return Point{Position: brace.Start}
		}
	}
	return synthesize(doc, path, nested)
}

var closeBrace = regexp.MustCompile(`\}`)

func synthesize(doc *document.Document, path []string, nested bool) Point {
	lead := "\n"
	if last := doc.Line(doc.LineCount() - 1); last != "" {
		lead = "\n\n"
	}
	if nested {
		return Point{
			Position: doc.End(),
			Open:     lead + "namespace " + strings.Join(path, "::") + " {\n",
			Close:    "}\n",
		}
	}

	var open strings.Builder
	open.WriteString(lead)
	for i, seg := range path {
		if i > 0 {
			open.WriteByte(' ')
		}
		open.WriteString("namespace " + seg + " {")
	}
	open.WriteByte('\n')
	return Point{
		Position: doc.End(),
		Open:     open.String(),
		Close:    strings.TrimSpace(strings.Repeat("} ", len(path))) + "\n",
	}
}

func followedByScope(doc *document.Document, end document.Position) bool {
	line := doc.Line(end.Line)
	if end.Col > len(line) {
		return false
	}
	return strings.HasPrefix(strings.TrimLeft(line[end.Col:], " \t"), "::")
}

// Package edit is the mutation boundary. Commands describe their output as a
// Plan of text edits computed from a snapshot; the Executor validates every
// edit against the files on disk, writes them all or none, journals the old
// content for undo and runs the format hook.
package edit

import (
	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/hashline"
)

// Edit replaces Range in Path with NewText. An insertion has an empty range.
// Anchor holds the hashes of the first and last line the range touches, as
// they were when the plan was made.
type Edit struct {
	Path    string
	Range   document.Range
	NewText string
	Anchor  hashline.Span

	// Create marks an edit that writes a new file with NewText as its
	// whole content. The file must not exist.
	Create bool
}

// Plan is the ordered list of edits one command produces.
type Plan struct {
	Name  string
	Edits []Edit
}

// NewPlan returns an empty plan for the named command.
func NewPlan(name string) *Plan {
	return &Plan{Name: name}
}

// Insert adds text at pos in doc.
func (p *Plan) Insert(doc *document.Document, pos document.Position, text string) {
	p.Replace(doc, document.Range{Start: pos, End: pos}, text)
}

// Replace adds an edit replacing r in doc with text.
func (p *Plan) Replace(doc *document.Document, r document.Range, text string) {
	r = document.Range{Start: doc.Clamp(r.Start), End: doc.Clamp(r.End)}
	p.Edits = append(p.Edits, Edit{
		Path:    doc.Path(),
		Range:   r,
		NewText: text,
		Anchor:  hashline.SpanAt(doc.Lines(), r.Start.Line, r.End.Line),
	})
}

// Create adds a new file.
func (p *Plan) Create(path, text string) {
	p.Edits = append(p.Edits, Edit{Path: path, NewText: text, Create: true})
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool { return p == nil || len(p.Edits) == 0 }

// Files returns the touched paths in order of first appearance.
func (p *Plan) Files() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range p.Edits {
		if !seen[e.Path] {
			seen[e.Path] = true
			out = append(out, e.Path)
		}
	}
	return out
}

func (p *Plan) editsFor(path string) []Edit {
	var out []Edit
	for _, e := range p.Edits {
		if e.Path == path {
			out = append(out, e)
		}
	}
	return out
}

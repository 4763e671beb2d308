// Package document holds the in-memory text model the refactoring core scans:
// line/column positions, ranges, locations and the pattern search primitives
// every other component uses to find boundaries in raw source text.
package document

import (
	"fmt"
	"strings"
)

// Position is a zero-based line/column pair. Columns count bytes.
type Position struct {
	Line int
	Col  int
}

// Compare returns -1, 0 or 1 depending on whether p is before, equal to or
// after o.
func (p Position) Compare(o Position) int {
	switch {
	case p.Line < o.Line:
		return -1
	case p.Line > o.Line:
		return 1
	case p.Col < o.Col:
		return -1
	case p.Col > o.Col:
		return 1
	}
	return 0
}

// Before reports whether p sorts strictly before o.
func (p Position) Before(o Position) bool { return p.Compare(o) < 0 }

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Col+1) // display as 1-indexed
}

// Range is a half-open span [Start, End).
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether p lies inside r, end inclusive.
func (r Range) Contains(p Position) bool {
	return !p.Before(r.Start) && !r.End.Before(p)
}

// Empty reports whether the range covers no text.
func (r Range) Empty() bool { return r.Start == r.End }

// Location is a range inside a named file.
type Location struct {
	Path  string
	Range Range
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%s", l.Path, l.Range.Start)
}

// Document is an immutable snapshot of one file's text split into lines.
type Document struct {
	path  string
	lines []string
}

// New splits text into lines. A trailing newline yields a final empty line,
// so Text() always round-trips.
func New(path, text string) *Document {
	return &Document{path: path, lines: strings.Split(text, "\n")}
}

// Path returns the file path the document was loaded from.
func (d *Document) Path() string { return d.path }

// Text returns the full document text.
func (d *Document) Text() string { return strings.Join(d.lines, "\n") }

// Lines returns the document lines without their terminators.
func (d *Document) Lines() []string { return d.lines }

// LineCount returns the number of lines.
func (d *Document) LineCount() int { return len(d.lines) }

// Line returns line i, or "" when out of range.
func (d *Document) Line(i int) string {
	if i < 0 || i >= len(d.lines) {
		return ""
	}
	return d.lines[i]
}

// End returns the position just past the last character.
func (d *Document) End() Position {
	last := len(d.lines) - 1
	return Position{Line: last, Col: len(d.lines[last])}
}

// Clamp moves p inside the document bounds.
func (d *Document) Clamp(p Position) Position {
	if p.Line < 0 {
		return Position{}
	}
	if p.Line >= len(d.lines) {
		return d.End()
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if n := len(d.lines[p.Line]); p.Col > n {
		p.Col = n
	}
	return p
}

// Offset converts a position into a byte offset of Text().
func (d *Document) Offset(p Position) int {
	p = d.Clamp(p)
	off := 0
	for i := 0; i < p.Line; i++ {
		off += len(d.lines[i]) + 1
	}
	return off + p.Col
}

// PositionAt converts a byte offset of Text() back into a position.
func (d *Document) PositionAt(off int) Position {
	if off <= 0 {
		return Position{}
	}
	for i, l := range d.lines {
		if off <= len(l) {
			return Position{Line: i, Col: off}
		}
		off -= len(l) + 1
	}
	return d.End()
}

// Slice returns the text covered by r.
func (d *Document) Slice(r Range) string {
	start, end := d.Offset(r.Start), d.Offset(r.End)
	if end <= start {
		return ""
	}
	return d.Text()[start:end]
}

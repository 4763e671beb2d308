package document

import (
	"regexp"
	"unicode"
)

// SearchForward returns the first match of re at or after from. The first
// line is searched from from.Col, later lines from column 0. Matches never
// span lines.
func (d *Document) SearchForward(from Position, re *regexp.Regexp) (Range, bool) {
	from = d.Clamp(from)
	for line := from.Line; line < len(d.lines); line++ {
		col := 0
		if line == from.Line {
			col = from.Col
		}
		if loc := re.FindStringIndex(d.lines[line][col:]); loc != nil {
			return Range{
				Start: Position{Line: line, Col: col + loc[0]},
				End:   Position{Line: line, Col: col + loc[1]},
			}, true
		}
	}
	return Range{}, false
}

// SearchBackward returns the last match of re that ends at or before from,
// scanning the text left of from and then whole previous lines.
func (d *Document) SearchBackward(from Position, re *regexp.Regexp) (Range, bool) {
	from = d.Clamp(from)
	for line := from.Line; line >= 0; line-- {
		text := d.lines[line]
		if line == from.Line {
			text = text[:from.Col]
		}
		all := re.FindAllStringIndex(text, -1)
		if len(all) == 0 {
			continue
		}
		loc := all[len(all)-1]
		return Range{
			Start: Position{Line: line, Col: loc[0]},
			End:   Position{Line: line, Col: loc[1]},
		}, true
	}
	return Range{}, false
}

// FindBoundaryBefore scans backward from pos for the nearest boundary match
// that does not overlap an exclusion match on the same line, and returns the
// position just after it: where the statement containing pos begins.
func (d *Document) FindBoundaryBefore(pos Position, boundary, exclusion *regexp.Regexp) (Position, bool) {
	pos = d.Clamp(pos)
	for line := pos.Line; line >= 0; line-- {
		full := d.lines[line]
		text := full
		if line == pos.Line {
			text = full[:pos.Col]
		}
		matches := boundary.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		var excluded [][]int
		if exclusion != nil {
			excluded = exclusion.FindAllStringIndex(full, -1)
		}
		for i := len(matches) - 1; i >= 0; i-- {
			m := matches[i]
			if overlaps(m, excluded) {
				continue
			}
			return Position{Line: line, Col: m[1]}, true
		}
	}
	return Position{}, false
}

func overlaps(m []int, spans [][]int) bool {
	for _, s := range spans {
		if m[0] < s[1] && s[0] < m[1] {
			return true
		}
	}
	return false
}

// TextBehind matches re against the rest of the document starting at pos.
// Unlike SearchForward the match may span lines.
func (d *Document) TextBehind(pos Position, re *regexp.Regexp) (string, Range, bool) {
	text := d.Text()
	off := d.Offset(pos)
	loc := re.FindStringIndex(text[off:])
	if loc == nil {
		return "", Range{}, false
	}
	r := Range{Start: d.PositionAt(off + loc[0]), End: d.PositionAt(off + loc[1])}
	return text[off+loc[0] : off+loc[1]], r, true
}

// WordAt returns the identifier range touching pos.
func (d *Document) WordAt(pos Position) (Range, bool) {
	pos = d.Clamp(pos)
	line := d.lines[pos.Line]
	start, end := pos.Col, pos.Col
	for start > 0 && isIdent(rune(line[start-1])) {
		start--
	}
	for end < len(line) && isIdent(rune(line[end])) {
		end++
	}
	if start == end {
		return Range{}, false
	}
	return Range{Start: Position{Line: pos.Line, Col: start}, End: Position{Line: pos.Line, Col: end}}, true
}

func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

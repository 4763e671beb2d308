package model

import (
	"regexp"
	"strings"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/source"
)

// SignatureExtractor captures the header text of a function symbol.
type SignatureExtractor interface {
	Extract(doc *document.Document, sym source.Symbol) (Header, error)
}

// Header is raw captured header text. Leading blank lines are dropped and
// the first line keeps its indentation.
type Header struct {
	Text  string
	Range document.Range
}

var (
	statementBoundary = regexp.MustCompile(`[;{}:]`)
	scopeQualifier    = regexp.MustCompile(`::`)
	// Not balanced: nested template arguments, braces in default arguments
	// and string defaults all end or overrun the match.
	parameterList = regexp.MustCompile(`^\s*\([0-9A-Za-z_&=()*.:,\s]*[^;{]`)
	lineComment   = regexp.MustCompile(`//[^\n]*`)
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// HeuristicExtractor bounds a header by the previous statement boundary and
// a fixed parameter-list character class.
type HeuristicExtractor struct{}

// Extract implements SignatureExtractor.
func (HeuristicExtractor) Extract(doc *document.Document, sym source.Symbol) (Header, error) {
	// Scan a copy with comments blanked so punctuation inside them is not
	// taken for a boundary.
	orig := doc
	doc = document.New(doc.Path(), stripComments(doc.Text()))

	start, ok := doc.FindBoundaryBefore(sym.NameRange.Start, statementBoundary, scopeQualifier)
	if !ok {
		start = document.Position{}
	}
	if !sym.Range.Empty() && start.Before(sym.Range.Start) {
		start = lineStartIfIndent(doc, sym.Range.Start)
	}

	_, params, ok := doc.TextBehind(sym.NameRange.End, parameterList)
	if !ok {
		return Header{}, ErrAmbiguousParse
	}
	r := document.Range{Start: start, End: params.End}

	if _, dropped := dropBlankLeadingLines(doc.Slice(r)); dropped > 0 {
		r.Start = document.Position{Line: r.Start.Line + dropped}
	}
	text, _ := dropBlankLeadingLines(dropComments(orig.Slice(r)))
	if strings.TrimSpace(text) == "" {
		return Header{}, ErrAmbiguousParse
	}
	return Header{Text: text, Range: r}, nil
}

// lineStartIfIndent widens p to column 0 when only whitespace precedes it.
func lineStartIfIndent(doc *document.Document, p document.Position) document.Position {
	if strings.TrimSpace(doc.Line(p.Line)[:p.Col]) == "" {
		return document.Position{Line: p.Line}
	}
	return p
}

func stripComments(text string) string {
	text = blockComment.ReplaceAllStringFunc(text, blankOut)
	return lineComment.ReplaceAllStringFunc(text, blankOut)
}

// blankOut replaces every byte of a comment but its line breaks with a
// space, so offsets in the blanked text still match the document.
func blankOut(comment string) string {
	b := []byte(comment)
	for i, c := range b {
		if c != '\n' {
			b[i] = ' '
		}
	}
	return string(b)
}

// commentText matches whole comments and a block comment cut off by the end
// of a captured range.
var commentText = regexp.MustCompile(`//[^\n]*|(?s:/\*.*?(?:\*/|\z))`)

// dropComments removes comments from captured header text. A comment that
// separated two words leaves one space; one next to punctuation or a line
// end leaves nothing. A comment leading its line keeps the indentation.
func dropComments(text string) string {
	out := make([]byte, 0, len(text))
	last := 0
	for _, m := range commentText.FindAllStringIndex(text, -1) {
		out = append(out, text[last:m[0]]...)
		rest := strings.TrimLeft(text[m[1]:], " \t")
		last = len(text) - len(rest)

		kept := strings.TrimRight(string(out), " \t")
		if kept == "" || kept[len(kept)-1] == '\n' {
			continue
		}
		out = []byte(kept)
		if rest != "" && !strings.ContainsRune("),;\n", rune(rest[0])) && kept[len(kept)-1] != '(' {
			out = append(out, ' ')
		}
	}
	return string(append(out, text[last:]...))
}

func dropBlankLeadingLines(text string) (string, int) {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	n := 0
	for n < len(lines)-1 && strings.TrimSpace(lines[n]) == "" {
		n++
	}
	return strings.Join(lines[n:], "\n"), n
}

var (
	virtualWord    = regexp.MustCompile(`\bvirtual\b`)
	staticWord     = regexp.MustCompile(`\bstatic\b`)
	overrideWord   = regexp.MustCompile(`\boverride\b`)
	stripVirtual   = regexp.MustCompile(`\bvirtual\b\s*`)
	stripStatic    = regexp.MustCompile(`\bstatic\b\s*`)
	stripOverride  = regexp.MustCompile(`\s*\boverride\b`)
	pureMarker     = regexp.MustCompile(`\s*=\s*0\s*$`)
	trailingTokens = regexp.MustCompile(`[\s;{]+$`)
)

// ParsedHeader is a header split into its modifier flags and the bare
// signature.
type ParsedHeader struct {
	Signature   string
	Declaration string
	Indent      string
	Modifiers   Modifiers
	Pure        bool
}

// ParseHeader records modifier flags found in text, then strips them.
func ParseHeader(text string) ParsedHeader {
	var p ParsedHeader
	p.Indent = text[:len(text)-len(strings.TrimLeft(text, " \t"))]

	decl := trailingTokens.ReplaceAllString(text, "")
	p.Declaration = decl

	if virtualWord.MatchString(decl) {
		p.Modifiers |= Virtual
	}
	if staticWord.MatchString(decl) {
		p.Modifiers |= Static
	}
	if overrideWord.MatchString(decl) {
		p.Modifiers |= Override
	}

	sig := decl
	if pureMarker.MatchString(sig) {
		p.Pure = true
		sig = pureMarker.ReplaceAllString(sig, "")
	}
	sig = stripVirtual.ReplaceAllString(sig, "")
	sig = stripStatic.ReplaceAllString(sig, "")
	sig = stripOverride.ReplaceAllString(sig, "")
	p.Signature = strings.TrimSpace(sig)
	return p
}

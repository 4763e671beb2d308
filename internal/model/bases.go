package model

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/source"
)

var (
	classHead   = regexp.MustCompile(`(?s)^[^{]*\{`)
	baseKeyword = regexp.MustCompile(`\b(public|protected|private|virtual)\b`)
	newlines    = regexp.MustCompile(`[\r\n]+`)
)

// BaseNames extracts the base-class names from the text between a class
// name and its opening brace, in declaration order.
func BaseNames(head string) []string {
	head = strings.TrimSuffix(head, "{")
	head = newlines.ReplaceAllString(head, " ")

	colon := singleColon(head)
	if colon < 0 {
		return nil
	}
	list := baseKeyword.ReplaceAllString(head[colon+1:], "")

	var names []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// singleColon returns the index of the first ':' that is not half of '::'.
func singleColon(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != ':' {
			continue
		}
		if i+1 < len(s) && s[i+1] == ':' {
			i++
			continue
		}
		return i
	}
	return -1
}

// parents resolves every base in the class head to its declaration and
// builds its subtree. Unresolvable bases are skipped.
func (b *Builder) parents(ctx context.Context, doc *document.Document, decl document.Location, path []string) ([]*ClassInfo, error) {
	head, _, ok := doc.TextBehind(decl.Range.End, classHead)
	if !ok {
		log.Debug().Str("class", decl.String()).Msg("model: no class body, no bases")
		return nil, nil
	}

	var out []*ClassInfo
	pos := decl.Range.End
	for _, name := range BaseNames(head) {
		occ, ok := doc.SearchForward(pos, wordPattern(name))
		if !ok {
			log.Warn().Str("base", name).Msg("model: base name not found in text")
			continue
		}
		pos = occ.End

		loc := document.Location{Path: doc.Path(), Range: bareName(name, occ)}
		declLoc, err := b.nav.ResolveDeclaration(ctx, loc)
		if err != nil {
			if errors.Is(err, source.ErrNotFound) {
				log.Warn().Str("base", name).Msg("model: base declaration not found")
				continue
			}
			return nil, err
		}

		parent, err := b.class(ctx, declLoc, path)
		switch {
		case errors.Is(err, errRevisit):
			log.Debug().Str("base", name).Msg("model: inheritance cycle, stopping")
			continue
		case errors.Is(err, source.ErrNotFound):
			log.Warn().Err(err).Str("base", name).Msg("model: base class not in outline")
			continue
		case err != nil:
			return nil, err
		}
		out = append(out, parent)
	}
	return out, nil
}

// wordPattern matches name where it is not part of a longer identifier.
func wordPattern(name string) *regexp.Regexp {
	pat := regexp.QuoteMeta(name)
	if isWordByte(name[0]) {
		pat = `\b` + pat
	}
	if isWordByte(name[len(name)-1]) {
		pat += `\b`
	}
	return regexp.MustCompile(pat)
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// bareName narrows the occurrence of a possibly qualified or templated base
// name to its last identifier.
func bareName(name string, occ document.Range) document.Range {
	trimmed := name
	if i := strings.IndexByte(trimmed, '<'); i >= 0 {
		trimmed = trimmed[:i]
	}
	start := 0
	if i := strings.LastIndex(trimmed, "::"); i >= 0 {
		start = i + 2
	}
	return document.Range{
		Start: document.Position{Line: occ.Start.Line, Col: occ.Start.Col + start},
		End:   document.Position{Line: occ.Start.Line, Col: occ.Start.Col + len(strings.TrimSpace(trimmed))},
	}
}

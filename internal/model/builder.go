package model

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/source"
)

// Builder turns navigator answers into FunctionInfo and ClassInfo values.
// A Builder is scoped to one command.
type Builder struct {
	nav       source.Navigator
	docs      *source.Documents
	extractor SignatureExtractor
}

// NewBuilder returns a builder using the heuristic signature extractor.
func NewBuilder(nav source.Navigator, docs *source.Documents) *Builder {
	return &Builder{nav: nav, docs: docs, extractor: HeuristicExtractor{}}
}

// lookup opens the document at loc and returns the outline chain down to the
// symbol whose name range contains loc.
func (b *Builder) lookup(ctx context.Context, loc document.Location) (*document.Document, []source.Symbol, error) {
	doc, err := b.docs.Open(loc.Path)
	if err != nil {
		return nil, nil, err
	}
	outline, err := b.nav.Outline(ctx, doc.Path())
	if err != nil {
		return nil, nil, fmt.Errorf("outline %s: %w", loc.Path, err)
	}
	chain := source.Chain(outline, loc.Range.Start)
	if chain == nil {
		return nil, nil, fmt.Errorf("no symbol at %s: %w", loc, source.ErrNotFound)
	}
	return doc, chain, nil
}

// Function builds the FunctionInfo for the symbol named at loc.
func (b *Builder) Function(ctx context.Context, loc document.Location) (*FunctionInfo, error) {
	doc, chain, err := b.lookup(ctx, loc)
	if err != nil {
		return nil, err
	}
	fi, err := b.function(doc, chain)
	if err != nil {
		return nil, err
	}
	return &fi, nil
}

// Definition builds the FunctionInfo for the definition named at loc and
// captures its body.
func (b *Builder) Definition(ctx context.Context, loc document.Location) (*FunctionInfo, error) {
	doc, chain, err := b.lookup(ctx, loc)
	if err != nil {
		return nil, err
	}
	fi, err := b.function(doc, chain)
	if err != nil {
		return nil, err
	}
	if err := captureBody(doc, &fi); err != nil {
		return nil, err
	}
	return &fi, nil
}

func (b *Builder) function(doc *document.Document, chain []source.Symbol) (FunctionInfo, error) {
	sym := chain[len(chain)-1]

	qualified := strings.TrimSpace(doc.Slice(sym.NameRange))
	if qualified == "" {
		qualified = sym.Name
	}
	segs := SplitPath(qualified)
	if len(segs) == 0 {
		return FunctionInfo{}, fmt.Errorf("unnamed symbol at %s: %w", sym.NameRange.Start, ErrAmbiguousParse)
	}

	container := containerNames(chain[:len(chain)-1])
	container = append(container, segs[:len(segs)-1]...)
	className := ""
	if len(segs) > 1 {
		className = segs[len(segs)-2]
	} else {
		for i := len(chain) - 2; i >= 0; i-- {
			if chain[i].Kind.IsType() {
				className = lastSegment(chain[i].Name)
				break
			}
		}
	}

	// Bound the header by the bare identifier so qualified out-of-class
	// names are kept in the captured text.
	nameSym := sym
	nameSym.NameRange.Start = document.Position{
		Line: sym.NameRange.End.Line,
		Col:  sym.NameRange.End.Col - len(segs[len(segs)-1]),
	}
	if nameSym.NameRange.Start.Col < 0 {
		nameSym.NameRange.Start = sym.NameRange.Start
	}
	h, err := b.extractor.Extract(doc, nameSym)
	if err != nil {
		return FunctionInfo{}, err
	}
	p := ParseHeader(h.Text)

	return FunctionInfo{
		Name:        segs[len(segs)-1],
		Namespace:   strings.Join(container, "::"),
		Enclosing:   strings.Join(namespaceNames(chain[:len(chain)-1]), "::"),
		ClassName:   className,
		Modifiers:   p.Modifiers,
		Pure:        p.Pure,
		Signature:   p.Signature,
		Indent:      p.Indent,
		Declaration: p.Declaration,
		Location:    document.Location{Path: doc.Path(), Range: sym.NameRange},
		Extent:      h.Range,
	}, nil
}

var openBrace = regexp.MustCompile(`\{`)

// captureBody records the text after the header through the matching brace.
func captureBody(doc *document.Document, fi *FunctionInfo) error {
	brace, ok := doc.SearchForward(fi.Extent.End, openBrace)
	if !ok {
		return fmt.Errorf("definition of %s has no body: %w", fi.Name, ErrAmbiguousParse)
	}
	if between := doc.Slice(document.Range{Start: fi.Extent.End, End: brace.Start}); strings.ContainsAny(between, ";}") {
		return fmt.Errorf("%s is a declaration, not a definition: %w", fi.Name, ErrAmbiguousParse)
	}
	end, ok := matchBrace(doc, brace.Start)
	if !ok {
		return fmt.Errorf("unbalanced body of %s: %w", fi.Name, ErrAmbiguousParse)
	}
	fi.Body = doc.Slice(document.Range{Start: fi.Extent.End, End: end})
	line := doc.Line(fi.Extent.Start.Line)
	fi.BodyIndent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	fi.Extent.End = end
	return nil
}

// matchBrace counts braces from an opening brace and returns the position
// just after its partner. Braces inside string or character literals and
// comments are not recognized.
func matchBrace(doc *document.Document, open document.Position) (document.Position, bool) {
	text := doc.Text()
	start := doc.Offset(open)
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return doc.PositionAt(i + 1), true
			}
		}
	}
	return document.Position{}, false
}

// Class builds the ClassInfo for the class named at loc, including its
// parent tree.
func (b *Builder) Class(ctx context.Context, loc document.Location) (*ClassInfo, error) {
	return b.class(ctx, loc, nil)
}

var errRevisit = errors.New("class already on inheritance path")

func (b *Builder) class(ctx context.Context, loc document.Location, path []string) (*ClassInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, chain, err := b.lookup(ctx, loc)
	if err != nil {
		return nil, err
	}
	sym := chain[len(chain)-1]
	if !sym.Kind.IsType() {
		return nil, fmt.Errorf("%s is a %s, not a class: %w", sym.Name, sym.Kind, source.ErrNotFound)
	}

	ci := &ClassInfo{
		Name:        lastSegment(sym.Name),
		Namespace:   strings.Join(containerNames(chain[:len(chain)-1]), "::"),
		Enclosing:   strings.Join(namespaceNames(chain[:len(chain)-1]), "::"),
		Declaration: document.Location{Path: doc.Path(), Range: sym.NameRange},
	}
	id := ci.FullName()
	for _, seen := range path {
		if seen == id {
			return nil, errRevisit
		}
	}
	path = append(path[:len(path):len(path)], id)

	for _, child := range sym.Children {
		if child.Kind != source.KindMethod && child.Kind != source.KindFunction {
			continue
		}
		fi, err := b.function(doc, append(chain[:len(chain):len(chain)], child))
		if err != nil {
			log.Warn().Err(err).Str("class", id).Str("method", child.Name).Msg("model: skipping method")
			continue
		}
		ci.Methods = append(ci.Methods, fi)
	}

	if brace, ok := doc.SearchForward(sym.NameRange.End, openBrace); ok &&
		(sym.Range.Empty() || sym.Range.Contains(brace.Start)) {
		ci.BodyStart = document.Location{Path: doc.Path(), Range: brace}
		ci.HasBody = true
	}

	parents, err := b.parents(ctx, doc, ci.Declaration, path)
	if err != nil {
		return nil, err
	}
	ci.Parents = parents
	return ci, nil
}

func containerNames(chain []source.Symbol) []string {
	var out []string
	for _, s := range chain {
		out = append(out, SplitPath(s.Name)...)
	}
	return out
}

// namespaceNames is containerNames cut at the first symbol that is not a
// namespace.
func namespaceNames(chain []source.Symbol) []string {
	var out []string
	for _, s := range chain {
		if s.Kind != source.KindNamespace {
			break
		}
		out = append(out, SplitPath(s.Name)...)
	}
	return out
}

func lastSegment(name string) string {
	segs := SplitPath(name)
	if len(segs) == 0 {
		return name
	}
	return segs[len(segs)-1]
}

package treesitter

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/source"
)

// Navigator answers source.Navigator queries from tree-sitter outlines.
// Files are read through the command's document set so every answer agrees
// with the text the rest of the command sees.
type Navigator struct {
	docs  *source.Documents
	index *Index

	mu     sync.Mutex
	parsed map[string]parsedFile
}

type parsedFile struct {
	syms    []source.Symbol
	entries []entry
}

var _ source.Navigator = (*Navigator)(nil)

// NewNavigator returns a navigator over docs. index may be nil, in which
// case lookups only consider the queried file and its pair.
func NewNavigator(docs *source.Documents, index *Index) *Navigator {
	return &Navigator{docs: docs, index: index, parsed: make(map[string]parsedFile)}
}

func (n *Navigator) file(ctx context.Context, path string) (parsedFile, error) {
	doc, err := n.docs.Open(path)
	if err != nil {
		return parsedFile{}, err
	}

	n.mu.Lock()
	pf, ok := n.parsed[doc.Path()]
	n.mu.Unlock()
	if ok {
		return pf, nil
	}

	syms, entries, err := parse(ctx, doc.Path(), []byte(doc.Text()))
	if err != nil {
		return parsedFile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	pf = parsedFile{syms: syms, entries: entries}

	n.mu.Lock()
	n.parsed[doc.Path()] = pf
	n.mu.Unlock()
	return pf, nil
}

// Outline implements source.Navigator.
func (n *Navigator) Outline(ctx context.Context, path string) ([]source.Symbol, error) {
	pf, err := n.file(ctx, path)
	if err != nil {
		return nil, err
	}
	return pf.syms, nil
}

// ResolveDeclaration implements source.Navigator. Classes win over
// functions, and body-less function declarations over definitions.
func (n *Navigator) ResolveDeclaration(ctx context.Context, loc document.Location) (document.Location, error) {
	q, err := n.query(ctx, loc)
	if err != nil {
		return document.Location{}, err
	}

	var fallback *document.Location
	for _, path := range n.searchOrder(ctx, loc.Path, q.name()) {
		pf, err := n.file(ctx, path)
		if err != nil {
			continue
		}
		for _, e := range pf.entries {
			if !q.matches(e) {
				continue
			}
			found := document.Location{Path: path, Range: e.sym.NameRange}
			if !e.isFunc() || !e.defined {
				return found, nil
			}
			if fallback == nil {
				fallback = &found
			}
		}
	}
	if fallback != nil {
		return *fallback, nil
	}
	return document.Location{}, fmt.Errorf("declaration of %s: %w", q, source.ErrNotFound)
}

// ResolveDefinition implements source.Navigator. Exact qualified matches
// beat definitions written under a using-directive, and among overloads one
// with the same parameter count as the queried declaration wins.
func (n *Navigator) ResolveDefinition(ctx context.Context, loc document.Location) (document.Location, error) {
	q, err := n.query(ctx, loc)
	if err != nil {
		return document.Location{}, err
	}

	var best document.Location
	bestScore := -1
	for _, path := range n.searchOrder(ctx, loc.Path, q.name()) {
		pf, err := n.file(ctx, path)
		if err != nil {
			continue
		}
		for _, e := range pf.entries {
			if !e.isFunc() || !e.defined {
				continue
			}
			score := q.score(e)
			if score > bestScore {
				best = document.Location{Path: path, Range: e.sym.NameRange}
				bestScore = score
			}
		}
		if bestScore == 3 {
			break
		}
	}
	if bestScore < 0 {
		return document.Location{}, fmt.Errorf("definition of %s: %w", q, source.ErrNotFound)
	}
	return best, nil
}

// SwitchPairedFile implements source.Navigator. The pair is looked for next
// to the file first, then anywhere in the index by stem.
func (n *Navigator) SwitchPairedFile(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !Supported(abs) {
		return "", fmt.Errorf("paired file of %s: unsupported extension: %w", path, source.ErrNotFound)
	}

	alts := headerExts
	if isHeader(abs) {
		alts = sourceExts
	}
	stem := strings.TrimSuffix(abs, filepath.Ext(abs))
	for _, ext := range alts {
		if cand := stem + ext; n.docs.Exists(cand) {
			return cand, nil
		}
	}

	if n.index != nil {
		if err := n.index.Ensure(ctx); err != nil {
			return "", err
		}
		base := filepath.Base(stem)
		for _, f := range n.index.Files() {
			if hasExt(f, alts) && strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)) == base {
				return f, nil
			}
		}
	}
	return "", fmt.Errorf("paired file of %s: %w", path, source.ErrNotFound)
}

// searchOrder lists the files a lookup visits: the queried file, its pair,
// then every indexed file naming the symbol.
func (n *Navigator) searchOrder(ctx context.Context, path, name string) []string {
	order := []string{absPath(path)}
	seen := map[string]bool{order[0]: true}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			order = append(order, p)
		}
	}

	if pair, err := n.SwitchPairedFile(ctx, path); err == nil {
		add(pair)
	}
	if n.index != nil && n.index.Ensure(ctx) == nil {
		for _, p := range n.index.FilesNaming(name) {
			add(p)
		}
	}
	return order
}

// query is the qualified name a lookup searches for.
type query struct {
	path   []string
	exact  bool // path is fully qualified
	params int  // -1 when unknown
}

func (q query) name() string { return q.path[len(q.path)-1] }

func (q query) String() string { return strings.Join(q.path, "::") }

func (q query) matches(e entry) bool {
	if q.exact {
		return slices.Equal(e.qualified, q.path)
	}
	return hasSuffix(e.qualified, q.path)
}

// score ranks a definition candidate, -1 meaning no match.
func (q query) score(e entry) int {
	score := -1
	switch {
	case q.matches(e):
		score = 2
	case q.exact && len(e.qualified) > 1 && hasSuffix(q.path, e.qualified):
		score = 0
	default:
		return -1
	}
	if q.params < 0 || e.params == q.params {
		score++
	}
	return score
}

var qualifierBefore = regexp.MustCompile(`((?:[A-Za-z_]\w*\s*::\s*)+)$`)

// query describes the symbol at loc. A position on an outline entry yields
// its fully qualified name; anything else (a base-class reference, a call)
// yields the word at loc plus whatever qualifiers precede it.
func (n *Navigator) query(ctx context.Context, loc document.Location) (query, error) {
	pf, err := n.file(ctx, loc.Path)
	if err != nil {
		return query{}, err
	}
	for _, e := range pf.entries {
		if e.sym.NameRange.Contains(loc.Range.Start) {
			return query{path: e.qualified, exact: true, params: e.params}, nil
		}
	}

	doc, err := n.docs.Open(loc.Path)
	if err != nil {
		return query{}, err
	}
	word, ok := doc.WordAt(loc.Range.Start)
	if !ok {
		return query{}, fmt.Errorf("no identifier at %s: %w", loc, source.ErrNotFound)
	}
	q := query{params: -1}
	line := doc.Line(word.Start.Line)
	if m := qualifierBefore.FindStringSubmatch(line[:word.Start.Col]); m != nil {
		q.path = splitPath(m[1])
	}
	q.path = append(q.path, doc.Slice(word))
	return q, nil
}

func hasSuffix(s, suffix []string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return slices.Equal(s[len(s)-len(suffix):], suffix)
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

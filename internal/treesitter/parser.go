// Package treesitter builds C++ outlines with tree-sitter and answers
// navigator queries from them when no language server is available.
package treesitter

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/source"
)

var (
	headerExts = []string{".h", ".hpp", ".hh", ".hxx", ".h++"}
	sourceExts = []string{".cpp", ".cc", ".cxx", ".c++", ".c"}
)

func isHeader(path string) bool { return hasExt(path, headerExts) }

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// Supported returns true if the file extension is a C++ header or source.
func Supported(path string) bool {
	return hasExt(path, headerExts) || hasExt(path, sourceExts)
}

// ParseFile reads and parses a file, returning its outline.
func ParseFile(path string) ([]source.Symbol, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSource(path, src)
}

// ParseSource parses source bytes and returns the outline tree.
func ParseSource(path string, src []byte) ([]source.Symbol, error) {
	syms, _, err := parse(context.Background(), path, src)
	return syms, err
}

// entry is a flattened outline symbol with what cross-file lookups need.
type entry struct {
	sym       source.Symbol
	qualified []string
	defined   bool // function with a body, or class with a body
	params    int  // -1 for classes
}

func (e entry) name() string { return e.qualified[len(e.qualified)-1] }

func (e entry) isFunc() bool {
	return e.sym.Kind == source.KindMethod || e.sym.Kind == source.KindFunction
}

func parse(ctx context.Context, path string, src []byte) ([]source.Symbol, []entry, error) {
	if !Supported(path) {
		return nil, nil, nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cpp.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, nil, err
	}
	defer tree.Close()

	x := &extractor{src: src}
	syms := x.items(tree.RootNode(), nil, nil, false)
	return syms, x.entries, nil
}

type extractor struct {
	src     []byte
	entries []entry
}

// items extracts the symbols declared directly in scope. outer, when set,
// is a wrapping template declaration whose range the symbol takes.
func (x *extractor) items(scope, outer *sitter.Node, container []string, inClass bool) []source.Symbol {
	var syms []source.Symbol
	count := int(scope.NamedChildCount())
	for i := 0; i < count; i++ {
		syms = append(syms, x.item(scope.NamedChild(i), outer, container, inClass)...)
	}
	return syms
}

func (x *extractor) item(n, outer *sitter.Node, container []string, inClass bool) []source.Symbol {
	if outer == nil {
		outer = n
	}
	switch n.Type() {
	case "namespace_definition":
		return x.namespace(n, container)

	case "class_specifier", "struct_specifier":
		if s, ok := x.class(n, outer, container); ok {
			return []source.Symbol{s}
		}

	case "template_declaration":
		var syms []source.Symbol
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "template_parameter_list" {
				continue
			}
			syms = append(syms, x.item(c, outer, container, inClass)...)
		}
		return syms

	case "function_definition":
		// "= default" and "= delete" parse as definitions without a body.
		defined := n.ChildByFieldName("body") != nil
		if s, ok := x.function(n, outer, container, inClass, defined); ok {
			return []source.Symbol{s}
		}

	case "declaration", "field_declaration":
		if t := n.ChildByFieldName("type"); t != nil && (t.Type() == "class_specifier" || t.Type() == "struct_specifier") {
			if s, ok := x.class(t, t, container); ok {
				return []source.Symbol{s}
			}
			return nil
		}
		if s, ok := x.function(n, outer, container, inClass, false); ok {
			return []source.Symbol{s}
		}

	case "linkage_specification":
		if body := n.ChildByFieldName("body"); body != nil {
			return x.items(body, nil, container, inClass)
		}

	case "preproc_ifdef", "preproc_if", "preproc_else", "preproc_elif":
		// Include guards and conditional blocks wrap ordinary declarations.
		return x.items(n, nil, container, inClass)
	}
	return nil
}

func (x *extractor) namespace(n *sitter.Node, container []string) []source.Symbol {
	sym := source.Symbol{
		Kind:      source.KindNamespace,
		Container: clone(container),
		Range:     nodeRange(n),
	}
	if name := n.ChildByFieldName("name"); name != nil {
		sym.Name = name.Content(x.src)
		sym.NameRange = nodeRange(name)
	} else {
		sym.Name = "(anonymous namespace)"
		sym.NameRange = nodeRange(n.Child(0))
	}

	inner := append(clone(container), splitPath(sym.Name)...)
	if body := n.ChildByFieldName("body"); body != nil {
		sym.Children = x.items(body, nil, inner, false)
	}
	return []source.Symbol{sym}
}

func (x *extractor) class(n, outer *sitter.Node, container []string) (source.Symbol, bool) {
	name := n.ChildByFieldName("name")
	body := n.ChildByFieldName("body")
	if name == nil || body == nil {
		// anonymous or forward declaration
		return source.Symbol{}, false
	}
	if name.Type() == "template_type" {
		if base := name.ChildByFieldName("name"); base != nil {
			name = base
		}
	}

	sym := source.Symbol{
		Name:      name.Content(x.src),
		Kind:      source.KindClass,
		Container: clone(container),
		Range:     nodeRange(outer),
		NameRange: nodeRange(name),
	}
	if n.Type() == "struct_specifier" {
		sym.Kind = source.KindStruct
	}

	qualified := append(clone(container), splitPath(sym.Name)...)
	x.entries = append(x.entries, entry{sym: sym, qualified: qualified, defined: true, params: -1})
	sym.Children = x.items(body, nil, qualified, true)
	return sym, true
}

func (x *extractor) function(n, outer *sitter.Node, container []string, inClass, defined bool) (source.Symbol, bool) {
	fd := functionDeclarator(n.ChildByFieldName("declarator"))
	if fd == nil {
		return source.Symbol{}, false
	}
	name := fd.ChildByFieldName("declarator")
	if name == nil {
		return source.Symbol{}, false
	}

	sym := source.Symbol{
		Name:      name.Content(x.src),
		Kind:      source.KindFunction,
		Container: clone(container),
		Range:     nodeRange(outer),
		NameRange: nodeRange(name),
	}
	if inClass || name.Type() == "qualified_identifier" {
		sym.Kind = source.KindMethod
	}

	x.entries = append(x.entries, entry{
		sym:       sym,
		qualified: append(clone(container), splitPath(sym.Name)...),
		defined:   defined,
		params:    paramCount(fd.ChildByFieldName("parameters"), x.src),
	})
	return sym, true
}

// functionDeclarator unwraps pointer, reference and parenthesized
// declarators down to the function declarator, or nil.
func functionDeclarator(d *sitter.Node) *sitter.Node {
	for d != nil {
		switch d.Type() {
		case "function_declarator":
			return d
		case "pointer_declarator", "reference_declarator", "parenthesized_declarator", "attributed_declarator":
			next := d.ChildByFieldName("declarator")
			if next == nil && d.NamedChildCount() > 0 {
				next = d.NamedChild(int(d.NamedChildCount()) - 1)
			}
			d = next
		default:
			return nil
		}
	}
	return nil
}

func paramCount(params *sitter.Node, src []byte) int {
	if params == nil {
		return 0
	}
	n := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		switch c := params.NamedChild(i); c.Type() {
		case "parameter_declaration":
			if strings.TrimSpace(c.Content(src)) == "void" {
				continue
			}
			n++
		case "optional_parameter_declaration", "variadic_parameter_declaration":
			n++
		}
	}
	return n
}

// helpers

func nodeRange(n *sitter.Node) document.Range {
	return document.Range{Start: point(n.StartPoint()), End: point(n.EndPoint())}
}

func point(p sitter.Point) document.Position {
	return document.Position{Line: int(p.Row), Col: int(p.Column)}
}

func splitPath(qualified string) []string {
	var out []string
	for _, s := range strings.Split(qualified, "::") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}

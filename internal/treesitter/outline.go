package treesitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xonecas/cppref/internal/source"
)

// MaxOutlineBytes caps a rendered outline.
const MaxOutlineBytes = 64 * 1024

// FormatOutline renders per-file outlines compactly, one scope per line.
// Output is capped at MaxOutlineBytes.
//
// Example output:
//
//	shapes.h:
//	  namespace geo
//	    class IShape: ~IShape, draw, area
//	    class Circle: draw, area
//	  fn: helper
func FormatOutline(snap map[string][]source.Symbol) string {
	if len(snap) == 0 {
		return ""
	}

	paths := make([]string, 0, len(snap))
	for p := range snap {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, path := range paths {
		text := formatScope(snap[path], 1)
		if text == "" {
			continue
		}
		entry := fmt.Sprintf("%s:\n%s", path, text)
		if b.Len()+len(entry) > MaxOutlineBytes {
			fmt.Fprintf(&b, "# ... truncated (%d files total)\n", len(paths))
			break
		}
		b.WriteString(entry)
	}
	return b.String()
}

func formatScope(syms []source.Symbol, depth int) string {
	var b strings.Builder
	indent := strings.Repeat("  ", depth)

	var funcs []string
	for _, s := range syms {
		switch {
		case s.Kind == source.KindNamespace:
			inner := formatScope(s.Children, depth+1)
			if inner == "" {
				continue
			}
			fmt.Fprintf(&b, "%snamespace %s\n%s", indent, s.Name, inner)
		case s.Kind.IsType():
			fmt.Fprintf(&b, "%s%s %s", indent, s.Kind, s.Name)
			if methods := memberNames(s.Children); len(methods) > 0 {
				fmt.Fprintf(&b, ": %s", strings.Join(methods, ", "))
			}
			b.WriteByte('\n')
			for _, c := range s.Children {
				if c.Kind.IsType() {
					b.WriteString(formatScope([]source.Symbol{c}, depth+1))
				}
			}
		case s.Kind == source.KindFunction || s.Kind == source.KindMethod:
			funcs = append(funcs, s.Name)
		}
	}
	if len(funcs) > 0 {
		fmt.Fprintf(&b, "%sfn: %s\n", indent, strings.Join(funcs, ", "))
	}
	return b.String()
}

func memberNames(children []source.Symbol) []string {
	var out []string
	for _, c := range children {
		if c.Kind == source.KindMethod || c.Kind == source.KindFunction {
			out = append(out, c.Name)
		}
	}
	return out
}

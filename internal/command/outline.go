package command

import (
	"context"
	"path/filepath"

	"github.com/xonecas/cppref/internal/source"
	"github.com/xonecas/cppref/internal/treesitter"
)

// Outline renders the outline of path as the navigator reports it. root,
// when set, shortens the displayed path.
func Outline(ctx context.Context, nav source.Navigator, path, root string) (string, error) {
	syms, err := nav.Outline(ctx, path)
	if err != nil {
		return "", wrap("outline", err)
	}
	name := path
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil {
			name = rel
		}
	}
	out := treesitter.FormatOutline(map[string][]source.Symbol{name: syms})
	if out == "" {
		out = name + ": no symbols\n"
	}
	return out, nil
}

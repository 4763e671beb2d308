package edit

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Preview renders changes as a unified diff with paths relative to root.
func Preview(root string, changes []Change) string {
	var b strings.Builder
	for _, c := range changes {
		rel := c.Path
		if r, err := filepath.Rel(root, c.Path); err == nil && !strings.HasPrefix(r, "..") {
			rel = filepath.ToSlash(r)
		}
		from := "a/" + rel
		if c.Created {
			from = "/dev/null"
		}
		edits := myers.ComputeEdits(span.URIFromPath(c.Path), c.Before, c.After)
		fmt.Fprint(&b, gotextdiff.ToUnified(from, "b/"+rel, c.Before, edits))
	}
	return b.String()
}

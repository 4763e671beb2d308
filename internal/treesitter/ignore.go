package treesitter

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ignoreRules matches workspace-relative paths against .gitignore lines and
// extra exclude globs. The last matching rule wins.
type ignoreRules struct {
	patterns []ignorePattern
}

type ignorePattern struct {
	glob    string
	negate  bool
	dirOnly bool
}

// loadIgnore reads root/.gitignore, if any, and appends the extra globs.
func loadIgnore(root string, extra []string) (*ignoreRules, error) {
	rules := &ignoreRules{}

	f, err := os.Open(filepath.Join(root, ".gitignore"))
	switch {
	case err == nil:
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			rules.add(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	for _, g := range extra {
		rules.add(g)
	}
	return rules, nil
}

func (r *ignoreRules) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	var p ignorePattern
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	// A slash anywhere but the end anchors the pattern to the root.
	if strings.HasPrefix(line, "/") {
		line = line[1:]
	} else if !strings.Contains(line, "/") && !strings.HasPrefix(line, "**") {
		line = "**/" + line
	}
	if line == "" || !doublestar.ValidatePattern(line) {
		return
	}
	p.glob = line
	r.patterns = append(r.patterns, p)
}

// Match reports whether rel, a slash- or OS-separated path relative to the
// root, is ignored.
func (r *ignoreRules) Match(rel string, isDir bool) bool {
	if r == nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	ignored := false
	for _, p := range r.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if ok, _ := doublestar.Match(p.glob, rel); ok {
			ignored = !p.negate
		}
	}
	return ignored
}

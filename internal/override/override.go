// Package override flattens a class inheritance tree into the list of
// virtual methods the class still has to declare as overrides.
package override

import (
	"regexp"
	"strings"

	"github.com/xonecas/cppref/internal/model"
)

// VirtualMethods returns the override set of root.
func VirtualMethods(root *model.ClassInfo) []model.FunctionInfo {
	return Compute(root, root.FullName())
}

// Compute walks ci and its ancestors depth-first, parents in base-list
// order, and collects every virtual method that is not already overridden
// anywhere in the tree. ci is treated as the root when its full name equals
// rootNamespace; only its virtual methods not marked override are kept.
// Ancestor methods have rootNamespace substituted for their own qualified
// name and are re-homed on the root class. Destructors are never listed.
func Compute(ci *model.ClassInfo, rootNamespace string) []model.FunctionInfo {
	c := &collector{
		root:       rootNamespace,
		overridden: make(map[string]bool),
		seen:       make(map[string]bool),
	}
	if ci.FullName() == rootNamespace {
		c.enclosing = ci.Enclosing
	}
	c.markOverrides(ci)
	c.gather(ci)
	return c.out
}

type collector struct {
	root       string
	enclosing  string
	overridden map[string]bool
	seen       map[string]bool
	out        []model.FunctionInfo
}

func (c *collector) markOverrides(ci *model.ClassInfo) {
	for _, m := range ci.Methods {
		if m.Modifiers.Has(model.Override) {
			c.overridden[key(m.Name, c.rehome(ci, m).Signature)] = true
		}
	}
	for _, p := range ci.Parents {
		c.markOverrides(p)
	}
}

func (c *collector) gather(ci *model.ClassInfo) {
	isRoot := ci.FullName() == c.root
	for _, m := range ci.Methods {
		if !m.Modifiers.Has(model.Virtual) || strings.HasPrefix(m.Name, "~") {
			continue
		}
		if isRoot && m.Modifiers.Has(model.Override) {
			continue
		}
		m = c.rehome(ci, m)
		k := key(m.Name, m.Signature)
		if c.overridden[k] || c.seen[k] {
			continue
		}
		c.seen[k] = true
		c.out = append(c.out, m)
	}
	for _, p := range ci.Parents {
		c.gather(p)
	}
}

// rehome returns a copy of m as it reads when declared in the root class.
func (c *collector) rehome(ci *model.ClassInfo, m model.FunctionInfo) model.FunctionInfo {
	if ci.FullName() == c.root {
		return m
	}
	from := ci.FullName() + "::" + m.Name
	m.Signature = strings.Replace(m.Signature, from, c.root+"::"+m.Name, 1)

	m.Namespace = c.root
	m.Enclosing = c.enclosing
	segs := model.SplitPath(c.root)
	if len(segs) > 0 {
		m.ClassName = segs[len(segs)-1]
	}
	m.Modifiers = model.Override
	m.Pure = false
	return m
}

func key(name, signature string) string {
	return name + "\x00" + NormalizeSignature(signature)
}

var (
	spaceRun    = regexp.MustCompile(`\s+`)
	spaceBefore = regexp.MustCompile(` ([^A-Za-z0-9_])`)
	spaceAfter  = regexp.MustCompile(`([^A-Za-z0-9_ ]) `)
)

// NormalizeSignature collapses whitespace runs to one space and drops the
// spaces that touch punctuation, so "int *f( int a )" and "int* f(int a)"
// compare equal.
func NormalizeSignature(sig string) string {
	s := spaceRun.ReplaceAllString(strings.TrimSpace(sig), " ")
	s = spaceBefore.ReplaceAllString(s, "$1")
	return spaceAfter.ReplaceAllString(s, "$1")
}

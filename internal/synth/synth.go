// Package synth produces the text of generated declarations and definitions.
// Nothing here touches a file; callers turn the text into edits.
package synth

import (
	"regexp"
	"strings"

	"github.com/xonecas/cppref/internal/model"
	"github.com/xonecas/cppref/internal/namespace"
)

// DefaultIndent is the indentation of generated override declarations.
const DefaultIndent = "    "

// OverrideBlock renders one "<signature> override;" line per method. Each
// line starts with a newline so the block can be inserted right after the
// class body's opening brace.
func OverrideBlock(methods []model.FunctionInfo, indent string) string {
	var b strings.Builder
	for _, m := range methods {
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString(m.Signature)
		b.WriteString(" override;")
	}
	return b.String()
}

// QualifiedName returns the name a definition of fi is written under:
// the full namespace path when withNamespace is set, otherwise the chain of
// enclosing classes only.
func QualifiedName(fi model.FunctionInfo, withNamespace bool) string {
	if withNamespace {
		return fi.FullName()
	}
	if cls := fi.ClassPath(); cls != "" {
		return cls + "::" + fi.Name
	}
	return fi.Name
}

// StubDefinition renders an empty definition of fi.
func StubDefinition(fi model.FunctionInfo, withNamespace bool) string {
	return definitionHeader(fi, withNamespace) + " {\n}\n"
}

// MovedDefinition renders fi, which must carry a body, as an out-of-class
// definition. The body loses the indentation of the line the definition
// started on.
func MovedDefinition(fi model.FunctionInfo, withNamespace bool) string {
	body := Dedent(fi.Body, fi.BodyIndent)
	sep := " "
	if strings.HasPrefix(body, "\n") {
		sep = ""
	}
	return definitionHeader(fi, withNamespace) + sep + body + "\n"
}

// DeclarationStub is what a moved definition leaves in the class.
func DeclarationStub(fi model.FunctionInfo) string {
	return fi.Declaration + ";"
}

func definitionHeader(fi model.FunctionInfo, withNamespace bool) string {
	return Qualify(StripDefaults(fi.Signature), fi.Name, QualifiedName(fi, withNamespace))
}

// DefinitionHeader turns a declaration header typed by the user into a
// definition header: modifiers, pure markers and default arguments are
// dropped, indentation removed and the function name prefixed with
// qualifier (e.g. "Circle::").
func DefinitionHeader(sig, qualifier string) string {
	sig = model.ParseHeader(strings.TrimSpace(sig)).Signature
	sig = StripDefaults(sig)
	name := FunctionName(sig)
	if name == "" {
		return sig
	}
	return Qualify(sig, name, qualifier+name)
}

var functionName = regexp.MustCompile(`(~?[A-Za-z_]\w*)\s*\(`)

// FunctionName returns the identifier in front of the first parameter list.
func FunctionName(sig string) string {
	m := functionName.FindStringSubmatch(sig)
	if m == nil {
		return ""
	}
	return m[1]
}

// Qualify replaces the first occurrence of name followed by its parameter
// list, including any qualifier already written in front of it, with
// qualified.
func Qualify(sig, name, qualified string) string {
	re := regexp.MustCompile(`(^|[^\w~:])((?:[A-Za-z_]\w*\s*::\s*)*` + regexp.QuoteMeta(name) + `)\s*\(`)
	m := re.FindStringSubmatchIndex(sig)
	if m == nil {
		return sig
	}
	return sig[:m[4]] + qualified + sig[m[5]:]
}

// StripDefaults removes "= value" default arguments from the first
// parameter list in sig.
func StripDefaults(sig string) string {
	open := strings.IndexByte(sig, '(')
	if open < 0 {
		return sig
	}

	var b strings.Builder
	b.WriteString(sig[:open+1])
	depth := 1
	skipping := false
	i := open + 1
	for ; i < len(sig) && depth > 0; i++ {
		c := sig[i]
		switch c {
		case '(', '<', '[', '{':
			depth++
		case ')', '>', ']', '}':
			depth--
		}
		if depth == 0 {
			break
		}
		if depth == 1 {
			switch {
			case c == ',':
				skipping = false
			case c == '=' && isAssign(sig, i):
				skipping = true
				trimTrailingSpace(&b)
				continue
			}
		}
		if !skipping {
			b.WriteByte(c)
		}
	}
	b.WriteString(sig[i:])
	return b.String()
}

// isAssign reports whether the '=' at i is a plain assignment rather than
// part of ==, <=, >= or !=.
func isAssign(s string, i int) bool {
	if i+1 < len(s) && s[i+1] == '=' {
		return false
	}
	if i > 0 && strings.IndexByte("=<>!", s[i-1]) >= 0 {
		return false
	}
	return true
}

func trimTrailingSpace(b *strings.Builder) {
	s := strings.TrimRight(b.String(), " \t\n")
	b.Reset()
	b.WriteString(s)
}

// Dedent removes indent from the start of every line after the first.
func Dedent(text, indent string) string {
	if indent == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.TrimPrefix(lines[i], indent)
	}
	return strings.Join(lines, "\n")
}

// Place joins generated definitions for insertion at p. Inside an existing
// block the definitions are separated from preceding code by a blank line;
// otherwise they are wrapped in the block that creates the namespace.
func Place(p namespace.Point, defs []string) string {
	body := strings.Join(defs, "\n")
	if p.Inside() {
		return "\n" + body
	}
	return p.Wrap(body)
}

package model_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/model"
	"github.com/xonecas/cppref/internal/source"
	"github.com/xonecas/cppref/internal/treesitter"
)

const shapesHeader = `#pragma once

namespace geo {

class IShape {
public:
    virtual ~IShape() = default;
    virtual void draw() const = 0;
    virtual double area() const = 0;
};

class Circle : public IShape {
public:
    void draw() const override;
    static int count();
};

} // namespace geo
`

const shapesSource = `#include "shapes.h"

namespace geo {

void Circle::draw() const {
    paint(r);
}

}
`

type workspace struct {
	dir     string
	builder *model.Builder
}

func newWorkspace(t *testing.T, files map[string]string) workspace {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	docs := source.NewDocuments()
	nav := treesitter.NewNavigator(docs, treesitter.NewIndex(dir, nil))
	return workspace{dir: dir, builder: model.NewBuilder(nav, docs)}
}

// loc points at the first occurrence of needle on the line containing
// lineHint, in file name.
func (w workspace) loc(t *testing.T, name, lineHint, needle string) document.Location {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(w.dir, name))
	if err != nil {
		t.Fatal(err)
	}
	for i, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(line, lineHint) {
			continue
		}
		col := strings.Index(line, needle)
		if col < 0 {
			break
		}
		p := document.Position{Line: i, Col: col}
		return document.Location{Path: filepath.Join(w.dir, name), Range: document.Range{Start: p, End: p}}
	}
	t.Fatalf("%q on line %q not found in %s", needle, lineHint, name)
	return document.Location{}
}

func TestBuilder_Function(t *testing.T) {
	w := newWorkspace(t, map[string]string{"shapes.h": shapesHeader})

	fi, err := w.builder.Function(context.Background(), w.loc(t, "shapes.h", "void draw() const override", "draw"))
	if err != nil {
		t.Fatalf("Function: %v", err)
	}
	if fi.Name != "draw" || fi.Namespace != "geo::Circle" || fi.ClassName != "Circle" {
		t.Errorf("got name=%q namespace=%q class=%q", fi.Name, fi.Namespace, fi.ClassName)
	}
	if fi.Modifiers != model.Override || fi.Pure {
		t.Errorf("modifiers = %v pure=%v, want override only", fi.Modifiers, fi.Pure)
	}
	if fi.Signature != "void draw() const" {
		t.Errorf("Signature = %q", fi.Signature)
	}
	if fi.Declaration != "    void draw() const override" {
		t.Errorf("Declaration = %q", fi.Declaration)
	}
	if fi.Indent != "    " {
		t.Errorf("Indent = %q", fi.Indent)
	}
	if fi.FullName() != "geo::Circle::draw" {
		t.Errorf("FullName = %q", fi.FullName())
	}
}

func TestBuilder_FunctionStatic(t *testing.T) {
	w := newWorkspace(t, map[string]string{"shapes.h": shapesHeader})

	fi, err := w.builder.Function(context.Background(), w.loc(t, "shapes.h", "static int count", "count"))
	if err != nil {
		t.Fatalf("Function: %v", err)
	}
	if !fi.Modifiers.Has(model.Static) || fi.Signature != "int count()" {
		t.Errorf("got modifiers=%v signature=%q", fi.Modifiers, fi.Signature)
	}
}

func TestBuilder_Definition(t *testing.T) {
	w := newWorkspace(t, map[string]string{
		"shapes.h":   shapesHeader,
		"shapes.cpp": shapesSource,
	})

	fi, err := w.builder.Definition(context.Background(), w.loc(t, "shapes.cpp", "Circle::draw", "Circle::draw"))
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	if fi.Name != "draw" || fi.Namespace != "geo::Circle" || fi.ClassName != "Circle" {
		t.Errorf("got name=%q namespace=%q class=%q", fi.Name, fi.Namespace, fi.ClassName)
	}
	if fi.Signature != "void Circle::draw() const" {
		t.Errorf("Signature = %q", fi.Signature)
	}
	if want := "{\n    paint(r);\n}"; fi.Body != want {
		t.Errorf("Body = %q, want %q", fi.Body, want)
	}
	if fi.Extent.Start.Line != 4 || fi.Extent.End.Line != 6 {
		t.Errorf("Extent = %v-%v, want lines 5-7", fi.Extent.Start, fi.Extent.End)
	}
}

func TestBuilder_DefinitionRejectsDeclaration(t *testing.T) {
	w := newWorkspace(t, map[string]string{"shapes.h": shapesHeader})

	_, err := w.builder.Definition(context.Background(), w.loc(t, "shapes.h", "void draw() const override", "draw"))
	if err == nil {
		t.Fatal("expected an error reading a body-less declaration as a definition")
	}
}

func TestBuilder_Class(t *testing.T) {
	w := newWorkspace(t, map[string]string{"shapes.h": shapesHeader})

	ci, err := w.builder.Class(context.Background(), w.loc(t, "shapes.h", "class Circle", "Circle"))
	if err != nil {
		t.Fatalf("Class: %v", err)
	}
	if ci.FullName() != "geo::Circle" || !ci.HasBody {
		t.Errorf("got %q hasBody=%v", ci.FullName(), ci.HasBody)
	}
	if len(ci.Methods) != 2 || ci.Methods[0].Name != "draw" || ci.Methods[1].Name != "count" {
		t.Errorf("methods = %+v", ci.Methods)
	}
	if len(ci.Parents) != 1 {
		t.Fatalf("got %d parents, want 1", len(ci.Parents))
	}

	base := ci.Parents[0]
	if base.FullName() != "geo::IShape" {
		t.Errorf("parent = %q", base.FullName())
	}
	var pure int
	for _, m := range base.Methods {
		if m.Modifiers.Has(model.Virtual) && m.Pure {
			pure++
		}
	}
	if pure != 2 {
		t.Errorf("IShape has %d pure virtual methods, want 2", pure)
	}
}

func TestBuilder_ClassDiamondAndCycle(t *testing.T) {
	const text = `struct Base { virtual void f(); };
struct Left : Base {};
struct Right : Base {};
struct Diamond : Left, Right {};

class A : public B {};
class B : public A {};

class Vec : public std::vector<int> {};
`
	w := newWorkspace(t, map[string]string{"graph.h": text})
	ctx := context.Background()

	d, err := w.builder.Class(ctx, w.loc(t, "graph.h", "struct Diamond", "Diamond"))
	if err != nil {
		t.Fatalf("Class(Diamond): %v", err)
	}
	if len(d.Parents) != 2 {
		t.Fatalf("Diamond has %d parents, want 2", len(d.Parents))
	}
	for _, p := range d.Parents {
		if len(p.Parents) != 1 || p.Parents[0].Name != "Base" {
			t.Errorf("%s should reach its own copy of Base", p.Name)
		}
	}

	a, err := w.builder.Class(ctx, w.loc(t, "graph.h", "class A", "A"))
	if err != nil {
		t.Fatalf("Class(A): %v", err)
	}
	if len(a.Parents) != 1 || a.Parents[0].Name != "B" || len(a.Parents[0].Parents) != 0 {
		t.Errorf("cycle A -> B -> A should stop at B, got %+v", a.Parents)
	}

	v, err := w.builder.Class(ctx, w.loc(t, "graph.h", "class Vec", "Vec"))
	if err != nil {
		t.Fatalf("Class(Vec): %v", err)
	}
	if len(v.Parents) != 0 {
		t.Errorf("unresolvable base should be skipped, got %d parents", len(v.Parents))
	}
}

func TestBuilder_NestedClassScopes(t *testing.T) {
	const text = `namespace geo {
class Base {
public:
    virtual void run() = 0;
};
class Outer {
public:
    class Inner : public Base {
    public:
        void stop();
    };
};
}
`
	w := newWorkspace(t, map[string]string{"n.h": text})
	ctx := context.Background()

	ci, err := w.builder.Class(ctx, w.loc(t, "n.h", "class Inner", "Inner"))
	if err != nil {
		t.Fatalf("Class: %v", err)
	}
	if ci.FullName() != "geo::Outer::Inner" {
		t.Errorf("FullName = %q", ci.FullName())
	}
	if got := ci.NamespacePath(); len(got) != 1 || got[0] != "geo" {
		t.Errorf("NamespacePath = %q, want [geo]", got)
	}
	if len(ci.Parents) != 1 || ci.Parents[0].FullName() != "geo::Base" {
		t.Fatalf("parents = %+v", ci.Parents)
	}

	fi, err := w.builder.Function(ctx, w.loc(t, "n.h", "void stop", "stop"))
	if err != nil {
		t.Fatalf("Function: %v", err)
	}
	if fi.ClassPath() != "Outer::Inner" || fi.Enclosing != "geo" {
		t.Errorf("ClassPath = %q, Enclosing = %q", fi.ClassPath(), fi.Enclosing)
	}
}

func TestBuilder_BaseNameInsideKeyword(t *testing.T) {
	const text = `struct ate { virtual void f() = 0; };
class X : private ate {};
`
	w := newWorkspace(t, map[string]string{"ate.h": text})

	x, err := w.builder.Class(context.Background(), w.loc(t, "ate.h", "class X", "X"))
	if err != nil {
		t.Fatalf("Class: %v", err)
	}
	if len(x.Parents) != 1 || x.Parents[0].Name != "ate" {
		t.Fatalf("parents = %+v, want [ate]", x.Parents)
	}
}

package treesitter

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/xonecas/cppref/internal/source"
)

const shapesHeader = `#ifndef SHAPES_H
#define SHAPES_H

namespace geo {
namespace detail { struct Tag {}; }

class IShape {
public:
    virtual ~IShape() = default;
    virtual void draw() const = 0;
    virtual double area() const = 0;
};

class Circle : public IShape {
public:
    void draw() const override;
    double area() const override { return 3.14 * r * r; }
private:
    double r;
};

template <typename T>
class Box {
    T get() const;
};
} // namespace geo

#endif
`

const shapesSource = `#include "shapes.h"

namespace geo {
void Circle::draw() const {
}
}

int helper(int a, int b) { return a + b; }
`

func TestParseSource_CppOutline(t *testing.T) {
	syms, err := ParseSource("shapes.h", []byte(shapesHeader))
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "geo" || syms[0].Kind != source.KindNamespace {
		t.Fatalf("top level = %+v, want the geo namespace only", names(syms))
	}

	geo := syms[0].Children
	if got, want := names(geo), []string{"detail", "IShape", "Circle", "Box"}; !slices.Equal(got, want) {
		t.Fatalf("geo children = %v, want %v", got, want)
	}

	ishape := geo[1]
	if ishape.Kind != source.KindClass {
		t.Errorf("IShape kind = %v, want class", ishape.Kind)
	}
	if got, want := names(ishape.Children), []string{"~IShape", "draw", "area"}; !slices.Equal(got, want) {
		t.Errorf("IShape methods = %v, want %v", got, want)
	}
	for _, m := range ishape.Children {
		if m.Kind != source.KindMethod {
			t.Errorf("%s kind = %v, want method", m.Name, m.Kind)
		}
		if !slices.Equal(m.Container, []string{"geo", "IShape"}) {
			t.Errorf("%s container = %v", m.Name, m.Container)
		}
	}

	circle := geo[2]
	if circle.NameRange.Start.Line != 13 {
		t.Errorf("Circle name line = %d, want 13", circle.NameRange.Start.Line)
	}
	if got, want := names(circle.Children), []string{"draw", "area"}; !slices.Equal(got, want) {
		t.Errorf("Circle methods = %v, want %v", got, want)
	}

	box := geo[3]
	if box.Range.Start.Line != 21 {
		t.Errorf("Box range should start at its template line, got line %d", box.Range.Start.Line)
	}
}

func TestParse_Entries(t *testing.T) {
	_, entries, err := parse(context.Background(), "shapes.cpp", []byte(shapesSource))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	draw := entries[0]
	if !slices.Equal(draw.qualified, []string{"geo", "Circle", "draw"}) {
		t.Errorf("draw qualified = %v", draw.qualified)
	}
	if draw.sym.Kind != source.KindMethod || !draw.defined || draw.params != 0 {
		t.Errorf("draw = %+v, want a defined method with no params", draw)
	}

	helper := entries[1]
	if helper.sym.Kind != source.KindFunction || helper.params != 2 {
		t.Errorf("helper = %+v, want a function with two params", helper)
	}
}

func TestParse_DeclarationsAreNotDefined(t *testing.T) {
	_, entries, err := parse(context.Background(), "shapes.h", []byte(shapesHeader))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	defined := map[string]bool{}
	for _, e := range entries {
		if e.isFunc() {
			defined[strings.Join(e.qualified, "::")] = e.defined
		}
	}
	cases := map[string]bool{
		"geo::IShape::draw":    false,
		"geo::IShape::~IShape": false,
		"geo::Circle::draw":    false,
		"geo::Circle::area":    true,
		"geo::Box::get":        false,
	}
	for name, want := range cases {
		got, ok := defined[name]
		if !ok {
			t.Errorf("missing entry %s", name)
			continue
		}
		if got != want {
			t.Errorf("%s defined = %v, want %v", name, got, want)
		}
	}
}

func TestParseSource_Unsupported(t *testing.T) {
	syms, err := ParseSource("notes.txt", []byte("class X {};"))
	if err != nil || syms != nil {
		t.Fatalf("ParseSource(.txt) = %v, %v; want nil, nil", syms, err)
	}
}

func names(syms []source.Symbol) []string {
	var out []string
	for _, s := range syms {
		out = append(out, s.Name)
	}
	return out
}

func TestFormatOutline(t *testing.T) {
	header, _ := ParseSource("shapes.h", []byte(shapesHeader))
	impl, _ := ParseSource("shapes.cpp", []byte(shapesSource))

	got := FormatOutline(map[string][]source.Symbol{
		"shapes.h":   header,
		"shapes.cpp": impl,
	})
	want := `shapes.cpp:
  namespace geo
    fn: Circle::draw
  fn: helper
shapes.h:
  namespace geo
    namespace detail
      struct Tag
    class IShape: ~IShape, draw, area
    class Circle: draw, area
    class Box: get
`
	if got != want {
		t.Errorf("FormatOutline mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestParseSource_NestedNamespaces(t *testing.T) {
	src := "namespace A { namespace B { class C { virtual void f() = 0; }; } }"
	syms, err := ParseSource("c.h", []byte(src))
	if err != nil {
		t.Fatalf("ParseSource: %v", err)
	}

	want := []struct {
		name string
		kind source.Kind
	}{
		{"A", source.KindNamespace},
		{"B", source.KindNamespace},
		{"C", source.KindClass},
		{"f", source.KindMethod},
	}
	level := syms
	var f source.Symbol
	for i, w := range want {
		if len(level) != 1 {
			t.Fatalf("level %d has %d symbols, want 1", i, len(level))
		}
		if level[0].Name != w.name || level[0].Kind != w.kind {
			t.Fatalf("level %d = %s %q, want %s %q", i, level[0].Kind, level[0].Name, w.kind, w.name)
		}
		f = level[0]
		level = level[0].Children
	}

	col := strings.Index(src, "f()")
	if f.NameRange.Start.Col != col || f.NameRange.End.Col != col+1 {
		t.Errorf("f NameRange = %v, want columns %d-%d", f.NameRange, col, col+1)
	}
	if got := strings.Join(f.Container, "::"); got != "A::B::C" {
		t.Errorf("f container = %q, want A::B::C", got)
	}
}

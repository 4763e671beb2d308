package treesitter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/source"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, text := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// at returns the location of the nth occurrence (0-based) of needle.
func at(t *testing.T, path, text, needle string, nth int) document.Location {
	t.Helper()
	for i, line := range strings.Split(text, "\n") {
		col := 0
		for {
			j := strings.Index(line[col:], needle)
			if j < 0 {
				break
			}
			if nth == 0 {
				p := document.Position{Line: i, Col: col + j}
				return document.Location{Path: path, Range: document.Range{Start: p, End: p}}
			}
			nth--
			col += j + len(needle)
		}
	}
	t.Fatalf("%q not found", needle)
	return document.Location{}
}

func newWorkspace(t *testing.T) (string, *Navigator) {
	t.Helper()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"shapes.h":   shapesHeader,
		"shapes.cpp": shapesSource,
	})
	return dir, NewNavigator(source.NewDocuments(), NewIndex(dir, nil))
}

func TestNavigator_Outline(t *testing.T) {
	dir, nav := newWorkspace(t)
	syms, err := nav.Outline(context.Background(), filepath.Join(dir, "shapes.h"))
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if len(syms) != 1 || syms[0].Name != "geo" {
		t.Fatalf("outline = %v", names(syms))
	}
}

func TestNavigator_ResolveDeclaration_BaseClass(t *testing.T) {
	dir, nav := newWorkspace(t)
	header := filepath.Join(dir, "shapes.h")

	ref := at(t, header, shapesHeader, "IShape", 2) // "public IShape"
	got, err := nav.ResolveDeclaration(context.Background(), ref)
	if err != nil {
		t.Fatalf("ResolveDeclaration: %v", err)
	}
	want := at(t, header, shapesHeader, "IShape", 0).Range.Start
	if got.Path != header || got.Range.Start != want {
		t.Errorf("got %v, want %s:%s", got, header, want)
	}
}

func TestNavigator_ResolveDefinition_AcrossPair(t *testing.T) {
	dir, nav := newWorkspace(t)
	header := filepath.Join(dir, "shapes.h")
	impl := filepath.Join(dir, "shapes.cpp")

	decl := at(t, header, shapesHeader, "draw", 1) // Circle::draw declaration
	got, err := nav.ResolveDefinition(context.Background(), decl)
	if err != nil {
		t.Fatalf("ResolveDefinition: %v", err)
	}
	if got.Path != impl || got.Range.Start.Line != 3 {
		t.Errorf("got %v, want %s line 4", got, impl)
	}
}

func TestNavigator_ResolveDefinition_Inline(t *testing.T) {
	dir, nav := newWorkspace(t)
	header := filepath.Join(dir, "shapes.h")

	decl := at(t, header, shapesHeader, "area", 1) // Circle::area, defined in class
	got, err := nav.ResolveDefinition(context.Background(), decl)
	if err != nil {
		t.Fatalf("ResolveDefinition: %v", err)
	}
	if got.Path != header || got.Range.Start != decl.Range.Start {
		t.Errorf("got %v, want the in-class definition at %v", got, decl)
	}
}

func TestNavigator_ResolveDefinition_PureHasNone(t *testing.T) {
	dir, nav := newWorkspace(t)
	header := filepath.Join(dir, "shapes.h")

	decl := at(t, header, shapesHeader, "draw", 0) // IShape::draw = 0
	_, err := nav.ResolveDefinition(context.Background(), decl)
	if !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNavigator_SwitchPairedFile(t *testing.T) {
	dir, nav := newWorkspace(t)
	ctx := context.Background()

	got, err := nav.SwitchPairedFile(ctx, filepath.Join(dir, "shapes.h"))
	if err != nil || got != filepath.Join(dir, "shapes.cpp") {
		t.Errorf("header -> %q, %v", got, err)
	}
	got, err = nav.SwitchPairedFile(ctx, filepath.Join(dir, "shapes.cpp"))
	if err != nil || got != filepath.Join(dir, "shapes.h") {
		t.Errorf("source -> %q, %v", got, err)
	}
}

func TestNavigator_SwitchPairedFile_SplitLayout(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"include/widget.h": "class Widget {\n  void paint();\n};\n",
		"src/widget.cpp":   "void Widget::paint() {}\n",
		"src/orphan.cpp":   "int x;\n",
	})
	nav := NewNavigator(source.NewDocuments(), NewIndex(dir, nil))
	ctx := context.Background()

	got, err := nav.SwitchPairedFile(ctx, filepath.Join(dir, "include", "widget.h"))
	if err != nil || got != filepath.Join(dir, "src", "widget.cpp") {
		t.Errorf("widget.h -> %q, %v", got, err)
	}
	if _, err := nav.SwitchPairedFile(ctx, filepath.Join(dir, "src", "orphan.cpp")); !errors.Is(err, source.ErrNotFound) {
		t.Errorf("orphan.cpp err = %v, want ErrNotFound", err)
	}
}

func TestIndex_RespectsIgnoreRules(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		".gitignore":       "build/\n*.gen.h\n!keep.gen.h\n",
		"a.h":              "class A {};\n",
		"b.gen.h":          "class B {};\n",
		"keep.gen.h":       "class Keep {};\n",
		"build/c.h":        "class C {};\n",
		"third_party/d.h":  "class D {};\n",
		"notes/readme.txt": "class E {};\n",
	})
	idx := NewIndex(dir, []string{"third_party/"})
	if err := idx.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	var got []string
	for _, f := range idx.Files() {
		rel, _ := filepath.Rel(dir, f)
		got = append(got, filepath.ToSlash(rel))
	}
	if want := []string{"a.h", "keep.gen.h"}; !slices.Equal(got, want) {
		t.Errorf("indexed %v, want %v", got, want)
	}
	if got := idx.FilesNaming("A"); len(got) != 1 {
		t.Errorf("FilesNaming(A) = %v", got)
	}
}

package synth

import (
	"testing"

	"github.com/charmbracelet/x/exp/golden"

	"github.com/xonecas/cppref/internal/document"
	"github.com/xonecas/cppref/internal/model"
	"github.com/xonecas/cppref/internal/namespace"
)

func circleDraw() model.FunctionInfo {
	return model.FunctionInfo{
		Name:      "draw",
		Namespace: "geo::Circle",
		Enclosing: "geo",
		ClassName: "Circle",
		Signature: "void draw(int scale = 1, const char* label = \"x\") const",
	}
}

func TestOverrideBlock(t *testing.T) {
	methods := []model.FunctionInfo{
		{Name: "draw", Signature: "void draw()"},
		{Name: "area", Signature: "float area() const"},
	}
	got := OverrideBlock(methods, DefaultIndent)
	want := "\n    void draw() override;\n    float area() const override;"
	if got != want {
		t.Errorf("OverrideBlock = %q, want %q", got, want)
	}
	if OverrideBlock(nil, DefaultIndent) != "" {
		t.Error("empty method set should render nothing")
	}
}

func TestStubDefinition(t *testing.T) {
	tests := []struct {
		name          string
		withNamespace bool
	}{
		{"qualified", true},
		{"class_only", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			golden.RequireEqual(t, []byte(StubDefinition(circleDraw(), tt.withNamespace)))
		})
	}
}

func TestStubDefinition_Idempotent(t *testing.T) {
	if StubDefinition(circleDraw(), true) != StubDefinition(circleDraw(), true) {
		t.Fatal("stub text differs between runs")
	}
}

func TestMovedDefinition(t *testing.T) {
	fi := model.FunctionInfo{
		Name:        "area",
		Namespace:   "geo::Circle",
		Enclosing:   "geo",
		ClassName:   "Circle",
		Signature:   "double area(int precision = 2) const",
		Declaration: "    virtual double area(int precision = 2) const override",
		Indent:      "    ",
		BodyIndent:  "    ",
		Body:        "{\n        if (precision > 0) {\n            return 3.14 * r * r;\n        }\n        return 3;\n    }",
	}
	golden.RequireEqual(t, []byte(MovedDefinition(fi, false)))

	if got, want := DeclarationStub(fi), "    virtual double area(int precision = 2) const override;"; got != want {
		t.Errorf("DeclarationStub = %q, want %q", got, want)
	}
}

func TestMovedDefinition_BraceOnNextLine(t *testing.T) {
	fi := model.FunctionInfo{
		Name:       "f",
		ClassName:  "S",
		Namespace:  "S",
		Signature:  "int f()",
		Indent:     "  ",
		BodyIndent: "  ",
		Body:       "\n  {\n    return 1;\n  }",
	}
	want := "int S::f()\n{\n  return 1;\n}\n"
	if got := MovedDefinition(fi, true); got != want {
		t.Errorf("MovedDefinition = %q, want %q", got, want)
	}
}

func TestQualifiedName_NestedClass(t *testing.T) {
	fi := model.FunctionInfo{
		Name:      "run",
		Namespace: "geo::Outer::Inner",
		Enclosing: "geo",
		ClassName: "Inner",
	}
	if got := QualifiedName(fi, false); got != "Outer::Inner::run" {
		t.Errorf("class only = %q", got)
	}
	if got := QualifiedName(fi, true); got != "geo::Outer::Inner::run" {
		t.Errorf("with namespace = %q", got)
	}
}

func TestMovedDefinition_HeaderAfterAccessSpecifier(t *testing.T) {
	fi := model.FunctionInfo{
		Name:       "f",
		ClassName:  "S",
		Namespace:  "S",
		Signature:  "int f() const",
		Indent:     " ",
		BodyIndent: "    ",
		Body:       "{\n        return 1;\n    }",
	}
	want := "int S::f() const {\n    return 1;\n}\n"
	if got := MovedDefinition(fi, false); got != want {
		t.Errorf("MovedDefinition = %q, want %q", got, want)
	}
}

func TestQualify(t *testing.T) {
	tests := []struct {
		sig, name, qualified, want string
	}{
		{"void draw() const", "draw", "Circle::draw", "void Circle::draw() const"},
		{"Circle* clone (int n)", "clone", "geo::Circle::clone", "Circle* geo::Circle::clone (int n)"},
		{"void Circle::draw()", "draw", "geo::Circle::draw", "void geo::Circle::draw()"},
		{"~Circle()", "~Circle", "Circle::~Circle", "Circle::~Circle()"},
		{"int redraw(int draw)", "draw", "C::draw", "int redraw(int draw)"},
		{"bool operator==(const C& o) const", "operator==", "C::operator==", "bool C::operator==(const C& o) const"},
	}
	for _, tt := range tests {
		if got := Qualify(tt.sig, tt.name, tt.qualified); got != tt.want {
			t.Errorf("Qualify(%q, %q) = %q, want %q", tt.sig, tt.name, got, tt.want)
		}
	}
}

func TestStripDefaults(t *testing.T) {
	tests := []struct{ in, want string }{
		{"void f(int a = 1, int b)", "void f(int a, int b)"},
		{"void f(std::map<int, int> m = {}, int n = g(1, 2))", "void f(std::map<int, int> m, int n)"},
		{"void f(const char* s = \"x\") const", "void f(const char* s) const"},
		{"bool operator==(const C& o) const", "bool operator==(const C& o) const"},
		{"void f(int x = 0) const = 0", "void f(int x) const = 0"},
		{"void f()", "void f()"},
		{"no parens", "no parens"},
	}
	for _, tt := range tests {
		if got := StripDefaults(tt.in); got != tt.want {
			t.Errorf("StripDefaults(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefinitionHeader(t *testing.T) {
	got := DefinitionHeader("    virtual int resize(int w, int h = 0) override;", "geo::Circle::")
	if want := "int geo::Circle::resize(int w, int h)"; got != want {
		t.Errorf("DefinitionHeader = %q, want %q", got, want)
	}
}

func TestFunctionName(t *testing.T) {
	if got := FunctionName("const Foo& get(int i) const"); got != "get" {
		t.Errorf("FunctionName = %q", got)
	}
	if got := FunctionName("int x"); got != "" {
		t.Errorf("FunctionName without params = %q", got)
	}
}

func TestPlace(t *testing.T) {
	defs := []string{"void A::f() {\n}\n", "void A::g() {\n}\n"}

	inside := Place(namespace.Point{Position: document.Position{Line: 3}}, defs)
	if want := "\nvoid A::f() {\n}\n\nvoid A::g() {\n}\n"; inside != want {
		t.Errorf("inside = %q, want %q", inside, want)
	}

	wrapped := Place(namespace.Point{Open: "\nnamespace n {\n", Close: "}\n"}, defs)
	if want := "\nnamespace n {\nvoid A::f() {\n}\n\nvoid A::g() {\n}\n}\n"; wrapped != want {
		t.Errorf("wrapped = %q, want %q", wrapped, want)
	}
}

package hashline

import (
	"errors"
	"strings"
	"testing"
)

func TestLineHash(t *testing.T) {
	h1 := LineHash("class Circle : public IShape {")
	if h1 != LineHash("class Circle : public IShape {") {
		t.Error("same input produced different hashes")
	}
	if h1 == LineHash("class Circle : public IShape  {") {
		t.Errorf("different inputs produced same hash: %s", h1)
	}
	if len(h1) != HashLen {
		t.Errorf("expected hash length %d, got %d", HashLen, len(h1))
	}
	if len(LineHash("")) != HashLen {
		t.Error("empty line should still hash")
	}
}

func TestAt(t *testing.T) {
	lines := []string{"namespace geo {", "}"}
	a := At(lines, 1)
	if a.Num != 2 || a.Hash != LineHash("}") {
		t.Errorf("At = %v", a)
	}
	if past := At(lines, 5); past.Num != 6 || past.Hash != "" {
		t.Errorf("At past end = %v", past)
	}
}

func TestAnchorValidate(t *testing.T) {
	lines := []string{"struct A {", "    void f();", "};"}

	if err := At(lines, 0).Validate(lines); err != nil {
		t.Errorf("valid anchor failed: %v", err)
	}
	if err := (Anchor{Num: 0, Hash: "ffff"}).Validate(lines); err == nil {
		t.Error("line 0 should be out of range")
	}
	if err := (Anchor{Num: 4, Hash: "ffff"}).Validate(lines); err == nil {
		t.Error("line 4 should be out of range")
	}

	stale := At(lines, 1)
	changed := []string{"struct A {", "    void g();", "};"}
	err := stale.Validate(changed)
	var mismatch *HashMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected HashMismatchError, got %v", err)
	}
	if mismatch.Line != 2 || !strings.Contains(err.Error(), "void g()") {
		t.Errorf("error should name the line and its text: %v", err)
	}
}

func TestAnchorValidate_PastEnd(t *testing.T) {
	a := At([]string{"x"}, 1)
	if err := a.Validate([]string{"x"}); err != nil {
		t.Errorf("file unchanged, got %v", err)
	}
	if err := a.Validate([]string{"x", "y"}); err == nil {
		t.Error("a line appearing where none was should fail")
	}
}

func TestSpanValidate(t *testing.T) {
	lines := []string{"aaa", "bbb", "ccc"}

	if err := SpanAt(lines, 0, 2).Validate(lines); err != nil {
		t.Errorf("valid span failed: %v", err)
	}
	if err := SpanAt(lines, 1, 1).Validate(lines); err != nil {
		t.Errorf("single line span failed: %v", err)
	}
	if err := SpanAt(lines, 2, 0).Validate(lines); err == nil {
		t.Error("inverted span should fail")
	}

	edited := []string{"aaa", "bbb", "CCC"}
	err := SpanAt(lines, 0, 2).Validate(edited)
	if err == nil || !strings.HasPrefix(err.Error(), "end anchor") {
		t.Errorf("changed last line should fail the end anchor, got %v", err)
	}
}

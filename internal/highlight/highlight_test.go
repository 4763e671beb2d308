package highlight

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

const sampleDiff = "--- a/circle.h\n+++ b/circle.h\n@@ -1,2 +1,3 @@\n class Circle : public IShape {\n+    void draw() override;\n };\n"

func TestDiff_KeepsText(t *testing.T) {
	out := Diff(sampleDiff, DefaultTheme)
	if out == sampleDiff {
		t.Fatal("expected escape sequences in highlighted output")
	}
	if got := ansi.Strip(out); got != sampleDiff {
		t.Errorf("stripped output differs:\n%q\n%q", got, sampleDiff)
	}
}

func TestHighlight_UnknownLanguage(t *testing.T) {
	if got := Highlight("x", "no-such-language", DefaultTheme); got != "x" {
		t.Errorf("got %q", got)
	}
}

func TestThemePalette(t *testing.T) {
	p := ThemePalette(DefaultTheme)
	for _, c := range []string{p.Fg, p.Muted, p.Accent, p.Error} {
		if len(c) != 7 || !strings.HasPrefix(c, "#") {
			t.Errorf("bad color %q in %+v", c, p)
		}
	}
	if ThemePalette(DefaultTheme) != p {
		t.Error("palette is not deterministic")
	}
	if ThemePalette("no-such-theme") != defaultPalette() {
		t.Error("unknown theme should fall back to defaults")
	}
}

func TestLerpHex(t *testing.T) {
	if got := lerpHex("#000000", "#ffffff", 0.5); got != "#808080" {
		t.Errorf("lerpHex = %q", got)
	}
}

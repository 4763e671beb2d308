package main

import (
	"errors"
	"fmt"
	"io"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/xonecas/cppref/internal/command"
	"github.com/xonecas/cppref/internal/highlight"
)

// printer writes status lines and previews, colored from the syntax theme.
type printer struct {
	out, err io.Writer
	noColor  bool
	theme    string

	status lipgloss.Style
	muted  lipgloss.Style
	failed lipgloss.Style
}

func newPrinter(out, err io.Writer, noColor bool) *printer {
	p := &printer{out: out, err: err, noColor: noColor}
	p.setTheme(highlight.DefaultTheme)
	return p
}

func (p *printer) setTheme(theme string) {
	pal := highlight.ThemePalette(theme)
	p.theme = theme
	p.status = lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Accent))
	p.muted = lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Muted))
	p.failed = lipgloss.NewStyle().Foreground(lipgloss.Color(pal.Error)).Bold(true)
}

func (p *printer) render(sty lipgloss.Style, s string) string {
	if p.noColor {
		return s
	}
	return sty.Render(s)
}

// Status prints the outcome of an applied command.
func (p *printer) Status(s string) {
	fmt.Fprintln(p.out, p.render(p.status, s))
}

// Note prints secondary output, such as a command that changed nothing.
func (p *printer) Note(s string) {
	fmt.Fprintln(p.out, p.render(p.muted, s))
}

// Plain prints text as is, minus escape codes when color is off.
func (p *printer) Plain(s string) {
	if p.noColor {
		s = ansi.Strip(s)
	}
	fmt.Fprint(p.out, s)
}

// Diff prints a unified diff.
func (p *printer) Diff(text string) {
	if !p.noColor {
		text = highlight.Diff(text, p.theme)
	}
	p.Plain(text)
}

// Fail prints err as a single status line on the error stream.
func (p *printer) Fail(err error) {
	msg := err.Error()
	var ce *command.Error
	if errors.As(err, &ce) {
		msg = ce.Status()
	}
	fmt.Fprintln(p.err, p.render(p.failed, "error: ")+msg)
}

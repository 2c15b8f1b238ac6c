package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	colorRed    = lipgloss.Color("#FF5F5F")
	colorGreen  = lipgloss.Color("#5FD75F")
	colorYellow = lipgloss.Color("#FFD75F")
	colorCyan   = lipgloss.Color("#5FD7FF")
	colorGray   = lipgloss.Color("#8A8A8A")
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	okStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	dimStyle     = lipgloss.NewStyle().Foreground(colorGray)
)

// styles renders text with colour only when the destination is a terminal.
type styles struct {
	color bool
}

func newStyles(w io.Writer) styles {
	f, ok := w.(*os.File)
	if !ok {
		return styles{}
	}
	return styles{color: isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}
	return style.Render(text)
}

func (s styles) heading(text string) string   { return s.render(headingStyle, text) }
func (s styles) ok(text string) string        { return s.render(okStyle, text) }
func (s styles) warn(text string) string      { return s.render(warnStyle, text) }
func (s styles) errorText(text string) string { return s.render(errorStyle, text) }
func (s styles) dim(text string) string       { return s.render(dimStyle, text) }

// status renders a pass/fail marker.
func (s styles) status(passed bool, optional bool) string {
	switch {
	case passed:
		return s.ok("OK")
	case optional:
		return s.warn("MISSING")
	default:
		return s.errorText("FAIL")
	}
}

// Package ui provides terminal output styling for the console commands.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	successColor = lipgloss.Color("#8BC34A")
	errorColor   = lipgloss.Color("#e53935")
	warnColor    = lipgloss.Color("#FFC107")
	accentColor  = lipgloss.Color("#2196F3")
	mutedColor   = lipgloss.Color("245")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	keyStyle     = lipgloss.NewStyle().Bold(true)
)

// Printer writes styled console output. Styling degrades to plain text
// when the output is not a color terminal.
type Printer struct {
	out   io.Writer
	plain bool
}

// NewPrinter creates a printer for w. Color is disabled automatically for
// non-terminal outputs and dumb terminals.
func NewPrinter(w io.Writer) *Printer {
	plain := true
	if f, ok := w.(*os.File); ok {
		plain = termenv.NewOutput(f).ColorProfile() == termenv.Ascii
	}
	return &Printer{out: w, plain: plain}
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if p.plain {
		return s
	}
	return style.Render(s)
}

// Title prints a section heading.
func (p *Printer) Title(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(titleStyle, fmt.Sprintf(format, args...)))
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(successStyle, "✓ "+fmt.Sprintf(format, args...)))
}

// Error prints a failure line.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(errorStyle, "✗ "+fmt.Sprintf(format, args...)))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(warnStyle, "! "+fmt.Sprintf(format, args...)))
}

// Muted prints a secondary detail line.
func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.out, p.render(mutedStyle, fmt.Sprintf(format, args...)))
}

// Line prints an unstyled line.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// KeyValues prints aligned key/value pairs sorted by key.
func (p *Printer) KeyValues(pairs map[string]string) {
	keys := make([]string, 0, len(pairs))
	width := 0
	for k := range pairs {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		padded := k + strings.Repeat(" ", width-len(k))
		fmt.Fprintf(p.out, "  %s  %s\n", p.render(keyStyle, padded), pairs[k])
	}
}

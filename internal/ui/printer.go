// Package ui writes operator-facing summaries. Diagnostics go to the logger;
// everything a user reads at the end of a command goes through a Printer.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const ruleWidth = 60

// Printer writes styled lines to w. Color is used only when w is a terminal
// and the caller has not disabled it.
type Printer struct {
	w io.Writer

	title, ok, fail, warn, dim, add, del, mod func(a ...interface{}) string
}

// New returns a Printer for w.
func New(w io.Writer, noColor bool) *Printer {
	enabled := !noColor && isTerminal(w)
	style := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return &Printer{
		w:     w,
		title: style(color.Bold),
		ok:    style(color.FgGreen),
		fail:  style(color.FgRed, color.Bold),
		warn:  style(color.FgYellow),
		dim:   style(color.Faint),
		add:   style(color.FgGreen),
		del:   style(color.FgRed),
		mod:   style(color.FgCyan),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) printf(format string, a ...interface{}) {
	fmt.Fprintf(p.w, format, a...)
}

func (p *Printer) line(s string) { fmt.Fprintln(p.w, s) }

// Rule prints a horizontal separator.
func (p *Printer) Rule() { p.line(strings.Repeat("=", ruleWidth)) }

// Title prints a bold heading followed by a rule.
func (p *Printer) Title(s string) {
	p.line("")
	p.line(p.title(s))
	p.Rule()
}

// OK prints a success line.
func (p *Printer) OK(format string, a ...interface{}) {
	p.line(p.ok("✓ ") + fmt.Sprintf(format, a...))
}

// Fail prints a failure line.
func (p *Printer) Fail(format string, a ...interface{}) {
	p.line(p.fail("✗ ") + fmt.Sprintf(format, a...))
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, a ...interface{}) {
	p.line(p.warn("! ") + fmt.Sprintf(format, a...))
}

// Info prints a neutral note.
func (p *Printer) Info(format string, a ...interface{}) {
	p.line(p.dim("i ") + fmt.Sprintf(format, a...))
}

// Raw prints s as is, adding a trailing newline when missing.
func (p *Printer) Raw(s string) {
	if s == "" {
		return
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	fmt.Fprint(p.w, s)
}

// Truncate shortens s to at most n runes.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

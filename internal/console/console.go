// Package console renders report blocks for terminals. Styling wraps whole
// lines and never alters the report structure; with color off the engine text
// passes through unchanged.
package console

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Mode selects when color styling applies.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeAlways Mode = "always"
	ModeNever  Mode = "never"
)

var (
	colorHeading = lipgloss.Color("39")
	colorPass    = lipgloss.Color("120")
	colorFail    = lipgloss.Color("196")
	colorPending = lipgloss.Color("242")
	colorFocus   = lipgloss.Color("214")
)

type styleSet struct {
	heading lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	pending lipgloss.Style
	focus   lipgloss.Style
	summary lipgloss.Style
}

func newStyleSet() styleSet {
	return styleSet{
		heading: lipgloss.NewStyle().Foreground(colorHeading).Bold(true),
		pass:    lipgloss.NewStyle().Foreground(colorPass),
		fail:    lipgloss.NewStyle().Foreground(colorFail),
		pending: lipgloss.NewStyle().Foreground(colorPending),
		focus:   lipgloss.NewStyle().Foreground(colorFocus).Bold(true),
		summary: lipgloss.NewStyle().Bold(true),
	}
}

// Printer writes report blocks, optionally colorized per line class and
// truncated to a terminal width. It satisfies the engine's console
// collaborator.
type Printer struct {
	w      io.Writer
	color  bool
	width  int
	styles styleSet
}

// Option configures a Printer.
type Option func(*Printer)

// WithMode selects the color mode. Auto enables color only when the writer
// is a terminal.
func WithMode(mode Mode) Option {
	return func(p *Printer) {
		switch mode {
		case ModeAlways:
			p.color = true
		case ModeNever:
			p.color = false
		default:
			p.color = isTerminal(p.w)
		}
	}
}

// WithWidth truncates lines wider than width terminal cells. Zero disables
// truncation.
func WithWidth(width int) Option {
	return func(p *Printer) { p.width = width }
}

// New builds a Printer on w, defaulting to stdout with auto color.
func New(w io.Writer, opts ...Option) *Printer {
	if w == nil {
		w = os.Stdout
	}
	p := &Printer{w: w, styles: newStyleSet(), color: isTerminal(w)}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Print writes one report block.
func (p *Printer) Print(block string) {
	if !p.color && p.width == 0 {
		io.WriteString(p.w, block)
		return
	}
	var sb strings.Builder
	rest := block
	for len(rest) > 0 {
		line, tail, found := strings.Cut(rest, "\n")
		rest = tail
		out := line
		if p.width > 0 {
			out = runewidth.Truncate(out, p.width, "")
		}
		if p.color {
			out = p.styleLine(out)
		}
		sb.WriteString(out)
		if found {
			sb.WriteByte('\n')
		}
	}
	io.WriteString(p.w, sb.String())
}

func (p *Printer) styleLine(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	switch {
	case strings.HasPrefix(trimmed, "F "):
		return p.styles.fail.Render(line)
	case strings.HasPrefix(trimmed, ". "):
		return p.styles.pass.Render(line)
	case strings.HasPrefix(trimmed, "> "):
		return p.styles.pending.Render(line)
	case strings.HasPrefix(trimmed, "* "):
		return p.styles.focus.Render(line)
	case strings.HasPrefix(line, "Failed on line(s):"):
		return p.styles.fail.Render(line)
	case strings.HasPrefix(line, "Executed "):
		return p.styles.summary.Render(line)
	}
	if isHeading(trimmed) {
		return p.styles.heading.Render(line)
	}
	return line
}

func isHeading(trimmed string) bool {
	for _, label := range []string{"SUITE ", "DESCRIBE ", "CONTEXT ", "GROUP "} {
		if strings.HasPrefix(trimmed, label) {
			return true
		}
	}
	return false
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// DetectWidth returns the terminal width of w, or zero when w is not a
// terminal.
func DetectWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

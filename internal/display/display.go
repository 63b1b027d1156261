// Package display writes composed calendars to a terminal, applying a
// color theme to the styled spans.
package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/zapponejosh/yearcal/internal/calendar"
)

// ColorMode selects when output is colored.
type ColorMode string

// Color modes
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode parses auto, always or never. An empty string is auto.
func ParseColorMode(s string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("color must be one of: auto, always, never; got %q", s)
	}
}

// Enabled reports whether output to w should be colored. In auto mode that
// means w is a terminal and NO_COLOR is unset.
func Enabled(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}

	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Theme holds one style per role.
type Theme struct {
	Weekend    lipgloss.Style
	Today      lipgloss.Style
	WeekGutter lipgloss.Style
}

// DefaultTheme returns the standard colors, bound to r.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Weekend:    r.NewStyle().Foreground(lipgloss.Color("9")),
		Today:      r.NewStyle().Reverse(true),
		WeekGutter: r.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Style returns the style of a role. Normal text has no style.
func (t Theme) Style(role calendar.Role) (lipgloss.Style, bool) {
	switch role {
	case calendar.RoleWeekend:
		return t.Weekend, true
	case calendar.RoleToday:
		return t.Today, true
	case calendar.RoleWeekGutter:
		return t.WeekGutter, true
	default:
		return lipgloss.Style{}, false
	}
}

// Printer writes surfaces to an output stream.
type Printer struct {
	w     io.Writer
	color bool
	theme Theme
}

// NewPrinter creates a printer for w. When color is false spans are written
// as plain text.
func NewPrinter(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Printer{
		w:     w,
		color: color,
		theme: DefaultTheme(r),
	}
}

// Print writes every line of s followed by a newline.
func (p *Printer) Print(s calendar.Surface) error {
	var b strings.Builder
	for _, line := range s.Lines {
		for _, span := range line {
			b.WriteString(p.render(span))
		}
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(p.w, b.String()); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	return nil
}

func (p *Printer) render(span calendar.Span) string {
	if !p.color {
		return span.Text
	}
	style, ok := p.theme.Style(span.Role)
	if !ok {
		return span.Text
	}
	return style.Render(span.Text)
}

package calendar

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Role is the semantic style of a character cell.
type Role int

// Style roles, resolved by RoleMap.
const (
	RoleNormal Role = iota
	RoleWeekend
	RoleToday
	RoleWeekGutter
)

func (r Role) String() string {
	switch r {
	case RoleWeekend:
		return "weekend"
	case RoleToday:
		return "today"
	case RoleWeekGutter:
		return "week-gutter"
	default:
		return "normal"
	}
}

// Span is a run of text sharing one role.
type Span struct {
	Text string
	Role Role
}

// Line is one printable line split into styled spans.
type Line []Span

// String returns the line's plain text.
func (l Line) String() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Surface is the composed year ready for output.
type Surface struct {
	Lines []Line
}

// Text returns the plain text of the surface, one line per row.
func (s Surface) Text() string {
	var b strings.Builder
	for _, l := range s.Lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// RoleMap decides the role of every character cell of a grid.
type RoleMap struct {
	weekend [DaysPerWeek]bool // by day cell, after rotation
	gutter  int
	today   *Coordinate
}

// NewRoleMap builds the role lookup for a render. today is nil when the
// current date is not in the rendered year.
func NewRoleMap(cfg CalendarConfig, today *Coordinate) RoleMap {
	m := RoleMap{today: today}
	for cell := 0; cell < DaysPerWeek; cell++ {
		weekday := (cfg.StartingWeekday + cell) % DaysPerWeek
		m.weekend[cell] = weekday == 0 || weekday == 6
	}
	if cfg.ShowWeekNumbers {
		m.gutter = GutterWidth
	}
	return m
}

// RoleAt returns the role of the character at display column charIndex of
// line lineIndex in the block at (row, column). Today wins over weekend.
func (m RoleMap) RoleAt(row, column, lineIndex, charIndex int) Role {
	if lineIndex < HeaderLines-1 {
		return RoleNormal
	}

	if lineIndex >= HeaderLines && charIndex < m.gutter {
		return RoleWeekGutter
	}

	if m.today != nil && m.today.Row == row && m.today.Column == column && m.today.BlockLine() == lineIndex {
		start, end := m.today.CharRange(m.gutter)
		if charIndex >= start && charIndex < end {
			return RoleToday
		}
	}

	cell := (charIndex - m.gutter) / CellWidth
	if charIndex >= m.gutter && cell < DaysPerWeek && m.weekend[cell] {
		return RoleWeekend
	}
	return RoleNormal
}

// Compose merges the rendered blocks into printable lines. today is
// highlighted only when it falls in the grid's year.
func (e *Engine) Compose(grid *Grid, today *Date) Surface {
	cfg := grid.Config
	rowWidth := grid.Shape.Columns*grid.BlockWidth + grid.Shape.Columns - 1

	var roles *RoleMap
	if cfg.Colorize {
		var pos *Coordinate
		if today != nil && today.Year == grid.Year {
			if c, err := e.Locate(*today, cfg.StartingWeekday); err == nil {
				pos = &c
			}
		}
		m := NewRoleMap(cfg, pos)
		roles = &m
	}

	surface := Surface{Lines: []Line{{{Text: centerName(strconv.Itoa(grid.Year), rowWidth)}}}}

	for row, blocks := range grid.Blocks {
		for lineIndex := 0; lineIndex < RowLines; lineIndex++ {
			var line Line
			for column, block := range blocks {
				if column > 0 {
					line = appendSpan(line, " ", RoleNormal)
				}
				text := block.Lines[lineIndex]
				if roles == nil {
					line = appendSpan(line, text, RoleNormal)
					continue
				}
				line = appendStyled(line, text, func(charIndex int) Role {
					return roles.RoleAt(row, column, lineIndex, charIndex)
				})
			}
			surface.Lines = append(surface.Lines, line)
		}
	}

	return surface
}

// appendStyled splits text into spans by the role of each display column.
func appendStyled(line Line, text string, roleAt func(charIndex int) Role) Line {
	col := 0
	for _, r := range text {
		s := string(r)
		line = appendSpan(line, s, roleAt(col))
		col += max(ansi.StringWidth(s), 1)
	}
	return line
}

// appendSpan adds text to the last span when the role matches.
func appendSpan(line Line, text string, role Role) Line {
	if n := len(line); n > 0 && line[n-1].Role == role {
		line[n-1].Text += text
		return line
	}
	return append(line, Span{Text: text, Role: role})
}

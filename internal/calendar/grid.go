package calendar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Month block layout
const (
	// HeaderLines is the number of lines above the day rows (title, weekdays).
	HeaderLines = 2

	// BodyLines is the number of day rows in every block: six weeks at most,
	// padded with one trailing blank row.
	BodyLines = 7

	// RowLines is the number of block lines printed per grid row: the title,
	// the header and six weeks. The trailing blank body row is not printed.
	RowLines = HeaderLines + BodyLines - 1

	// CellWidth is the width of one right-aligned day number.
	CellWidth = 3

	// BodyWidth is the width of a body line without week numbers.
	BodyWidth = DaysPerWeek * CellWidth

	// GutterWidth is the width of the week number gutter.
	GutterWidth = 3

	// TitleField is the width the month name is centered in.
	TitleField = 20
)

// MonthBlock is the rendered text of one month.
type MonthBlock struct {
	Month  int
	Row    int
	Column int
	Lines  []string // title, weekday header, then BodyLines day rows
}

// Title returns the month title line.
func (b MonthBlock) Title() string { return b.Lines[0] }

// Header returns the weekday header line.
func (b MonthBlock) Header() string { return b.Lines[1] }

// Body returns the day rows.
func (b MonthBlock) Body() []string { return b.Lines[HeaderLines:] }

// Grid is a rendered year: month blocks laid out in Shape.Rows x Shape.Columns.
type Grid struct {
	Year       int
	Config     CalendarConfig
	Shape      Shape
	BlockWidth int
	Blocks     [][]MonthBlock // [row][column]
}

// Block returns the block of a month (1-12).
func (g *Grid) Block(month int) MonthBlock {
	row, column := g.Shape.Position(month)
	return g.Blocks[row][column]
}

// BlockWidth returns the width of every line of a month block.
func BlockWidth(showWeekNumbers bool) int {
	if showWeekNumbers {
		return BodyWidth + GutterWidth
	}
	return BodyWidth
}

// RenderYear validates cfg and renders all twelve months.
func (e *Engine) RenderYear(cfg CalendarConfig, names LocaleNames) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("render year: %w", err)
	}

	table := e.DayTable(cfg.Year)
	grid := &Grid{
		Year:       cfg.Year,
		Config:     cfg,
		Shape:      e.shape,
		BlockWidth: BlockWidth(cfg.ShowWeekNumbers),
		Blocks:     make([][]MonthBlock, e.shape.Rows),
	}
	for row := range grid.Blocks {
		grid.Blocks[row] = make([]MonthBlock, e.shape.Columns)
	}

	for month := 1; month <= MonthsPerYear; month++ {
		block := e.RenderMonth(table, month, cfg, names)
		grid.Blocks[block.Row][block.Column] = block
	}

	return grid, nil
}

// RenderMonth lays out one month of table's year. cfg must already be valid.
func (e *Engine) RenderMonth(table *DayTable, month int, cfg CalendarConfig, names LocaleNames) MonthBlock {
	row, column := e.shape.Position(month)
	width := BlockWidth(cfg.ShowWeekNumbers)

	lines := make([]string, 0, HeaderLines+BodyLines)
	title := centerName(names.Months[month-1], TitleField)
	header := weekdayHeader(names.Weekdays, cfg.StartingWeekday)
	body := monthBody(table, month, cfg.StartingWeekday)

	if cfg.ShowWeekNumbers {
		gutter := strings.Repeat(" ", GutterWidth)
		title = gutter + title
		header = gutter + header
		body = numberWeeks(body, table.WeekNumber(1, month, cfg.StartingWeekday))
	}

	lines = append(lines, padRight(title, width), padRight(header, width))
	lines = append(lines, body...)

	return MonthBlock{
		Month:  month,
		Row:    row,
		Column: column,
		Lines:  lines,
	}
}

// monthBody returns exactly BodyLines rows of BodyWidth columns.
func monthBody(table *DayTable, month, startingWeekday int) []string {
	body := make([]string, 0, BodyLines)

	var line strings.Builder
	blanks := mod7(table.AbsoluteDay(1, month) - startingWeekday - 1)
	line.WriteString(strings.Repeat(" ", blanks*CellWidth))

	for day := 1; day <= table.Days[month]; day++ {
		fmt.Fprintf(&line, "%3d", day)
		if table.Bucket(day, month, startingWeekday) == 0 {
			body = append(body, line.String())
			line.Reset()
		}
	}
	if line.Len() > 0 {
		body = append(body, line.String())
	}

	for i := range body {
		body[i] = padRight(body[i], BodyWidth)
	}
	for len(body) < BodyLines {
		body = append(body, strings.Repeat(" ", BodyWidth))
	}
	return body
}

// numberWeeks prefixes each non-blank row with a running week counter that
// starts at first. Blank rows get an empty gutter.
//
// The counter is never wrapped at the year boundary: the first row of
// January can read 0 and the last row of December 53.
func numberWeeks(body []string, first int) []string {
	numbered := make([]string, len(body))
	week := first
	for i, line := range body {
		if strings.TrimSpace(line) == "" {
			numbered[i] = strings.Repeat(" ", GutterWidth) + line
			continue
		}
		numbered[i] = fmt.Sprintf("%2d ", week) + line
		week++
	}
	return numbered
}

// weekdayHeader rotates the abbreviations so startingWeekday comes first.
func weekdayHeader(weekdays [DaysPerWeek]string, startingWeekday int) string {
	var b strings.Builder
	for i := 0; i < DaysPerWeek; i++ {
		b.WriteByte(' ')
		b.WriteString(weekdays[(startingWeekday+i)%DaysPerWeek])
	}
	return b.String()
}

// centerName centers name in a field of width columns. Names at least as
// wide as the field are returned as is.
func centerName(name string, width int) string {
	w := ansi.StringWidth(name)
	if w >= width {
		return name
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + name + strings.Repeat(" ", width-w-left)
}

// padRight pads s with spaces up to width display columns.
func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

package calendar

import "fmt"

// Coordinate locates one day cell in a rendered grid.
type Coordinate struct {
	Row        int `json:"row"`         // grid row of the month block
	Column     int `json:"column"`      // grid column of the month block
	CharColumn int `json:"char_column"` // day cell within the week, 0-6
	LineIndex  int `json:"line_index"`  // body line within the block, 0-5
}

// BlockLine returns the line of the month block holding the cell.
func (c Coordinate) BlockLine() int {
	return c.LineIndex + HeaderLines
}

// CharRange returns the [start, end) display columns of the cell within a
// block line. gutter is GutterWidth when week numbers are shown, else 0.
func (c Coordinate) CharRange(gutter int) (start, end int) {
	start = gutter + c.CharColumn*CellWidth
	return start, start + CellWidth
}

// Locate returns where date appears when weeks start on startingWeekday.
// It does not depend on whether the cell is ever highlighted.
func (e *Engine) Locate(date Date, startingWeekday int) (Coordinate, error) {
	if date.Year < 1 || date.Year > MaxYear {
		return Coordinate{}, fmt.Errorf("%w: year %d out of range", ErrInvalidDate, date.Year)
	}
	if date.Month < 1 || date.Month > MonthsPerYear {
		return Coordinate{}, fmt.Errorf("%w: month %d out of range", ErrInvalidDate, date.Month)
	}
	if startingWeekday < 0 || startingWeekday >= DaysPerWeek {
		return Coordinate{}, fmt.Errorf("%w: got %d", ErrInvalidWeekday, startingWeekday)
	}

	table := e.DayTable(date.Year)
	if date.Day < 1 || date.Day > table.Days[date.Month] {
		return Coordinate{}, fmt.Errorf("%w: %04d-%02d has no day %d", ErrInvalidDate, date.Year, date.Month, date.Day)
	}

	firstOffset := mod7(table.AbsoluteDay(1, date.Month) - startingWeekday - 1)
	pos := firstOffset + date.Day - 1
	row, column := e.shape.Position(date.Month)

	return Coordinate{
		Row:        row,
		Column:     column,
		CharColumn: pos % DaysPerWeek,
		LineIndex:  pos / DaysPerWeek,
	}, nil
}

// Package calendar provides the date arithmetic, month grid layout and
// highlight positioning behind the year calendar.
package calendar

import (
	"errors"
	"fmt"
	"sync"
)

// Calendar shape constants
const (
	// MonthsPerYear is the number of month blocks in a rendered year.
	MonthsPerYear = 12

	// DaysPerWeek is the length of the weekday cycle.
	DaysPerWeek = 7

	// DefaultReformYear is the last year using the simple divisible-by-4 rule.
	DefaultReformYear = 1099

	// MaxYear is the last renderable year.
	MaxYear = 9999

	// maxCachedTables bounds the engine's day table cache.
	maxCachedTables = 64
)

// Sentinel errors returned by validation.
var (
	ErrInvalidShape   = errors.New("invalid calendar shape")
	ErrInvalidYear    = errors.New("invalid year")
	ErrInvalidWeekday = errors.New("invalid starting weekday")
	ErrInvalidDate    = errors.New("invalid date")
)

// Shape describes the fixed geometry of the calendar: the leap-year reform
// threshold and the month grid dimensions.
type Shape struct {
	ReformYear int // last year using the Julian-style leap rule
	Rows       int // month rows in the grid
	Columns    int // month columns in the grid
}

// DefaultShape returns the 4x3 grid with a reform threshold of 1099.
func DefaultShape() Shape {
	return Shape{
		ReformYear: DefaultReformYear,
		Rows:       4,
		Columns:    3,
	}
}

// Validate checks that the grid holds exactly one block per month.
func (s Shape) Validate() error {
	var errs []error

	if s.ReformYear < 0 {
		errs = append(errs, fmt.Errorf("%w: reform year must not be negative, got %d", ErrInvalidShape, s.ReformYear))
	}
	if s.Rows < 1 || s.Columns < 1 {
		errs = append(errs, fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidShape, s.Rows, s.Columns))
	} else if s.Rows*s.Columns != MonthsPerYear {
		errs = append(errs, fmt.Errorf("%w: grid %dx%d does not hold %d months", ErrInvalidShape, s.Rows, s.Columns, MonthsPerYear))
	}

	return errors.Join(errs...)
}

// Position returns the grid row and column of a month (1-12).
func (s Shape) Position(month int) (row, column int) {
	return (month - 1) / s.Columns, (month - 1) % s.Columns
}

// Engine performs all date arithmetic for a given shape. Day tables are
// computed once per year and shared read-only afterwards. At most
// maxCachedTables years are kept.
type Engine struct {
	shape Shape

	mu     sync.Mutex
	tables map[int]*DayTable
}

// NewEngine creates an engine for the given shape.
func NewEngine(shape Shape) (*Engine, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		shape:  shape,
		tables: make(map[int]*DayTable),
	}, nil
}

// Shape returns the engine's calendar shape.
func (e *Engine) Shape() Shape {
	return e.shape
}

// IsLeapYear reports whether year has 366 days.
//
// Years at or before the reform threshold use the divisible-by-4 rule. Later
// years XOR the three Gregorian divisibility tests, which agrees with the
// usual "div by 4 and (not div by 100 or div by 400)" form for every year.
func (e *Engine) IsLeapYear(year int) bool {
	if year <= e.shape.ReformYear {
		return year%4 == 0
	}
	return (year%4 == 0) != (year%100 == 0) != (year%400 == 0)
}

// DaysInMonth returns the day count of each month, indexed 1-12. Index 0 is 0.
func (e *Engine) DaysInMonth(year int) [MonthsPerYear + 1]int {
	feb := 28
	if e.IsLeapYear(year) {
		feb = 29
	}
	return [MonthsPerYear + 1]int{0, 31, feb, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
}

// CumulativeDaysByMonth returns the running totals of DaysInMonth alongside
// the raw counts. cumulative[i] is the number of days in months 1..i.
func (e *Engine) CumulativeDaysByMonth(year int) (cumulative, raw [MonthsPerYear + 1]int) {
	raw = e.DaysInMonth(year)
	total := 0
	for i, days := range raw {
		total += days
		cumulative[i] = total
	}
	return cumulative, raw
}

// TotalDaysBeforeYear returns the number of days in all years before year,
// counting from year 1.
func (e *Engine) TotalDaysBeforeYear(year int) int {
	n := year - 1
	if n <= 0 {
		return 0
	}

	r := e.shape.ReformYear
	if n <= r {
		return 365*n + n/4
	}

	// Multiples of 100 and 400 only stop or restore leap years after the reform.
	return 365*n + n/4 - (n/100 - r/100) + (n/400 - r/400)
}

// totalDaysBeforeYearLoop is the year-by-year reference for TotalDaysBeforeYear.
func (e *Engine) totalDaysBeforeYearLoop(year int) int {
	count := 0
	for y := 1; y < year; y++ {
		if e.IsLeapYear(y) {
			count += 366
		} else {
			count += 365
		}
	}
	return count
}

// AbsoluteDayOfYear combines a date with its year's cumulative table and the
// days before that year. The result is only meaningful modulo 7.
func AbsoluteDayOfYear(day, month, year int, cumulative [MonthsPerYear + 1]int, daysBeforeYear int) int {
	abs := day
	if month > 1 {
		abs += cumulative[month-1]
	}
	if year > 1 {
		abs += daysBeforeYear
	}
	return abs
}

// DayTable returns the cached day table for year, building it on first use.
func (e *Engine) DayTable(year int) *DayTable {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.tables[year]; ok {
		return t
	}

	if len(e.tables) >= maxCachedTables {
		for y := range e.tables {
			delete(e.tables, y)
			break
		}
	}

	cumulative, raw := e.CumulativeDaysByMonth(year)
	t := &DayTable{
		Year:           year,
		Days:           raw,
		Cumulative:     cumulative,
		DaysBeforeYear: e.TotalDaysBeforeYear(year),
	}
	e.tables[year] = t
	return t
}

// DayTable holds the per-month day counts of one year. It is never mutated
// after the engine builds it.
type DayTable struct {
	Year           int
	Days           [MonthsPerYear + 1]int // day count per month, index 0 unused
	Cumulative     [MonthsPerYear + 1]int // days in months 1..i
	DaysBeforeYear int
}

// Total returns the number of days in the year.
func (t *DayTable) Total() int {
	return t.Cumulative[MonthsPerYear]
}

// DayOfYear returns the 1-based ordinal of a date within the table's year.
func (t *DayTable) DayOfYear(day, month int) int {
	return AbsoluteDayOfYear(day, month, 1, t.Cumulative, 0)
}

// AbsoluteDay returns the day-of-era serial of a date in the table's year.
func (t *DayTable) AbsoluteDay(day, month int) int {
	return AbsoluteDayOfYear(day, month, t.Year, t.Cumulative, t.DaysBeforeYear)
}

// Bucket returns the weekday cycle position of a date relative to the
// starting weekday. A bucket of 0 is the last cell of a rendered week.
func (t *DayTable) Bucket(day, month, startingWeekday int) int {
	return mod7(t.AbsoluteDay(day, month) - startingWeekday)
}

// Weekday returns the weekday of a date, 0 = Sunday.
func (t *DayTable) Weekday(day, month int) int {
	return mod7(t.AbsoluteDay(day, month) - 1)
}

// WeekNumber returns the row of a date in one continuous grid of the whole
// year whose weeks start on startingWeekday. The row holding January 1 is
// week 1 when at least four of its days are in the year, otherwise week 0.
//
// With a Monday start this is the ISO week for every day that belongs to the
// ISO year of the table, but it never wraps: days at the end of December
// that ISO puts in week 1 of the next year get week 53.
func (t *DayTable) WeekNumber(day, month, startingWeekday int) int {
	blanks := mod7(t.AbsoluteDay(1, 1) - startingWeekday - 1)
	week := (t.DayOfYear(day, month) - 1 + blanks) / DaysPerWeek
	if DaysPerWeek-blanks >= 4 {
		week++
	}
	return week
}

// mod7 is a modulo that never returns a negative value.
func mod7(n int) int {
	return ((n % DaysPerWeek) + DaysPerWeek) % DaysPerWeek
}

package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CalendarConfig holds the options of a single render. It is not modified
// once rendering starts.
type CalendarConfig struct {
	Year            int    // year to render, 1 to MaxYear
	StartingWeekday int    // first weekday of each row, 0 = Sunday
	ShowWeekNumbers bool   // prefix body lines with a week number gutter
	Colorize        bool   // annotate weekend, today and gutter cells
	Locale          string // locale tag the names were resolved from
}

// Validate rejects configurations the renderer cannot lay out.
func (c CalendarConfig) Validate() error {
	var errs []error

	if c.Year < 1 || c.Year > MaxYear {
		errs = append(errs, fmt.Errorf("%w: year must be between 1 and %d, got %d", ErrInvalidYear, MaxYear, c.Year))
	}
	if c.StartingWeekday < 0 || c.StartingWeekday >= DaysPerWeek {
		errs = append(errs, fmt.Errorf("%w: must be between 0 (Sunday) and 6 (Saturday), got %d", ErrInvalidWeekday, c.StartingWeekday))
	}

	return errors.Join(errs...)
}

// LocaleNames are the localized month and weekday names a render borrows.
// Weekdays are indexed from Sunday and are exactly two columns wide.
type LocaleNames struct {
	Tag      string
	Months   [MonthsPerYear]string
	Weekdays [DaysPerWeek]string
}

// EnglishNames returns the POSIX names used when no locale is available.
func EnglishNames() LocaleNames {
	return LocaleNames{
		Tag: "en_US",
		Months: [MonthsPerYear]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
		Weekdays: [DaysPerWeek]string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"},
	}
}

// Date is a plain calendar date with no time zone.
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: int(m), Day: d}
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

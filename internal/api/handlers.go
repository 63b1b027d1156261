package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/yearcal/internal/calendar"
	"github.com/zapponejosh/yearcal/internal/config"
	"github.com/zapponejosh/yearcal/internal/display"
	"github.com/zapponejosh/yearcal/internal/locale"
	"github.com/zapponejosh/yearcal/internal/logger"
)

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	engine *calendar.Engine
	cfg    *config.Config
	now    func() time.Time
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(engine *calendar.Engine, cfg *config.Config) *Handlers {
	return &Handlers{
		engine: engine,
		cfg:    cfg,
		now:    time.Now,
	}
}

// CalendarResponse is the JSON form of a rendered year.
type CalendarResponse struct {
	Year   int      `json:"year"`
	Locale string   `json:"locale"`
	Lines  []string `json:"lines"`
	Today  *string  `json:"today,omitempty"`
}

// LocateResponse is the position of one date in the rendered grid.
type LocateResponse struct {
	Date       string              `json:"date"`
	Weekday    int                 `json:"weekday"`
	Coordinate calendar.Coordinate `json:"coordinate"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]string{
		"status": "healthy",
	})
}

// GetCalendar handles GET /api/v1/calendar/{year}
//
// Query parameters: start (0-6), week_numbers, locale, color, today
// (YYYY-MM-DD) and format (text or json).
func (h *Handlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		WriteError(w, CodeBadRequest, err.Error())
		return
	}

	cfg, today, err := h.calendarOptions(r, year)
	if err != nil {
		WriteError(w, CodeBadRequest, err.Error())
		return
	}

	names := locale.Resolve(cfg.Locale)
	grid, err := h.engine.RenderYear(cfg, names)
	if err != nil {
		WriteCalendarError(w, err)
		return
	}
	surface := h.engine.Compose(grid, today)

	ctx := logger.With(r.Context(), slog.Int("year", year), slog.String("locale", names.Tag))
	logger.Debug(ctx, "rendered calendar", slog.Int("starting_day", cfg.StartingWeekday))

	if r.URL.Query().Get("format") == "json" {
		resp := CalendarResponse{
			Year:   year,
			Locale: names.Tag,
			Lines:  make([]string, 0, len(surface.Lines)),
		}
		for _, line := range surface.Lines {
			resp.Lines = append(resp.Lines, line.String())
		}
		if today.Year == year {
			s := today.String()
			resp.Today = &s
		}
		WriteSuccess(w, resp)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := display.NewPrinter(w, cfg.Colorize).Print(surface); err != nil {
		logger.Error(ctx, "failed to write calendar", err)
	}
}

// LocateDate handles GET /api/v1/calendar/{year}/locate/{date}
func (h *Handlers) LocateDate(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(chi.URLParam(r, "year"))
	if err != nil {
		WriteError(w, CodeBadRequest, err.Error())
		return
	}

	dateStr := chi.URLParam(r, "date")
	date, err := calendar.ParseDate(dateStr)
	if err != nil {
		WriteError(w, CodeBadRequest, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}
	if date.Year != year {
		WriteError(w, CodeBadRequest, fmt.Sprintf("Date %s is not in year %d", date, year))
		return
	}

	start, err := parseWeekday(r.URL.Query().Get("start"), h.cfg.StartingDay)
	if err != nil {
		WriteError(w, CodeBadRequest, err.Error())
		return
	}

	coord, err := h.engine.Locate(date, start)
	if err != nil {
		WriteCalendarError(w, err)
		return
	}

	WriteSuccess(w, LocateResponse{
		Date:       date.String(),
		Weekday:    h.engine.DayTable(date.Year).Weekday(date.Day, date.Month),
		Coordinate: coord,
	})
}

// calendarOptions builds the render configuration from the query string,
// falling back to the server defaults.
func (h *Handlers) calendarOptions(r *http.Request, year int) (calendar.CalendarConfig, *calendar.Date, error) {
	q := r.URL.Query()

	start, err := parseWeekday(q.Get("start"), h.cfg.StartingDay)
	if err != nil {
		return calendar.CalendarConfig{}, nil, err
	}

	weekNumbers := h.cfg.WeekNumbers
	if v := q.Get("week_numbers"); v != "" {
		if weekNumbers, err = strconv.ParseBool(v); err != nil {
			return calendar.CalendarConfig{}, nil, fmt.Errorf("invalid week_numbers %q", v)
		}
	}

	colorize := false
	if v := q.Get("color"); v != "" {
		if colorize, err = strconv.ParseBool(v); err != nil {
			return calendar.CalendarConfig{}, nil, fmt.Errorf("invalid color %q", v)
		}
	}

	loc := h.cfg.Locale
	if v := q.Get("locale"); v != "" {
		loc = v
	}

	today := calendar.DateOf(h.now())
	if v := q.Get("today"); v != "" {
		if today, err = calendar.ParseDate(v); err != nil {
			return calendar.CalendarConfig{}, nil, err
		}
	}

	cfg := calendar.CalendarConfig{
		Year:            year,
		StartingWeekday: start,
		ShowWeekNumbers: weekNumbers,
		Colorize:        colorize,
		Locale:          loc,
	}
	return cfg, &today, nil
}

// parseYear parses a year path parameter in [1, calendar.MaxYear].
func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || year < 1 || year > calendar.MaxYear {
		return 0, fmt.Errorf("invalid year %q: use 1 to %d", s, calendar.MaxYear)
	}
	return year, nil
}

// parseWeekday parses a 0-6 weekday, returning def when s is empty.
func parseWeekday(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	day, err := strconv.Atoi(s)
	if err != nil || day < 0 || day >= calendar.DaysPerWeek {
		return 0, fmt.Errorf("invalid start %q: use 0 (Sunday) to 6 (Saturday)", s)
	}
	return day, nil
}

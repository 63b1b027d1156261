package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zapponejosh/yearcal/internal/calendar"
	"github.com/zapponejosh/yearcal/internal/config"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

// testEnv holds a router wired like the real server.
type testEnv struct {
	engine   *calendar.Engine
	cfg      *config.Config
	handlers *Handlers
	router   http.Handler
}

// setupTest creates a fresh test environment. now is the server's clock.
func setupTest(t *testing.T, limiter *RateLimiter) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))

	engine, err := calendar.NewEngine(calendar.DefaultShape())
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}

	cfg := &config.Config{
		Port:           8080,
		Env:            config.EnvDevelopment,
		Color:          "never",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		LogLevel:       "error",
		LogFormat:      "text",
	}
	if limiter == nil {
		limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, false)
	}

	handlers := NewHandlers(engine, cfg)
	handlers.now = func() time.Time {
		return time.Date(2023, time.September, 18, 9, 0, 0, 0, time.UTC)
	}

	return &testEnv{
		engine:   engine,
		cfg:      cfg,
		handlers: handlers,
		router:   SetupRoutes(handlers, limiter, prometheus.NewRegistry(), logger),
	}
}

// do sends a GET request through the router.
func (env *testEnv) do(path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

// parseResponse parses JSON response
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v, body: %s", err, rr.Body.String())
	}
}

// expectError checks the status and error code of an error response.
func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) {
	t.Helper()

	if rr.Code != status {
		t.Fatalf("Status = %d, want %d (body: %s)", rr.Code, status, rr.Body.String())
	}
	var resp Response
	parseResponse(t, rr, &resp)
	if resp.Success {
		t.Error("Success = true, want false")
	}
	if resp.Error == nil || resp.Error.Code != code {
		t.Errorf("Error = %+v, want code %s", resp.Error, code)
	}
}

// =============================================================================
// HANDLER TESTS
// =============================================================================

func TestHealthCheck(t *testing.T) {
	env := setupTest(t, nil)

	rr := env.do("/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	parseResponse(t, rr, &resp)
	if !resp.Success || resp.Data["status"] != "healthy" {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetCalendar_Text(t *testing.T) {
	env := setupTest(t, nil)

	rr := env.do("/api/v1/calendar/2023")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}

	grid, err := env.engine.RenderYear(calendar.CalendarConfig{Year: 2023}, calendar.EnglishNames())
	if err != nil {
		t.Fatalf("RenderYear() failed: %v", err)
	}
	if want := env.engine.Compose(grid, nil).Text(); rr.Body.String() != want {
		t.Errorf("body =\n%s\nwant:\n%s", rr.Body.String(), want)
	}
}

func TestGetCalendar_Color(t *testing.T) {
	env := setupTest(t, nil)

	rr := env.do("/api/v1/calendar/2023?color=true")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !strings.Contains(rr.Body.String(), "\x1b[") {
		t.Error("colored body has no escape sequences")
	}
}

func TestGetCalendar_JSON(t *testing.T) {
	env := setupTest(t, nil)

	rr := env.do("/api/v1/calendar/2023?format=json&start=1&week_numbers=true")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d (body: %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		Success bool             `json:"success"`
		Data    CalendarResponse `json:"data"`
	}
	parseResponse(t, rr, &resp)

	if resp.Data.Year != 2023 || resp.Data.Locale != "en_US" {
		t.Errorf("Year/Locale = %d/%q", resp.Data.Year, resp.Data.Locale)
	}
	if want := 1 + 4*calendar.RowLines; len(resp.Data.Lines) != want {
		t.Fatalf("len(Lines) = %d, want %d", len(resp.Data.Lines), want)
	}
	if resp.Data.Today == nil || *resp.Data.Today != "2023-09-18" {
		t.Errorf("Today = %v, want 2023-09-18", resp.Data.Today)
	}

	// September is the third block of the third row; its fourth week is 38.
	line := resp.Data.Lines[1+2*calendar.RowLines+calendar.HeaderLines+3]
	if !strings.HasSuffix(line, "38  18 19 20 21 22 23 24") {
		t.Errorf("september week line = %q", line)
	}
}

func TestGetCalendar_TodayOtherYear(t *testing.T) {
	env := setupTest(t, nil)

	rr := env.do("/api/v1/calendar/1999?format=json")
	var resp struct {
		Data CalendarResponse `json:"data"`
	}
	parseResponse(t, rr, &resp)

	if resp.Data.Today != nil {
		t.Errorf("Today = %q, want omitted", *resp.Data.Today)
	}
}

func TestGetCalendar_Locale(t *testing.T) {
	env := setupTest(t, nil)

	rr := env.do("/api/v1/calendar/2023?format=json&locale=hu_HU.UTF-8")
	var resp struct {
		Data CalendarResponse `json:"data"`
	}
	parseResponse(t, rr, &resp)

	if resp.Data.Locale != "hu_HU" {
		t.Errorf("Locale = %q, want hu_HU", resp.Data.Locale)
	}
	if strings.Contains(resp.Data.Lines[1], "January") {
		t.Errorf("title line is English: %q", resp.Data.Lines[1])
	}
}

func TestGetCalendar_BadRequest(t *testing.T) {
	env := setupTest(t, nil)

	tests := []struct {
		name string
		path string
	}{
		{name: "year not a number", path: "/api/v1/calendar/abc"},
		{name: "year zero", path: "/api/v1/calendar/0"},
		{name: "negative year", path: "/api/v1/calendar/-5"},
		{name: "year after last", path: "/api/v1/calendar/10000"},
		{name: "year overflowing int", path: "/api/v1/calendar/99999999999999999999"},
		{name: "start out of range", path: "/api/v1/calendar/2023?start=7"},
		{name: "start not a number", path: "/api/v1/calendar/2023?start=monday"},
		{name: "bad week_numbers", path: "/api/v1/calendar/2023?week_numbers=maybe"},
		{name: "bad color", path: "/api/v1/calendar/2023?color=blue"},
		{name: "bad today", path: "/api/v1/calendar/2023?today=18/09/2023"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(tt.path), http.StatusBadRequest, "BAD_REQUEST")
		})
	}
}

func TestLocateDate(t *testing.T) {
	env := setupTest(t, nil)

	rr := env.do("/api/v1/calendar/2023/locate/2023-09-18?start=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d (body: %s)", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		Success bool           `json:"success"`
		Data    LocateResponse `json:"data"`
	}
	parseResponse(t, rr, &resp)

	want := calendar.Coordinate{Row: 2, Column: 2, CharColumn: 0, LineIndex: 3}
	if resp.Data.Coordinate != want {
		t.Errorf("Coordinate = %+v, want %+v", resp.Data.Coordinate, want)
	}
	if resp.Data.Weekday != 1 {
		t.Errorf("Weekday = %d, want 1 (Monday)", resp.Data.Weekday)
	}
	if resp.Data.Date != "2023-09-18" {
		t.Errorf("Date = %q", resp.Data.Date)
	}
}

func TestLocateDate_BadRequest(t *testing.T) {
	env := setupTest(t, nil)

	tests := []struct {
		name string
		path string
	}{
		{name: "date in another year", path: "/api/v1/calendar/2024/locate/2023-09-18"},
		{name: "malformed date", path: "/api/v1/calendar/2023/locate/yesterday"},
		{name: "no such day", path: "/api/v1/calendar/2023/locate/2023-02-29"},
		{name: "bad start", path: "/api/v1/calendar/2023/locate/2023-09-18?start=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(tt.path), http.StatusBadRequest, "BAD_REQUEST")
		})
	}
}

func TestNotFound(t *testing.T) {
	env := setupTest(t, nil)
	expectError(t, env.do("/api/v1/nothing"), http.StatusNotFound, "NOT_FOUND")
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestRequestIDMiddleware(t *testing.T) {
	env := setupTest(t, nil)

	rr := env.do("/health")
	id := rr.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Request-ID = %q, want a UUID", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rr = httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want upstream-id", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RecoveryMiddleware(logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	expectError(t, rr, http.StatusInternalServerError, "INTERNAL_ERROR")
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	env := setupTest(t, nil)

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/v1/calendar/2023", nil))

	if rr.Code != http.StatusNoContent {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestRateLimiter(t *testing.T) {
	env := setupTest(t, NewRateLimiter(0.001, 2, false))

	for i := 0; i < 2; i++ {
		if rr := env.do("/api/v1/calendar/2023/locate/2023-01-01"); rr.Code != http.StatusOK {
			t.Fatalf("request %d: Status = %d, want %d", i, rr.Code, http.StatusOK)
		}
	}
	expectError(t, env.do("/api/v1/calendar/2023/locate/2023-01-01"), http.StatusTooManyRequests, "RATE_LIMITED")

	// operational routes are not limited
	if rr := env.do("/health"); rr.Code != http.StatusOK {
		t.Errorf("health Status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, false)

	if !rl.limiter("10.0.0.1").Allow() {
		t.Fatal("first request from 10.0.0.1 rejected")
	}
	if rl.limiter("10.0.0.1").Allow() {
		t.Error("second request from 10.0.0.1 allowed")
	}
	if !rl.limiter("10.0.0.2").Allow() {
		t.Error("first request from 10.0.0.2 rejected")
	}

	rl.evict(-time.Second)
	if len(rl.visitors) != 0 {
		t.Errorf("%d visitors left after evict", len(rl.visitors))
	}
}

func TestRateLimiter_IgnoresForwardedFor(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, false)
	env := setupTest(t, rl)

	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/calendar/2023/locate/2023-01-01", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		want := http.StatusTooManyRequests
		if i == 0 {
			want = http.StatusOK
		}
		if rr.Code != want {
			t.Fatalf("request %d: Status = %d, want %d", i, rr.Code, want)
		}
	}

	if n := len(rl.visitors); n != 1 {
		t.Errorf("%d visitors tracked, want 1", n)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{name: "remote host", want: "192.0.2.7"},
		{name: "untrusted forwarded header", forwarded: "203.0.113.9", want: "192.0.2.7"},
		{name: "trusted proxy", forwarded: "203.0.113.9", trustProxy: true, want: "203.0.113.9"},
		{name: "trusted proxy chain", forwarded: " 203.0.113.9 , 10.0.0.1", trustProxy: true, want: "203.0.113.9"},
		{name: "trusted proxy empty header", forwarded: " , 10.0.0.1", trustProxy: true, want: "192.0.2.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.7:5555"
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	env := setupTest(t, nil)

	env.do("/api/v1/calendar/2023")
	env.do("/api/v1/calendar/2024")

	rr := env.do("/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", rr.Code, http.StatusOK)
	}

	body := rr.Body.String()
	want := `yearcal_http_requests_total{method="GET",route="/api/v1/calendar/{year}",status="200"} 2`
	if !strings.Contains(body, want) {
		t.Errorf("metrics missing %q:\n%s", want, body)
	}
	if !strings.Contains(body, "yearcal_http_request_duration_seconds_bucket") {
		t.Error("metrics missing duration histogram")
	}
}

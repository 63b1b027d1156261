package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/zapponejosh/yearcal/internal/api"
	"github.com/zapponejosh/yearcal/internal/calendar"
	"github.com/zapponejosh/yearcal/internal/config"
	"github.com/zapponejosh/yearcal/internal/display"
	"github.com/zapponejosh/yearcal/internal/locale"
	"github.com/zapponejosh/yearcal/internal/logger"
)

// printOptions are the flags of the root command.
type printOptions struct {
	startingDay int
	weekNumbers bool
	color       string
	locale      string
	today       string
}

// newRootCmd builds the command tree. Flag defaults come from cfg.
func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := printOptions{
		startingDay: cfg.StartingDay,
		weekNumbers: cfg.WeekNumbers,
		color:       cfg.Color,
		locale:      cfg.Locale,
	}

	cmd := &cobra.Command{
		Use:   "yearcal [YEAR]",
		Short: "Print a full-year calendar",
		Long: `Print the twelve months of a year as a 4x3 text grid.

Weekends and today are highlighted when color is enabled. Month and
weekday names follow the locale (LC_ALL, LC_TIME or LANG by default).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.startingDay, "starting-day", "s", opts.startingDay, "first day of the week, 0 (Sunday) to 6 (Saturday)")
	flags.BoolVarP(&opts.weekNumbers, "week-numbers", "w", opts.weekNumbers, "show week numbers")
	flags.StringVar(&opts.color, "color", opts.color, "color output: auto, always or never")
	flags.StringVarP(&opts.locale, "locale", "l", opts.locale, "locale for month and weekday names, e.g. hu_HU")
	flags.StringVar(&opts.today, "today", "", "date to highlight as today, YYYY-MM-DD")

	cmd.AddCommand(newServeCmd(cfg), newLocalesCmd())
	return cmd
}

func runPrint(cmd *cobra.Command, args []string, opts printOptions) error {
	now := time.Now()

	year := now.Year()
	if len(args) == 1 {
		y, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", calendar.ErrInvalidYear, args[0])
		}
		year = y
	}

	mode, err := display.ParseColorMode(opts.color)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorOn := display.Enabled(mode, out)

	today := calendar.DateOf(now)
	if opts.today != "" {
		if today, err = calendar.ParseDate(opts.today); err != nil {
			return err
		}
	}

	engine, err := calendar.NewEngine(calendar.DefaultShape())
	if err != nil {
		return err
	}

	names := locale.Resolve(opts.locale)
	slog.Debug("rendering calendar",
		slog.Int("year", year),
		slog.String("locale", names.Tag),
		slog.Int("starting_day", opts.startingDay),
		slog.Bool("color", colorOn),
	)

	grid, err := engine.RenderYear(calendar.CalendarConfig{
		Year:            year,
		StartingWeekday: opts.startingDay,
		ShowWeekNumbers: opts.weekNumbers,
		Colorize:        colorOn,
		Locale:          names.Tag,
	}, names)
	if err != nil {
		return err
	}

	return display.NewPrinter(out, colorOn).Print(engine.Compose(grid, &today))
}

func newLocalesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locales",
		Short: "List the supported locales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, tag := range locale.Supported() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), tag); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	port := cfg.Port

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve calendars over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srvCfg := *cfg
			srvCfg.Port = port
			if err := srvCfg.ValidateServer(); err != nil {
				return fmt.Errorf("invalid server configuration: %w", err)
			}
			return serve(cmd.Context(), &srvCfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", port, "HTTP port to listen on")
	return cmd
}

// serve runs the HTTP server until SIGINT or SIGTERM.
func serve(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := slog.Default()

	engine, err := calendar.NewEngine(calendar.DefaultShape())
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	limiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy)
	go limiter.Cleanup(ctx, time.Minute, 3*time.Minute)

	handlers := api.NewHandlers(engine, cfg)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, limiter, reg, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting yearcal server",
			slog.String("env", cfg.Env),
			slog.Int("port", cfg.Port),
			slog.String("log_level", cfg.LogLevel),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server stopped", err)
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down yearcal server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

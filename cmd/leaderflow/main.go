package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"leaderflow/internal/config"
	"leaderflow/internal/ics"
	"leaderflow/internal/layout"
	appLog "leaderflow/internal/log"
	"leaderflow/internal/refresh"
	"leaderflow/internal/store"
	"leaderflow/internal/web"
)

const version = "0.1.0"

var (
	configPath string
	listenAddr string
	dateFlag   string
)

func main() {
	loadDotEnv(".env")

	rootCmd := &cobra.Command{
		Use:   "leaderflow",
		Short: "LeaderFlow calendar layout engine",
		Long: `LeaderFlow lays out a leader's agenda on a week time grid and a
month grid, resolves overlapping events into columns and reschedules
events dropped onto another day or time slot.

Environment Variables:
  LEADERFLOW_CONFIG   Config file path (default: ./leaderflow.yaml)
  LEADERFLOW_LISTEN   HTTP listen address (overrides config)`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", getEnv("LEADERFLOW_CONFIG", "leaderflow.yaml"), "Path to config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the ICS refresh schedule",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", getEnv("LEADERFLOW_LISTEN", ""), "HTTP listen address (overrides config if set)")

	weekCmd := &cobra.Command{
		Use:   "week",
		Short: "Print the week layout containing --date as JSON",
		RunE:  runWeek,
	}
	weekCmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Anchor day, YYYY-MM-DD (default: today)")

	monthCmd := &cobra.Command{
		Use:   "month",
		Short: "Print the month layout containing --date as JSON",
		RunE:  runMonth,
	}
	monthCmd.Flags().StringVarP(&dateFlag, "date", "d", "", "Anchor day, YYYY-MM-DD (default: today)")

	rootCmd.AddCommand(serveCmd, weekCmd, monthCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDotEnv loads KEY=VALUE pairs from path without overriding variables
// already set in the environment. A missing file is not an error.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		appLog.Warn("failed to load .env", "path", path, "reason", err.Error())
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// app is everything a command needs, built from one config file.
type app struct {
	cfg       *config.Config
	store     *store.Store
	refresher *refresh.Refresher
}

func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if lvl, ok := appLog.ParseLevel(cfg.LogLevel); ok {
		appLog.SetLevel(lvl)
	}

	st := store.New()
	if cfg.Seed {
		st.Seed(time.Now().In(cfg.Location()))
	}

	a := &app{cfg: cfg, store: st}
	if len(cfg.ICS) > 0 {
		a.refresher = refresh.New(cfg, st, ics.NewFetcher(cfg.CacheDir, nil))
	}
	return a, nil
}

// refreshOnce pulls every feed once. Feed failures are logged, not fatal.
func (a *app) refreshOnce(ctx context.Context) {
	if a.refresher == nil {
		return
	}
	if err := a.refresher.Run(ctx); err != nil {
		appLog.Warn("initial refresh had failures", "reason", err.Error())
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	appLog.Info("leaderflow starting", "version", version)

	a, err := newApp(configPath)
	if err != nil {
		appLog.Error("failed to start", err, "config_path", configPath)
		return err
	}
	if listenAddr != "" {
		a.cfg.Listen = listenAddr
	}

	appLog.Info("effective config",
		"listen", a.cfg.Listen,
		"timezone", a.cfg.Timezone,
		"overlap", a.cfg.Overlap,
		"refresh", a.cfg.RefreshCron,
		"horizon_days", a.cfg.HorizonDays,
		"show_all_day", a.cfg.ShowAllDay,
		"ics_count", len(a.cfg.ICS),
		"seed", a.cfg.Seed,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Nil interface when no feeds are configured, not a typed nil.
	var r web.Refresher
	if a.refresher != nil {
		a.refreshOnce(ctx)
		if err := a.refresher.Start(ctx, a.cfg.RefreshCron); err != nil {
			return err
		}
		defer a.refresher.Stop()
		r = a.refresher
	}

	if err := web.NewServer(a.cfg, a.store, r).ListenAndServe(ctx); err != nil {
		appLog.Error("http server failed", err)
		return err
	}
	appLog.Info("leaderflow exiting")
	return nil
}

func runWeek(cmd *cobra.Command, _ []string) error {
	a, anchor, err := prepareLayout(cmd.Context())
	if err != nil {
		return err
	}
	week := layout.WeekLayout(a.store.List(), anchor, a.cfg.Bounds(), a.cfg.Strategy())
	return printJSON(cmd.OutOrStdout(), week)
}

func runMonth(cmd *cobra.Command, _ []string) error {
	a, anchor, err := prepareLayout(cmd.Context())
	if err != nil {
		return err
	}
	month := layout.MonthLayout(a.store.List(), anchor, a.cfg.MonthVisibleEvents)
	return printJSON(cmd.OutOrStdout(), month)
}

func prepareLayout(ctx context.Context) (*app, time.Time, error) {
	a, err := newApp(configPath)
	if err != nil {
		return nil, time.Time{}, err
	}
	anchor, err := parseAnchor(dateFlag, time.Now(), a.cfg.Location())
	if err != nil {
		return nil, time.Time{}, err
	}
	a.refreshOnce(ctx)
	return a, anchor, nil
}

// parseAnchor reads a YYYY-MM-DD day in loc; empty means the day of now.
func parseAnchor(v string, now time.Time, loc *time.Location) (time.Time, error) {
	if v == "" {
		return layout.StartOfDay(now.In(loc)), nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

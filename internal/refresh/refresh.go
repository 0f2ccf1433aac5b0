// Package refresh keeps the store in step with the subscribed ICS feeds,
// once on demand or periodically on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"leaderflow/internal/config"
	"leaderflow/internal/ics"
	appLog "leaderflow/internal/log"
	"leaderflow/internal/model"
	"leaderflow/internal/store"
)

// source is a configured feed with its resolved event type.
type source struct {
	feed ics.Feed
	typ  model.EventType
}

// Refresher runs fetch → parse → expand → store.ReplaceSource for every
// configured feed. A failing feed keeps its previously imported events.
type Refresher struct {
	fetcher *ics.Fetcher
	store   *store.Store
	sources []source

	loc          *time.Location
	backfillDays int
	horizonDays  int
	showAllDay   bool
	now          func() time.Time

	mu sync.Mutex // serializes runs

	cronMu sync.Mutex
	cron   *cron.Cron
}

// New builds a Refresher from cfg. Feeds with an unknown type fall back to
// meetings; config.Validate rejects those before we get here.
func New(cfg *config.Config, st *store.Store, f *ics.Fetcher) *Refresher {
	r := &Refresher{
		fetcher:      f,
		store:        st,
		loc:          cfg.Location(),
		backfillDays: cfg.BackfillDays,
		horizonDays:  cfg.HorizonDays,
		showAllDay:   cfg.ShowAllDay,
		now:          time.Now,
	}
	for _, c := range cfg.ICS {
		typ, err := model.ParseEventType(c.Type)
		if err != nil {
			typ = model.TypeMeeting
		}
		r.sources = append(r.sources, source{
			feed: ics.Feed{ID: c.SourceID(), URL: c.URL},
			typ:  typ,
		})
	}
	return r
}

// Sources returns the number of configured feeds.
func (r *Refresher) Sources() int {
	return len(r.sources)
}

// Run refreshes every feed once and returns the joined per-feed errors.
func (r *Refresher) Run(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	var errs []error
	for _, src := range r.sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := r.refreshOne(ctx, src); err != nil {
			appLog.Error("feed refresh failed", err, "feed", src.feed.ID)
			errs = append(errs, fmt.Errorf("%s: %w", src.feed.ID, err))
		}
	}
	appLog.Info("refresh completed", "feeds", len(r.sources), "failed", len(errs), "took", time.Since(start).Round(time.Millisecond))
	return errors.Join(errs...)
}

func (r *Refresher) refreshOne(ctx context.Context, src source) error {
	fetched, err := r.fetcher.Fetch(ctx, src.feed)
	if err != nil {
		return err
	}
	entries, err := ics.Parse(src.feed, fetched.Body)
	if err != nil {
		return err
	}
	if !r.showAllDay {
		kept := entries[:0]
		for _, e := range entries {
			if !e.AllDay {
				kept = append(kept, e)
			}
		}
		entries = kept
	}

	w := ics.WindowAround(r.now(), r.backfillDays, r.horizonDays, r.loc)
	exp, err := ics.Expand(entries, src.typ, w)
	if err != nil {
		return err
	}
	if err := r.store.ReplaceSource(src.feed.ID, exp.Events); err != nil {
		return err
	}
	appLog.Info("feed refreshed", "feed", src.feed.ID, "events", len(exp.Events), "from_cache", fetched.FromCache, "truncated", len(exp.Truncated))
	return nil
}

// ErrStarted is returned by Start while a schedule is already running.
var ErrStarted = errors.New("refresh: already started")

// Start schedules Run on schedule (standard 5-field cron, evaluated in the
// display zone). Overlapping runs are skipped. Call Stop before starting
// again.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	r.cronMu.Lock()
	defer r.cronMu.Unlock()
	if r.cron != nil {
		return ErrStarted
	}

	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(r.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(schedule, func() {
		if err := r.Run(ctx); err != nil {
			appLog.Warn("scheduled refresh had failures", "reason", err.Error())
		}
	}); err != nil {
		return fmt.Errorf("refresh: bad schedule %q: %w", schedule, err)
	}

	r.cron = c
	c.Start()
	appLog.Info("refresh scheduled", "cron", schedule, "feeds", len(r.sources))
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.cronMu.Lock()
	c := r.cron
	r.cron = nil
	r.cronMu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}

// cronLogger routes robfig/cron's logging through appLog.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...any) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...any) {
	appLog.Error("cron: "+msg, err, kv...)
}

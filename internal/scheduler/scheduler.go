// Package scheduler sweeps the store once per interval and delivers every
// post whose time of day equals the current minute.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/postbot/core/logger"
	"github.com/m3rciful/postbot/core/telegram/sender"
	"github.com/m3rciful/postbot/internal/clock"
	"github.com/m3rciful/postbot/internal/delivery"
	"github.com/m3rciful/postbot/internal/storage"
)

// Store is the read side the scheduler needs.
type Store interface {
	PostsDueAt(ctx context.Context, timeOfDay string) ([]storage.Post, error)
}

// Deliverer publishes a single post.
type Deliverer interface {
	Deliver(ctx context.Context, p storage.Post) (delivery.Outcome, error)
}

// Pool runs jobs without blocking the caller. *sender.Dispatcher satisfies it.
type Pool interface {
	Enqueue(ctx context.Context, action string, run sender.Job) error
}

// Recorder observes sweeps.
type Recorder interface {
	TickDone(due int, seconds float64)
	TickFailed()
}

// TickReport summarizes one sweep.
type TickReport struct {
	TickID string
	Key    string
	Due    int
	Queued int
	// Inline counts jobs started on their own goroutine because the pool refused them.
	Inline int
}

// Scheduler owns the sweep loop.
type Scheduler struct {
	cfg     Config
	loc     *time.Location
	store   Store
	deliver Deliverer
	pool    Pool
	rec     Recorder
	now     func() time.Time

	// inline tracks deliveries the pool refused.
	inline sync.WaitGroup
}

// New builds a Scheduler from a normalized Config. rec may be nil.
func New(cfg Config, store Store, d Deliverer, pool Pool, rec Recorder) (*Scheduler, error) {
	loc, err := clock.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = DefaultDelivery
	}
	return &Scheduler{
		cfg:     cfg,
		loc:     loc,
		store:   store,
		deliver: d,
		pool:    pool,
		rec:     rec,
		now:     time.Now,
	}, nil
}

// Run waits FirstRunDelay, then sweeps every Interval until ctx is done.
// A failed sweep is logged and the loop keeps going. Deliveries the pool
// refused are waited for before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.inline.Wait()

	logger.SCHED.Info("scheduler started",
		slog.String("event", "scheduler.start"),
		slog.String("tz", s.loc.String()),
		slog.Duration("interval", s.cfg.Interval),
		slog.Duration("first_run_delay", s.cfg.FirstRunDelay),
	)

	timer := time.NewTimer(s.cfg.FirstRunDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		_, _ = s.Tick(ctx, s.now())
		select {
		case <-ctx.Done():
			logger.SCHED.Info("scheduler stopped", slog.String("event", "scheduler.stop"))
			return nil
		case <-ticker.C:
		}
	}
}

// Tick performs one sweep for the minute containing now.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (TickReport, error) {
	start := time.Now()
	report := TickReport{
		TickID: uuid.NewString(),
		Key:    clock.Key(now, s.loc),
	}
	ctx = logger.WithRID(ctx, report.TickID)

	due, err := s.store.PostsDueAt(ctx, report.Key)
	if err != nil {
		if s.rec != nil {
			s.rec.TickFailed()
		}
		logger.LogEvent(ctx, logger.SCHED, slog.LevelError, "tick.fail",
			slog.String("status", "fail"),
			slog.String("time_of_day", report.Key),
			slog.String("err", err.Error()),
		)
		return report, fmt.Errorf("scheduler: tick %s: %w", report.Key, err)
	}
	report.Due = len(due)

	// Deliveries outlive the sweep so shutdown lets queued posts finish.
	jobCtx := context.WithoutCancel(ctx)
	for _, p := range due {
		run := s.job(p)
		if err := s.pool.Enqueue(jobCtx, "deliver", run); err != nil {
			logger.LogEvent(ctx, logger.SCHED, slog.LevelWarn, "tick.inline",
				slog.Int64("post_id", p.ID),
				slog.String("err", err.Error()),
			)
			s.runInline(jobCtx, run)
			report.Inline++
			continue
		}
		report.Queued++
	}

	took := time.Since(start)
	if s.rec != nil {
		s.rec.TickDone(report.Due, took.Seconds())
	}
	level := slog.LevelDebug
	if report.Due > 0 {
		level = slog.LevelInfo
	}
	logger.LogEvent(ctx, logger.SCHED, level, "tick.done",
		slog.String("status", "ok"),
		slog.String("time_of_day", report.Key),
		slog.Int("count", report.Due),
		slog.Int("queued", report.Queued),
		slog.Int("inline", report.Inline),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return report, nil
}

// runInline delivers outside the pool so a stalled send never holds the sweep.
func (s *Scheduler) runInline(ctx context.Context, run sender.Job) {
	s.inline.Add(1)
	go func() {
		defer s.inline.Done()
		ctx, cancel := context.WithTimeout(ctx, s.cfg.DeliveryTimeout)
		defer cancel()
		_ = run(ctx)
	}()
}

func (s *Scheduler) job(p storage.Post) sender.Job {
	return func(ctx context.Context) error {
		_, err := s.deliver.Deliver(ctx, p)
		return err
	}
}

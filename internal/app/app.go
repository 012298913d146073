// Package app composes the bot: storage, conversation flow, delivery,
// scheduler and the health server around the Telegram runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/postbot/core/bootstrap"
	"github.com/m3rciful/postbot/core/logger"
	coretelegram "github.com/m3rciful/postbot/core/telegram"
	"github.com/m3rciful/postbot/core/telegram/sender"
	"github.com/m3rciful/postbot/internal/bot"
	"github.com/m3rciful/postbot/internal/delivery"
	"github.com/m3rciful/postbot/internal/flow"
	"github.com/m3rciful/postbot/internal/health"
	"github.com/m3rciful/postbot/internal/metrics"
	"github.com/m3rciful/postbot/internal/scheduler"
	"github.com/m3rciful/postbot/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// App holds the infrastructure created at boot.
type App struct {
	cfg     *Config
	store   *storage.Postgres
	metrics *metrics.Metrics
}

// Bootstrap starts logging, connects to Postgres and migrates the schema.
func Bootstrap(cfg *Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:        &cfg.Config,
		Database:      cfg.Database,
		Migrations:    storage.Migrations,
		MigrationsDir: storage.MigrationsDir,
	})
	if err != nil {
		return nil, err
	}
	return &App{
		cfg:     cfg,
		store:   storage.NewPostgres(res.DB),
		metrics: metrics.New(),
	}, nil
}

// TelegramRunOptions wires the bot handlers, and the scheduler and health
// server as lifecycle hooks.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	tb, err := coretelegram.NewBot(&a.cfg.Config)
	if err != nil {
		return coretelegram.RunOptions{}, err
	}
	client := bot.NewClient(tb)

	machine := flow.New(a.store, client,
		flow.WithZoneLabel(a.cfg.Scheduler.ZoneLabel),
		flow.WithRecorder(a.metrics),
	)
	if err := a.metrics.ObserveSessions(machine.Sessions); err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: %w", err)
	}
	handlers := bot.NewHandlers(machine, a.cfg.Scheduler.ZoneLabel)
	reg := coretelegram.NewRegistry()
	if err := handlers.Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	lc := &lifecycle{
		app:    a,
		engine: delivery.NewEngine(client, a.metrics),
	}

	return coretelegram.RunOptions{
		Config:   &a.cfg.Config,
		Registry: reg,
		Bot:      tb,
		// No send retries: a timed-out post may already be published.
		DispatcherOptions: sender.Options{
			Workers:     a.cfg.Scheduler.Workers,
			QueueSize:   a.cfg.Scheduler.QueueSize,
			MaxDuration: a.cfg.Scheduler.DeliveryTimeout,
		},
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Config, onLimited),
		Routes:      handlers.Routes(reg),
		OnStart:     lc.start,
		OnStop:      lc.stop,
	}, nil
}

func onLimited(c tele.Context) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Slow down a little."})
	}
	return nil
}

// lifecycle runs the scheduler and the health server alongside the bot.
type lifecycle struct {
	app    *App
	engine *delivery.Engine

	http   *health.Server
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (l *lifecycle) start(ctx context.Context, rt coretelegram.Runtime) error {
	cfg := l.app.cfg
	sched, err := scheduler.New(cfg.Scheduler, l.app.store, l.engine, rt.Dispatcher, l.app.metrics)
	if err != nil {
		return err
	}
	if err := l.app.metrics.ObservePool(rt.Dispatcher); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	if !cfg.Health.Disabled {
		l.http = health.New(cfg.Health, l.app.store, l.app.metrics.Registry)
		if err := l.http.Start(); err != nil {
			return err
		}
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	l.cancel = cancel
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := sched.Run(runCtx); err != nil {
			logger.SCHED.Error("scheduler exited",
				slog.String("event", "scheduler.fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// stop halts the sweep before the runtime drains queued deliveries.
func (l *lifecycle) stop(ctx context.Context, _ coretelegram.Runtime) error {
	if l.cancel != nil {
		l.cancel()
	}
	l.wg.Wait()

	var errs []error
	if l.http != nil {
		shCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		errs = append(errs, l.http.Shutdown(shCtx))
	}
	return errors.Join(errs...)
}

// Close releases the database pool. The runner calls it after the runtime stopped.
func (a *App) Close() error {
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("app: close store: %w", err)
	}
	return nil
}

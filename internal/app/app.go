package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/clock"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/command"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/config"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/notify"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/scheduler"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/session"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/store"
	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/telegram"
)

const (
	updateQueue = 64
	// Above the 30s long poll timeout so GetUpdates is never cut short.
	botHTTPTimeout = time.Minute
)

// Core is the transport-independent part of the bot: schedule, session
// engine, command interpreter and trigger.
type Core struct {
	Schedule *store.Schedule
	Events   store.EventLog
	Sessions *session.Manager
	Commands *command.Interpreter
	Trigger  *scheduler.Trigger
	Router   *telegram.Router
}

// NewCore wires the engine around an already opened store and sink.
func NewCore(cfg config.Config, log *zap.Logger, clk clock.Clock, sink notify.Sink, sched *store.Schedule, events store.EventLog) *Core {
	sessions := session.NewManager(clk, sink, events, log, session.Config{
		PromptInterval: cfg.PromptInterval,
		Deadline:       cfg.SessionDeadline,
	})
	commands := command.New(sched, cfg.AdminIDs, events, clk, log)
	trigger := scheduler.New(clk, sched, sessions, events, log, scheduler.Config{
		Location:   cfg.Location(),
		TargetID:   cfg.TargetID,
		Recipients: cfg.RecipientIDs,
		Interval:   cfg.TriggerInterval,
		Tolerance:  cfg.TriggerTolerance,
	})
	return &Core{
		Schedule: sched,
		Events:   events,
		Sessions: sessions,
		Commands: commands,
		Trigger:  trigger,
		Router:   telegram.NewRouter(sink, sessions, commands, cfg.TargetID, log),
	}
}

// Close stops the live session and releases the store.
func (c *Core) Close() error {
	c.Sessions.Stop()
	return c.Schedule.Close()
}

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	core    *Core
	updates chan tgbotapi.Update
	httpSrv *http.Server
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: botHTTPTimeout})
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	sched, events, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("store ready", zap.String("backend", sched.Backend()))

	sink := notify.NewLimited(telegram.NewSink(bot), cfg.SendRate, cfg.SendBurst)
	a := &App{
		cfg:     cfg,
		log:     log,
		bot:     bot,
		core:    NewCore(cfg, log, clock.Real(), sink, sched, events),
		updates: make(chan tgbotapi.Update, updateQueue),
	}
	a.httpSrv = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      a.core.Routes(a.webhook()),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return a, nil
}

func (a *App) webhook() http.Handler {
	if a.cfg.RunMode != config.ModeWebhook {
		return nil
	}
	return telegram.WebhookHandler(a.cfg.WebhookSecret, a.updates, a.log)
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting okite-bot",
		zap.String("mode", a.cfg.RunMode),
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("tz", a.cfg.TZ),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.startUpdates(); err != nil {
		_ = a.core.Close()
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		a.core.Trigger.Run(ctx)
		return nil
	})
	g.Go(func() error {
		a.dispatch(ctx)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.log.Info("shutdown signal received")
		a.stopUpdates()

		// Create a short-lived shutdown context and cancel it immediately after use.
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := a.httpSrv.Shutdown(shCtx)
		cancel()
		if err != nil {
			a.log.Warn("http server shutdown error", zap.Error(err))
		}
		return nil
	})

	err := g.Wait()
	if cerr := a.core.Close(); cerr != nil {
		a.log.Warn("store close error", zap.Error(cerr))
	}
	return err
}

// startUpdates registers the webhook or starts long polling. Polled
// updates are forwarded into the same queue the webhook fills.
func (a *App) startUpdates() error {
	if a.cfg.RunMode == config.ModeWebhook {
		if err := telegram.SetWebhook(a.bot, a.cfg.WebhookURL, a.cfg.WebhookSecret); err != nil {
			return err
		}
		a.log.Info("webhook registered")
		return nil
	}

	if err := telegram.DeleteWebhook(a.bot); err != nil {
		a.log.Warn("deleteWebhook failed", zap.Error(err))
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)
	go func() {
		for upd := range updCh {
			a.updates <- upd
		}
	}()
	return nil
}

func (a *App) stopUpdates() {
	if a.cfg.RunMode == config.ModePolling {
		a.bot.StopReceivingUpdates()
	}
}

// dispatch handles queued updates one at a time until ctx is done.
func (a *App) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd := <-a.updates:
			// Handling outlives the request that delivered the update.
			hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			a.core.Router.HandleUpdate(hctx, upd)
			cancel()
		}
	}
}

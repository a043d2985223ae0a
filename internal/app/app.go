// Package app assembles the trading core and runs its long-lived parts.
package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"dipper/internal/bot"
	"dipper/internal/config"
	"dipper/internal/executor"
	"dipper/internal/logger"
	"dipper/internal/market"
	"dipper/internal/store"
	"dipper/internal/strategy"
	httpapi "dipper/internal/transport/http"
	"dipper/internal/transport/ws"
)

// Version is stamped via -ldflags at release time.
var Version = "dev"

type App struct {
	cfg     *config.Config
	engine  *strategy.Engine
	exec    *executor.Executor
	source  market.Source
	signals *store.SignalStore
	hub     *ws.Hub
	bot     *bot.Bot

	watcher *config.Watcher
}

// New builds the app from the config file at path. The config file is watched;
// trigger and coin list edits apply without a restart.
func New(path string) (*App, error) {
	watcher, err := config.Watch(path)
	if err != nil {
		return nil, err
	}
	a, err := build(watcher.Snapshot())
	if err != nil {
		return nil, err
	}
	a.watcher = watcher
	a.watcher.Subscribe(func(next *config.Config) {
		a.engine.SetTriggers(triggersFromConfig(next.Triggers))
		a.bot.SetCoins(next.Coins)
	})
	return a, nil
}

// Run starts the bot, the HTTP server and the push hub, then blocks until ctx
// is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	server, err := httpapi.NewServer(a.cfg.App.HTTPAddr, httpapi.Deps{
		BotCtx:    ctx,
		Bot:       a.bot,
		Engine:    a.engine,
		Executor:  a.exec,
		Source:    a.source,
		Signals:   a.signals,
		Hub:       a.hub,
		PaperMode: a.cfg.Trading.PaperMode,
		Version:   Version,
	})
	if err != nil {
		return err
	}

	group.Go(func() error {
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		if err := a.hub.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	if err := a.bot.Start(ctx); err != nil {
		return err
	}

	err = group.Wait()
	a.bot.Stop()
	if closeErr := a.signals.Close(); closeErr != nil {
		logger.Warnf("app: closing signal store failed: %v", closeErr)
	}
	return err
}

// Bot exposes the polling loop, used by tests and replay harnesses.
func (a *App) Bot() *bot.Bot { return a.bot }

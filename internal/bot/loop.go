// Package bot runs the polling loop that ties market data, the strategy
// engine and the executor together.
package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"dipper/internal/config"
	"dipper/internal/executor"
	"dipper/internal/indicator"
	"dipper/internal/logger"
	"dipper/internal/market"
	"dipper/internal/scheduler"
	"dipper/internal/store"
	"dipper/internal/strategy"
	"dipper/internal/transport/ws"
)

type Params struct {
	Trading  config.TradingConfig
	Coins    []string
	Source   market.Source
	Calc     *indicator.Calculator
	Engine   *strategy.Engine
	Executor *executor.Executor
	Signals  *store.SignalStore
	Hub      *ws.Hub
}

// Bot polls every configured symbol on a fixed interval and pushes the
// resulting signals through the executor. Start and Stop may be called
// repeatedly from HTTP handlers; the mutex guards the running state only,
// never the polling work itself.
type Bot struct {
	trading config.TradingConfig
	source  market.Source
	calc    *indicator.Calculator
	engine  *strategy.Engine
	exec    *executor.Executor
	signals *store.SignalStore
	hub     *ws.Hub

	mu        sync.Mutex
	coins     []string
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(p Params) *Bot {
	return &Bot{
		trading: p.Trading,
		source:  p.Source,
		calc:    p.Calc,
		engine:  p.Engine,
		exec:    p.Executor,
		signals: p.Signals,
		hub:     p.Hub,
		coins:   append([]string(nil), p.Coins...),
	}
}

// Start launches the polling loop. Returns an error when already running.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return fmt.Errorf("bot already running")
	}
	loopCtx, cancel := context.WithCancel(ctx)
	b.running = true
	b.startedAt = time.Now()
	b.cancel = cancel
	b.done = make(chan struct{})

	interval := time.Duration(b.trading.PollIntervalSeconds) * time.Second
	sched := scheduler.NewIntervalScheduler(interval)
	go func() {
		defer close(b.done)
		sched.Start(loopCtx, b.pollOnce)
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	mode := "live"
	if b.trading.PaperMode {
		mode = "paper"
	}
	// b.mu is held; read the slice directly instead of going through Coins
	logger.Infof("bot: started in %s mode, %d symbols, poll every %s", mode, len(b.coins), interval)
	return nil
}

// Stop cancels the loop and waits for the current cycle to finish.
func (b *Bot) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}
	logger.Infof("bot: stopped")
}

func (b *Bot) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

func (b *Bot) StartedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.startedAt
}

func (b *Bot) Coins() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.coins...)
}

// SetCoins swaps the watched symbol list, used by the config hot reload. The
// change takes effect on the next cycle.
func (b *Bot) SetCoins(coins []string) {
	b.mu.Lock()
	b.coins = append([]string(nil), coins...)
	b.mu.Unlock()
}

// pollOnce evaluates every symbol. A failure on one symbol never stops the
// others.
func (b *Bot) pollOnce(ctx context.Context) {
	started := time.Now()
	for _, symbol := range b.Coins() {
		if ctx.Err() != nil {
			return
		}
		if err := b.evaluateSymbol(ctx, symbol); err != nil {
			pollErrorsTotal.WithLabelValues(symbol).Inc()
			logger.Warnf("bot: %s evaluation failed: %v", symbol, err)
		}
	}
	openPositions.Set(float64(b.engine.OpenPositionCount()))
	if b.trading.PaperMode {
		paperBalance.Set(b.exec.Balance(ctx)[b.trading.QuoteCurrency])
	}
	pollDuration.Observe(time.Since(started).Seconds())
}

func (b *Bot) evaluateSymbol(ctx context.Context, symbol string) error {
	candles, err := b.source.Candles(ctx, symbol, b.trading.CandleInterval, b.trading.CandleLimit)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}
	price, err := b.source.CurrentPrice(ctx, symbol)
	if err != nil {
		// stale close from the candles still allows an evaluation
		logger.Debugf("bot: %s ticker fetch failed, using last close: %v", symbol, err)
		price = 0
	}

	snap := b.calc.All(candles, price)
	// the rolling 24h ticker beats the candle window for range-based triggers
	if stats, err := b.source.Stats24h(ctx, symbol); err == nil && stats.High > 0 {
		snap.High24h = stats.High
		snap.Low24h = stats.Low
		snap.DipPercent = indicator.DipPercent(snap.Price, stats.High)
		snap.RisePercent = indicator.RisePercent(snap.Price, stats.Low)
	}
	sig := b.engine.Evaluate(symbol, snap)
	evaluationsTotal.WithLabelValues(symbol, string(sig.Type)).Inc()

	var orderID string
	if sig.Type != strategy.SignalHold {
		logger.Infof("bot: %s signal %s @ %.2f [%s]", symbol, sig.Type, sig.Price, strings.Join(sig.Reasons, "; "))
		order := b.exec.ExecuteSignal(ctx, sig, b.trading.DefaultAmountUSD)
		if order != nil {
			orderID = order.OrderID
			ordersTotal.WithLabelValues(symbol, string(order.Side)).Inc()
			if b.hub != nil {
				b.hub.Publish("order", order)
			}
		}
	}

	if b.hub != nil && sig.Type != strategy.SignalHold {
		b.hub.Publish("signal", sig)
	}
	if b.signals != nil {
		if err := b.signals.Record(ctx, sig, snap.RSI, snap.DipPercent, orderID); err != nil {
			logger.Warnf("bot: %s signal log write failed: %v", symbol, err)
		}
	}
	return nil
}

package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dipper/internal/config"
	"dipper/internal/executor"
	"dipper/internal/indicator"
	"dipper/internal/market"
	"dipper/internal/strategy"
)

type fakeSource struct {
	price   float64
	candles []market.Candle
	stats   market.Stats24h
	err     error
}

func (f *fakeSource) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.price, nil
}

func (f *fakeSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candles, nil
}

func (f *fakeSource) Stats24h(ctx context.Context, symbol string) (market.Stats24h, error) {
	if f.stats.High > 0 {
		return f.stats, nil
	}
	return market.Stats24h{LastPrice: f.price}, nil
}

func flatCandles(n int, price float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		out[i] = market.Candle{Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 100}
	}
	return out
}

// alwaysBuy fires on any snapshot so the loop path can be tested without
// constructing indicator-perfect candles.
func alwaysBuyTriggers() strategy.TriggerConfig {
	return strategy.TriggerConfig{
		Buy:  strategy.BuyTriggers{RSIBelow: 100, DipPercent: 0, VolumeSpike: 0, Enabled: true},
		Sell: strategy.SellTriggers{RSIAbove: 70, RisePercent: 10, StopLoss: 5, TakeProfit: 15, Enabled: true},
	}
}

func testTrading() config.TradingConfig {
	return config.TradingConfig{
		PaperMode:           true,
		QuoteCurrency:       "USDT",
		InitialBalance:      10000,
		DefaultAmountUSD:    100,
		MinAmountUSD:        10,
		MaxAmountUSD:        1000,
		MaxOpenPositions:    5,
		MaxPerSymbol:        1,
		PollIntervalSeconds: 1,
		CandleInterval:      "1h",
		CandleLimit:         100,
	}
}

func newTestBot(t *testing.T, triggers strategy.TriggerConfig, source market.Source) (*Bot, *strategy.Engine, *executor.Executor) {
	t.Helper()
	trading := testTrading()
	engine := strategy.NewEngine(strategy.EngineParams{
		Triggers:     triggers,
		MaxOpen:      trading.MaxOpenPositions,
		MaxPerSymbol: trading.MaxPerSymbol,
	})
	exec := executor.New(executor.Config{
		PaperMode:      trading.PaperMode,
		QuoteCurrency:  trading.QuoteCurrency,
		InitialBalance: trading.InitialBalance,
		MinAmountUSD:   trading.MinAmountUSD,
		MaxAmountUSD:   trading.MaxAmountUSD,
	}, engine, nil, nil)

	b := New(Params{
		Trading:  trading,
		Coins:    []string{"BTCUSDT"},
		Source:   source,
		Calc:     indicator.NewCalculator(),
		Engine:   engine,
		Executor: exec,
	})
	return b, engine, exec
}

func TestEvaluateSymbolExecutesBuy(t *testing.T) {
	source := &fakeSource{price: 100, candles: flatCandles(30, 100)}
	b, engine, exec := newTestBot(t, alwaysBuyTriggers(), source)

	require.NoError(t, b.evaluateSymbol(context.Background(), "BTCUSDT"))

	assert.Equal(t, 1, engine.OpenPositionCount())
	require.Len(t, exec.OrderHistory(), 1)
	assert.Equal(t, "PAPER-1", exec.OrderHistory()[0].OrderID)
	assert.Equal(t, 9900.0, exec.Balance(context.Background())["USDT"])
}

func TestEvaluateSymbolHoldDoesNothing(t *testing.T) {
	source := &fakeSource{price: 100, candles: flatCandles(30, 100)}
	// flat market trips none of the default conditions
	triggers := strategy.TriggerConfig{
		Buy:  strategy.BuyTriggers{RSIBelow: 30, DipPercent: 5, VolumeSpike: 1.5, Enabled: true},
		Sell: strategy.SellTriggers{RSIAbove: 70, RisePercent: 10, StopLoss: 5, TakeProfit: 15, Enabled: true},
	}
	b, engine, exec := newTestBot(t, triggers, source)

	require.NoError(t, b.evaluateSymbol(context.Background(), "BTCUSDT"))
	assert.Equal(t, 0, engine.OpenPositionCount())
	assert.Empty(t, exec.OrderHistory())
}

func TestEvaluateSymbolSourceFailure(t *testing.T) {
	source := &fakeSource{err: errors.New("rate limited")}
	b, _, exec := newTestBot(t, alwaysBuyTriggers(), source)

	err := b.evaluateSymbol(context.Background(), "BTCUSDT")
	assert.Error(t, err)
	assert.Empty(t, exec.OrderHistory())
}

func TestPollOnceToleratesFailingSymbol(t *testing.T) {
	source := &fakeSource{err: errors.New("down")}
	b, _, _ := newTestBot(t, alwaysBuyTriggers(), source)
	b.SetCoins([]string{"BTCUSDT", "ETHUSDT"})

	// must not panic or abort on the first failure
	b.pollOnce(context.Background())
}

func TestStartReturnsPromptly(t *testing.T) {
	source := &fakeSource{price: 100, candles: flatCandles(30, 100)}
	b, _, _ := newTestBot(t, alwaysBuyTriggers(), source)

	done := make(chan error, 1)
	go func() { done <- b.Start(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return within 3s")
	}
	b.Stop()
}

func TestStartStopLifecycle(t *testing.T) {
	source := &fakeSource{price: 100, candles: flatCandles(30, 100)}
	b, _, _ := newTestBot(t, alwaysBuyTriggers(), source)

	require.False(t, b.Running())
	require.NoError(t, b.Start(context.Background()))
	assert.True(t, b.Running())
	assert.Error(t, b.Start(context.Background()), "double start")

	b.Stop()
	assert.False(t, b.Running())

	// restart after stop works
	require.NoError(t, b.Start(context.Background()))
	b.Stop()
}

func TestEvaluateSymbolUsesTickerRange(t *testing.T) {
	// candle window is flat, but the 24h ticker shows a deep dip; the ticker
	// range wins for the dip condition
	source := &fakeSource{
		price:   100,
		candles: flatCandles(30, 100),
		stats:   market.Stats24h{High: 150, Low: 90},
	}
	triggers := alwaysBuyTriggers()
	triggers.Buy.RSIBelow = 100
	triggers.Buy.DipPercent = 30 // 100 vs high 150 is a 33% dip
	triggers.Buy.VolumeSpike = 0
	b, engine, _ := newTestBot(t, triggers, source)

	require.NoError(t, b.evaluateSymbol(context.Background(), "BTCUSDT"))
	assert.Equal(t, 1, engine.OpenPositionCount())
}

func TestSetCoins(t *testing.T) {
	source := &fakeSource{price: 100, candles: flatCandles(30, 100)}
	b, _, _ := newTestBot(t, alwaysBuyTriggers(), source)

	b.SetCoins([]string{"ETHUSDT", "SOLUSDT"})
	assert.Equal(t, []string{"ETHUSDT", "SOLUSDT"}, b.Coins())
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  env: test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.True(t, cfg.Trading.PaperMode)
	assert.Equal(t, 10000.0, cfg.Trading.InitialBalance)
	assert.Equal(t, 100.0, cfg.Trading.DefaultAmountUSD)
	assert.Equal(t, 5, cfg.Trading.MaxOpenPositions)
	assert.Equal(t, 1, cfg.Trading.MaxPerSymbol)
	assert.Equal(t, "1h", cfg.Trading.CandleInterval)
	assert.Equal(t, 30, cfg.Trading.LiveOrderTimeoutSec)
	assert.Equal(t, 30.0, cfg.Triggers.Buy.RSIBelow)
	assert.Equal(t, 70.0, cfg.Triggers.Sell.RSIAbove)
	assert.Contains(t, cfg.Coins, "BTCUSDT")
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
trading:
  paper_mode: false
  initial_balance: 500
  max_open_positions: 2
triggers:
  buy:
    rsi_below: 20
coins:
  - ETHUSDT
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Trading.PaperMode)
	assert.Equal(t, 500.0, cfg.Trading.InitialBalance)
	assert.Equal(t, 2, cfg.Trading.MaxOpenPositions)
	assert.Equal(t, 20.0, cfg.Triggers.Buy.RSIBelow)
	assert.Equal(t, []string{"ETHUSDT"}, cfg.Coins)
	// untouched trigger fields keep defaults
	assert.Equal(t, 5.0, cfg.Triggers.Buy.DipPercent)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative amount":      "trading:\n  min_amount_usd: -1\n",
		"min above max":        "trading:\n  min_amount_usd: 2000\n",
		"zero max positions":   "trading:\n  max_open_positions: 0\n",
		"zero poll interval":   "trading:\n  poll_interval_seconds: 0\n",
		"bad candle interval":  "trading:\n  candle_interval: soon\n",
		"negative trigger":     "triggers:\n  sell:\n    stop_loss: -5\n",
		"negative balance":     "trading:\n  initial_balance: -100\n",
		"non-positive candles": "trading:\n  candle_limit: 0\n",
		"zero live timeout":    "trading:\n  live_order_timeout_seconds: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestWatcherSnapshotAndSubscribe(t *testing.T) {
	path := writeConfig(t, "app:\n  env: watch\n")

	w, err := Watch(path)
	require.NoError(t, err)
	assert.Equal(t, "watch", w.Snapshot().App.Env)

	got := make(chan *Config, 1)
	w.Subscribe(func(cfg *Config) {
		select {
		case got <- cfg:
		default:
		}
	})
	cfg := <-got
	assert.Equal(t, "watch", cfg.App.Env, "subscribe delivers the current snapshot")
}

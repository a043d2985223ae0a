package config

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"dipper/internal/scheduler"
)

// Load reads the YAML config at path, fills in defaults for anything the file
// does not set, and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigFile(abs)
	v.SetConfigType("yaml")
	applyDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", abs, err)
	}
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	t := cfg.Trading
	if t.MinAmountUSD < 0 || t.MaxAmountUSD < 0 || t.DefaultAmountUSD < 0 {
		return fmt.Errorf("trading amounts must be non-negative")
	}
	if t.MaxAmountUSD > 0 && t.MinAmountUSD > t.MaxAmountUSD {
		return fmt.Errorf("trading.min_amount_usd (%.2f) exceeds trading.max_amount_usd (%.2f)", t.MinAmountUSD, t.MaxAmountUSD)
	}
	if t.MaxOpenPositions <= 0 {
		return fmt.Errorf("trading.max_open_positions must be positive")
	}
	if t.MaxPerSymbol <= 0 {
		return fmt.Errorf("trading.max_per_symbol must be positive")
	}
	if t.PollIntervalSeconds <= 0 {
		return fmt.Errorf("trading.poll_interval_seconds must be positive")
	}
	if _, ok := scheduler.ParseIntervalDuration(t.CandleInterval); !ok {
		return fmt.Errorf("trading.candle_interval %q is not a valid interval", t.CandleInterval)
	}
	if t.CandleLimit <= 0 {
		return fmt.Errorf("trading.candle_limit must be positive")
	}
	if t.LiveOrderTimeoutSec <= 0 {
		return fmt.Errorf("trading.live_order_timeout_seconds must be positive")
	}
	if t.InitialBalance < 0 {
		return fmt.Errorf("trading.initial_balance must be non-negative")
	}
	for _, pair := range []struct {
		key string
		val float64
	}{
		{"triggers.buy.rsi_below", cfg.Triggers.Buy.RSIBelow},
		{"triggers.buy.dip_percent", cfg.Triggers.Buy.DipPercent},
		{"triggers.buy.volume_spike", cfg.Triggers.Buy.VolumeSpike},
		{"triggers.sell.rsi_above", cfg.Triggers.Sell.RSIAbove},
		{"triggers.sell.rise_percent", cfg.Triggers.Sell.RisePercent},
		{"triggers.sell.stop_loss", cfg.Triggers.Sell.StopLoss},
		{"triggers.sell.take_profit", cfg.Triggers.Sell.TakeProfit},
	} {
		if pair.val < 0 {
			return fmt.Errorf("%s must be non-negative", pair.key)
		}
	}
	return nil
}

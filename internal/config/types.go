package config

// Config is the top-level configuration for dipper.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Triggers TriggersConfig `mapstructure:"triggers"`
	Coins    []string       `mapstructure:"coins"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
	HTTPAddr string `mapstructure:"http_addr"`
}

// ExchangeConfig describes the exchange the live adapter and the market data
// source talk to. Paper mode never sends credentials anywhere.
type ExchangeConfig struct {
	Name           string `mapstructure:"name"`
	APIKey         string `mapstructure:"api_key"`
	APISecret      string `mapstructure:"api_secret"`
	RESTBaseURL    string `mapstructure:"rest_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type TradingConfig struct {
	PaperMode           bool    `mapstructure:"paper_mode"`
	QuoteCurrency       string  `mapstructure:"quote_currency"`
	InitialBalance      float64 `mapstructure:"initial_balance"`
	DefaultAmountUSD    float64 `mapstructure:"default_amount_usd"`
	MinAmountUSD        float64 `mapstructure:"min_amount_usd"`
	MaxAmountUSD        float64 `mapstructure:"max_amount_usd"`
	MaxOpenPositions    int     `mapstructure:"max_open_positions"`
	MaxPerSymbol        int     `mapstructure:"max_per_symbol"`
	PollIntervalSeconds int     `mapstructure:"poll_interval_seconds"`
	CandleInterval      string  `mapstructure:"candle_interval"`
	CandleLimit         int     `mapstructure:"candle_limit"`
	LiveOrderTimeoutSec int     `mapstructure:"live_order_timeout_seconds"`
	LedgerPath          string  `mapstructure:"ledger_path"`
	SignalLogPath       string  `mapstructure:"signal_log_path"`
}

// TriggersConfig seeds the strategy engine; the running values can diverge
// after /api/triggers updates or a config hot reload.
type TriggersConfig struct {
	Buy  BuyTriggersConfig  `mapstructure:"buy"`
	Sell SellTriggersConfig `mapstructure:"sell"`
}

type BuyTriggersConfig struct {
	RSIBelow    float64 `mapstructure:"rsi_below"`
	DipPercent  float64 `mapstructure:"dip_percent"`
	VolumeSpike float64 `mapstructure:"volume_spike"`
	Enabled     bool    `mapstructure:"enabled"`
}

type SellTriggersConfig struct {
	RSIAbove    float64 `mapstructure:"rsi_above"`
	RisePercent float64 `mapstructure:"rise_percent"`
	StopLoss    float64 `mapstructure:"stop_loss"`
	TakeProfit  float64 `mapstructure:"take_profit"`
	Enabled     bool    `mapstructure:"enabled"`
}

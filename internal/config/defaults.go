package config

import "github.com/spf13/viper"

const (
	defaultAppEnv       = "dev"
	defaultAppLogLevel  = "info"
	defaultAppHTTPAddr  = ":8080"
	defaultExchangeName = "binance"
	defaultExchangeREST = "https://api.binance.com"
	defaultExchangeWait = 15

	defaultQuoteCurrency  = "USDT"
	defaultInitialBalance = 10000.0
	defaultAmountUSD      = 100.0
	defaultMinAmountUSD   = 10.0
	defaultMaxAmountUSD   = 1000.0
	defaultMaxOpen        = 5
	defaultMaxPerSymbol   = 1
	defaultPollSeconds    = 10
	defaultCandleInterval = "1h"
	defaultCandleLimit    = 100
	defaultLiveTimeout    = 30
	defaultLedgerPath     = "data/ledger.json"
	defaultSignalLogPath  = "data/signals.db"

	defaultBuyRSIBelow     = 30.0
	defaultBuyDipPercent   = 5.0
	defaultBuyVolumeSpike  = 1.5
	defaultSellRSIAbove    = 70.0
	defaultSellRisePercent = 10.0
	defaultSellStopLoss    = 5.0
	defaultSellTakeProfit  = 15.0
)

var defaultCoins = []string{
	"BTCUSDT",
	"ETHUSDT",
	"SOLUSDT",
	"XRPUSDT",
	"DOGEUSDT",
	"ADAUSDT",
	"AVAXUSDT",
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.env", defaultAppEnv)
	v.SetDefault("app.log_level", defaultAppLogLevel)
	v.SetDefault("app.http_addr", defaultAppHTTPAddr)
	v.SetDefault("app.log_path", "")

	v.SetDefault("exchange.name", defaultExchangeName)
	v.SetDefault("exchange.rest_base_url", defaultExchangeREST)
	v.SetDefault("exchange.timeout_seconds", defaultExchangeWait)

	v.SetDefault("trading.paper_mode", true)
	v.SetDefault("trading.quote_currency", defaultQuoteCurrency)
	v.SetDefault("trading.initial_balance", defaultInitialBalance)
	v.SetDefault("trading.default_amount_usd", defaultAmountUSD)
	v.SetDefault("trading.min_amount_usd", defaultMinAmountUSD)
	v.SetDefault("trading.max_amount_usd", defaultMaxAmountUSD)
	v.SetDefault("trading.max_open_positions", defaultMaxOpen)
	v.SetDefault("trading.max_per_symbol", defaultMaxPerSymbol)
	v.SetDefault("trading.poll_interval_seconds", defaultPollSeconds)
	v.SetDefault("trading.candle_interval", defaultCandleInterval)
	v.SetDefault("trading.candle_limit", defaultCandleLimit)
	v.SetDefault("trading.live_order_timeout_seconds", defaultLiveTimeout)
	v.SetDefault("trading.ledger_path", defaultLedgerPath)
	v.SetDefault("trading.signal_log_path", defaultSignalLogPath)

	v.SetDefault("triggers.buy.rsi_below", defaultBuyRSIBelow)
	v.SetDefault("triggers.buy.dip_percent", defaultBuyDipPercent)
	v.SetDefault("triggers.buy.volume_spike", defaultBuyVolumeSpike)
	v.SetDefault("triggers.buy.enabled", true)
	v.SetDefault("triggers.sell.rsi_above", defaultSellRSIAbove)
	v.SetDefault("triggers.sell.rise_percent", defaultSellRisePercent)
	v.SetDefault("triggers.sell.stop_loss", defaultSellStopLoss)
	v.SetDefault("triggers.sell.take_profit", defaultSellTakeProfit)
	v.SetDefault("triggers.sell.enabled", true)

	v.SetDefault("coins", defaultCoins)
}

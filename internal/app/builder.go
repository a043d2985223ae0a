package app

import (
	"fmt"
	"time"

	"dipper/internal/bot"
	"dipper/internal/config"
	"dipper/internal/exchange"
	"dipper/internal/executor"
	"dipper/internal/indicator"
	"dipper/internal/ledger"
	"dipper/internal/logger"
	"dipper/internal/market"
	"dipper/internal/store"
	"dipper/internal/strategy"
	"dipper/internal/transport/ws"
)

// build wires every component explicitly, config first, leaves last. Nothing
// here is global; two apps in one process would not share state.
func build(cfg *config.Config) (*App, error) {
	logger.SetLevel(cfg.App.LogLevel)

	ledgerFile, err := ledger.NewFile(cfg.Trading.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}

	engine := strategy.NewEngine(strategy.EngineParams{
		Triggers:     triggersFromConfig(cfg.Triggers),
		MaxOpen:      cfg.Trading.MaxOpenPositions,
		MaxPerSymbol: cfg.Trading.MaxPerSymbol,
	})

	var adapter exchange.Adapter
	if !cfg.Trading.PaperMode {
		binanceAdapter, err := exchange.NewBinanceAdapter(exchange.BinanceConfig{
			APIKey:      cfg.Exchange.APIKey,
			APISecret:   cfg.Exchange.APISecret,
			RESTBaseURL: cfg.Exchange.RESTBaseURL,
			HTTPTimeout: time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("init exchange adapter: %w", err)
		}
		adapter = binanceAdapter
	}

	exec := executor.New(executor.Config{
		PaperMode:      cfg.Trading.PaperMode,
		QuoteCurrency:  cfg.Trading.QuoteCurrency,
		InitialBalance: cfg.Trading.InitialBalance,
		MinAmountUSD:   cfg.Trading.MinAmountUSD,
		MaxAmountUSD:   cfg.Trading.MaxAmountUSD,
		LiveTimeout:    time.Duration(cfg.Trading.LiveOrderTimeoutSec) * time.Second,
	}, engine, adapter, ledgerFile)

	source := market.NewBinanceSource(market.BinanceConfig{
		APIKey:      cfg.Exchange.APIKey,
		APISecret:   cfg.Exchange.APISecret,
		RESTBaseURL: cfg.Exchange.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Exchange.TimeoutSeconds) * time.Second,
	})

	signals, err := store.NewSignalStore(cfg.Trading.SignalLogPath)
	if err != nil {
		return nil, fmt.Errorf("init signal store: %w", err)
	}

	hub := ws.NewHub()

	trader := bot.New(bot.Params{
		Trading:  cfg.Trading,
		Coins:    cfg.Coins,
		Source:   source,
		Calc:     indicator.NewCalculator(),
		Engine:   engine,
		Executor: exec,
		Signals:  signals,
		Hub:      hub,
	})

	return &App{
		cfg:     cfg,
		engine:  engine,
		exec:    exec,
		source:  source,
		signals: signals,
		hub:     hub,
		bot:     trader,
	}, nil
}

func triggersFromConfig(t config.TriggersConfig) strategy.TriggerConfig {
	return strategy.TriggerConfig{
		Buy: strategy.BuyTriggers{
			RSIBelow:    t.Buy.RSIBelow,
			DipPercent:  t.Buy.DipPercent,
			VolumeSpike: t.Buy.VolumeSpike,
			Enabled:     t.Buy.Enabled,
		},
		Sell: strategy.SellTriggers{
			RSIAbove:    t.Sell.RSIAbove,
			RisePercent: t.Sell.RisePercent,
			StopLoss:    t.Sell.StopLoss,
			TakeProfit:  t.Sell.TakeProfit,
			Enabled:     t.Sell.Enabled,
		},
	}
}

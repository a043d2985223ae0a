package market

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
)

const maxCandleLimit = 1000

// BinanceConfig controls the spot REST client.
type BinanceConfig struct {
	APIKey      string
	APISecret   string
	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c BinanceConfig) withDefaults() BinanceConfig {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	return c
}

// BinanceSource implements Source on top of the go-binance spot SDK, with a
// short-lived price cache so a tight polling loop does not hammer the ticker
// endpoint.
type BinanceSource struct {
	client *binance.Client
	prices *priceCache
}

func NewBinanceSource(cfg BinanceConfig) *BinanceSource {
	final := cfg.withDefaults()
	client := binance.NewClient(final.APIKey, final.APISecret)
	if base := strings.TrimSpace(final.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &BinanceSource{
		client: client,
		prices: newPriceCache(10 * time.Second),
	}
}

func (s *BinanceSource) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return 0, fmt.Errorf("symbol is required")
	}
	if price, ok := s.prices.get(symbol); ok {
		return price, nil
	}
	res, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch price %s: %w", symbol, err)
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("no price returned for %s", symbol)
	}
	price, err := strconv.ParseFloat(res[0].Price, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q for %s: %w", res[0].Price, symbol, err)
	}
	s.prices.put(symbol, price)
	return price, nil
}

func (s *BinanceSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if interval == "" {
		interval = "1h"
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxCandleLimit {
		limit = maxCandleLimit
	}
	klines, err := s.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch klines %s %s: %w", symbol, interval, err)
	}
	candles := make([]Candle, 0, len(klines))
	for _, k := range klines {
		candles = append(candles, Candle{
			OpenTime:  k.OpenTime,
			CloseTime: k.CloseTime,
			Open:      parseFloat(k.Open),
			High:      parseFloat(k.High),
			Low:       parseFloat(k.Low),
			Close:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
		})
	}
	return candles, nil
}

func (s *BinanceSource) Stats24h(ctx context.Context, symbol string) (Stats24h, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Stats24h{}, fmt.Errorf("symbol is required")
	}
	res, err := s.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return Stats24h{}, fmt.Errorf("fetch 24h stats %s: %w", symbol, err)
	}
	if len(res) == 0 {
		return Stats24h{}, fmt.Errorf("no 24h stats returned for %s", symbol)
	}
	st := res[0]
	return Stats24h{
		LastPrice:     parseFloat(st.LastPrice),
		High:          parseFloat(st.HighPrice),
		Low:           parseFloat(st.LowPrice),
		Volume:        parseFloat(st.Volume),
		ChangePercent: parseFloat(st.PriceChangePercent),
	}, nil
}

func parseFloat(raw string) float64 {
	val, _ := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	return val
}

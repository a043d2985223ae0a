package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dipper/internal/bot"
	"dipper/internal/config"
	"dipper/internal/executor"
	"dipper/internal/indicator"
	"dipper/internal/market"
	"dipper/internal/strategy"
)

type stubSource struct {
	price float64
}

func (s *stubSource) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return s.price, nil
}

func (s *stubSource) Candles(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	return nil, nil
}

func (s *stubSource) Stats24h(ctx context.Context, symbol string) (market.Stats24h, error) {
	return market.Stats24h{LastPrice: s.price}, nil
}

func newTestServer(t *testing.T) (*Server, *strategy.Engine, *executor.Executor) {
	t.Helper()
	engine := strategy.NewEngine(strategy.EngineParams{
		Triggers: strategy.TriggerConfig{
			Buy:  strategy.BuyTriggers{RSIBelow: 30, DipPercent: 5, VolumeSpike: 1.5, Enabled: true},
			Sell: strategy.SellTriggers{RSIAbove: 70, RisePercent: 10, StopLoss: 5, TakeProfit: 15, Enabled: true},
		},
		MaxOpen:      5,
		MaxPerSymbol: 1,
	})
	exec := executor.New(executor.Config{
		PaperMode:      true,
		QuoteCurrency:  "USDT",
		InitialBalance: 10000,
		MinAmountUSD:   10,
		MaxAmountUSD:   1000,
	}, engine, nil, nil)
	trader := bot.New(bot.Params{
		Trading: config.TradingConfig{
			PaperMode:           true,
			QuoteCurrency:       "USDT",
			DefaultAmountUSD:    100,
			PollIntervalSeconds: 1,
			CandleInterval:      "1h",
			CandleLimit:         100,
		},
		Coins:    []string{"BTCUSDT", "ETHUSDT"},
		Source:   &stubSource{price: 50000},
		Calc:     indicator.NewCalculator(),
		Engine:   engine,
		Executor: exec,
	})

	server, err := NewServer(":0", Deps{
		BotCtx:    context.Background(),
		Bot:       trader,
		Engine:    engine,
		Executor:  exec,
		Source:    &stubSource{price: 50000},
		PaperMode: true,
		Version:   "test",
	})
	require.NoError(t, err)
	t.Cleanup(trader.Stop)
	return server, engine, exec
}

func doRequest(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatus(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "paper", body["mode"])
	assert.Equal(t, false, body["running"])
	assert.Equal(t, float64(0), body["open_positions"])
}

func TestGetAndUpdateTriggers(t *testing.T) {
	server, engine, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/triggers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/triggers", `{"buy": {"rsi_below": 25}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25.0, engine.Triggers().Buy.RSIBelow)

	rec = doRequest(t, server, http.MethodPost, "/api/triggers", `{"buy": {"rsi_below": -1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 25.0, engine.Triggers().Buy.RSIBelow, "rejected update changes nothing")
}

func TestPositionsAndTrades(t *testing.T) {
	server, engine, exec := newTestServer(t)

	sig := strategy.Signal{Type: strategy.SignalBuy, Symbol: "BTCUSDT", Price: 10, Reasons: []string{"test"}}
	require.NotNil(t, exec.ExecuteSignal(context.Background(), sig, 100))
	require.Equal(t, 1, engine.OpenPositionCount())

	rec := doRequest(t, server, http.MethodGet, "/api/positions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BTCUSDT")

	rec = doRequest(t, server, http.MethodGet, "/api/trades?status=open", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TRADE-1")

	rec = doRequest(t, server, http.MethodGet, "/api/trades?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, http.MethodGet, "/api/orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "PAPER-1")
}

func TestPrices(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/api/prices", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Prices map[string]float64 `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 50000.0, body.Prices["BTCUSDT"])
	assert.Equal(t, 50000.0, body.Prices["ETHUSDT"])
}

func TestWalletEndpoints(t *testing.T) {
	server, _, exec := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/wallet/deposit", `{"amount": 500}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10500.0, exec.Balance(context.Background())["USDT"])

	rec = doRequest(t, server, http.MethodPost, "/api/wallet/withdraw", `{"amount": 99999}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/wallet/deposit", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/wallet/reset", `{"amount": 10000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10000.0, exec.Balance(context.Background())["USDT"])
}

func TestBotStartStop(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, "/api/bot/start", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/bot/start", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/bot/stop", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignalsWithoutStore(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/api/signals", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t)
	rec := doRequest(t, server, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

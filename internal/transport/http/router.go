package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dipper/internal/bot"
	"dipper/internal/executor"
	"dipper/internal/market"
	"dipper/internal/store"
	"dipper/internal/strategy"
	"dipper/internal/transport/ws"
)

// Deps carries everything the handlers touch. BotCtx outlives any single
// request; the bot started from a handler must not die with the response.
type Deps struct {
	BotCtx   context.Context
	Bot      *bot.Bot
	Engine   *strategy.Engine
	Executor *executor.Executor
	Source   market.Source
	Signals  *store.SignalStore
	Hub      *ws.Hub

	PaperMode bool
	Version   string
}

func (d Deps) validate() error {
	if d.Bot == nil || d.Engine == nil || d.Executor == nil {
		return errors.New("http server requires bot, engine and executor")
	}
	return nil
}

func registerRoutes(router *gin.Engine, deps Deps) {
	h := &handlers{deps: deps}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if deps.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			deps.Hub.Handle(c.Writer, c.Request)
		})
	}

	api := router.Group("/api")
	api.GET("/status", h.status)
	api.GET("/triggers", h.getTriggers)
	api.POST("/triggers", h.updateTriggers)
	api.GET("/positions", h.positions)
	api.GET("/trades", h.trades)
	api.GET("/orders", h.orders)
	api.GET("/prices", h.prices)
	api.GET("/signals", h.signals)
	api.GET("/balance", h.balance)
	api.POST("/bot/start", h.startBot)
	api.POST("/bot/stop", h.stopBot)
	api.POST("/wallet/deposit", h.deposit)
	api.POST("/wallet/withdraw", h.withdraw)
	api.POST("/wallet/reset", h.reset)
}

type handlers struct {
	deps Deps
}

func (h *handlers) status(c *gin.Context) {
	mode := "live"
	if h.deps.PaperMode {
		mode = "paper"
	}
	resp := gin.H{
		"mode":           mode,
		"running":        h.deps.Bot.Running(),
		"coins":          h.deps.Bot.Coins(),
		"open_positions": h.deps.Engine.OpenPositionCount(),
		"total_pnl":      h.deps.Executor.TotalPnL(),
		"version":        h.deps.Version,
	}
	if started := h.deps.Bot.StartedAt(); !started.IsZero() {
		resp["started_at"] = started
		resp["uptime"] = time.Since(started).Truncate(time.Second).String()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) getTriggers(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Engine.Triggers())
}

// updateTriggers merges the posted fields into the running config. Validation
// failures leave the config untouched and report 400.
func (h *handlers) updateTriggers(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reading body failed"})
		return
	}
	updated, err := h.deps.Engine.UpdateTriggers(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *handlers) positions(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Engine.Positions())
}

func (h *handlers) trades(c *gin.Context) {
	var trades []executor.Trade
	switch strings.ToLower(c.Query("status")) {
	case "open":
		trades = h.deps.Executor.OpenTrades()
	case "closed":
		trades = h.deps.Executor.ClosedTrades()
	case "":
		trades = h.deps.Executor.TradeHistory()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be open or closed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "total_pnl": h.deps.Executor.TotalPnL()})
}

func (h *handlers) orders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"orders": h.deps.Executor.OrderHistory()})
}

func (h *handlers) balance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"balance": h.deps.Executor.Balance(c.Request.Context())})
}

// prices fetches the current price per watched symbol. A symbol that fails is
// omitted rather than failing the whole response.
func (h *handlers) prices(c *gin.Context) {
	if h.deps.Source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market data source not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	prices := make(map[string]float64)
	for _, symbol := range h.deps.Bot.Coins() {
		price, err := h.deps.Source.CurrentPrice(ctx, symbol)
		if err != nil {
			continue
		}
		prices[symbol] = price
	}
	c.JSON(http.StatusOK, gin.H{"prices": prices})
}

func (h *handlers) signals(c *gin.Context) {
	if h.deps.Signals == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal log not enabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	q := store.SignalQuery{
		Symbol: c.Query("symbol"),
		Signal: strings.ToUpper(c.Query("signal")),
		Limit:  limit,
	}
	if since := c.Query("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		q.Since = ts
	}
	records, err := h.deps.Signals.Recent(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": records})
}

func (h *handlers) startBot(c *gin.Context) {
	ctx := h.deps.BotCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := h.deps.Bot.Start(ctx); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"running": true})
}

func (h *handlers) stopBot(c *gin.Context) {
	h.deps.Bot.Stop()
	c.JSON(http.StatusOK, gin.H{"running": false})
}

type amountRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

func (h *handlers) deposit(c *gin.Context) {
	h.walletOp(c, h.deps.Executor.DepositPaperFunds)
}

func (h *handlers) withdraw(c *gin.Context) {
	h.walletOp(c, h.deps.Executor.WithdrawPaperFunds)
}

func (h *handlers) reset(c *gin.Context) {
	h.walletOp(c, h.deps.Executor.ResetPaperFunds)
}

func (h *handlers) walletOp(c *gin.Context, op func(float64) error) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}
	if err := op(req.Amount); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": h.deps.Executor.Balance(c.Request.Context())})
}

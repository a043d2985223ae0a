package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"dipper/internal/exchange"
	"dipper/internal/logger"
	"dipper/internal/strategy"
)

// simulated taker fee applied to paper fills
var paperFeeRate = decimal.NewFromFloat(0.001)

// Config controls one executor instance.
type Config struct {
	PaperMode      bool
	QuoteCurrency  string
	InitialBalance float64
	MinAmountUSD   float64
	MaxAmountUSD   float64
	LiveTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.QuoteCurrency) == "" {
		c.QuoteCurrency = "USDT"
	}
	if c.LiveTimeout <= 0 {
		c.LiveTimeout = 30 * time.Second
	}
	return c
}

// LedgerStore persists the executor's snapshot after every mutation. A nil
// store disables persistence.
type LedgerStore interface {
	Save(v any) error
	LoadBalance() (map[string]float64, bool)
}

// Executor turns signals into orders and trades. Paper mode fills against the
// internal balance; live mode delegates to the exchange adapter. One mutex
// guards balance, orders and trades for the whole of ExecuteSignal so the
// polling loop and HTTP readers never see torn state. Position mutations go
// through the engine, which carries its own lock.
type Executor struct {
	cfg     Config
	engine  *strategy.Engine
	adapter exchange.Adapter
	store   LedgerStore

	mu       sync.Mutex
	orders   []Order
	trades   []Trade
	orderSeq int
	tradeSeq int
	balance  map[string]decimal.Decimal
}

func New(cfg Config, engine *strategy.Engine, adapter exchange.Adapter, store LedgerStore) *Executor {
	final := cfg.withDefaults()
	x := &Executor{
		cfg:     final,
		engine:  engine,
		adapter: adapter,
		store:   store,
		balance: map[string]decimal.Decimal{
			final.QuoteCurrency: decimal.NewFromFloat(final.InitialBalance),
		},
	}
	x.restoreBalance()
	return x
}

// restoreBalance loads only the paper balance from the ledger. Historical
// trades and orders are deliberately not replayed into memory; counters start
// fresh each process.
func (x *Executor) restoreBalance() {
	if x.store == nil {
		return
	}
	saved, ok := x.store.LoadBalance()
	if !ok {
		return
	}
	restored := make(map[string]decimal.Decimal, len(saved))
	for currency, amount := range saved {
		restored[currency] = decimal.NewFromFloat(amount)
	}
	if _, ok := restored[x.cfg.QuoteCurrency]; !ok {
		restored[x.cfg.QuoteCurrency] = decimal.NewFromFloat(x.cfg.InitialBalance)
	}
	x.balance = restored
	logger.Infof("executor: restored paper balance %s %s", x.balance[x.cfg.QuoteCurrency], x.cfg.QuoteCurrency)
}

// ExecuteSignal carries a signal through to an order. Rejections (amount out
// of bounds, no capacity, insufficient balance, adapter failure) are logged
// and produce no order and no state change.
func (x *Executor) ExecuteSignal(ctx context.Context, sig strategy.Signal, amountUSD float64) *Order {
	if sig.Type == strategy.SignalHold {
		return nil
	}
	if amountUSD < x.cfg.MinAmountUSD {
		logger.Warnf("executor: trade amount %.2f below minimum %.2f, rejected", amountUSD, x.cfg.MinAmountUSD)
		return nil
	}
	if x.cfg.MaxAmountUSD > 0 && amountUSD > x.cfg.MaxAmountUSD {
		logger.Warnf("executor: trade amount %.2f capped at %.2f", amountUSD, x.cfg.MaxAmountUSD)
		amountUSD = x.cfg.MaxAmountUSD
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	switch sig.Type {
	case strategy.SignalBuy:
		return x.executeBuy(ctx, sig, amountUSD)
	case strategy.SignalSell:
		return x.executeSell(ctx, sig)
	default:
		return nil
	}
}

func (x *Executor) executeBuy(ctx context.Context, sig strategy.Signal, amountUSD float64) *Order {
	symbol := sig.Symbol
	price := sig.Price
	if price <= 0 {
		logger.Errorf("executor: invalid price for %s: %v", symbol, price)
		return nil
	}
	quantity, _ := decimal.NewFromFloat(amountUSD).Div(decimal.NewFromFloat(price)).Float64()
	if !x.engine.CanOpenPosition(symbol) {
		logger.Warnf("executor: cannot open position for %s: limit reached or position exists", symbol)
		return nil
	}
	if x.cfg.PaperMode {
		return x.paperBuy(symbol, quantity, price, sig)
	}
	return x.liveBuy(ctx, symbol, quantity, price, sig)
}

func (x *Executor) paperBuy(symbol string, quantity, price float64, sig strategy.Signal) *Order {
	cost := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(price))
	bal := x.balance[x.cfg.QuoteCurrency]
	if bal.LessThan(cost) {
		logger.Warnf("executor: insufficient paper balance for %s: need %s, have %s", symbol, cost, bal)
		return nil
	}
	x.balance[x.cfg.QuoteCurrency] = bal.Sub(cost)

	fee, _ := cost.Mul(paperFeeRate).Float64()
	order := x.appendOrder(Order{
		OrderID:        fmt.Sprintf("PAPER-%d", x.nextOrderSeq()),
		Symbol:         symbol,
		Side:           SideBuy,
		Type:           orderTypeMarket,
		Quantity:       quantity,
		RequestedPrice: price,
		FilledPrice:    price,
		Fee:            fee,
		Status:         OrderFilled,
		Timestamp:      time.Now(),
		IsPaper:        true,
	})
	x.openTrade(symbol, quantity, price, true)
	x.engine.AddPosition(symbol, price, quantity)

	costF, _ := cost.Float64()
	logger.Infof("PAPER BUY %s qty=%.6f price=%.2f cost=%.2f", symbol, quantity, price, costF)
	logger.Infof("  reasons: %s", strings.Join(sig.Reasons, ", "))
	x.persist()
	return order
}

func (x *Executor) liveBuy(ctx context.Context, symbol string, quantity, price float64, sig strategy.Signal) *Order {
	if x.adapter == nil {
		logger.Errorf("executor: exchange adapter not configured for live trading")
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, x.cfg.LiveTimeout)
	defer cancel()
	fill, err := x.adapter.MarketBuy(callCtx, symbol, quantity)
	if err != nil {
		logger.Errorf("executor: live buy %s failed: %v", symbol, err)
		return nil
	}
	filledPrice := fill.AveragePrice
	if filledPrice <= 0 {
		filledPrice = price
	}
	order := x.appendOrder(Order{
		OrderID:        fill.OrderID,
		Symbol:         symbol,
		Side:           SideBuy,
		Type:           orderTypeMarket,
		Quantity:       quantity,
		RequestedPrice: price,
		FilledPrice:    filledPrice,
		Fee:            fill.Fee,
		Status:         fillStatus(fill.Status),
		Timestamp:      time.Now(),
		IsPaper:        false,
	})
	x.openTrade(symbol, quantity, filledPrice, false)
	x.engine.AddPosition(symbol, filledPrice, quantity)

	logger.Infof("LIVE BUY %s qty=%.6f price=%.2f order=%s", symbol, quantity, filledPrice, fill.OrderID)
	logger.Infof("  reasons: %s", strings.Join(sig.Reasons, ", "))
	x.persist()
	return order
}

func (x *Executor) executeSell(ctx context.Context, sig strategy.Signal) *Order {
	symbol := sig.Symbol
	pos, ok := x.engine.GetPosition(symbol)
	if !ok {
		logger.Warnf("executor: no position to sell for %s", symbol)
		return nil
	}
	if x.cfg.PaperMode {
		return x.paperSell(symbol, pos.Quantity, sig.Price, pos.EntryPrice, sig)
	}
	return x.liveSell(ctx, symbol, pos.Quantity, sig.Price, pos.EntryPrice, sig)
}

func (x *Executor) paperSell(symbol string, quantity, price, entryPrice float64, sig strategy.Signal) *Order {
	proceeds := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(price))
	pnl, pnlPercent := roundTripPnL(quantity, entryPrice, proceeds)

	x.balance[x.cfg.QuoteCurrency] = x.balance[x.cfg.QuoteCurrency].Add(proceeds)

	fee, _ := proceeds.Mul(paperFeeRate).Float64()
	order := x.appendOrder(Order{
		OrderID:        fmt.Sprintf("PAPER-%d", x.nextOrderSeq()),
		Symbol:         symbol,
		Side:           SideSell,
		Type:           orderTypeMarket,
		Quantity:       quantity,
		RequestedPrice: price,
		FilledPrice:    price,
		Fee:            fee,
		Status:         OrderFilled,
		Timestamp:      time.Now(),
		IsPaper:        true,
	})
	x.closeTrade(symbol, price, pnl, pnlPercent)
	x.engine.ClosePosition(symbol)

	balF, _ := x.balance[x.cfg.QuoteCurrency].Float64()
	logger.Infof("PAPER SELL %s qty=%.6f price=%.2f pnl=%.2f (%.1f%%)", symbol, quantity, price, pnl, pnlPercent)
	logger.Infof("  reasons: %s", strings.Join(sig.Reasons, ", "))
	logger.Infof("  paper balance: %.2f %s", balF, x.cfg.QuoteCurrency)
	x.persist()
	return order
}

func (x *Executor) liveSell(ctx context.Context, symbol string, quantity, price, entryPrice float64, sig strategy.Signal) *Order {
	if x.adapter == nil {
		logger.Errorf("executor: exchange adapter not configured for live trading")
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, x.cfg.LiveTimeout)
	defer cancel()
	fill, err := x.adapter.MarketSell(callCtx, symbol, quantity)
	if err != nil {
		logger.Errorf("executor: live sell %s failed: %v", symbol, err)
		return nil
	}
	filledPrice := fill.AveragePrice
	if filledPrice <= 0 {
		filledPrice = price
	}
	proceeds := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(filledPrice))
	pnl, pnlPercent := roundTripPnL(quantity, entryPrice, proceeds)

	order := x.appendOrder(Order{
		OrderID:        fill.OrderID,
		Symbol:         symbol,
		Side:           SideSell,
		Type:           orderTypeMarket,
		Quantity:       quantity,
		RequestedPrice: price,
		FilledPrice:    filledPrice,
		Fee:            fill.Fee,
		Status:         fillStatus(fill.Status),
		Timestamp:      time.Now(),
		IsPaper:        false,
	})
	x.closeTrade(symbol, filledPrice, pnl, pnlPercent)
	x.engine.ClosePosition(symbol)

	logger.Infof("LIVE SELL %s qty=%.6f price=%.2f pnl=%.2f (%.1f%%) order=%s",
		symbol, quantity, filledPrice, pnl, pnlPercent, fill.OrderID)
	x.persist()
	return order
}

func roundTripPnL(quantity, entryPrice float64, proceeds decimal.Decimal) (pnl, pnlPercent float64) {
	cost := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(entryPrice))
	diff := proceeds.Sub(cost)
	pnl, _ = diff.Float64()
	if cost.IsPositive() {
		pct, _ := diff.Div(cost).Mul(decimal.NewFromInt(100)).Float64()
		pnlPercent = pct
	}
	return pnl, pnlPercent
}

func fillStatus(status string) OrderStatus {
	if status == exchange.FillStatusClosed {
		return OrderFilled
	}
	return OrderPending
}

func (x *Executor) nextOrderSeq() int {
	x.orderSeq++
	return x.orderSeq
}

func (x *Executor) appendOrder(order Order) *Order {
	x.orders = append(x.orders, order)
	return &order
}

func (x *Executor) openTrade(symbol string, quantity, entryPrice float64, paper bool) {
	x.tradeSeq++
	x.trades = append(x.trades, Trade{
		TradeID:    fmt.Sprintf("TRADE-%d", x.tradeSeq),
		Symbol:     symbol,
		Side:       TradeLong,
		Quantity:   quantity,
		EntryPrice: entryPrice,
		EntryTime:  time.Now(),
		IsPaper:    paper,
		Status:     TradeOpen,
	})
}

// closeTrade completes the first open trade for symbol, mirroring the
// one-position-per-symbol invariant.
func (x *Executor) closeTrade(symbol string, exitPrice, pnl, pnlPercent float64) {
	for i := range x.trades {
		t := &x.trades[i]
		if t.Symbol != symbol || t.Status != TradeOpen {
			continue
		}
		now := time.Now()
		t.ExitPrice = exitPrice
		t.ExitTime = &now
		t.PnL = pnl
		t.PnLPercent = pnlPercent
		t.Status = TradeClosed
		return
	}
	logger.Warnf("executor: no open trade found to close for %s", symbol)
}

// ledgerSnapshot is the persisted shape: {trades, orders, paper_balance}.
type ledgerSnapshot struct {
	Trades       []Trade            `json:"trades"`
	Orders       []Order            `json:"orders"`
	PaperBalance map[string]float64 `json:"paper_balance"`
}

// persist writes the full snapshot. Failures are warnings; in-memory state
// stays authoritative. Callers must hold x.mu.
func (x *Executor) persist() {
	if x.store == nil {
		return
	}
	snap := ledgerSnapshot{
		Trades:       append([]Trade(nil), x.trades...),
		Orders:       append([]Order(nil), x.orders...),
		PaperBalance: x.balanceFloats(),
	}
	if err := x.store.Save(snap); err != nil {
		logger.Warnf("executor: ledger save failed: %v", err)
	}
}

func (x *Executor) balanceFloats() map[string]float64 {
	out := make(map[string]float64, len(x.balance))
	for currency, amount := range x.balance {
		f, _ := amount.Float64()
		out[currency] = f
	}
	return out
}

package executor

import "github.com/shopspring/decimal"

// The query methods are pure projections over in-memory state; nothing is
// recomputed from the ledger file.

func (x *Executor) TradeHistory() []Trade {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]Trade(nil), x.trades...)
}

func (x *Executor) OrderHistory() []Order {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]Order(nil), x.orders...)
}

func (x *Executor) OpenTrades() []Trade {
	return x.tradesByStatus(TradeOpen)
}

func (x *Executor) ClosedTrades() []Trade {
	return x.tradesByStatus(TradeClosed)
}

func (x *Executor) tradesByStatus(status TradeStatus) []Trade {
	x.mu.Lock()
	defer x.mu.Unlock()
	var out []Trade
	for _, t := range x.trades {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out
}

// TotalPnL sums realized P&L over closed trades.
func (x *Executor) TotalPnL() float64 {
	x.mu.Lock()
	defer x.mu.Unlock()
	total := decimal.Zero
	for _, t := range x.trades {
		if t.Status == TradeClosed {
			total = total.Add(decimal.NewFromFloat(t.PnL))
		}
	}
	f, _ := total.Float64()
	return f
}

package executor

import "time"

// OrderStatus is the lifecycle state of a single execution attempt.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
	OrderFailed    OrderStatus = "failed"
)

type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// TradeStatus tracks a round trip from entry to exit.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
)

// TradeSide is the direction of the round trip. Only long is produced today;
// the type exists so shorts stay representable in the ledger format.
type TradeSide string

const TradeLong TradeSide = "long"

// Order is the immutable record of one execution attempt. Paper order IDs are
// PAPER-n; live orders carry the exchange-assigned ID.
type Order struct {
	OrderID        string      `json:"order_id"`
	Symbol         string      `json:"symbol"`
	Side           OrderSide   `json:"side"`
	Type           string      `json:"order_type"`
	Quantity       float64     `json:"quantity"`
	RequestedPrice float64     `json:"requested_price"`
	FilledPrice    float64     `json:"filled_price"`
	Fee            float64     `json:"fee"`
	Status         OrderStatus `json:"status"`
	Timestamp      time.Time   `json:"timestamp"`
	IsPaper        bool        `json:"is_paper"`
}

// Trade is the realized P&L record spanning a position's open-to-close
// lifecycle. ExitPrice stays 0 and ExitTime nil until the trade closes.
type Trade struct {
	TradeID    string      `json:"trade_id"`
	Symbol     string      `json:"symbol"`
	Side       TradeSide   `json:"side"`
	Quantity   float64     `json:"quantity"`
	EntryPrice float64     `json:"entry_price"`
	ExitPrice  float64     `json:"exit_price"`
	PnL        float64     `json:"pnl"`
	PnLPercent float64     `json:"pnl_percent"`
	EntryTime  time.Time   `json:"entry_time"`
	ExitTime   *time.Time  `json:"exit_time"`
	IsPaper    bool        `json:"is_paper"`
	Status     TradeStatus `json:"status"`
}

const orderTypeMarket = "market"

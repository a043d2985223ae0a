// Package exchange defines the adapter the executor uses in live mode. Paper
// mode never touches it.
package exchange

import "context"

// FillStatusClosed is the adapter-level status meaning the order fully filled.
// Anything else maps to a pending order upstream.
const FillStatusClosed = "closed"

// Fill is the adapter's report of a submitted market order.
type Fill struct {
	OrderID      string
	Status       string
	AveragePrice float64
	Fee          float64
}

// Adapter submits market orders and reports balances. Implementations must be
// safe for concurrent use; every call should honor ctx cancellation.
type Adapter interface {
	MarketBuy(ctx context.Context, symbol string, quantity float64) (Fill, error)

	MarketSell(ctx context.Context, symbol string, quantity float64) (Fill, error)

	FreeBalances(ctx context.Context) (map[string]float64, error)
}

package market

import "context"

type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Stats24h is the rolling 24h ticker for one symbol.
type Stats24h struct {
	LastPrice     float64 `json:"last_price"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Volume        float64 `json:"volume"`
	ChangePercent float64 `json:"change_percent"`
}

// Source provides the market data the strategy loop consumes. Implementations
// must be safe for concurrent use.
type Source interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)

	Candles(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)

	Stats24h(ctx context.Context, symbol string) (Stats24h, error)
}

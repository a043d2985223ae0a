package exchange

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
)

// BinanceConfig holds the credentials and endpoint for the spot adapter.
type BinanceConfig struct {
	APIKey      string
	APISecret   string
	RESTBaseURL string
	HTTPTimeout time.Duration
}

// BinanceAdapter implements Adapter against the Binance spot API.
type BinanceAdapter struct {
	client *binance.Client
}

func NewBinanceAdapter(cfg BinanceConfig) (*BinanceAdapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, fmt.Errorf("binance adapter requires api_key and api_secret")
	}
	client := binance.NewClient(cfg.APIKey, cfg.APISecret)
	if base := strings.TrimSpace(cfg.RESTBaseURL); base != "" {
		client.BaseURL = base
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &BinanceAdapter{client: client}, nil
}

func (a *BinanceAdapter) MarketBuy(ctx context.Context, symbol string, quantity float64) (Fill, error) {
	return a.submit(ctx, symbol, quantity, binance.SideTypeBuy)
}

func (a *BinanceAdapter) MarketSell(ctx context.Context, symbol string, quantity float64) (Fill, error) {
	return a.submit(ctx, symbol, quantity, binance.SideTypeSell)
}

func (a *BinanceAdapter) submit(ctx context.Context, symbol string, quantity float64, side binance.SideType) (Fill, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Fill{}, fmt.Errorf("symbol is required")
	}
	if quantity <= 0 {
		return Fill{}, fmt.Errorf("quantity must be positive, got %v", quantity)
	}
	res, err := a.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(strconv.FormatFloat(quantity, 'f', -1, 64)).
		Do(ctx)
	if err != nil {
		return Fill{}, fmt.Errorf("market %s %s: %w", strings.ToLower(string(side)), symbol, err)
	}
	return fillFromOrder(res), nil
}

func fillFromOrder(res *binance.CreateOrderResponse) Fill {
	fill := Fill{
		OrderID: strconv.FormatInt(res.OrderID, 10),
		Status:  mapStatus(res.Status),
	}
	var filledQty, notional, fee float64
	for _, f := range res.Fills {
		price, _ := strconv.ParseFloat(f.Price, 64)
		qty, _ := strconv.ParseFloat(f.Quantity, 64)
		commission, _ := strconv.ParseFloat(f.Commission, 64)
		filledQty += qty
		notional += price * qty
		fee += commission
	}
	if filledQty > 0 {
		fill.AveragePrice = notional / filledQty
	}
	fill.Fee = fee
	return fill
}

func mapStatus(status binance.OrderStatusType) string {
	if status == binance.OrderStatusTypeFilled {
		return FillStatusClosed
	}
	return strings.ToLower(string(status))
}

// FreeBalances returns every asset with a positive free amount.
func (a *BinanceAdapter) FreeBalances(ctx context.Context) (map[string]float64, error) {
	account, err := a.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch account balances: %w", err)
	}
	out := make(map[string]float64)
	for _, b := range account.Balances {
		free, err := strconv.ParseFloat(b.Free, 64)
		if err != nil || free <= 0 {
			continue
		}
		out[b.Asset] = free
	}
	return out, nil
}

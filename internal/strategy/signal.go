package strategy

// SignalType is the engine's decision for one symbol at one point in time.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// Signal carries the decision plus every trigger condition that fired, in
// evaluation order, so the operator can see why.
type Signal struct {
	Type    SignalType `json:"signal_type"`
	Symbol  string     `json:"symbol"`
	Price   float64    `json:"price"`
	Reasons []string   `json:"reasons"`
}

func hold(symbol string, price float64) Signal {
	return Signal{Type: SignalHold, Symbol: symbol, Price: price}
}

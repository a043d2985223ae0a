package strategy

import "time"

// Position is an open holding in one symbol. At most one exists per symbol.
type Position struct {
	Symbol     string    `json:"symbol"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
	OpenedAt   time.Time `json:"opened_at"`
}

// positionStore maps symbol to its single open position and enforces the
// global and per-symbol limits. Not safe for concurrent use on its own; the
// engine's lock guards it.
type positionStore struct {
	maxOpen      int
	maxPerSymbol int
	positions    map[string]Position
}

func newPositionStore(maxOpen, maxPerSymbol int) *positionStore {
	if maxOpen <= 0 {
		maxOpen = 1
	}
	if maxPerSymbol <= 0 {
		maxPerSymbol = 1
	}
	return &positionStore{
		maxOpen:      maxOpen,
		maxPerSymbol: maxPerSymbol,
		positions:    make(map[string]Position),
	}
}

func (s *positionStore) canOpen(symbol string) bool {
	if len(s.positions) >= s.maxOpen {
		return false
	}
	// The map holds one position per symbol, so any existing entry already
	// meets the per-symbol cap.
	if _, exists := s.positions[symbol]; exists {
		return false
	}
	return s.maxPerSymbol >= 1
}

func (s *positionStore) add(symbol string, price, quantity float64) {
	s.positions[symbol] = Position{
		Symbol:     symbol,
		EntryPrice: price,
		Quantity:   quantity,
		OpenedAt:   time.Now(),
	}
}

func (s *positionStore) get(symbol string) (Position, bool) {
	pos, ok := s.positions[symbol]
	return pos, ok
}

func (s *positionStore) remove(symbol string) {
	delete(s.positions, symbol)
}

func (s *positionStore) all() map[string]Position {
	out := make(map[string]Position, len(s.positions))
	for sym, pos := range s.positions {
		out[sym] = pos
	}
	return out
}

func (s *positionStore) count() int {
	return len(s.positions)
}

package strategy

import (
	"fmt"
	"sync"

	"dipper/internal/indicator"
)

// Engine evaluates indicator snapshots against the trigger config and owns all
// position state. One mutex guards triggers and positions together: the
// polling loop mutates positions through the executor while HTTP handlers read
// them concurrently.
type Engine struct {
	mu        sync.RWMutex
	triggers  TriggerConfig
	positions *positionStore
}

type EngineParams struct {
	Triggers     TriggerConfig
	MaxOpen      int
	MaxPerSymbol int
}

func NewEngine(p EngineParams) *Engine {
	return &Engine{
		triggers:  p.Triggers,
		positions: newPositionStore(p.MaxOpen, p.MaxPerSymbol),
	}
}

// Evaluate emits BUY when every enabled buy condition holds at once, SELL when
// any sell condition holds against the open position, otherwise HOLD. All
// matching sell reasons are recorded, not just the first.
func (e *Engine) Evaluate(symbol string, snap indicator.Snapshot) Signal {
	e.mu.RLock()
	defer e.mu.RUnlock()

	pos, held := e.positions.get(symbol)

	if !held && e.triggers.Buy.Enabled && e.positions.canOpen(symbol) {
		if sig, ok := e.evaluateBuy(symbol, snap); ok {
			return sig
		}
	}

	if held && e.triggers.Sell.Enabled {
		if sig, ok := e.evaluateSell(symbol, snap, pos); ok {
			return sig
		}
	}

	return hold(symbol, snap.Price)
}

func (e *Engine) evaluateBuy(symbol string, snap indicator.Snapshot) (Signal, bool) {
	buy := e.triggers.Buy
	var reasons []string
	if snap.RSI <= buy.RSIBelow {
		reasons = append(reasons, fmt.Sprintf("RSI %.1f <= %.1f", snap.RSI, buy.RSIBelow))
	}
	if snap.DipPercent >= buy.DipPercent {
		reasons = append(reasons, fmt.Sprintf("dip %.1f%% >= %.1f%%", snap.DipPercent, buy.DipPercent))
	}
	if snap.VolumeSpike >= buy.VolumeSpike {
		reasons = append(reasons, fmt.Sprintf("volume %.1fx >= %.1fx", snap.VolumeSpike, buy.VolumeSpike))
	}
	if len(reasons) < 3 {
		return Signal{}, false
	}
	return Signal{Type: SignalBuy, Symbol: symbol, Price: snap.Price, Reasons: reasons}, true
}

func (e *Engine) evaluateSell(symbol string, snap indicator.Snapshot, pos Position) (Signal, bool) {
	sell := e.triggers.Sell
	change := indicator.ChangeFromEntry(snap.Price, pos.EntryPrice)
	var reasons []string
	if snap.RSI >= sell.RSIAbove {
		reasons = append(reasons, fmt.Sprintf("RSI %.1f >= %.1f", snap.RSI, sell.RSIAbove))
	}
	if change >= sell.RisePercent {
		reasons = append(reasons, fmt.Sprintf("rise %.1f%% >= %.1f%%", change, sell.RisePercent))
	}
	if change <= -sell.StopLoss {
		reasons = append(reasons, fmt.Sprintf("stop loss: down %.1f%% >= %.1f%%", -change, sell.StopLoss))
	}
	if change >= sell.TakeProfit {
		reasons = append(reasons, fmt.Sprintf("take profit: up %.1f%% >= %.1f%%", change, sell.TakeProfit))
	}
	if len(reasons) == 0 {
		return Signal{}, false
	}
	return Signal{Type: SignalSell, Symbol: symbol, Price: snap.Price, Reasons: reasons}, true
}

// CanOpenPosition reports whether a new position in symbol would respect both
// the global and the per-symbol limits.
func (e *Engine) CanOpenPosition(symbol string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.positions.canOpen(symbol)
}

// AddPosition records a filled buy. The executor checks CanOpenPosition before
// calling.
func (e *Engine) AddPosition(symbol string, price, quantity float64) {
	e.mu.Lock()
	e.positions.add(symbol, price, quantity)
	e.mu.Unlock()
}

func (e *Engine) GetPosition(symbol string) (Position, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.positions.get(symbol)
}

// ClosePosition removes the position for symbol; closing an absent symbol is a
// no-op.
func (e *Engine) ClosePosition(symbol string) {
	e.mu.Lock()
	e.positions.remove(symbol)
	e.mu.Unlock()
}

// Positions returns a copy of all open positions keyed by symbol.
func (e *Engine) Positions() map[string]Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.positions.all()
}

func (e *Engine) OpenPositionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.positions.count()
}

// Triggers returns the current trigger config snapshot.
func (e *Engine) Triggers() TriggerConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.triggers
}

// UpdateTriggers merges the fields present in raw into the current config.
// The whole update is validated first; a rejected update changes nothing.
func (e *Engine) UpdateTriggers(raw []byte) (TriggerConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	next, err := e.triggers.merged(raw)
	if err != nil {
		return e.triggers, err
	}
	e.triggers = next
	return next, nil
}

// SetTriggers replaces the whole config, used by the config hot reload.
func (e *Engine) SetTriggers(cfg TriggerConfig) {
	e.mu.Lock()
	e.triggers = cfg
	e.mu.Unlock()
}

package executor

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"dipper/internal/logger"
)

// Balance returns the paper ledger in paper mode, or the adapter's free
// balances in live mode. A live fetch failure yields an empty map.
func (x *Executor) Balance(ctx context.Context) map[string]float64 {
	if x.cfg.PaperMode {
		x.mu.Lock()
		defer x.mu.Unlock()
		return x.balanceFloats()
	}
	if x.adapter == nil {
		return map[string]float64{}
	}
	callCtx, cancel := context.WithTimeout(ctx, x.cfg.LiveTimeout)
	defer cancel()
	balances, err := x.adapter.FreeBalances(callCtx)
	if err != nil {
		logger.Errorf("executor: balance fetch failed: %v", err)
		return map[string]float64{}
	}
	return balances
}

// DepositPaperFunds credits the quote currency. No-op outside paper mode.
func (x *Executor) DepositPaperFunds(amount float64) error {
	if !x.cfg.PaperMode {
		return fmt.Errorf("paper funds only exist in paper mode")
	}
	if amount <= 0 {
		return fmt.Errorf("deposit amount must be positive")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.balance[x.cfg.QuoteCurrency] = x.balance[x.cfg.QuoteCurrency].Add(decimal.NewFromFloat(amount))
	logger.Infof("paper deposit +%.2f %s", amount, x.cfg.QuoteCurrency)
	x.persist()
	return nil
}

// WithdrawPaperFunds debits the quote currency, rejecting overdrafts.
func (x *Executor) WithdrawPaperFunds(amount float64) error {
	if !x.cfg.PaperMode {
		return fmt.Errorf("paper funds only exist in paper mode")
	}
	if amount <= 0 {
		return fmt.Errorf("withdrawal amount must be positive")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	current := x.balance[x.cfg.QuoteCurrency]
	want := decimal.NewFromFloat(amount)
	if current.LessThan(want) {
		return fmt.Errorf("insufficient funds: have %s, want %s", current, want)
	}
	x.balance[x.cfg.QuoteCurrency] = current.Sub(want)
	logger.Infof("paper withdrawal -%.2f %s", amount, x.cfg.QuoteCurrency)
	x.persist()
	return nil
}

// ResetPaperFunds overwrites the quote balance.
func (x *Executor) ResetPaperFunds(amount float64) error {
	if !x.cfg.PaperMode {
		return fmt.Errorf("paper funds only exist in paper mode")
	}
	if amount < 0 {
		return fmt.Errorf("reset amount must be non-negative")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.balance[x.cfg.QuoteCurrency] = decimal.NewFromFloat(amount)
	logger.Infof("paper balance reset to %.2f %s", amount, x.cfg.QuoteCurrency)
	x.persist()
	return nil
}

package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dipper/internal/strategy"
)

func TestDepositAndWithdraw(t *testing.T) {
	x, _ := newPaperExecutor(t)
	ctx := context.Background()

	require.NoError(t, x.DepositPaperFunds(500))
	assert.Equal(t, 10500.0, x.Balance(ctx)["USDT"])

	require.NoError(t, x.WithdrawPaperFunds(300))
	assert.Equal(t, 10200.0, x.Balance(ctx)["USDT"])
}

func TestWithdrawOverdraft(t *testing.T) {
	x, _ := newPaperExecutor(t)
	err := x.WithdrawPaperFunds(20000)
	require.Error(t, err)
	assert.Equal(t, 10000.0, x.Balance(context.Background())["USDT"])
}

func TestWalletRejectsNonPositiveAmounts(t *testing.T) {
	x, _ := newPaperExecutor(t)
	assert.Error(t, x.DepositPaperFunds(0))
	assert.Error(t, x.DepositPaperFunds(-5))
	assert.Error(t, x.WithdrawPaperFunds(0))
}

func TestResetPaperFunds(t *testing.T) {
	x, _ := newPaperExecutor(t)
	ctx := context.Background()

	x.ExecuteSignal(ctx, buySignal("BTCUSDT", 10), 100)
	require.NoError(t, x.ResetPaperFunds(10000))
	assert.Equal(t, 10000.0, x.Balance(ctx)["USDT"])
}

func TestWalletOpsRequirePaperMode(t *testing.T) {
	engine := strategy.NewEngine(strategy.EngineParams{MaxOpen: 5, MaxPerSymbol: 1})
	cfg := paperConfig()
	cfg.PaperMode = false
	x := New(cfg, engine, nil, nil)

	assert.Error(t, x.DepositPaperFunds(100))
	assert.Error(t, x.WithdrawPaperFunds(100))
	assert.Error(t, x.ResetPaperFunds(100))
}

func TestLiveBalanceFromAdapter(t *testing.T) {
	engine := strategy.NewEngine(strategy.EngineParams{MaxOpen: 5, MaxPerSymbol: 1})
	adapter := new(mockAdapter)
	cfg := paperConfig()
	cfg.PaperMode = false
	x := New(cfg, engine, adapter, nil)

	adapter.On("FreeBalances", mock.Anything).Return(map[string]float64{"USDT": 250.5, "BTC": 0.01}, nil).Once()
	assert.Equal(t, map[string]float64{"USDT": 250.5, "BTC": 0.01}, x.Balance(context.Background()))

	adapter.On("FreeBalances", mock.Anything).Return(nil, errors.New("api down")).Once()
	assert.Empty(t, x.Balance(context.Background()))
}

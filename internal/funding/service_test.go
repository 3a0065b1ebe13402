package funding

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/accounts"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/store"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFixture(t *testing.T, liveBalance int64) (*Service, *accounts.Service) {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	ledger := accounts.NewService(st, zap.NewNop())
	require.NoError(t, ledger.Init(ctx))
	require.NoError(t, ledger.Create(ctx, &model.Account{
		ID:    "u1",
		Email: "a@example.com",
		Balance: map[types.AccountType]decimal.Decimal{
			types.AccountTypeDemo: decimal.Zero,
			types.AccountTypeLive: decimal.NewFromInt(liveBalance),
		},
		JoinedAt: time.Now().UTC(),
	}))
	svc := NewService(st, ledger, zap.NewNop())
	require.NoError(t, svc.Init(ctx))
	return svc, ledger
}

func TestDepositBonusTiers(t *testing.T) {
	tests := []struct {
		amount string
		bonus  string
	}{
		{"99", "0"},
		{"100", "25"},
		{"499", "124.75"},
		{"500", "250"},
		{"750", "375"},
		{"1000", "750"},
		{"4999", "3749.25"},
		{"5000", "5000"},
		{"10000", "10000"},
	}
	for _, tt := range tests {
		amount, _ := decimal.NewFromString(tt.amount)
		want, _ := decimal.NewFromString(tt.bonus)
		got := DepositBonus(amount)
		assert.True(t, got.Equal(want), "amount %s: got %s want %s", tt.amount, got, tt.bonus)
	}
}

func TestRequestDeposit(t *testing.T) {
	svc, ledger := newFixture(t, 0)
	ctx := context.Background()

	m, err := svc.RequestDeposit(ctx, "u1", decimal.NewFromInt(750), "card", "****1234")
	require.NoError(t, err)

	assert.Equal(t, types.MovementStatusPending, m.Status)
	assert.True(t, m.Fee.Equal(decimal.NewFromFloat(7.5)))
	assert.True(t, m.Bonus.Equal(decimal.NewFromInt(375)))

	// Nothing credited while pending.
	snap, err := ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].IsZero())
}

func TestRequestDepositValidation(t *testing.T) {
	svc, _ := newFixture(t, 0)
	ctx := context.Background()

	_, err := svc.RequestDeposit(ctx, "u1", decimal.Zero, "card", "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.RequestDeposit(ctx, "missing", decimal.NewFromInt(100), "card", "")
	assert.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestProcessDepositCreditsOnce(t *testing.T) {
	svc, ledger := newFixture(t, 0)
	ctx := context.Background()

	m, err := svc.RequestDeposit(ctx, "u1", decimal.NewFromInt(750), "card", "")
	require.NoError(t, err)

	processed, applied, err := svc.ProcessDeposit(ctx, m.ID, types.MovementStatusCompleted)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, types.MovementStatusCompleted, processed.Status)

	// 750 - 7.5 fee + 375 bonus.
	snap, err := ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].Equal(decimal.NewFromFloat(1117.5)))

	// A second approval must not credit again.
	_, applied, err = svc.ProcessDeposit(ctx, m.ID, types.MovementStatusCompleted)
	require.NoError(t, err)
	assert.False(t, applied)
	snap, err = ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].Equal(decimal.NewFromFloat(1117.5)))
}

func TestProcessDepositRejection(t *testing.T) {
	svc, ledger := newFixture(t, 0)
	ctx := context.Background()

	m, err := svc.RequestDeposit(ctx, "u1", decimal.NewFromInt(500), "card", "")
	require.NoError(t, err)

	processed, applied, err := svc.ProcessDeposit(ctx, m.ID, types.MovementStatusRejected)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, types.MovementStatusRejected, processed.Status)

	snap, err := ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].IsZero())
}

func TestProcessDepositValidation(t *testing.T) {
	svc, _ := newFixture(t, 0)
	ctx := context.Background()

	_, _, err := svc.ProcessDeposit(ctx, "missing", types.MovementStatusCompleted)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = svc.ProcessDeposit(ctx, "missing", types.MovementStatusPending)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRequestWithdrawal(t *testing.T) {
	svc, ledger := newFixture(t, 1000)
	ctx := context.Background()

	m, err := svc.RequestWithdrawal(ctx, "u1", decimal.NewFromInt(1000), "bank", "IBAN")
	require.NoError(t, err)

	assert.True(t, m.Fee.Equal(decimal.NewFromInt(25)))
	assert.True(t, m.NetAmount.Equal(decimal.NewFromInt(975)))
	assert.Equal(t, types.MovementStatusPending, m.Status)

	// The full amount leaves the live balance immediately.
	snap, err := ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].IsZero())
}

func TestRequestWithdrawalInsufficientFunds(t *testing.T) {
	svc, ledger := newFixture(t, 999)
	ctx := context.Background()

	_, err := svc.RequestWithdrawal(ctx, "u1", decimal.NewFromInt(1000), "bank", "")
	assert.ErrorIs(t, err, accounts.ErrInsufficientFunds)

	snap, err := ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].Equal(decimal.NewFromInt(999)))
	assert.Empty(t, svc.WithdrawalHistory(ctx, "u1"))
}

func TestHistoriesAreScopedAndDescending(t *testing.T) {
	svc, ledger := newFixture(t, 1000)
	ctx := context.Background()
	require.NoError(t, ledger.Create(ctx, &model.Account{
		ID:    "u2",
		Email: "b@example.com",
		Balance: map[types.AccountType]decimal.Decimal{
			types.AccountTypeDemo: decimal.Zero,
			types.AccountTypeLive: decimal.Zero,
		},
		JoinedAt: time.Now().UTC(),
	}))

	first, err := svc.RequestDeposit(ctx, "u1", decimal.NewFromInt(100), "card", "")
	require.NoError(t, err)
	second, err := svc.RequestDeposit(ctx, "u1", decimal.NewFromInt(200), "card", "")
	require.NoError(t, err)
	_, err = svc.RequestDeposit(ctx, "u2", decimal.NewFromInt(300), "card", "")
	require.NoError(t, err)

	history := svc.DepositHistory(ctx, "u1")
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

func TestPendingCounts(t *testing.T) {
	svc, _ := newFixture(t, 1000)
	ctx := context.Background()

	d1, err := svc.RequestDeposit(ctx, "u1", decimal.NewFromInt(100), "card", "")
	require.NoError(t, err)
	_, err = svc.RequestDeposit(ctx, "u1", decimal.NewFromInt(200), "card", "")
	require.NoError(t, err)
	_, err = svc.RequestWithdrawal(ctx, "u1", decimal.NewFromInt(50), "bank", "")
	require.NoError(t, err)

	deposits, withdrawals := svc.PendingCounts(ctx)
	assert.Equal(t, 2, deposits)
	assert.Equal(t, 1, withdrawals)

	_, _, err = svc.ProcessDeposit(ctx, d1.ID, types.MovementStatusCompleted)
	require.NoError(t, err)
	deposits, _ = svc.PendingCounts(ctx)
	assert.Equal(t, 1, deposits)
}

// faultStore fails Puts to selected collections, imitating a broken disk.
type faultStore struct {
	*store.MemoryStore
	mu      sync.Mutex
	failing map[string]bool
}

func newFaultStore() *faultStore {
	return &faultStore{MemoryStore: store.NewMemoryStore(), failing: make(map[string]bool)}
}

func (s *faultStore) fail(collection string, on bool) {
	s.mu.Lock()
	s.failing[collection] = on
	s.mu.Unlock()
}

func (s *faultStore) Put(ctx context.Context, collection, id string, doc []byte) error {
	s.mu.Lock()
	broken := s.failing[collection]
	s.mu.Unlock()
	if broken {
		return fmt.Errorf("%w: disk full", store.ErrPersistence)
	}
	return s.MemoryStore.Put(ctx, collection, id, doc)
}

func newFaultFixture(t *testing.T, liveBalance int64) (*Service, *accounts.Service, *faultStore) {
	t.Helper()
	ctx := context.Background()
	st := newFaultStore()
	ledger := accounts.NewService(st, zap.NewNop())
	require.NoError(t, ledger.Init(ctx))
	require.NoError(t, ledger.Create(ctx, &model.Account{
		ID:    "u1",
		Email: "a@example.com",
		Balance: map[types.AccountType]decimal.Decimal{
			types.AccountTypeDemo: decimal.Zero,
			types.AccountTypeLive: decimal.NewFromInt(liveBalance),
		},
		JoinedAt: time.Now().UTC(),
	}))
	svc := NewService(st, ledger, zap.NewNop())
	require.NoError(t, svc.Init(ctx))
	return svc, ledger, st
}

func TestProcessDepositFlushFailureKeepsDepositPending(t *testing.T) {
	svc, ledger, st := newFaultFixture(t, 0)
	ctx := context.Background()

	m, err := svc.RequestDeposit(ctx, "u1", decimal.NewFromInt(750), "card", "")
	require.NoError(t, err)

	st.fail(store.CollectionDeposits, true)
	_, applied, err := svc.ProcessDeposit(ctx, m.ID, types.MovementStatusCompleted)
	require.ErrorIs(t, err, store.ErrPersistence)
	assert.False(t, applied)

	// Nothing credited and the deposit is still pending, so the retry is not
	// swallowed by the idempotency guard.
	snap, err := ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].IsZero())
	deposits, _ := svc.PendingCounts(ctx)
	assert.Equal(t, 1, deposits)

	st.fail(store.CollectionDeposits, false)
	processed, applied, err := svc.ProcessDeposit(ctx, m.ID, types.MovementStatusCompleted)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, types.MovementStatusCompleted, processed.Status)
	snap, err = ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].Equal(decimal.NewFromFloat(1117.5)))

	// Still credited exactly once.
	_, applied, err = svc.ProcessDeposit(ctx, m.ID, types.MovementStatusCompleted)
	require.NoError(t, err)
	assert.False(t, applied)
	snap, err = ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].Equal(decimal.NewFromFloat(1117.5)))
}

func TestRequestWithdrawalFlushFailureRefundsDebit(t *testing.T) {
	svc, ledger, st := newFaultFixture(t, 1000)
	ctx := context.Background()

	st.fail(store.CollectionWithdrawals, true)
	_, err := svc.RequestWithdrawal(ctx, "u1", decimal.NewFromInt(400), "bank", "IBAN")
	require.ErrorIs(t, err, store.ErrPersistence)

	// The debit came back and no orphaned record remains.
	snap, err := ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, svc.WithdrawalHistory(ctx, "u1"))

	st.fail(store.CollectionWithdrawals, false)
	m, err := svc.RequestWithdrawal(ctx, "u1", decimal.NewFromInt(400), "bank", "IBAN")
	require.NoError(t, err)
	assert.Equal(t, types.MovementStatusPending, m.Status)
	snap, err = ledger.Balances(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap[types.AccountTypeLive].Equal(decimal.NewFromInt(600)))
}

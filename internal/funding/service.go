// Package funding is the cash movement ledger: deposit and withdrawal
// requests, their fee and bonus schedules, and the approval flow that
// ultimately credits the account ledger. Fees and bonuses are computed once
// at request time and stored on the movement record.
package funding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/accounts"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/id"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/metrics"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/store"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("movement not found")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidStatus = errors.New("status must be completed or rejected")
)

var (
	depositFeeRate    = decimal.NewFromFloat(0.01)
	withdrawalFeeRate = decimal.NewFromFloat(0.025)
	hundred           = decimal.NewFromInt(100)
)

// bonusTiers maps a minimum deposit amount to the bonus percentage applied
// to it. Evaluated highest tier first.
var bonusTiers = []struct {
	min decimal.Decimal
	pct decimal.Decimal
}{
	{decimal.NewFromInt(5000), decimal.NewFromInt(100)},
	{decimal.NewFromInt(1000), decimal.NewFromInt(75)},
	{decimal.NewFromInt(500), decimal.NewFromInt(50)},
	{decimal.NewFromInt(100), decimal.NewFromInt(25)},
}

// DepositBonus returns the bonus credited for a deposit of the given amount.
func DepositBonus(amount decimal.Decimal) decimal.Decimal {
	for _, tier := range bonusTiers {
		if amount.GreaterThanOrEqual(tier.min) {
			return amount.Mul(tier.pct).Div(hundred)
		}
	}
	return decimal.Zero
}

type Service struct {
	store  store.Store
	ledger *accounts.Service
	log    *zap.Logger

	mu          sync.RWMutex
	deposits    map[string]*model.CashMovement
	withdrawals map[string]*model.CashMovement
}

func NewService(st store.Store, ledger *accounts.Service, log *zap.Logger) *Service {
	return &Service{
		store:       st,
		ledger:      ledger,
		log:         log,
		deposits:    make(map[string]*model.CashMovement),
		withdrawals: make(map[string]*model.CashMovement),
	}
}

func (s *Service) Init(ctx context.Context) error {
	if err := s.loadCollection(ctx, store.CollectionDeposits, s.deposits); err != nil {
		return err
	}
	if err := s.loadCollection(ctx, store.CollectionWithdrawals, s.withdrawals); err != nil {
		return err
	}
	s.log.Info("cash movements loaded",
		zap.Int("deposits", len(s.deposits)),
		zap.Int("withdrawals", len(s.withdrawals)),
	)
	return nil
}

func (s *Service) loadCollection(ctx context.Context, collection string, into map[string]*model.CashMovement) error {
	docs, err := s.store.Load(ctx, collection)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for mid, doc := range docs {
		var m model.CashMovement
		if err := json.Unmarshal(doc, &m); err != nil {
			return fmt.Errorf("decode movement %s: %w", mid, err)
		}
		into[m.ID] = &m
	}
	return nil
}

// RequestDeposit records a pending deposit. The fee (1%) and the tiered
// bonus are fixed here; nothing is credited until the deposit is approved.
func (s *Service) RequestDeposit(ctx context.Context, userID string, amount decimal.Decimal, method, details string) (*model.CashMovement, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if _, err := s.ledger.Get(ctx, userID); err != nil {
		return nil, err
	}

	m := &model.CashMovement{
		ID:        id.New(),
		UserID:    userID,
		Type:      types.MovementTypeDeposit,
		Amount:    amount,
		Fee:       amount.Mul(depositFeeRate),
		Bonus:     DepositBonus(amount),
		Method:    method,
		Details:   details,
		Status:    types.MovementStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.deposits[m.ID] = m
	s.mu.Unlock()

	if err := s.flush(ctx, store.CollectionDeposits, m); err != nil {
		return nil, err
	}
	metrics.DepositsRequested.Inc()
	s.log.Info("deposit requested",
		zap.String("deposit_id", m.ID),
		zap.String("user_id", userID),
		zap.String("amount", amount.String()),
		zap.String("bonus", m.Bonus.String()),
	)
	return m.Clone(), nil
}

// ProcessDeposit transitions a pending deposit to completed or rejected.
// The first transition to completed credits amount - fee + bonus to the
// user's live balance; any later call on the same deposit reports whether
// it applied without crediting again.
func (s *Service) ProcessDeposit(ctx context.Context, depositID string, status types.MovementStatus) (*model.CashMovement, bool, error) {
	if status != types.MovementStatusCompleted && status != types.MovementStatusRejected {
		return nil, false, ErrInvalidStatus
	}
	s.mu.Lock()
	m := s.deposits[depositID]
	if m == nil {
		s.mu.Unlock()
		return nil, false, ErrNotFound
	}
	if m.Status != types.MovementStatusPending {
		clone := m.Clone()
		s.mu.Unlock()
		return clone, false, nil
	}
	m.Status = status
	clone := m.Clone()
	s.mu.Unlock()

	// The movement flush commits the transition. A failed flush rolls the
	// status back to pending, so nothing has been credited and a retry
	// starts clean instead of tripping the idempotency guard.
	if err := s.flush(ctx, store.CollectionDeposits, clone); err != nil {
		s.mu.Lock()
		m.Status = types.MovementStatusPending
		s.mu.Unlock()
		return nil, false, err
	}
	if status == types.MovementStatusCompleted {
		credit := m.Amount.Sub(m.Fee).Add(m.Bonus)
		// The ledger credits in memory before it flushes, so only an
		// unknown user can actually fail here; roll the deposit back to
		// pending in that case. A lagging account flush is logged by the
		// ledger and repaired on its next successful write.
		if err := s.ledger.CreditDeposit(ctx, m.UserID, types.AccountTypeLive, credit); err != nil && !errors.Is(err, store.ErrPersistence) {
			s.mu.Lock()
			m.Status = types.MovementStatusPending
			reverted := m.Clone()
			s.mu.Unlock()
			if ferr := s.flush(ctx, store.CollectionDeposits, reverted); ferr != nil {
				s.log.Error("deposit rollback flush failed", zap.String("deposit_id", m.ID), zap.Error(ferr))
			}
			return nil, false, err
		}
		s.log.Info("deposit credited",
			zap.String("deposit_id", m.ID),
			zap.String("user_id", m.UserID),
			zap.String("credit", credit.String()),
		)
	}
	metrics.DepositsProcessed.WithLabelValues(string(status)).Inc()
	return clone, true, nil
}

// RequestWithdrawal records a withdrawal and debits the full requested
// amount from the live balance immediately. The 2.5% fee is withheld from
// the payout, not charged on top.
func (s *Service) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, method, details string) (*model.CashMovement, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := s.ledger.DebitWithdrawal(ctx, userID, types.AccountTypeLive, amount); err != nil {
		return nil, err
	}

	fee := amount.Mul(withdrawalFeeRate)
	m := &model.CashMovement{
		ID:        id.New(),
		UserID:    userID,
		Type:      types.MovementTypeWithdrawal,
		Amount:    amount,
		Fee:       fee,
		NetAmount: amount.Sub(fee),
		Method:    method,
		Details:   details,
		Status:    types.MovementStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.withdrawals[m.ID] = m
	s.mu.Unlock()

	// A withdrawal must never debit money without leaving a movement
	// record. If the record cannot be flushed, drop it and put the debited
	// amount back.
	if err := s.flush(ctx, store.CollectionWithdrawals, m); err != nil {
		s.mu.Lock()
		delete(s.withdrawals, m.ID)
		s.mu.Unlock()
		if cerr := s.ledger.CreditDeposit(ctx, userID, types.AccountTypeLive, amount); cerr != nil {
			s.log.Error("withdrawal refund failed", zap.String("user_id", userID), zap.Error(cerr))
		}
		return nil, err
	}
	metrics.WithdrawalsRequested.Inc()
	s.log.Info("withdrawal requested",
		zap.String("withdrawal_id", m.ID),
		zap.String("user_id", userID),
		zap.String("net", m.NetAmount.String()),
	)
	return m.Clone(), nil
}

// DepositHistory returns the user's deposits, newest first.
func (s *Service) DepositHistory(ctx context.Context, userID string) []*model.CashMovement {
	return s.history(s.deposits, userID)
}

// WithdrawalHistory returns the user's withdrawals, newest first.
func (s *Service) WithdrawalHistory(ctx context.Context, userID string) []*model.CashMovement {
	return s.history(s.withdrawals, userID)
}

func (s *Service) history(src map[string]*model.CashMovement, userID string) []*model.CashMovement {
	s.mu.RLock()
	out := make([]*model.CashMovement, 0, 8)
	for _, m := range src {
		if m.UserID == userID {
			out = append(out, m.Clone())
		}
	}
	s.mu.RUnlock()
	sortMovements(out)
	return out
}

// ListDeposits returns every deposit on the platform, newest first.
func (s *Service) ListDeposits(ctx context.Context) []*model.CashMovement {
	return s.listAll(s.deposits)
}

// ListWithdrawals returns every withdrawal, newest first.
func (s *Service) ListWithdrawals(ctx context.Context) []*model.CashMovement {
	return s.listAll(s.withdrawals)
}

func (s *Service) listAll(src map[string]*model.CashMovement) []*model.CashMovement {
	s.mu.RLock()
	out := make([]*model.CashMovement, 0, len(src))
	for _, m := range src {
		out = append(out, m.Clone())
	}
	s.mu.RUnlock()
	sortMovements(out)
	return out
}

// PendingCounts reports how many deposits and withdrawals await processing.
func (s *Service) PendingCounts(ctx context.Context) (deposits, withdrawals int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.deposits {
		if m.Status == types.MovementStatusPending {
			deposits++
		}
	}
	for _, m := range s.withdrawals {
		if m.Status == types.MovementStatusPending {
			withdrawals++
		}
	}
	return deposits, withdrawals
}

func sortMovements(ms []*model.CashMovement) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].CreatedAt.Equal(ms[j].CreatedAt) {
			return ms[i].ID > ms[j].ID
		}
		return ms[i].CreatedAt.After(ms[j].CreatedAt)
	})
}

func (s *Service) flush(ctx context.Context, collection string, m *model.CashMovement) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: encode movement: %v", store.ErrPersistence, err)
	}
	if err := s.store.Put(ctx, collection, m.ID, doc); err != nil {
		s.log.Error("movement flush failed", zap.String("movement_id", m.ID), zap.Error(err))
		return err
	}
	return nil
}

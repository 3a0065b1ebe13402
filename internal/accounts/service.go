// Package accounts owns per-user balances, trade counters and win-rate
// statistics. Every balance-affecting operation for a user is serialized
// through a per-user mutex, so concurrent trading and funding requests can
// never lose an update or drive a balance negative. Operations for different
// users run fully in parallel.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/store"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNotFound          = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEmailTaken        = errors.New("email already registered")
)

// BalanceSnapshot is a point-in-time copy of a user's balances.
type BalanceSnapshot map[types.AccountType]decimal.Decimal

type Service struct {
	store store.Store
	log   *zap.Logger

	mu     sync.RWMutex
	users  map[string]*model.Account
	emails map[string]string // lowercased email -> user id
	locks  map[string]*sync.Mutex
}

func NewService(st store.Store, log *zap.Logger) *Service {
	return &Service{
		store:  st,
		log:    log,
		users:  make(map[string]*model.Account),
		emails: make(map[string]string),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Init loads the users collection from the durable store.
func (s *Service) Init(ctx context.Context) error {
	docs, err := s.store.Load(ctx, store.CollectionUsers)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, doc := range docs {
		var acc model.Account
		if err := json.Unmarshal(doc, &acc); err != nil {
			return fmt.Errorf("decode account %s: %w", id, err)
		}
		if acc.Balance == nil {
			acc.Balance = make(map[types.AccountType]decimal.Decimal)
		}
		s.users[acc.ID] = &acc
		s.emails[strings.ToLower(acc.Email)] = acc.ID
	}
	s.log.Info("accounts loaded", zap.Int("count", len(s.users)))
	return nil
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// withUser runs fn against the user's account under that user's mutex and
// flushes the record afterwards. fn must do all its checks before mutating,
// so an error return leaves the account untouched.
func (s *Service) withUser(ctx context.Context, userID string, fn func(*model.Account) error) error {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	acc := s.users[userID]
	s.mu.RUnlock()
	if acc == nil {
		return ErrNotFound
	}
	if err := fn(acc); err != nil {
		return err
	}
	return s.flush(ctx, acc)
}

func (s *Service) flush(ctx context.Context, acc *model.Account) error {
	doc, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("%w: encode account: %v", store.ErrPersistence, err)
	}
	if err := s.store.Put(ctx, store.CollectionUsers, acc.ID, doc); err != nil {
		s.log.Error("account flush failed", zap.String("user_id", acc.ID), zap.Error(err))
		return err
	}
	return nil
}

// Create registers a new account. Email uniqueness is enforced here, case
// insensitively.
func (s *Service) Create(ctx context.Context, acc *model.Account) error {
	key := strings.ToLower(acc.Email)
	s.mu.Lock()
	if _, taken := s.emails[key]; taken {
		s.mu.Unlock()
		return ErrEmailTaken
	}
	if acc.Balance == nil {
		acc.Balance = make(map[types.AccountType]decimal.Decimal)
	}
	s.users[acc.ID] = acc
	s.emails[key] = acc.ID
	s.mu.Unlock()
	return s.flush(ctx, acc)
}

func (s *Service) Get(ctx context.Context, userID string) (*model.Account, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	s.mu.RLock()
	acc := s.users[userID]
	s.mu.RUnlock()
	if acc == nil {
		return nil, ErrNotFound
	}
	return acc.Clone(), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	userID, ok := s.emails[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID)
}

// Balances returns a snapshot of the user's balances.
func (s *Service) Balances(ctx context.Context, userID string) (BalanceSnapshot, error) {
	acc, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BalanceSnapshot(acc.Balance), nil
}

// ReserveMargin atomically checks that balance[accountType] covers amount,
// debits it and bumps the user's trade counter. A failed check mutates
// nothing, so rejected trades never count.
func (s *Service) ReserveMargin(ctx context.Context, userID string, at types.AccountType, amount decimal.Decimal) error {
	return s.withUser(ctx, userID, func(acc *model.Account) error {
		if acc.Balance[at].LessThan(amount) {
			return ErrInsufficientFunds
		}
		acc.Balance[at] = acc.Balance[at].Sub(amount)
		acc.Trades++
		return nil
	})
}

// ReleaseSettlement returns the reserved margin adjusted by posted P&L.
// A loss larger than the margin is floored so the balance never crosses
// zero; the platform absorbs the excess.
func (s *Service) ReleaseSettlement(ctx context.Context, userID string, at types.AccountType, margin, pnl decimal.Decimal) error {
	return s.withUser(ctx, userID, func(acc *model.Account) error {
		next := acc.Balance[at].Add(margin).Add(pnl)
		if next.IsNegative() {
			next = decimal.Zero
		}
		acc.Balance[at] = next
		return nil
	})
}

func (s *Service) CreditDeposit(ctx context.Context, userID string, at types.AccountType, amount decimal.Decimal) error {
	return s.withUser(ctx, userID, func(acc *model.Account) error {
		acc.Balance[at] = acc.Balance[at].Add(amount)
		return nil
	})
}

func (s *Service) DebitWithdrawal(ctx context.Context, userID string, at types.AccountType, amount decimal.Decimal) error {
	return s.withUser(ctx, userID, func(acc *model.Account) error {
		if acc.Balance[at].LessThan(amount) {
			return ErrInsufficientFunds
		}
		acc.Balance[at] = acc.Balance[at].Sub(amount)
		return nil
	})
}

// RecordTradeClosed adds posted P&L to the user's cumulative profit and
// recomputes the win rate over all closed trades. A trade that settles at
// exactly zero counts as closed but not won.
func (s *Service) RecordTradeClosed(ctx context.Context, userID string, pnl decimal.Decimal) error {
	return s.withUser(ctx, userID, func(acc *model.Account) error {
		acc.TotalProfit = acc.TotalProfit.Add(pnl)
		acc.ClosedTrades++
		if pnl.IsPositive() {
			acc.WinningTrades++
		}
		acc.WinRate = decimal.NewFromInt(int64(acc.WinningTrades)).
			Div(decimal.NewFromInt(int64(acc.ClosedTrades))).
			Mul(decimal.NewFromInt(100))
		return nil
	})
}

type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Country   *string
}

// UpdateProfile applies the allowed profile fields. Identity, balances and
// statistics cannot be changed through it.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*model.Account, error) {
	var out *model.Account
	err := s.withUser(ctx, userID, func(acc *model.Account) error {
		if upd.FirstName != nil {
			acc.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			acc.LastName = *upd.LastName
		}
		if upd.Phone != nil {
			acc.Phone = *upd.Phone
		}
		if upd.Country != nil {
			acc.Country = *upd.Country
		}
		out = acc.Clone()
		return nil
	})
	return out, err
}

func (s *Service) SetPasswordHash(ctx context.Context, userID, hash string) error {
	return s.withUser(ctx, userID, func(acc *model.Account) error {
		acc.PasswordHash = hash
		return nil
	})
}

func (s *Service) TouchLogin(ctx context.Context, userID string) error {
	return s.withUser(ctx, userID, func(acc *model.Account) error {
		acc.LastLoginAt = time.Now().UTC()
		return nil
	})
}

// List returns every account, newest first. Admin use only. Each clone is
// taken under its owner's lock so listings never observe a half-applied
// mutation.
func (s *Service) List(ctx context.Context) []*model.Account {
	s.mu.RLock()
	ids := make([]string, 0, len(s.users))
	for uid := range s.users {
		ids = append(ids, uid)
	}
	s.mu.RUnlock()
	out := make([]*model.Account, 0, len(ids))
	for _, uid := range ids {
		if acc, err := s.Get(ctx, uid); err == nil {
			out = append(out, acc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].JoinedAt.After(out[j].JoinedAt)
	})
	return out
}

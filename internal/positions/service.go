// Package positions owns the set of trades: it opens positions against
// reserved margin, closes them through the settlement policy, and answers
// per-user queries. Balance mutations are delegated to the accounts ledger;
// quotes always come from the oracle before any lock is taken, so oracle
// latency never serializes unrelated users.
package positions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/accounts"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/id"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/marketdata"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/metrics"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/settlement"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/store"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNotFound           = errors.New("position not found")
	ErrInsufficientMargin = errors.New("insufficient balance for margin requirement")
	ErrInvalidLeverage    = errors.New("invalid leverage")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidDirection   = errors.New("direction must be buy or sell")
	ErrInvalidAccountType = errors.New("account type must be demo or live")
)

type Service struct {
	store  store.Store
	ledger *accounts.Service
	oracle marketdata.Oracle
	policy settlement.Policy
	log    *zap.Logger

	mu     sync.RWMutex
	trades map[string]*model.Trade
	locks  map[string]*sync.Mutex
}

func NewService(st store.Store, ledger *accounts.Service, oracle marketdata.Oracle, policy settlement.Policy, log *zap.Logger) *Service {
	return &Service{
		store:  st,
		ledger: ledger,
		oracle: oracle,
		policy: policy,
		log:    log,
		trades: make(map[string]*model.Trade),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Init loads the trades collection from the durable store.
func (s *Service) Init(ctx context.Context) error {
	docs, err := s.store.Load(ctx, store.CollectionTrades)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for tid, doc := range docs {
		var t model.Trade
		if err := json.Unmarshal(doc, &t); err != nil {
			return fmt.Errorf("decode trade %s: %w", tid, err)
		}
		s.trades[t.ID] = &t
	}
	s.log.Info("trades loaded", zap.Int("count", len(s.trades)))
	return nil
}

// ParseLeverage parses an "N:D" ratio into its effective multiplier D.
func ParseLeverage(leverage string) (decimal.Decimal, error) {
	parts := strings.Split(strings.TrimSpace(leverage), ":")
	if len(parts) != 2 {
		return decimal.Zero, ErrInvalidLeverage
	}
	mult, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil || !mult.IsPositive() {
		return decimal.Zero, ErrInvalidLeverage
	}
	return mult, nil
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

type OpenRequest struct {
	UserID      string
	Symbol      string
	Direction   types.TradeDirection
	Amount      decimal.Decimal
	Leverage    string
	AccountType types.AccountType
}

type OpenResult struct {
	Trade   *model.Trade
	Balance accounts.BalanceSnapshot
}

// Open validates the request, reserves margin and stores the new position.
// A failed margin check creates no position and leaves every counter
// untouched.
func (s *Service) Open(ctx context.Context, req OpenRequest) (OpenResult, error) {
	if !req.Direction.Valid() {
		return OpenResult{}, ErrInvalidDirection
	}
	if !req.AccountType.Valid() {
		return OpenResult{}, ErrInvalidAccountType
	}
	if req.Symbol == "" {
		return OpenResult{}, errors.New("symbol required")
	}
	multiplier, err := ParseLeverage(req.Leverage)
	if err != nil {
		return OpenResult{}, err
	}
	if !req.Amount.IsPositive() {
		return OpenResult{}, ErrInvalidAmount
	}
	margin := req.Amount.Div(multiplier)

	// Quote before locking anything, per the concurrency contract.
	openPrice, err := s.oracle.Quote(ctx, req.Symbol)
	if err != nil {
		return OpenResult{}, fmt.Errorf("fetch open quote: %w", err)
	}
	if openPrice <= 0 {
		return OpenResult{}, fmt.Errorf("oracle returned non-positive quote for %s", req.Symbol)
	}

	l := s.userLock(req.UserID)
	l.Lock()
	defer l.Unlock()

	if err := s.ledger.ReserveMargin(ctx, req.UserID, req.AccountType, margin); err != nil {
		if errors.Is(err, accounts.ErrInsufficientFunds) {
			return OpenResult{}, ErrInsufficientMargin
		}
		return OpenResult{}, err
	}

	trade := &model.Trade{
		ID:          id.New(),
		UserID:      req.UserID,
		Symbol:      req.Symbol,
		Direction:   req.Direction,
		Amount:      req.Amount,
		Leverage:    req.Leverage,
		AccountType: req.AccountType,
		Margin:      margin,
		OpenPrice:   decimal.NewFromFloat(openPrice),
		OpenTime:    time.Now().UTC(),
		Status:      types.TradeStatusOpen,
	}
	s.mu.Lock()
	s.trades[trade.ID] = trade
	s.mu.Unlock()

	if err := s.flush(ctx, trade); err != nil {
		return OpenResult{}, err
	}
	balance, err := s.ledger.Balances(ctx, req.UserID)
	if err != nil {
		return OpenResult{}, err
	}
	metrics.TradesOpened.WithLabelValues(string(req.AccountType)).Inc()
	s.log.Info("position opened",
		zap.String("trade_id", trade.ID),
		zap.String("user_id", req.UserID),
		zap.String("symbol", req.Symbol),
		zap.String("margin", margin.String()),
	)
	return OpenResult{Trade: trade.Clone(), Balance: balance}, nil
}

type CloseResult struct {
	Trade   *model.Trade
	PnL     decimal.Decimal
	Balance accounts.BalanceSnapshot
}

// Close settles an open position: raw P&L from the price change, the
// settlement policy transform, then margin release and statistics through
// the ledger. The open→closed transition happens exactly once; a second
// close of the same id reports NotFound.
func (s *Service) Close(ctx context.Context, tradeID, userID string) (CloseResult, error) {
	s.mu.RLock()
	trade := s.trades[tradeID]
	s.mu.RUnlock()
	if trade == nil || trade.UserID != userID {
		return CloseResult{}, ErrNotFound
	}

	closePrice, err := s.oracle.Quote(ctx, trade.Symbol)
	if err != nil {
		return CloseResult{}, fmt.Errorf("fetch close quote: %w", err)
	}
	if closePrice <= 0 {
		return CloseResult{}, fmt.Errorf("oracle returned non-positive quote for %s", trade.Symbol)
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	// Re-check under the lock: a concurrent close may have won.
	if trade.Status != types.TradeStatusOpen {
		return CloseResult{}, ErrNotFound
	}

	multiplier, err := ParseLeverage(trade.Leverage)
	if err != nil {
		return CloseResult{}, err
	}
	mark := decimal.NewFromFloat(closePrice)
	var change decimal.Decimal
	if trade.Direction == types.TradeDirectionBuy {
		change = mark.Sub(trade.OpenPrice).Div(trade.OpenPrice)
	} else {
		change = trade.OpenPrice.Sub(mark).Div(trade.OpenPrice)
	}
	raw := trade.Amount.Mul(change).Mul(multiplier)
	posted := s.policy.Apply(raw)

	// Stage the closed state; the flush commits the transition. A failed
	// flush rolls everything back so the trade is still open, no money has
	// moved and a retry starts clean. s.mu also guards the field writes so
	// admin listings never clone a half-closed trade.
	now := time.Now().UTC()
	s.mu.Lock()
	trade.Status = types.TradeStatusClosed
	trade.ClosePrice = mark
	trade.CloseTime = &now
	trade.PnL = posted
	s.mu.Unlock()

	if err := s.flush(ctx, trade); err != nil {
		s.mu.Lock()
		trade.Status = types.TradeStatusOpen
		trade.ClosePrice = decimal.Zero
		trade.CloseTime = nil
		trade.PnL = decimal.Zero
		s.mu.Unlock()
		return CloseResult{}, err
	}

	// Once the transition is committed the settlement and statistics apply
	// unconditionally. The ledger mutates in memory before it flushes, so a
	// lagging account flush cannot lose the margin; it is logged by the
	// ledger and repaired on the next successful write.
	if err := s.ledger.ReleaseSettlement(ctx, userID, trade.AccountType, trade.Margin, posted); err != nil && !errors.Is(err, store.ErrPersistence) {
		return CloseResult{}, err
	}
	if err := s.ledger.RecordTradeClosed(ctx, userID, posted); err != nil && !errors.Is(err, store.ErrPersistence) {
		return CloseResult{}, err
	}
	balance, err := s.ledger.Balances(ctx, userID)
	if err != nil {
		return CloseResult{}, err
	}

	result := "flat"
	switch {
	case posted.IsPositive():
		result = "win"
	case posted.IsNegative():
		result = "loss"
	}
	metrics.TradesClosed.WithLabelValues(result).Inc()
	s.log.Info("position closed",
		zap.String("trade_id", trade.ID),
		zap.String("user_id", userID),
		zap.String("raw_pnl", raw.String()),
		zap.String("posted_pnl", posted.String()),
	)
	return CloseResult{Trade: trade.Clone(), PnL: posted, Balance: balance}, nil
}

// ListOpen returns the user's open positions, most recently opened first.
func (s *Service) ListOpen(ctx context.Context, userID string) []*model.Trade {
	return s.list(userID, true)
}

// ListHistory returns all of the user's positions, open and closed, most
// recently opened first.
func (s *Service) ListHistory(ctx context.Context, userID string) []*model.Trade {
	return s.list(userID, false)
}

func (s *Service) list(userID string, openOnly bool) []*model.Trade {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.RLock()
	out := make([]*model.Trade, 0, 8)
	for _, t := range s.trades {
		if t.UserID != userID {
			continue
		}
		if openOnly && t.Status != types.TradeStatusOpen {
			continue
		}
		out = append(out, t.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenTime.Equal(out[j].OpenTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].OpenTime.After(out[j].OpenTime)
	})
	return out
}

// ListAll returns every trade on the platform, newest first. Admin use only.
func (s *Service) ListAll(ctx context.Context) []*model.Trade {
	s.mu.RLock()
	out := make([]*model.Trade, 0, len(s.trades))
	for _, t := range s.trades {
		out = append(out, t.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenTime.Equal(out[j].OpenTime) {
			return out[i].ID > out[j].ID
		}
		return out[i].OpenTime.After(out[j].OpenTime)
	})
	return out
}

func (s *Service) flush(ctx context.Context, t *model.Trade) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%w: encode trade: %v", store.ErrPersistence, err)
	}
	if err := s.store.Put(ctx, store.CollectionTrades, t.ID, doc); err != nil {
		s.log.Error("trade flush failed", zap.String("trade_id", t.ID), zap.Error(err))
		return err
	}
	return nil
}

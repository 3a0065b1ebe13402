package model

import (
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID            string                                 `json:"id"`
	Email         string                                 `json:"email"`
	PasswordHash  string                                 `json:"password_hash,omitempty"`
	FirstName     string                                 `json:"first_name"`
	LastName      string                                 `json:"last_name"`
	Phone         string                                 `json:"phone,omitempty"`
	Country       string                                 `json:"country,omitempty"`
	Level         string                                 `json:"level"`
	VIPStatus     string                                 `json:"vip_status"`
	Balance       map[types.AccountType]decimal.Decimal `json:"balance"`
	Trades        int                                    `json:"trades"`
	ClosedTrades  int                                    `json:"closed_trades"`
	WinningTrades int                                    `json:"winning_trades"`
	TotalProfit   decimal.Decimal                        `json:"total_profit"`
	WinRate       decimal.Decimal                        `json:"win_rate"`
	JoinedAt      time.Time                              `json:"joined_at"`
	LastLoginAt   time.Time                              `json:"last_login_at"`
}

// Clone returns a deep copy, so callers can hand accounts out of a locked
// section without sharing the balance map.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Balance = make(map[types.AccountType]decimal.Decimal, len(a.Balance))
	for k, v := range a.Balance {
		cp.Balance[k] = v
	}
	return &cp
}

// Profile is the user-facing view of an account, without credentials.
type Profile struct {
	ID          string                                 `json:"id"`
	Email       string                                 `json:"email"`
	FirstName   string                                 `json:"first_name"`
	LastName    string                                 `json:"last_name"`
	Phone       string                                 `json:"phone,omitempty"`
	Country     string                                 `json:"country,omitempty"`
	Level       string                                 `json:"level"`
	VIPStatus   string                                 `json:"vip_status"`
	Balance     map[types.AccountType]decimal.Decimal `json:"balance"`
	Trades      int                                    `json:"trades"`
	TotalProfit decimal.Decimal                        `json:"total_profit"`
	WinRate     decimal.Decimal                        `json:"win_rate"`
	JoinedAt    time.Time                              `json:"joined_at"`
	LastLoginAt time.Time                              `json:"last_login_at"`
}

func (a *Account) Profile() Profile {
	cp := a.Clone()
	return Profile{
		ID:          cp.ID,
		Email:       cp.Email,
		FirstName:   cp.FirstName,
		LastName:    cp.LastName,
		Phone:       cp.Phone,
		Country:     cp.Country,
		Level:       cp.Level,
		VIPStatus:   cp.VIPStatus,
		Balance:     cp.Balance,
		Trades:      cp.Trades,
		TotalProfit: cp.TotalProfit,
		WinRate:     cp.WinRate,
		JoinedAt:    cp.JoinedAt,
		LastLoginAt: cp.LastLoginAt,
	}
}

package model

import (
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/shopspring/decimal"
)

// CashMovement is a deposit or withdrawal request. Fee, bonus and net amount
// are derived from the requested amount once, at creation, and never
// recomputed afterwards.
type CashMovement struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Type      types.MovementType   `json:"type"`
	Amount    decimal.Decimal      `json:"amount"`
	Fee       decimal.Decimal      `json:"fee"`
	Bonus     decimal.Decimal      `json:"bonus"`
	NetAmount decimal.Decimal      `json:"net_amount"`
	Method    string               `json:"method"`
	Details   string               `json:"details,omitempty"`
	Status    types.MovementStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

func (m *CashMovement) Clone() *CashMovement {
	cp := *m
	return &cp
}

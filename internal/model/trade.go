package model

import (
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/shopspring/decimal"
)

type Trade struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	Symbol      string               `json:"symbol"`
	Direction   types.TradeDirection `json:"direction"`
	Amount      decimal.Decimal      `json:"amount"`
	Leverage    string               `json:"leverage"`
	AccountType types.AccountType    `json:"account_type"`
	Margin      decimal.Decimal      `json:"margin"`
	OpenPrice   decimal.Decimal      `json:"open_price"`
	OpenTime    time.Time            `json:"open_time"`
	Status      types.TradeStatus    `json:"status"`
	ClosePrice  decimal.Decimal      `json:"close_price,omitempty"`
	CloseTime   *time.Time           `json:"close_time,omitempty"`
	PnL         decimal.Decimal      `json:"pnl"`
}

func (t *Trade) Clone() *Trade {
	cp := *t
	if t.CloseTime != nil {
		ct := *t.CloseTime
		cp.CloseTime = &ct
	}
	return &cp
}

package types

type AccountType string

type TradeDirection string

type TradeStatus string

type MovementType string

type MovementStatus string

const (
	AccountTypeDemo AccountType = "demo"
	AccountTypeLive AccountType = "live"
)

const (
	TradeDirectionBuy  TradeDirection = "buy"
	TradeDirectionSell TradeDirection = "sell"
)

const (
	TradeStatusOpen   TradeStatus = "open"
	TradeStatusClosed TradeStatus = "closed"
)

const (
	MovementTypeDeposit    MovementType = "deposit"
	MovementTypeWithdrawal MovementType = "withdrawal"
)

const (
	MovementStatusPending   MovementStatus = "pending"
	MovementStatusCompleted MovementStatus = "completed"
	MovementStatusRejected  MovementStatus = "rejected"
)

func (t AccountType) Valid() bool {
	return t == AccountTypeDemo || t == AccountTypeLive
}

func (d TradeDirection) Valid() bool {
	return d == TradeDirectionBuy || d == TradeDirectionSell
}

func (s MovementStatus) Valid() bool {
	return s == MovementStatusPending || s == MovementStatusCompleted || s == MovementStatusRejected
}

// Package settlement holds the platform-side adjustment applied to raw trade
// P&L before it is posted to a balance. The policy is process configuration:
// nothing in a request payload may influence it.
package settlement

import "github.com/shopspring/decimal"

type Policy interface {
	// Apply transforms raw P&L into the amount actually posted. It must be
	// pure and defined for every input.
	Apply(raw decimal.Decimal) decimal.Decimal
}

var (
	DefaultProfitFactor = decimal.NewFromFloat(0.05)
	DefaultLossFactor   = decimal.NewFromFloat(0.02)
)

// DampingPolicy scales profits and losses by separate factors; zero maps to
// zero. With the default factors a winning trade posts 5% of its raw profit
// and a losing trade 2% of its raw loss.
type DampingPolicy struct {
	ProfitFactor decimal.Decimal
	LossFactor   decimal.Decimal
}

func NewDampingPolicy(profitFactor, lossFactor decimal.Decimal) DampingPolicy {
	if !profitFactor.IsPositive() {
		profitFactor = DefaultProfitFactor
	}
	if !lossFactor.IsPositive() {
		lossFactor = DefaultLossFactor
	}
	return DampingPolicy{ProfitFactor: profitFactor, LossFactor: lossFactor}
}

func (p DampingPolicy) Apply(raw decimal.Decimal) decimal.Decimal {
	switch {
	case raw.IsPositive():
		return raw.Mul(p.ProfitFactor)
	case raw.IsNegative():
		return raw.Mul(p.LossFactor)
	default:
		return decimal.Zero
	}
}

// IdentityPolicy posts raw P&L unchanged.
type IdentityPolicy struct{}

func (IdentityPolicy) Apply(raw decimal.Decimal) decimal.Decimal { return raw }

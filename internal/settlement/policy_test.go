package settlement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDampingPolicyApply(t *testing.T) {
	policy := NewDampingPolicy(decimal.NewFromFloat(0.05), decimal.NewFromFloat(0.02))

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"profit damped to 5 percent", "1000", "50"},
		{"loss damped to 2 percent", "-1000", "-20"},
		{"zero passes through", "0", "0"},
		{"small profit", "1", "0.05"},
		{"small loss", "-1", "-0.02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := decimal.NewFromString(tt.raw)
			require.NoError(t, err)
			want, err := decimal.NewFromString(tt.want)
			require.NoError(t, err)
			assert.True(t, policy.Apply(raw).Equal(want))
		})
	}
}

func TestDampingPolicyPreservesSign(t *testing.T) {
	policy := NewDampingPolicy(decimal.NewFromFloat(0.05), decimal.NewFromFloat(0.02))
	assert.True(t, policy.Apply(decimal.NewFromInt(123)).IsPositive())
	assert.True(t, policy.Apply(decimal.NewFromInt(-77)).IsNegative())
	assert.True(t, policy.Apply(decimal.Zero).IsZero())
}

func TestDampingPolicyDefaults(t *testing.T) {
	policy := NewDampingPolicy(decimal.Zero, decimal.NewFromInt(-1))
	assert.True(t, policy.Apply(decimal.NewFromInt(100)).Equal(decimal.NewFromInt(5)))
	assert.True(t, policy.Apply(decimal.NewFromInt(-100)).Equal(decimal.NewFromInt(-2)))
}

func TestIdentityPolicy(t *testing.T) {
	raw := decimal.NewFromFloat(-42.5)
	assert.True(t, IdentityPolicy{}.Apply(raw).Equal(raw))
}

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/accounts"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/store"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ledger := accounts.NewService(store.NewMemoryStore(), zap.NewNop())
	require.NoError(t, ledger.Init(context.Background()))
	return NewService(ledger, "mitheralfx", []byte("test-secret"), time.Hour, decimal.NewFromInt(10000))
}

func TestRegisterSeedsStartingBalances(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, acc, err := svc.Register(ctx, RegisterRequest{Email: "A@Example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.Equal(t, "a@example.com", acc.Email)
	assert.Equal(t, "Beginner", acc.Level)
	assert.Equal(t, "Standard", acc.VIPStatus)
	assert.True(t, acc.Balance[types.AccountTypeDemo].Equal(decimal.NewFromInt(10000)))
	assert.True(t, acc.Balance[types.AccountTypeLive].IsZero())

	userID, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, userID)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterRequest{Email: "", Password: "x"})
	assert.Error(t, err)

	_, _, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: ""})
	assert.Error(t, err)

	_, _, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "pw"})
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "pw"})
	assert.ErrorIs(t, err, accounts.ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, reg, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "hunter22"})
	require.NoError(t, err)

	token, acc, err := svc.Login(ctx, "a@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, acc.ID)

	userID, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, userID)

	_, _, err = svc.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, acc, err := svc.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "old-pass"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(ctx, acc.ID, "wrong", "new-pass"), ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, acc.ID, "old-pass", "new-pass"))

	_, _, err = svc.Login(ctx, "a@example.com", "old-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "a@example.com", "new-pass")
	assert.NoError(t, err)
}

func TestParseTokenRejectsForeignIssuer(t *testing.T) {
	svc := newTestService(t)
	other := NewService(nil, "other-issuer", []byte("test-secret"), time.Hour, decimal.Zero)

	token, err := other.signToken("u1")
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.ParseToken("not-a-token")
	assert.Error(t, err)
}

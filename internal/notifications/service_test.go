package notifications

import (
	"context"
	"testing"

	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/model"
	"github.com/SAMWELLMEDIA/MitheralFX-2/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(store.NewMemoryStore(), zap.NewNop())
	require.NoError(t, svc.Init(context.Background()))
	return svc
}

func TestListForUserIncludesBroadcasts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mine, err := svc.Notify(ctx, "u1", "Deposit completed", "Funds credited.")
	require.NoError(t, err)
	_, err = svc.Notify(ctx, "u2", "Deposit completed", "Funds credited.")
	require.NoError(t, err)
	broadcast, err := svc.Notify(ctx, model.BroadcastUserID, "Maintenance", "Sunday 02:00 UTC.")
	require.NoError(t, err)

	items := svc.ListForUser(ctx, "u1")
	require.Len(t, items, 2)
	// Newest first.
	assert.Equal(t, broadcast.ID, items[0].ID)
	assert.Equal(t, mine.ID, items[1].ID)
}

func TestMarkRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	n, err := svc.Notify(ctx, "u1", "Hello", "body")
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, n.ID, "u1"))
	items := svc.ListForUser(ctx, "u1")
	require.Len(t, items, 1)
	assert.True(t, items[0].Read)

	assert.ErrorIs(t, svc.MarkRead(ctx, n.ID, "u2"), ErrNotFound)
	assert.ErrorIs(t, svc.MarkRead(ctx, "missing", "u1"), ErrNotFound)
}

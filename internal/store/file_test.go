package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, st.Put(ctx, CollectionUsers, "u1", []byte(`{"id":"u1","email":"a@example.com"}`)))
	require.NoError(t, st.Put(ctx, CollectionUsers, "u2", []byte(`{"id":"u2","email":"b@example.com"}`)))
	require.NoError(t, st.Put(ctx, CollectionTrades, "t1", []byte(`{"id":"t1"}`)))
	require.NoError(t, st.Close())

	// Reopen from disk; everything must survive the restart.
	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	users, err := reopened.Load(ctx, CollectionUsers)
	require.NoError(t, err)
	require.Len(t, users, 2)

	var u struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(users["u1"], &u))
	assert.Equal(t, "a@example.com", u.Email)

	trades, err := reopened.Load(ctx, CollectionTrades)
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestFileStorePutOverwrites(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := NewFileStore(dir)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Put(ctx, CollectionUsers, "u1", []byte(`{"v":1}`)))
	require.NoError(t, st.Put(ctx, CollectionUsers, "u1", []byte(`{"v":2}`)))

	docs, err := st.Load(ctx, CollectionUsers)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.JSONEq(t, `{"v":2}`, string(docs["u1"]))
}

func TestFileStoreDelete(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := NewFileStore(dir)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Put(ctx, CollectionDeposits, "d1", []byte(`{}`)))
	require.NoError(t, st.Delete(ctx, CollectionDeposits, "d1"))

	docs, err := st.Load(ctx, CollectionDeposits)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFileStoreEmptyCollection(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer st.Close()

	docs, err := st.Load(context.Background(), CollectionNotifications)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

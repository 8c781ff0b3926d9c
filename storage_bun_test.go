package session_test

import (
	"context"
	"testing"

	"github.com/localmart/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBunStorage(t *testing.T) *session.BunTokenStorage {
	t.Helper()
	db, err := session.OpenTokenDB("file::memory:?cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	storage, err := session.NewBunTokenStorage(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, storage.Delete(context.Background()))
	return storage
}

func TestBunStorageEmptySlot(t *testing.T) {
	storage := newBunStorage(t)

	_, err := storage.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNoStoredToken)
}

func TestBunStorageSaveLoadDelete(t *testing.T) {
	storage := newBunStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, []byte("ciphertext-1")))
	got, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext-1"), got)

	// the slot holds exactly one value; saving again replaces it
	require.NoError(t, storage.Save(ctx, []byte("ciphertext-2")))
	got, err = storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("ciphertext-2"), got)

	require.NoError(t, storage.Delete(ctx))
	_, err = storage.Load(ctx)
	assert.ErrorIs(t, err, session.ErrNoStoredToken)
}

func TestBunStorageDeleteEmptyIsNoop(t *testing.T) {
	storage := newBunStorage(t)
	assert.NoError(t, storage.Delete(context.Background()))
}

package boltdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/confsync/internal/client/storage"
)

func TestCredentials_SaveGetDelete(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.GetCredentials(ctx)
	assert.ErrorIs(t, err, storage.ErrCredentialsNotFound)

	creds := &storage.Credentials{Token: "token-1", DeviceID: "laptop", ExpiresAt: 1700000000}
	require.NoError(t, store.SaveCredentials(ctx, creds))

	got, err := store.GetCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	// повторный login заменяет токен
	require.NoError(t, store.SaveCredentials(ctx, &storage.Credentials{Token: "token-2", DeviceID: "laptop"}))
	got, err = store.GetCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", got.Token)
	assert.Zero(t, got.ExpiresAt)

	require.NoError(t, store.DeleteCredentials(ctx))
	assert.ErrorIs(t, store.DeleteCredentials(ctx), storage.ErrCredentialsNotFound)
	_, err = store.GetCredentials(ctx)
	assert.ErrorIs(t, err, storage.ErrCredentialsNotFound)
}

func TestCredentials_Closed(t *testing.T) {
	store, err := New(context.Background(), t.TempDir()+"/closed.db")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.SaveCredentials(context.Background(), &storage.Credentials{}), storage.ErrStorageClosed)
	_, err = store.GetCredentials(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

package boltdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/iudanet/confsync/internal/client/storage"
)

// createTestStorage создает временное BoltDB хранилище
func createTestStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	return store
}

func TestNew_Success(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "testdb.db")

	ctx := context.Background()
	store, err := New(ctx, dbPath)
	require.NoError(t, err)
	require.NotNil(t, store)
	defer func() {
		require.NoError(t, store.Close())
	}()

	// Проверяем что файл БД действительно создан
	info, err := os.Stat(dbPath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	// Проверяем, что бакеты существуют
	err = store.db.View(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketBaseline, bucketPending, bucketDomain, bucketAuth} {
			if tx.Bucket(b) == nil {
				return os.ErrNotExist
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNew_InvalidPath(t *testing.T) {
	// Каталог вместо файла
	store, err := New(context.Background(), t.TempDir())
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestClose(t *testing.T) {
	store, err := New(context.Background(), filepath.Join(t.TempDir(), "testdb.db"))
	require.NoError(t, err)

	// Закрываем БД
	assert.NoError(t, store.Close())

	// После закрытия поле db должно стать nil
	assert.Nil(t, store.db)

	// Второй вызов Close не должен падать
	assert.NoError(t, store.Close())

	_, err = store.LoadState(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = store.EnsureDeviceID(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestEnsureDeviceID_Stable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "local.db")
	ctx := context.Background()

	store, err := New(ctx, dbPath)
	require.NoError(t, err)

	first, err := store.EnsureDeviceID(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 36)

	second, err := store.EnsureDeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.NoError(t, store.Close())

	// Переживает перезапуск
	store, err = New(ctx, dbPath)
	require.NoError(t, err)
	defer func() {
		_ = store.Close()
	}()

	third, err := store.EnsureDeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, third)

	state, err := store.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, state.Baseline.DeviceID)
}

func TestEnsureDeviceID_BucketMissing(t *testing.T) {
	store := createTestStorage(t)

	require.NoError(t, store.db.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(bucketMeta)
	}))

	_, err := store.EnsureDeviceID(context.Background())
	assert.Error(t, err)
}

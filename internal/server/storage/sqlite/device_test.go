package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/server/storage"
)

func createTestDevice(t *testing.T, ctx context.Context, s *Storage, id string) *models.Device {
	device := &models.Device{
		ID:        id,
		Label:     "laptop",
		CreatedAt: time.UnixMilli(1700000000000),
	}
	require.NoError(t, s.CreateDevice(ctx, device))
	return device
}

func TestDeviceStorage_CreateDevice(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	createTestDevice(t, ctx, s, "device-a")

	got, err := s.GetDevice(ctx, "device-a")
	require.NoError(t, err)
	assert.Equal(t, "device-a", got.ID)
	assert.Equal(t, "laptop", got.Label)
	assert.Equal(t, int64(1700000000000), got.CreatedAt.UnixMilli())
	assert.Nil(t, got.LastSeenAt)
	assert.False(t, got.Revoked())

	err = s.CreateDevice(ctx, &models.Device{ID: "device-a", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, storage.ErrDeviceAlreadyExists)
}

func TestDeviceStorage_GetDeviceNotFound(t *testing.T) {
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	_, err := s.GetDevice(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrDeviceNotFound)
}

func TestDeviceStorage_ListDevices(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	devices, err := s.ListDevices(ctx)
	require.NoError(t, err)
	assert.Empty(t, devices)

	createTestDevice(t, ctx, s, "b")
	createTestDevice(t, ctx, s, "a")

	devices, err = s.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "a", devices[0].ID)
	assert.Equal(t, "b", devices[1].ID)
}

func TestDeviceStorage_RevokeAndLastSeen(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	createTestDevice(t, ctx, s, "device-a")
	seen := time.UnixMilli(1700000001000)
	revoked := time.UnixMilli(1700000002000)

	require.NoError(t, s.UpdateLastSeen(ctx, "device-a", seen))
	require.NoError(t, s.RevokeDevice(ctx, "device-a", revoked))

	got, err := s.GetDevice(ctx, "device-a")
	require.NoError(t, err)
	require.NotNil(t, got.LastSeenAt)
	assert.Equal(t, seen.UnixMilli(), got.LastSeenAt.UnixMilli())
	assert.True(t, got.Revoked())
	assert.Equal(t, revoked.UnixMilli(), got.RevokedAt.UnixMilli())

	assert.ErrorIs(t, s.RevokeDevice(ctx, "missing", revoked), storage.ErrDeviceNotFound)
	assert.ErrorIs(t, s.UpdateLastSeen(ctx, "missing", seen), storage.ErrDeviceNotFound)
}

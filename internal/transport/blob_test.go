package transport

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/confsync/internal/codec"
	"github.com/iudanet/confsync/internal/manifest"
	"github.com/iudanet/confsync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func op(device string, opID int64) models.Operation {
	return models.NewSetField(models.EntitySite, "e1", "name", models.StringValue(device),
		models.WriteKey{DeviceID: device, TimestampEpochMs: 1000 + opID, OpID: opID})
}

// stores возвращает реализации ObjectStore, на которых прогоняются общие тесты
func stores(t *testing.T) map[string]ObjectStore {
	t.Helper()
	dir, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	return map[string]ObjectStore{
		"memory": NewMemoryStore(),
		"dir":    dir,
		"s3":     NewS3StoreWithClient(newFakeS3(), S3Config{Bucket: "test", Prefix: "root/"}),
	}
}

func TestBlob_ManifestAndSnapshot(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := NewBlob(store, testLogger())

			_, err := b.ReadManifest(ctx)
			assert.ErrorIs(t, err, models.ErrNotFound)
			_, err = b.ReadSnapshot(ctx)
			assert.ErrorIs(t, err, models.ErrNotFound)

			m := manifest.New("a")
			require.NoError(t, b.WriteManifest(ctx, m))

			got, err := b.ReadManifest(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, got.KnownDeviceIDs)

			// версия манифеста не может уменьшиться
			stale := m.Clone()
			stale.ManifestVersion = 0
			assert.ErrorIs(t, b.WriteManifest(ctx, stale), ErrVersionConflict)

			s := models.NewSnapshot()
			s.SnapshotVersion = 1
			require.NoError(t, b.WriteSnapshot(ctx, s))
			assert.ErrorIs(t, b.WriteSnapshot(ctx, s), ErrVersionConflict)

			read, err := b.ReadSnapshot(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), read.SnapshotVersion)
		})
	}
}

func TestBlob_AppendListPrune(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := NewBlob(store, testLogger()).WithNow(fixedClock(5000))

			require.NoError(t, b.AppendOperations(ctx, "a", []models.Operation{op("a", 1), op("a", 2)}))
			require.NoError(t, b.AppendOperations(ctx, "a", []models.Operation{op("a", 3)}))
			require.NoError(t, b.AppendOperations(ctx, "b", []models.Operation{op("b", 1)}))
			require.NoError(t, b.AppendOperations(ctx, "b", nil))

			objs, err := b.ListOperationObjects(ctx, "a")
			require.NoError(t, err)
			require.Len(t, objs, 2)
			assert.Equal(t, "a", objs[0].DeviceID)
			assert.Equal(t, int64(5000), objs[0].CreatedAtEpochMs)

			ops, corrupt := codec.DecodeOperations(objs[0].Key, objs[0].Data)
			assert.Empty(t, corrupt)
			assert.Len(t, ops, 2)

			all, err := b.ListOperationObjects(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			pruned, err := b.PruneOperations(ctx, "a", 2)
			require.NoError(t, err)
			assert.Equal(t, 1, pruned)

			objs, err = b.ListOperationObjects(ctx, "a")
			require.NoError(t, err)
			require.Len(t, objs, 1)
			info, err := ParseOperationKey(objs[0].Key)
			require.NoError(t, err)
			assert.Equal(t, int64(3), info.FirstOpID)
		})
	}
}

func TestBlob_ListSkipsForeignKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "ops/a/readme.txt", []byte("hi")))

	b := NewBlob(store, testLogger())
	require.NoError(t, b.AppendOperations(ctx, "a", []models.Operation{op("a", 1)}))

	objs, err := b.ListOperationObjects(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}

func TestBlob_PreviewAndApplyReset(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b := NewBlob(store, testLogger()).WithNow(fixedClock(1000))

			m, _ := manifest.RegisterDevice(manifest.New("a"), "b")
			require.NoError(t, b.WriteManifest(ctx, m))
			require.NoError(t, b.AppendOperations(ctx, "a", []models.Operation{op("a", 1), op("a", 2)}))
			require.NoError(t, b.AppendOperations(ctx, "b", []models.Operation{op("b", 1)}))
			s := models.NewSnapshot()
			s.SnapshotVersion = 1
			require.NoError(t, b.WriteSnapshot(ctx, s))

			preview, err := b.PreviewReset(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, preview.ObjectCount, "two logs and a snapshot")
			assert.Equal(t, []string{"a", "b"}, preview.KnownDeviceIDs)
			assert.Equal(t, map[string]int{"a": 2, "b": 1}, preview.PerDeviceOpCounts)

			require.NoError(t, b.ApplyReset(ctx, 2000))

			after, err := b.ReadManifest(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2000), after.ResetAtMs())
			assert.Greater(t, after.ManifestVersion, m.ManifestVersion)

			objs, err := b.ListOperationObjects(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, objs)
			_, err = b.ReadSnapshot(ctx)
			assert.ErrorIs(t, err, models.ErrNotFound)

			// Часы устройства отстают от resetAt: новый объект не должен отсечься
			require.NoError(t, b.AppendOperations(ctx, "a", []models.Operation{op("a", 1)}))
			objs, err = b.ListOperationObjects(ctx, "a")
			require.NoError(t, err)
			require.Len(t, objs, 1)
			assert.False(t, manifest.ShouldIgnore(objs[0].CreatedAtEpochMs, after))
		})
	}
}

func TestDirStore_PathTraversal(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestDirStore_DeleteMissing(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "ops/a/missing.ndjson"))
}

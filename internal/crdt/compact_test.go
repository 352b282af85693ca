package crdt

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/confsync/internal/models"
)

func TestOperationsSince(t *testing.T) {
	ops := []models.Operation{
		setOp("e1", "name", models.StringValue("a1"), key(100, "a", 1)),
		setOp("e1", "name", models.StringValue("a2"), key(101, "a", 2)),
		setOp("e1", "name", models.StringValue("b1"), key(102, "b", 1)),
	}

	tests := []struct {
		name       string
		watermarks models.DeviceWatermarks
		expected   int
	}{
		{"empty watermarks", models.DeviceWatermarks{}, 3},
		{"nil watermarks", nil, 3},
		{"device a partially covered", models.DeviceWatermarks{"a": 1}, 2},
		{"everything covered", models.DeviceWatermarks{"a": 2, "b": 1}, 0},
		{"unknown device in watermarks", models.DeviceWatermarks{"z": 100}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, OperationsSince(ops, tt.watermarks), tt.expected)
		})
	}
}

func TestCompact(t *testing.T) {
	ops := []models.Operation{
		setOp("e1", "name", models.StringValue("Alpha"), key(100, "a", 1)),
		setOp("e1", "url", models.StringValue("http://alpha"), key(101, "a", 2)),
		setOp("e2", "name", models.StringValue("Gone"), key(102, "b", 1)),
		deleteOp("e2", key(103, "b", 2)),
	}

	snapshot, stats, err := Compact(context.Background(), nil, ops, 5000)
	require.NoError(t, err)
	require.NotNil(t, snapshot)

	assert.Equal(t, int64(1), snapshot.SnapshotVersion)
	assert.Equal(t, int64(5000), snapshot.CreatedAtEpochMs)
	assert.Equal(t, models.CurrentSyncSchemaVersion, snapshot.SyncSchemaVersion)
	assert.Equal(t, models.DeviceWatermarks{"a": 2, "b": 2}, snapshot.CompactedThrough)
	assert.Equal(t, 2, stats.Entities)

	require.Contains(t, snapshot.Entities, "e2")
	assert.True(t, snapshot.Entities["e2"].Deleted, "tombstones survive compaction")
	assert.Len(t, snapshot.Entities["e1"].Fields, 2)
}

func TestCompact_DoesNotMutateBase(t *testing.T) {
	base, _, err := Compact(context.Background(), nil, []models.Operation{
		setOp("e1", "name", models.StringValue("v1"), key(100, "a", 1)),
	}, 1000)
	require.NoError(t, err)
	before := base.Clone()

	next, _, err := Compact(context.Background(), base, []models.Operation{
		setOp("e1", "name", models.StringValue("v2"), key(200, "a", 2)),
	}, 2000)
	require.NoError(t, err)

	assert.True(t, models.EqualStates(before.Entities, base.Entities))
	assert.Equal(t, before.CompactedThrough, base.CompactedThrough)
	assert.Equal(t, int64(2), next.SnapshotVersion)
	assert.True(t, models.StringValue("v2").Equal(next.Entities["e1"].Fields["name"].Value))
}

func TestCompact_SkipsCoveredOperations(t *testing.T) {
	first := []models.Operation{
		setOp("e1", "name", models.StringValue("v1"), key(100, "a", 1)),
	}
	base, _, err := Compact(context.Background(), nil, first, 1000)
	require.NoError(t, err)

	// Лог еще не обрезан: старые операции приходят вместе с новыми
	all := append(first, setOp("e1", "url", models.StringValue("u"), key(200, "a", 2)))
	next, stats, err := Compact(context.Background(), base, all, 2000)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Applied)
	assert.Equal(t, models.DeviceWatermarks{"a": 2}, next.CompactedThrough)
}

func TestCompact_SchemaTooNew(t *testing.T) {
	base := models.NewSnapshot()
	base.SyncSchemaVersion = models.CurrentSyncSchemaVersion + 1

	_, _, err := Compact(context.Background(), base, nil, 1000)

	var tooNew *models.SchemaTooNewError
	require.True(t, errors.As(err, &tooNew))
	assert.Equal(t, "snapshot", tooNew.Source)
}

func TestCompact_BlockedByCollisions(t *testing.T) {
	ops := []models.Operation{
		setOp("shared", "name", models.StringValue("site"), key(100, "a", 1)),
		models.NewSetField(models.EntityMonitor, "shared", "url", models.StringValue("http://x"), key(101, "b", 1)),
	}

	snapshot, stats, err := Compact(context.Background(), nil, ops, 1000)

	assert.ErrorIs(t, err, ErrUnresolvedCollisions)
	assert.Nil(t, snapshot)
	assert.Len(t, stats.Collisions, 1)
}

func TestCompact_Equivalence(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))

	for round := 0; round < 30; round++ {
		history := randomHistory(r, 80)
		split := r.IntN(len(history) + 1)

		expected := mergeAll(t, nil, history)

		first, _, err := Compact(context.Background(), nil, history[:split], 1000)
		require.NoError(t, err)

		// Снапшот плюс хвост лога
		replayed, _, err := Replay(context.Background(), first, history[split:])
		require.NoError(t, err)
		require.True(t, models.EqualStates(expected, replayed), "round %d: replay over snapshot diverged", round)

		// Снапшот плюс полный, еще не обрезанный лог
		replayed, _, err = Replay(context.Background(), first, history)
		require.NoError(t, err)
		require.True(t, models.EqualStates(expected, replayed), "round %d: replay over full log diverged", round)

		// Повторная компакция
		second, _, err := Compact(context.Background(), first, history[split:], 2000)
		require.NoError(t, err)
		require.True(t, models.EqualStates(expected, second.Entities), "round %d: second compaction diverged", round)
	}
}

func TestReplay_NilBase(t *testing.T) {
	ops := []models.Operation{
		setOp("e1", "name", models.StringValue("v"), key(100, "a", 1)),
	}

	state, _, err := Replay(context.Background(), nil, ops)
	require.NoError(t, err)
	assert.Contains(t, state, "e1")
}

package manifest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/confsync/internal/models"
)

type object struct {
	key       string
	createdAt int64
}

func (o object) CreatedAtMs() int64 { return o.createdAt }

func withReset(resetAt int64) *models.Manifest {
	m := New("a")
	m.ResetAt = &resetAt
	return m
}

func TestNew(t *testing.T) {
	m := New("device-a")

	assert.Equal(t, int64(1), m.ManifestVersion)
	assert.Equal(t, models.CurrentSyncSchemaVersion, m.SyncSchemaVersion)
	assert.Equal(t, []string{"device-a"}, m.KnownDeviceIDs)
	assert.Nil(t, m.ResetAt)

	assert.Empty(t, New("").KnownDeviceIDs)
}

func TestShouldIgnore(t *testing.T) {
	tests := []struct {
		name      string
		manifest  *models.Manifest
		createdAt int64
		expected  bool
	}{
		{"nil manifest", nil, 10, false},
		{"never reset", New("a"), 10, false},
		{"created before reset", withReset(1000), 999, true},
		{"created exactly at reset", withReset(1000), 1000, false},
		{"created after reset", withReset(1000), 1001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShouldIgnore(tt.createdAt, tt.manifest))
		})
	}
}

func TestShouldIgnoreOperation(t *testing.T) {
	m := withReset(1000)
	old := models.NewSetField(models.EntitySite, "e1", "name", models.StringValue("x"),
		models.WriteKey{DeviceID: "a", TimestampEpochMs: 500, OpID: 1})
	fresh := models.NewSetField(models.EntitySite, "e1", "name", models.StringValue("y"),
		models.WriteKey{DeviceID: "a", TimestampEpochMs: 1500, OpID: 1})

	assert.True(t, ShouldIgnoreOperation(old, m))
	assert.False(t, ShouldIgnoreOperation(fresh, m))

	kept, ignored := FilterOperations([]models.Operation{old, fresh}, m)
	assert.Equal(t, 1, ignored)
	require.Len(t, kept, 1)
	assert.Equal(t, int64(1500), kept[0].WriteKey.TimestampEpochMs)
}

func TestRegisterDevice(t *testing.T) {
	m := New("b")

	next, changed := RegisterDevice(m, "a")
	assert.True(t, changed)
	assert.Equal(t, []string{"a", "b"}, next.KnownDeviceIDs, "device ids stay sorted")
	assert.Equal(t, int64(2), next.ManifestVersion)
	assert.Equal(t, []string{"b"}, m.KnownDeviceIDs, "input is not mutated")

	again, changed := RegisterDevice(next, "a")
	assert.False(t, changed)
	assert.Same(t, next, again)
	assert.Equal(t, int64(2), again.ManifestVersion)

	created, changed := RegisterDevice(nil, "c")
	assert.True(t, changed)
	assert.Equal(t, []string{"c"}, created.KnownDeviceIDs)
}

func TestApplyReset(t *testing.T) {
	m := New("a")

	first := ApplyReset(m, 2000)
	require.NotNil(t, first.ResetAt)
	assert.Equal(t, int64(2000), *first.ResetAt)
	assert.Equal(t, int64(2), first.ManifestVersion)
	assert.Nil(t, m.ResetAt)

	// Водяной знак не движется назад
	second := ApplyReset(first, 1500)
	assert.Equal(t, int64(2000), *second.ResetAt)
	assert.Equal(t, int64(3), second.ManifestVersion)

	third := ApplyReset(second, 3000)
	assert.Equal(t, int64(3000), *third.ResetAt)

	fromNothing := ApplyReset(nil, 10)
	assert.Equal(t, int64(10), fromNothing.ResetAtMs())
}

func TestCheckSchema(t *testing.T) {
	assert.NoError(t, CheckSchema(New("a")))
	assert.NoError(t, CheckSchema(nil))

	future := New("a")
	future.SyncSchemaVersion = models.CurrentSyncSchemaVersion + 1

	var tooNew *models.SchemaTooNewError
	require.True(t, errors.As(CheckSchema(future), &tooNew))
	assert.Equal(t, "manifest", tooNew.Source)
}

func TestFilterObjects_ResetScenario(t *testing.T) {
	m := withReset(5000)
	objs := []object{
		{key: "stale", createdAt: 4999},
		{key: "fresh", createdAt: 5001},
	}

	kept, ignored := FilterObjects(objs, m)

	assert.Equal(t, 1, ignored)
	require.Len(t, kept, 1)
	assert.Equal(t, "fresh", kept[0].key)

	all, ignored := FilterObjects(objs, New("a"))
	assert.Equal(t, 0, ignored)
	assert.Len(t, all, 2)
}

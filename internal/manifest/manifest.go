// Package manifest реализует операции над манифестом корня синхронизации:
// реестр устройств, водяной знак сброса и проверку версии схемы.
//
// Все функции чистые: принимают манифест и возвращают новый, не изменяя входной.
package manifest

import (
	"slices"

	"github.com/iudanet/confsync/internal/models"
)

// New создает манифест при первой синхронизации корня.
func New(deviceID string) *models.Manifest {
	m := &models.Manifest{
		ManifestVersion:   1,
		SyncSchemaVersion: models.CurrentSyncSchemaVersion,
		KnownDeviceIDs:    []string{},
	}
	if deviceID != "" {
		m.KnownDeviceIDs = append(m.KnownDeviceIDs, deviceID)
	}
	return m
}

// ShouldIgnore reports whether an operation-log object created at
// createdAtEpochMs predates the manifest's reset watermark. Such objects are
// dropped before merge even if their remote deletion failed.
func ShouldIgnore(createdAtEpochMs int64, m *models.Manifest) bool {
	if m == nil || m.ResetAt == nil {
		return false
	}
	return createdAtEpochMs < *m.ResetAt
}

// ShouldIgnoreOperation reports whether an operation's write key predates
// the reset watermark.
func ShouldIgnoreOperation(op models.Operation, m *models.Manifest) bool {
	return ShouldIgnore(op.WriteKey.TimestampEpochMs, m)
}

// RegisterDevice добавляет устройство в реестр. Повторная регистрация - no-op:
// возвращается тот же манифест и changed=false.
func RegisterDevice(m *models.Manifest, deviceID string) (*models.Manifest, bool) {
	if m == nil {
		return New(deviceID), true
	}

	pos, found := slices.BinarySearch(m.KnownDeviceIDs, deviceID)
	if found {
		return m, false
	}

	next := m.Clone()
	next.KnownDeviceIDs = slices.Insert(next.KnownDeviceIDs, pos, deviceID)
	next.ManifestVersion++
	return next, true
}

// ApplyReset сдвигает водяной знак сброса: resetAt = max(resetAt, now).
// Водяной знак никогда не движется назад.
func ApplyReset(m *models.Manifest, nowEpochMs int64) *models.Manifest {
	var next *models.Manifest
	if m == nil {
		next = New("")
	} else {
		next = m.Clone()
		next.ManifestVersion++
	}

	resetAt := nowEpochMs
	if next.ResetAt != nil && *next.ResetAt > resetAt {
		resetAt = *next.ResetAt
	}
	next.ResetAt = &resetAt
	return next
}

// CheckSchema returns a SchemaTooNewError when the manifest was written by a
// newer client.
func CheckSchema(m *models.Manifest) error {
	if m != nil && m.SyncSchemaVersion > models.CurrentSyncSchemaVersion {
		return &models.SchemaTooNewError{
			Source:    "manifest",
			Version:   m.SyncSchemaVersion,
			Supported: models.CurrentSyncSchemaVersion,
		}
	}
	return nil
}

// Timestamped is an operation-log object with an embedded creation time.
type Timestamped interface {
	CreatedAtMs() int64
}

// FilterObjects отбрасывает объекты, созданные до сброса.
// Возвращает оставшиеся объекты и число отброшенных.
func FilterObjects[T Timestamped](objs []T, m *models.Manifest) ([]T, int) {
	kept := make([]T, 0, len(objs))
	for _, obj := range objs {
		if ShouldIgnore(obj.CreatedAtMs(), m) {
			continue
		}
		kept = append(kept, obj)
	}
	return kept, len(objs) - len(kept)
}

// FilterOperations отбрасывает операции с timestamp раньше водяного знака сброса.
func FilterOperations(ops []models.Operation, m *models.Manifest) ([]models.Operation, int) {
	kept := make([]models.Operation, 0, len(ops))
	for _, op := range ops {
		if ShouldIgnoreOperation(op, m) {
			continue
		}
		kept = append(kept, op)
	}
	return kept, len(ops) - len(kept)
}

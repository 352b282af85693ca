package models

import "slices"

// Manifest описывает корень синхронизации: версию схемы, список известных
// устройств и водяной знак сброса ResetAt.
type Manifest struct {
	ResetAt           *int64   `json:"resetAt,omitempty"` // ResetAt время последнего сброса (мс), логи старше игнорируются
	KnownDeviceIDs    []string `json:"knownDeviceIds"`    // KnownDeviceIDs отсортированное множество устройств
	ManifestVersion   int64    `json:"manifestVersion"`
	SyncSchemaVersion int      `json:"syncSchemaVersion"`
}

// HasDevice reports whether id is registered.
func (m *Manifest) HasDevice(id string) bool {
	_, found := slices.BinarySearch(m.KnownDeviceIDs, id)
	return found
}

// ResetAtMs returns the reset watermark, or 0 when the root was never reset.
func (m *Manifest) ResetAtMs() int64 {
	if m == nil || m.ResetAt == nil {
		return 0
	}
	return *m.ResetAt
}

// Clone создает глубокую копию манифеста
func (m *Manifest) Clone() *Manifest {
	if m == nil {
		return nil
	}

	clone := &Manifest{
		ManifestVersion:   m.ManifestVersion,
		SyncSchemaVersion: m.SyncSchemaVersion,
		KnownDeviceIDs:    make([]string, len(m.KnownDeviceIDs)),
	}
	copy(clone.KnownDeviceIDs, m.KnownDeviceIDs)
	if m.ResetAt != nil {
		resetAt := *m.ResetAt
		clone.ResetAt = &resetAt
	}
	return clone
}

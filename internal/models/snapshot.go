package models

import "maps"

// DeviceWatermarks maps a device id to the highest op id already folded
// into a snapshot. Operations at or below the watermark are never replayed.
type DeviceWatermarks map[string]int64

// Covers reports whether the operation with key k is already folded.
func (w DeviceWatermarks) Covers(k WriteKey) bool {
	through, ok := w[k.DeviceID]
	return ok && k.OpID <= through
}

// Advance raises the watermark of k's device to k.OpID if it is higher.
func (w DeviceWatermarks) Advance(k WriteKey) {
	if k.OpID > w[k.DeviceID] {
		w[k.DeviceID] = k.OpID
	}
}

// Clone returns a copy of the watermark vector.
func (w DeviceWatermarks) Clone() DeviceWatermarks {
	clone := make(DeviceWatermarks, len(w))
	maps.Copy(clone, w)
	return clone
}

// Snapshot компактный базис: результат слияния всех операций, покрытых
// CompactedThrough. Опубликованный снапшот не изменяется, а заменяется
// снапшотом с большим SnapshotVersion.
type Snapshot struct {
	Entities          map[string]*EntityState `json:"entities"`
	CompactedThrough  DeviceWatermarks        `json:"compactedThroughWriteKey"`
	SnapshotVersion   int64                   `json:"snapshotVersion"`
	CreatedAtEpochMs  int64                   `json:"createdAtEpochMs"`
	SyncSchemaVersion int                     `json:"syncSchemaVersion"`
}

// NewSnapshot returns the empty baseline (version 0).
func NewSnapshot() *Snapshot {
	return &Snapshot{
		SyncSchemaVersion: CurrentSyncSchemaVersion,
		Entities:          make(map[string]*EntityState),
		CompactedThrough:  make(DeviceWatermarks),
	}
}

// Clone создает глубокую копию снапшота
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		SnapshotVersion:   s.SnapshotVersion,
		SyncSchemaVersion: s.SyncSchemaVersion,
		CreatedAtEpochMs:  s.CreatedAtEpochMs,
		Entities:          CloneStates(s.Entities),
		CompactedThrough:  s.CompactedThrough.Clone(),
	}
}

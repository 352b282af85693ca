package crdt

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/confsync/internal/models"
)

// ErrUnresolvedCollisions blocks compaction while identity collisions are
// quarantined: folding would drop the colliding entities from the baseline
// and pruning the logs would lose them for good.
var ErrUnresolvedCollisions = errors.New("compaction blocked by unresolved identity collisions")

// OperationsSince returns the operations not yet covered by the watermark vector.
func OperationsSince(ops []models.Operation, watermarks models.DeviceWatermarks) []models.Operation {
	pending := make([]models.Operation, 0, len(ops))
	for _, op := range ops {
		if !watermarks.Covers(op.WriteKey) {
			pending = append(pending, op)
		}
	}
	return pending
}

// Compact сворачивает базовый снапшот и операции после его водяного знака
// в новый снапшот. Результат совпадает с MergeAll по полной истории:
// компакция меняет только стоимость пересчета, но не сошедшееся состояние.
//
// Операции, уже покрытые base.CompactedThrough, пропускаются. Водяные знаки
// продвигаются по каждому устройству отдельно. base не изменяется.
func Compact(ctx context.Context, base *models.Snapshot, ops []models.Operation, nowEpochMs int64, opts ...MergeOption) (*models.Snapshot, MergeStats, error) {
	if base == nil {
		base = models.NewSnapshot()
	}
	if base.SyncSchemaVersion > models.CurrentSyncSchemaVersion {
		return nil, MergeStats{}, &models.SchemaTooNewError{
			Source:    "snapshot",
			Version:   base.SyncSchemaVersion,
			Supported: models.CurrentSyncSchemaVersion,
		}
	}

	pending := OperationsSince(ops, base.CompactedThrough)

	entities, stats, err := MergeAll(ctx, base.Entities, pending, opts...)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to fold operations: %w", err)
	}
	if len(stats.Collisions) > 0 {
		return nil, stats, fmt.Errorf("%w: %d entities", ErrUnresolvedCollisions, len(stats.Collisions))
	}

	watermarks := base.CompactedThrough.Clone()
	for _, op := range pending {
		watermarks.Advance(op.WriteKey)
	}

	snapshot := &models.Snapshot{
		SnapshotVersion:   base.SnapshotVersion + 1,
		SyncSchemaVersion: models.CurrentSyncSchemaVersion,
		Entities:          entities,
		CompactedThrough:  watermarks,
		CreatedAtEpochMs:  nowEpochMs,
	}

	return snapshot, stats, nil
}

// Replay recomputes converged state from a snapshot and the operations not
// yet folded into it.
func Replay(ctx context.Context, base *models.Snapshot, ops []models.Operation, opts ...MergeOption) (map[string]*models.EntityState, MergeStats, error) {
	if base == nil {
		base = models.NewSnapshot()
	}
	return MergeAll(ctx, base.Entities, OperationsSince(ops, base.CompactedThrough), opts...)
}

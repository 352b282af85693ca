package sync

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/transport"
)

// PreviewReset показывает, что удалит сброс корня
func (c *Coordinator) PreviewReset(ctx context.Context) (*transport.ResetPreview, error) {
	preview, err := c.transport.PreviewReset(ctx)
	if err != nil {
		return nil, &models.TransportUnavailableError{Op: "previewReset", Err: err}
	}
	return preview, nil
}

// Reset сбрасывает корень синхронизации: удаленные логи и снапшот
// удаляются, resetAt манифеста сдвигается, счетчик opId начинается заново,
// а локальное доменное состояние публикуется как новые операции.
// После сброса сразу выполняется цикл синхронизации.
func (c *Coordinator) Reset(ctx context.Context) (*CycleResult, error) {
	if !c.cycleMu.TryLock() {
		return nil, models.ErrCycleInProgress
	}
	defer c.cycleMu.Unlock()

	nowMs := c.now().UnixMilli()
	resetErr := c.transport.ApplyReset(ctx, nowMs)

	// resetAt мог уже быть больше now, если часы другого устройства спешат
	m, err := c.transport.ReadManifest(ctx)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		if resetErr != nil {
			err = resetErr
		}
		return nil, &models.TransportUnavailableError{Op: "applyReset", Err: err}
	}
	resetAt := max(nowMs, m.ResetAtMs())

	if resetErr != nil {
		// Манифест не сдвинут: сброса не было
		if m.ResetAtMs() < nowMs {
			return nil, &models.TransportUnavailableError{Op: "applyReset", Err: resetErr}
		}
		// Неудаленные логи и снапшот отсекаются водяным знаком при чтении
		c.logger.Warn("Reset left stale objects behind", "error", resetErr)
	}

	republished, err := c.resetLocal(ctx, resetAt)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Sync root reset",
		"device_id", c.deviceID,
		"reset_at", resetAt,
		"republished", republished)

	return c.runCycleLocked(ctx)
}

// resetLocal перевыпускает доменное состояние как операции с новыми
// ключами и заменяет ими очередь правок
func (c *Coordinator) resetLocal(ctx context.Context, resetAt int64) (int, error) {
	c.editMu.Lock()
	defer c.editMu.Unlock()

	state, err := c.store.LoadState(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load local state: %w", err)
	}

	c.clock.Reset(resetAt)

	ids := make([]string, 0, len(state.Domain))
	for id := range state.Domain {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var ops []models.Operation
	for _, id := range ids {
		entity := state.Domain[id]
		fields := make([]string, 0, len(entity.Fields))
		for name := range entity.Fields {
			fields = append(fields, name)
		}
		slices.Sort(fields)

		for _, field := range fields {
			ops = append(ops, models.NewSetField(entity.EntityType, id, field, entity.Fields[field], c.clock.Next()))
		}
	}

	lastOpID, lastTimestampMs := c.clock.State()
	baseline := &models.Baseline{
		Snapshot:        models.NewSnapshot(),
		DeviceID:        c.deviceID,
		LastOpID:        lastOpID,
		LastTimestampMs: lastTimestampMs,
		ResetAt:         resetAt,
		LastSyncAtMs:    c.Baseline().LastSyncAtMs,
	}

	if err := c.store.ResetLocal(ctx, baseline, ops); err != nil {
		return 0, err
	}
	c.baseline.Store(baseline)

	return len(ops), nil
}

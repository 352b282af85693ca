package sync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	gosync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iudanet/confsync/internal/client/storage"
	"github.com/iudanet/confsync/internal/codec"
	"github.com/iudanet/confsync/internal/crdt"
	"github.com/iudanet/confsync/internal/manifest"
	"github.com/iudanet/confsync/internal/metrics"
	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/transport"
)

// registerAttempts число попыток регистрации при гонке записи манифеста
const registerAttempts = 3

// cycle промежуточное состояние одного цикла
type cycle struct {
	result    *CycleResult
	manifest  *models.Manifest
	snapshot  *models.Snapshot
	remoteOps []models.Operation
	converged map[string]*models.EntityState
	emitted   []models.Operation
	consumed  int64 // наибольший opId учтенной локальной правки
	startedAt time.Time
}

// RunCycle выполняет один цикл синхронизации.
//
// Fetching, Merging и Diffing ограничены cfg.CycleTimeout и отменяются без
// последствий. Publishing не отменяется: он выполняется до конца или не
// меняет локальный базис. Возвращает models.ErrCycleInProgress, если цикл
// уже идет.
func (c *Coordinator) RunCycle(ctx context.Context) (*CycleResult, error) {
	if !c.cycleMu.TryLock() {
		return nil, models.ErrCycleInProgress
	}
	defer c.cycleMu.Unlock()

	return c.runCycleLocked(ctx)
}

func (c *Coordinator) runCycleLocked(ctx context.Context) (*CycleResult, error) {
	cy := &cycle{
		result:    &CycleResult{},
		startedAt: c.now(),
	}

	c.logger.Info("Starting sync cycle", "device_id", c.deviceID)

	err := c.run(ctx, cy)
	cy.result.Duration = c.now().Sub(cy.startedAt)

	if err != nil {
		cy.result.FailedIn = c.Phase()
		c.setPhase(PhaseFailed)
		c.logger.Error("Sync cycle failed",
			"device_id", c.deviceID,
			"phase", cy.result.FailedIn.String(),
			"error", err)
	} else {
		c.logger.Info("Sync cycle completed",
			"device_id", c.deviceID,
			"applied", cy.result.Applied,
			"emitted", cy.result.Emitted,
			"overwritten", cy.result.Overwritten,
			"corrupt", len(cy.result.Corrupt),
			"degraded", cy.result.Degraded,
			"compacted", cy.result.Compacted,
			"duration", cy.result.Duration)
	}

	c.metrics.ObserveCycle(metrics.CycleStats{
		Result:      cy.result.result(),
		Duration:    cy.result.Duration,
		Corrupt:     len(cy.result.Corrupt),
		Applied:     cy.result.Applied,
		Emitted:     cy.result.Emitted,
		Overwritten: cy.result.Overwritten,
		Collisions:  len(cy.result.Collisions),
		Compacted:   cy.result.Compacted,
	})
	c.setPhase(PhaseIdle)

	return cy.result, err
}

func (c *Coordinator) run(ctx context.Context, cy *cycle) error {
	cycleCtx, cancel := context.WithTimeout(ctx, c.cfg.CycleTimeout)
	defer cancel()

	c.setPhase(PhaseFetching)
	if err := c.fetch(cycleCtx, cy); err != nil {
		return err
	}

	c.setPhase(PhaseMerging)
	if err := c.merge(cycleCtx, cy); err != nil {
		return err
	}

	c.setPhase(PhaseDiffing)
	if err := c.diff(cycleCtx, cy); err != nil {
		return err
	}
	// Последняя точка отмены: дальше только публикация
	if err := cycleCtx.Err(); err != nil {
		return err
	}

	c.setPhase(PhasePublishing)
	publishCtx, cancelPublish := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.PublishTimeout)
	defer cancelPublish()

	if err := c.publish(publishCtx, cy); err != nil {
		return err
	}

	c.compact(publishCtx, cy)
	return nil
}

// fetch читает манифест, снапшот и логи всех известных устройств.
// Недоступность манифеста или снапшота фатальна, лога отдельного
// устройства - нет.
func (c *Coordinator) fetch(ctx context.Context, cy *cycle) error {
	m, err := c.transport.ReadManifest(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
		m = nil
	case err != nil:
		return &models.TransportUnavailableError{Op: "readManifest", Err: err}
	}
	if err := manifest.CheckSchema(m); err != nil {
		return err
	}
	cy.manifest = m

	s, err := c.transport.ReadSnapshot(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
		s = models.NewSnapshot()
	case err != nil:
		return &models.TransportUnavailableError{Op: "readSnapshot", Err: err}
	}
	if s.SyncSchemaVersion > models.CurrentSyncSchemaVersion {
		return &models.SchemaTooNewError{
			Source:    "snapshot",
			Version:   s.SyncSchemaVersion,
			Supported: models.CurrentSyncSchemaVersion,
		}
	}
	if manifest.ShouldIgnore(s.CreatedAtEpochMs, m) {
		// Снапшот пережил сброс (удаление не удалось): его содержимое и
		// водяные знаки не действуют, номер версии сохраняется, чтобы
		// следующий снапшот вытеснил устаревший
		c.logger.Warn("Ignoring snapshot written before reset",
			"snapshot_version", s.SnapshotVersion,
			"created_at", s.CreatedAtEpochMs,
			"reset_at", m.ResetAtMs())
		cy.result.Ignored++
		stale := s.SnapshotVersion
		s = models.NewSnapshot()
		s.SnapshotVersion = stale
	}
	cy.snapshot = s

	devices := []string{c.deviceID}
	if m != nil {
		devices = append(devices, m.KnownDeviceIDs...)
	}
	slices.Sort(devices)
	devices = slices.Compact(devices)

	logs := make([][]transport.OperationObject, len(devices))
	var (
		mu          gosync.Mutex
		unreachable []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.FetchParallelism)
	for i, device := range devices {
		g.Go(func() error {
			objs, err := c.transport.ListOperationObjects(gctx, device)
			if err != nil {
				// Таймаут цикла фатален, сбой одного лога - нет
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("Operation log unreachable, merging without it",
					"device_id", device,
					"error", err)
				mu.Lock()
				unreachable = append(unreachable, device)
				mu.Unlock()
				return nil
			}
			logs[i] = objs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &models.TransportUnavailableError{Op: "listOperationObjects", Err: err}
	}

	slices.Sort(unreachable)
	cy.result.UnreachableDevices = unreachable
	cy.result.Degraded = len(unreachable) > 0

	for _, objs := range logs {
		kept, ignored := manifest.FilterObjects(objs, m)
		cy.result.Ignored += ignored

		for _, obj := range kept {
			ops, corrupt := codec.DecodeOperations(obj.Key, obj.Data, codec.WithDevice(obj.DeviceID))
			cy.result.Corrupt = append(cy.result.Corrupt, corrupt...)
			cy.remoteOps = append(cy.remoteOps, ops...)
		}
	}

	for _, corrupt := range cy.result.Corrupt {
		c.logger.Warn("Skipping corrupt operation record",
			"object", corrupt.ObjectKey,
			"line", corrupt.Line,
			"error", corrupt.Err)
	}

	return nil
}

// merge применяет водяной знак сброса и сворачивает операции поверх
// удаленного снапшота
func (c *Coordinator) merge(ctx context.Context, cy *cycle) error {
	if resetAt := cy.manifest.ResetAtMs(); resetAt > c.Baseline().ResetAt {
		// Новые локальные ключи должны пройти водяной знак сброса
		c.clock.Observe(resetAt)
		c.logger.Info("Sync root was reset", "reset_at", resetAt)
	}

	kept, ignored := manifest.FilterOperations(cy.remoteOps, cy.manifest)
	cy.remoteOps = kept
	cy.result.Ignored += ignored

	for _, op := range cy.remoteOps {
		c.clock.Observe(op.WriteKey.TimestampEpochMs)
	}

	var opts []crdt.MergeOption
	if c.cfg.MergeParallelism > 0 {
		opts = append(opts, crdt.WithParallelism(c.cfg.MergeParallelism))
	}

	converged, stats, err := crdt.Replay(ctx, cy.snapshot, cy.remoteOps, opts...)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	for _, collision := range stats.Collisions {
		c.logger.Warn("Entity quarantined", "entity_id", collision.EntityID, "types", collision.Types)
	}

	cy.converged = converged
	cy.result.Applied = stats.Applied
	cy.result.Collisions = stats.Collisions

	if cy.result.Degraded {
		c.joinBaseline(cy)
	}
	return nil
}

// joinBaseline переносит в сошедшееся состояние то, что базис уже получил
// от устройств, чьи логи в этом цикле недоступны. Состояния объединяются
// по наибольшему ключу записи, поэтому повторно учтенные операции ничего
// не меняют.
func (c *Coordinator) joinBaseline(cy *cycle) {
	prev := c.Baseline()
	if prev == nil || prev.Snapshot == nil || prev.ResetAt < cy.manifest.ResetAtMs() {
		// Базис снят до сброса
		return
	}

	quarantined := make(map[string]struct{}, len(cy.result.Collisions))
	for _, collision := range cy.result.Collisions {
		quarantined[collision.EntityID] = struct{}{}
	}

	for id, known := range prev.Snapshot.Entities {
		if _, ok := quarantined[id]; ok {
			continue
		}
		joined, ok := crdt.Join(cy.converged[id], known)
		if !ok {
			types := []models.EntityType{known.EntityType, cy.converged[id].EntityType}
			slices.Sort(types)
			c.logger.Warn("Entity quarantined", "entity_id", id, "types", types)
			cy.result.Collisions = append(cy.result.Collisions, &models.IdentityCollisionError{EntityID: id, Types: types})
			delete(cy.converged, id)
			continue
		}
		cy.converged[id] = joined
	}
}

// diff сравнивает сошедшееся состояние с локальными правками. Правка
// публикуется, если она меняет сошедшееся состояние, иначе она вытеснена
// более новой удаленной записью.
func (c *Coordinator) diff(ctx context.Context, cy *cycle) error {
	state, err := c.store.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load local state: %w", err)
	}

	quarantined := make(map[string]struct{}, len(cy.result.Collisions))
	for _, collision := range cy.result.Collisions {
		quarantined[collision.EntityID] = struct{}{}
	}

	for _, op := range state.Pending {
		cy.consumed = max(cy.consumed, op.WriteKey.OpID)

		if manifest.ShouldIgnoreOperation(op, cy.manifest) {
			// Правка сделана до сброса, который устройство еще не видело
			cy.result.Ignored++
			continue
		}

		if _, ok := quarantined[op.EntityID]; ok {
			cy.emitted = append(cy.emitted, op)
			continue
		}

		before := cy.converged[op.EntityID]
		if before != nil && before.EntityType != op.EntityType {
			// Правка другого типа с тем же идентификатором: публикуем ее,
			// чтобы конфликт увидели все устройства
			types := []models.EntityType{before.EntityType, op.EntityType}
			slices.Sort(types)
			c.logger.Warn("Entity quarantined", "entity_id", op.EntityID, "types", types)
			cy.result.Collisions = append(cy.result.Collisions, &models.IdentityCollisionError{EntityID: op.EntityID, Types: types})
			quarantined[op.EntityID] = struct{}{}
			delete(cy.converged, op.EntityID)
			cy.emitted = append(cy.emitted, op)
			continue
		}

		// Удаление сущности, которой нет в корне, тоже публикуется:
		// tombstone вытесняет более старые записи других устройств
		after := crdt.Apply(before, op)
		if before != nil && after.Equal(before) {
			cy.result.Overwritten++
			continue
		}
		cy.converged[op.EntityID] = after
		cy.emitted = append(cy.emitted, op)
	}

	cy.result.Emitted = len(cy.emitted)
	cy.result.Changed = countChanged(state, models.Project(cy.converged))
	return nil
}

// countChanged считает локальные сущности, которые изменит цикл
func countChanged(state *storage.LocalState, next map[string]*models.DomainEntity) int {
	changed := 0
	for id, entity := range next {
		if !sameEntity(state.Domain[id], entity) {
			changed++
		}
	}
	for id := range state.Domain {
		if _, ok := next[id]; !ok {
			changed++
		}
	}
	return changed
}

func sameEntity(a, b *models.DomainEntity) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.EntityType != b.EntityType || len(a.Fields) != len(b.Fields) {
		return false
	}
	for name, v := range a.Fields {
		other, ok := b.Fields[name]
		if !ok || !other.Equal(v) {
			return false
		}
	}
	return true
}

// publish регистрирует устройство, добавляет правки в лог и атомарно
// заменяет локальный базис. При ошибке базис не меняется, правки остаются
// в очереди и публикуются следующим циклом.
func (c *Coordinator) publish(ctx context.Context, cy *cycle) error {
	m, err := c.register(ctx, cy.manifest)
	if err != nil {
		return err
	}
	cy.manifest = m

	if len(cy.emitted) > 0 {
		if err := c.transport.AppendOperations(ctx, c.deviceID, cy.emitted); err != nil {
			return &models.TransportUnavailableError{Op: "appendOperations", DeviceID: c.deviceID, Err: err}
		}
	}

	lastOpID, lastTimestampMs := c.clock.State()
	baseline := &models.Baseline{
		Snapshot: &models.Snapshot{
			SnapshotVersion:   cy.snapshot.SnapshotVersion,
			SyncSchemaVersion: models.CurrentSyncSchemaVersion,
			CreatedAtEpochMs:  cy.snapshot.CreatedAtEpochMs,
			Entities:          cy.converged,
			CompactedThrough:  cy.snapshot.CompactedThrough.Clone(),
		},
		DeviceID:        c.deviceID,
		LastOpID:        lastOpID,
		LastTimestampMs: lastTimestampMs,
		ResetAt:         max(c.Baseline().ResetAt, m.ResetAtMs()),
		LastSyncAtMs:    c.now().UnixMilli(),
		RemoteSnapshotV: cy.snapshot.SnapshotVersion,
		RemoteManifestV: m.ManifestVersion,
	}

	commit := &storage.CycleCommit{Baseline: baseline, ConsumedThroughOpID: cy.consumed}
	if err := c.store.CommitCycle(ctx, commit); err != nil {
		return fmt.Errorf("failed to commit baseline: %w", err)
	}

	c.baseline.Store(baseline)
	return nil
}

// register добавляет устройство в манифест. Конфликт версий означает, что
// манифест параллельно изменило другое устройство: перечитываем и повторяем.
func (c *Coordinator) register(ctx context.Context, m *models.Manifest) (*models.Manifest, error) {
	for attempt := 1; ; attempt++ {
		next, changed := manifest.RegisterDevice(m, c.deviceID)
		if !changed {
			return m, nil
		}

		err := c.transport.WriteManifest(ctx, next)
		if err == nil {
			c.logger.Info("Device registered in sync root", "device_id", c.deviceID)
			return next, nil
		}
		if !errors.Is(err, transport.ErrVersionConflict) || attempt == registerAttempts {
			return nil, &models.TransportUnavailableError{Op: "writeManifest", Err: err}
		}

		m, err = c.transport.ReadManifest(ctx)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, &models.TransportUnavailableError{Op: "readManifest", Err: err}
		}
		if err := manifest.CheckSchema(m); err != nil {
			return nil, err
		}
	}
}

// compact публикует новый снапшот, когда несвернутых операций стало
// слишком много, и удаляет логи, полностью покрытые снапшотом.
// Ошибки компакции не делают цикл неуспешным.
func (c *Coordinator) compact(ctx context.Context, cy *cycle) {
	if c.cfg.CompactThreshold <= 0 || cy.result.Degraded || len(cy.result.Collisions) > 0 {
		return
	}

	ops := append(slices.Clone(cy.remoteOps), cy.emitted...)
	if len(crdt.OperationsSince(ops, cy.snapshot.CompactedThrough)) < c.cfg.CompactThreshold {
		return
	}

	var opts []crdt.MergeOption
	if c.cfg.MergeParallelism > 0 {
		opts = append(opts, crdt.WithParallelism(c.cfg.MergeParallelism))
	}

	// Сброс, случившийся после Fetching, делает ops и снапшот устаревшими
	current, err := c.transport.ReadManifest(ctx)
	if err != nil {
		c.logger.Warn("Compaction skipped, manifest unreadable", "error", err)
		return
	}
	resetAt := current.ResetAtMs()
	if resetAt > cy.manifest.ResetAtMs() {
		c.logger.Info("Compaction skipped, sync root was reset during the cycle", "reset_at", resetAt)
		return
	}

	// Снапшот с createdAt раньше resetAt был бы отброшен при чтении
	createdAt := max(c.now().UnixMilli(), resetAt+1)
	next, _, err := crdt.Compact(ctx, cy.snapshot, ops, createdAt, opts...)
	if err != nil {
		c.logger.Warn("Compaction skipped", "error", err)
		return
	}

	if err := c.transport.WriteSnapshot(ctx, next); err != nil {
		if errors.Is(err, transport.ErrVersionConflict) {
			c.logger.Info("Another device published a snapshot first", "version", next.SnapshotVersion)
		} else {
			c.logger.Warn("Failed to publish snapshot", "error", err)
		}
		return
	}
	cy.result.Compacted = true

	// Логи удаляются по водяным знакам снапшота, который реально лежит в корне
	published, err := c.transport.ReadSnapshot(ctx)
	if err != nil {
		c.logger.Warn("Failed to re-read snapshot, logs are kept", "error", err)
		return
	}

	devices := make([]string, 0, len(published.CompactedThrough))
	for device := range published.CompactedThrough {
		devices = append(devices, device)
	}
	slices.Sort(devices)

	pruned := 0
	for _, device := range devices {
		n, err := c.transport.PruneOperations(ctx, device, published.CompactedThrough[device])
		if err != nil {
			c.logger.Warn("Failed to prune operation log", "device_id", device, "error", err)
			continue
		}
		pruned += n
	}

	c.logger.Info("Snapshot published",
		"version", published.SnapshotVersion,
		"entities", len(published.Entities),
		"pruned_objects", pruned)
}

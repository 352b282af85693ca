package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/iudanet/confsync/internal/codec"
	"github.com/iudanet/confsync/internal/manifest"
	"github.com/iudanet/confsync/internal/models"
)

// ObjectStore плоское хранилище объектов по ключу (папка, S3, память).
type ObjectStore interface {
	// Get возвращает models.ErrNotFound для отсутствующего ключа
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// Delete отсутствующего ключа не является ошибкой
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob реализует Transport поверх ObjectStore.
// Время создания объекта лога берется из часов устройства, но не раньше
// последнего известного resetAt, иначе новый объект отсек бы собственный сброс.
type Blob struct {
	store      ObjectStore
	logger     *slog.Logger
	now        func() time.Time
	resetFloor atomic.Int64
}

// NewBlob создает транспорт поверх хранилища объектов.
func NewBlob(store ObjectStore, logger *slog.Logger) *Blob {
	return &Blob{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithNow подменяет источник времени. Используется в тестах.
func (b *Blob) WithNow(now func() time.Time) *Blob {
	b.now = now
	return b
}

func (b *Blob) observeReset(m *models.Manifest) {
	resetAt := m.ResetAtMs()
	for {
		current := b.resetFloor.Load()
		if resetAt <= current || b.resetFloor.CompareAndSwap(current, resetAt) {
			return
		}
	}
}

// ReadManifest читает манифест.
func (b *Blob) ReadManifest(ctx context.Context) (*models.Manifest, error) {
	data, err := b.store.Get(ctx, ManifestKey)
	if err != nil {
		return nil, err
	}

	m, err := codec.DecodeManifest(data)
	if err != nil {
		return nil, err
	}
	b.observeReset(m)
	return m, nil
}

// WriteManifest записывает манифест, если его версия строго больше
// сохраненной: два устройства, изменившие одну версию, не затирают друг друга.
func (b *Blob) WriteManifest(ctx context.Context, m *models.Manifest) error {
	current, err := b.ReadManifest(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return err
	case current.ManifestVersion >= m.ManifestVersion:
		return fmt.Errorf("%w: manifest version %d <= stored %d", ErrVersionConflict, m.ManifestVersion, current.ManifestVersion)
	}

	data, err := codec.EncodeManifest(m)
	if err != nil {
		return err
	}
	if err := b.store.Put(ctx, ManifestKey, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	b.observeReset(m)
	return nil
}

// ReadSnapshot читает снапшот.
func (b *Blob) ReadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	data, err := b.store.Get(ctx, SnapshotKey)
	if err != nil {
		return nil, err
	}
	return codec.DecodeSnapshot(data)
}

// WriteSnapshot публикует снапшот, если его версия строго больше сохраненной.
func (b *Blob) WriteSnapshot(ctx context.Context, s *models.Snapshot) error {
	current, err := b.ReadSnapshot(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return err
	case current.SnapshotVersion >= s.SnapshotVersion:
		return fmt.Errorf("%w: snapshot version %d <= stored %d", ErrVersionConflict, s.SnapshotVersion, current.SnapshotVersion)
	}

	data, err := codec.EncodeSnapshot(s)
	if err != nil {
		return err
	}
	if err := b.store.Put(ctx, SnapshotKey, data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// listKeys возвращает разобранные ключи объектов лога; чужие ключи пропускаются.
func (b *Blob) listKeys(ctx context.Context, deviceID string) ([]string, []ObjectKeyInfo, error) {
	keys, err := b.store.List(ctx, DevicePrefix(deviceID))
	if err != nil {
		return nil, nil, err
	}
	slices.Sort(keys)

	kept := make([]string, 0, len(keys))
	infos := make([]ObjectKeyInfo, 0, len(keys))
	for _, key := range keys {
		info, err := ParseOperationKey(key)
		if err != nil {
			b.logger.Warn("skipping unrecognized object", "key", key, "error", err)
			continue
		}
		kept = append(kept, key)
		infos = append(infos, info)
	}
	return kept, infos, nil
}

// ListOperationObjects читает объекты лога устройства.
func (b *Blob) ListOperationObjects(ctx context.Context, deviceID string) ([]OperationObject, error) {
	keys, infos, err := b.listKeys(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list operation objects: %w", err)
	}

	objects := make([]OperationObject, 0, len(keys))
	for i, key := range keys {
		data, err := b.store.Get(ctx, key)
		if errors.Is(err, models.ErrNotFound) {
			// объект удален компакцией между List и Get
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		objects = append(objects, OperationObject{
			Key:              key,
			DeviceID:         infos[i].DeviceID,
			CreatedAtEpochMs: infos[i].CreatedAtMs,
			Data:             data,
		})
	}
	return objects, nil
}

// AppendOperations записывает операции новым объектом лога.
func (b *Blob) AppendOperations(ctx context.Context, deviceID string, ops []models.Operation) error {
	if len(ops) == 0 {
		return nil
	}

	first, last := OpIDRange(ops)
	data, err := codec.EncodeOperations(ops)
	if err != nil {
		return err
	}
	return b.AppendEncoded(ctx, deviceID, first, last, data)
}

// AppendEncoded записывает уже сериализованный NDJSON объект лога как есть.
// Relay-сервер использует его, чтобы не терять поля записей более новой схемы.
func (b *Blob) AppendEncoded(ctx context.Context, deviceID string, firstOpID, lastOpID int64, data []byte) error {
	createdAt := max(b.now().UnixMilli(), b.resetFloor.Load())
	key := OperationKey(deviceID, createdAt, firstOpID, lastOpID)
	if err := b.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to append operations: %w", err)
	}

	b.logger.Debug("operations appended", "key", key, "bytes", len(data))
	return nil
}

// OpIDRange возвращает минимальный и максимальный opId операций.
func OpIDRange(ops []models.Operation) (first, last int64) {
	if len(ops) == 0 {
		return 0, 0
	}
	first, last = ops[0].WriteKey.OpID, ops[0].WriteKey.OpID
	for _, op := range ops[1:] {
		first = min(first, op.WriteKey.OpID)
		last = max(last, op.WriteKey.OpID)
	}
	return first, last
}

// PruneOperations удаляет объекты лога, полностью покрытые водяным знаком.
func (b *Blob) PruneOperations(ctx context.Context, deviceID string, throughOpID int64) (int, error) {
	keys, infos, err := b.listKeys(ctx, deviceID)
	if err != nil {
		return 0, fmt.Errorf("failed to list operation objects: %w", err)
	}

	pruned := 0
	for i, key := range keys {
		if infos[i].LastOpID > throughOpID {
			continue
		}
		if err := b.store.Delete(ctx, key); err != nil {
			return pruned, fmt.Errorf("failed to delete %s: %w", key, err)
		}
		pruned++
	}
	return pruned, nil
}

// PreviewReset считает объекты, которые удалит сброс.
func (b *Blob) PreviewReset(ctx context.Context) (*ResetPreview, error) {
	preview := &ResetPreview{
		PerDeviceOpCounts: make(map[string]int),
		KnownDeviceIDs:    []string{},
	}

	m, err := b.ReadManifest(ctx)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		preview.KnownDeviceIDs = append(preview.KnownDeviceIDs, m.KnownDeviceIDs...)
	}

	_, infos, err := b.listKeys(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list operation objects: %w", err)
	}
	for _, info := range infos {
		preview.PerDeviceOpCounts[info.DeviceID] += info.OpCount()
	}
	preview.ObjectCount = len(infos)

	if _, err := b.store.Get(ctx, SnapshotKey); err == nil {
		preview.ObjectCount++
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	return preview, nil
}

// ApplyReset сначала сдвигает resetAt в манифесте, затем удаляет логи и
// снапшот. Если удаление не удалось, старые объекты отсекаются по resetAt.
func (b *Blob) ApplyReset(ctx context.Context, nowEpochMs int64) error {
	m, err := b.ReadManifest(ctx)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	next := manifest.ApplyReset(m, nowEpochMs)
	if err := b.WriteManifest(ctx, next); err != nil {
		return err
	}

	keys, err := b.store.List(ctx, opsPrefix)
	if err != nil {
		return fmt.Errorf("failed to list operation objects: %w", err)
	}

	var errs []error
	for _, key := range keys {
		if err := b.store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	if err := b.store.Delete(ctx, SnapshotKey); err != nil {
		errs = append(errs, fmt.Errorf("delete snapshot: %w", err))
	}

	if len(errs) > 0 {
		b.logger.Warn("reset left stale objects behind", "count", len(errs))
		return fmt.Errorf("reset incomplete: %w", errors.Join(errs...))
	}
	return nil
}

// Package sync реализует координатор цикла синхронизации устройства:
// чтение корня, слияние, сравнение с локальным состоянием, публикацию
// правок и компакцию.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/iudanet/confsync/internal/client/storage"
	"github.com/iudanet/confsync/internal/crdt"
	"github.com/iudanet/confsync/internal/metrics"
	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/transport"
)

// Config параметры координатора
type Config struct {
	CycleTimeout     time.Duration // CycleTimeout ограничивает Fetching, Merging и Diffing
	PublishTimeout   time.Duration // PublishTimeout ограничивает Publishing, который нельзя отменить
	CompactThreshold int           // CompactThreshold число несвернутых операций, после которого публикуется снапшот; 0 - никогда
	FetchParallelism int           // FetchParallelism число одновременно читаемых логов устройств
	MergeParallelism int           // MergeParallelism число сущностей, сворачиваемых параллельно
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		CycleTimeout:     30 * time.Second,
		PublishTimeout:   30 * time.Second,
		CompactThreshold: 500,
		FetchParallelism: 4,
	}
}

// Coordinator handles synchronization of one device with one sync root.
//
// Одновременно выполняется не более одного цикла. Базис заменяется целиком
// в конце успешного цикла, читатели видят либо старый, либо новый.
type Coordinator struct {
	cfg       Config
	transport transport.Transport
	store     storage.Store
	logger    *slog.Logger
	metrics   *metrics.Sync
	clock     *crdt.OpClock
	now       func() time.Time
	deviceID  string

	baseline atomic.Pointer[models.Baseline]
	phase    atomic.Int32

	cycleMu gosync.Mutex // один цикл или сброс за раз
	editMu  gosync.Mutex // выдача ключа и запись правки атомарны относительно друг друга
}

// New creates a coordinator. Идентификатор устройства создается при первом
// запуске, счетчик операций восстанавливается из локального хранилища.
func New(ctx context.Context, cfg Config, tr transport.Transport, store storage.Store, logger *slog.Logger) (*Coordinator, error) {
	defaults := DefaultConfig()
	if cfg.CycleTimeout <= 0 {
		cfg.CycleTimeout = defaults.CycleTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaults.PublishTimeout
	}
	if cfg.FetchParallelism <= 0 {
		cfg.FetchParallelism = defaults.FetchParallelism
	}

	deviceID, err := store.EnsureDeviceID(ctx)
	if err != nil {
		return nil, err
	}

	state, err := store.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	baseline := state.Baseline.Clone()
	baseline.DeviceID = deviceID

	c := &Coordinator{
		cfg:       cfg,
		transport: tr,
		store:     store,
		logger:    logger,
		metrics:   metrics.NewSync(nil),
		clock:     crdt.NewOpClock(deviceID, baseline.LastOpID, baseline.LastTimestampMs),
		now:       time.Now,
		deviceID:  deviceID,
	}
	c.baseline.Store(baseline)

	return c, nil
}

// WithMetrics подключает метрики циклов
func (c *Coordinator) WithMetrics(m *metrics.Sync) *Coordinator {
	c.metrics = m
	return c
}

// WithNow подменяет источник времени. Используется в тестах.
func (c *Coordinator) WithNow(now func() time.Time) *Coordinator {
	c.now = now
	c.clock.WithNow(now)
	return c
}

// DeviceID возвращает идентификатор устройства
func (c *Coordinator) DeviceID() string {
	return c.deviceID
}

// Phase возвращает текущую фазу цикла
func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

func (c *Coordinator) setPhase(p Phase) {
	c.phase.Store(int32(p))
	c.logger.Debug("sync phase", "device_id", c.deviceID, "phase", p.String())
}

// Baseline возвращает базис последнего успешного цикла.
// Возвращаемое значение нельзя изменять.
func (c *Coordinator) Baseline() *models.Baseline {
	return c.baseline.Load()
}

// SetField записывает локальную правку поля
func (c *Coordinator) SetField(ctx context.Context, entityType models.EntityType, entityID, field string, value models.Value) (models.Operation, error) {
	return c.recordEdit(ctx, func(key models.WriteKey) models.Operation {
		return models.NewSetField(entityType, entityID, field, value, key)
	})
}

// DeleteEntity записывает локальное удаление сущности
func (c *Coordinator) DeleteEntity(ctx context.Context, entityType models.EntityType, entityID string) (models.Operation, error) {
	return c.recordEdit(ctx, func(key models.WriteKey) models.Operation {
		return models.NewDeleteEntity(entityType, entityID, key)
	})
}

func (c *Coordinator) recordEdit(ctx context.Context, build func(models.WriteKey) models.Operation) (models.Operation, error) {
	c.editMu.Lock()
	defer c.editMu.Unlock()

	op := build(c.clock.Next())
	if err := op.Validate(); err != nil {
		return models.Operation{}, err
	}
	if err := c.store.RecordEdit(ctx, op); err != nil {
		return models.Operation{}, err
	}

	c.logger.Debug("local edit recorded",
		"entity_id", op.EntityID,
		"kind", op.Kind,
		"op_id", op.WriteKey.OpID)
	return op, nil
}

// Status состояние устройства для команды status
type Status struct {
	Baseline *models.Baseline
	DeviceID string
	Phase    Phase
	Pending  int
	Entities int
}

// Status возвращает количество неопубликованных правок и сведения о базисе
func (c *Coordinator) Status(ctx context.Context) (*Status, error) {
	state, err := c.store.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load local state: %w", err)
	}

	return &Status{
		Baseline: c.Baseline(),
		DeviceID: c.deviceID,
		Phase:    c.Phase(),
		Pending:  len(state.Pending),
		Entities: len(state.Domain),
	}, nil
}

// Domain возвращает доменное состояние с учетом неопубликованных правок
func (c *Coordinator) Domain(ctx context.Context) (map[string]*models.DomainEntity, error) {
	state, err := c.store.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load local state: %w", err)
	}
	return state.Domain, nil
}

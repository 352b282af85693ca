package crdt

import (
	"sync"
	"time"

	"github.com/iudanet/confsync/internal/models"
)

// OpClock выдает ключи записи для локальных операций устройства.
// opId монотонно растет и является единственным источником монотонности
// устройства; timestamp берется из wall clock, но никогда не уменьшается
// и всегда строго больше последнего выданного или наблюдаемого.
type OpClock struct {
	now             func() time.Time // источник времени (подменяется в тестах)
	deviceID        string           // идентификатор устройства
	lastOpID        int64            // последний выданный opId
	lastTimestampMs int64            // последний выданный или наблюдаемый timestamp
	mu              sync.Mutex       // мьютекс для потокобезопасности
}

// NewOpClock восстанавливает часы устройства из сохраненного состояния.
func NewOpClock(deviceID string, lastOpID, lastTimestampMs int64) *OpClock {
	return &OpClock{
		now:             time.Now,
		deviceID:        deviceID,
		lastOpID:        lastOpID,
		lastTimestampMs: lastTimestampMs,
	}
}

// WithNow подменяет источник времени. Используется в тестах.
func (c *OpClock) WithNow(now func() time.Time) *OpClock {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now
	return c
}

// Next выдает ключ для новой локальной операции.
func (c *OpClock) Next() models.WriteKey {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.lastTimestampMs {
		ts = c.lastTimestampMs + 1
	}

	c.lastOpID++
	c.lastTimestampMs = ts

	return models.WriteKey{
		TimestampEpochMs: ts,
		DeviceID:         c.deviceID,
		OpID:             c.lastOpID,
	}
}

// Observe учитывает timestamp удаленной записи (аналог Update у часов Лампорта):
// следующая локальная операция будет новее всего, что устройство уже видело,
// даже если локальные часы отстают.
func (c *OpClock) Observe(timestampMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timestampMs > c.lastTimestampMs {
		c.lastTimestampMs = timestampMs
	}
}

// Reset сбрасывает счетчик операций. Вызывается только при явном сбросе
// корня синхронизации.
func (c *OpClock) Reset(resetAtMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastOpID = 0
	if resetAtMs > c.lastTimestampMs {
		c.lastTimestampMs = resetAtMs
	}
}

// State возвращает состояние часов для сохранения.
func (c *OpClock) State() (lastOpID, lastTimestampMs int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastOpID, c.lastTimestampMs
}

// DeviceID возвращает идентификатор устройства.
func (c *OpClock) DeviceID() string {
	return c.deviceID
}

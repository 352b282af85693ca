package models

import "fmt"

// WriteKey идентифицирует запись и задает полный порядок между записями
// разных устройств. Используется и для упорядочивания операций,
// и для решения, вытесняет ли новая запись сохраненное значение.
type WriteKey struct {
	DeviceID         string `json:"deviceId"`         // DeviceID устройство, создавшее запись
	TimestampEpochMs int64  `json:"timestampEpochMs"` // TimestampEpochMs время записи (мс с эпохи)
	OpID             int64  `json:"opId"`             // OpID монотонный счетчик операций устройства
}

// Compare сравнивает два ключа записи.
// Порядок LWW (Last-Write-Wins):
// 1. Больший TimestampEpochMs выигрывает
// 2. При равных timestamp выигрывает лексикографически больший DeviceID
// 3. При равных DeviceID выигрывает больший OpID
// Возвращает -1, 0 или 1.
func (k WriteKey) Compare(other WriteKey) int {
	switch {
	case k.TimestampEpochMs > other.TimestampEpochMs:
		return 1
	case k.TimestampEpochMs < other.TimestampEpochMs:
		return -1
	}

	// Timestamps равны - сравниваем DeviceID для детерминизма
	switch {
	case k.DeviceID > other.DeviceID:
		return 1
	case k.DeviceID < other.DeviceID:
		return -1
	}

	switch {
	case k.OpID > other.OpID:
		return 1
	case k.OpID < other.OpID:
		return -1
	}

	return 0
}

// IsNewerThan возвращает true, если k строго больше other.
func (k WriteKey) IsNewerThan(other WriteKey) bool {
	return k.Compare(other) > 0
}

// IsZero reports whether the key was never assigned.
func (k WriteKey) IsZero() bool {
	return k == WriteKey{}
}

// String formats the key as "timestamp/device/opId".
func (k WriteKey) String() string {
	return fmt.Sprintf("%d/%s/%d", k.TimestampEpochMs, k.DeviceID, k.OpID)
}

// MaxWriteKey returns the greater of two keys.
func MaxWriteKey(a, b WriteKey) WriteKey {
	if b.Compare(a) > 0 {
		return b
	}
	return a
}

package boltdb

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/iudanet/confsync/internal/client/storage"
)

const (
	keyDeviceID        = "device_id"
	keyLastOpID        = "last_op_id"
	keyLastTimestampMs = "last_timestamp_ms"
)

// EnsureDeviceID возвращает идентификатор устройства. При первом вызове
// генерируется UUID, который больше никогда не меняется.
func (s *Storage) EnsureDeviceID(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", storage.ErrStorageClosed
	}

	var deviceID string
	err := s.db.Update(func(tx *bbolt.Tx) error {
		meta, err := bucket(tx, bucketMeta)
		if err != nil {
			return err
		}

		if existing := meta.Get([]byte(keyDeviceID)); existing != nil {
			deviceID = string(existing)
			return nil
		}

		deviceID = uuid.NewString()
		return meta.Put([]byte(keyDeviceID), []byte(deviceID))
	})
	if err != nil {
		return "", fmt.Errorf("failed to ensure device id: %w", err)
	}

	return deviceID, nil
}

// counter счетчик операций устройства
type counter struct {
	lastOpID        int64
	lastTimestampMs int64
}

func readCounter(meta *bbolt.Bucket) counter {
	return counter{
		lastOpID:        getInt64(meta, keyLastOpID),
		lastTimestampMs: getInt64(meta, keyLastTimestampMs),
	}
}

func writeCounter(meta *bbolt.Bucket, c counter) error {
	if err := putInt64(meta, keyLastOpID, c.lastOpID); err != nil {
		return fmt.Errorf("failed to save op counter: %w", err)
	}
	if err := putInt64(meta, keyLastTimestampMs, c.lastTimestampMs); err != nil {
		return fmt.Errorf("failed to save last timestamp: %w", err)
	}
	return nil
}

// Конвертируем int64 в bytes (big endian сохраняет порядок ключей)
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func getInt64(b *bbolt.Bucket, key string) int64 {
	v := b.Get([]byte(key))
	if len(v) != 8 {
		return 0
	}
	return btoi(v)
}

func putInt64(b *bbolt.Bucket, key string, v int64) error {
	return b.Put([]byte(key), itob(v))
}

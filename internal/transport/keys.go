package transport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Ключи объектов в плоском хранилище (папка, S3)
const (
	ManifestKey = "manifest.json"
	SnapshotKey = "snapshot.json.sz"

	opsPrefix = "ops/"
	opsSuffix = ".ndjson"
)

// ObjectKeyInfo fields embedded in an operation-log object key.
type ObjectKeyInfo struct {
	DeviceID    string
	CreatedAtMs int64
	FirstOpID   int64
	LastOpID    int64
}

// OpCount returns the number of operations the object covers.
func (k ObjectKeyInfo) OpCount() int {
	return int(k.LastOpID - k.FirstOpID + 1)
}

// DevicePrefix возвращает префикс ключей лога устройства.
// Пустой deviceID - префикс всех логов.
func DevicePrefix(deviceID string) string {
	if deviceID == "" {
		return opsPrefix
	}
	return opsPrefix + deviceID + "/"
}

// OperationKey формирует ключ нового объекта лога:
//
//	ops/<device>/<createdAt>-<firstOpId>-<lastOpId>-<suffix>.ndjson
//
// Числа дополнены нулями, поэтому лексикографический порядок ключей
// совпадает с порядком создания.
func OperationKey(deviceID string, createdAtMs, firstOpID, lastOpID int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s%013d-%020d-%020d-%s%s",
		DevicePrefix(deviceID), createdAtMs, firstOpID, lastOpID, suffix, opsSuffix)
}

// ParseOperationKey разбирает ключ объекта лога.
func ParseOperationKey(key string) (ObjectKeyInfo, error) {
	var info ObjectKeyInfo

	rest, ok := strings.CutPrefix(key, opsPrefix)
	if !ok {
		return info, fmt.Errorf("not an operation key: %q", key)
	}
	rest, ok = strings.CutSuffix(rest, opsSuffix)
	if !ok {
		return info, fmt.Errorf("not an operation key: %q", key)
	}

	deviceID, name, ok := strings.Cut(rest, "/")
	if !ok || deviceID == "" || strings.Contains(name, "/") {
		return info, fmt.Errorf("malformed operation key: %q", key)
	}

	parts := strings.Split(name, "-")
	if len(parts) != 4 {
		return info, fmt.Errorf("malformed operation key: %q", key)
	}

	nums := make([]int64, 3)
	for i := range nums {
		n, err := strconv.ParseInt(parts[i], 10, 64)
		if err != nil {
			return info, fmt.Errorf("malformed operation key %q: %w", key, err)
		}
		nums[i] = n
	}
	if nums[1] > nums[2] {
		return info, fmt.Errorf("malformed operation key %q: op range %d-%d", key, nums[1], nums[2])
	}

	info.DeviceID = deviceID
	info.CreatedAtMs = nums[0]
	info.FirstOpID = nums[1]
	info.LastOpID = nums[2]
	return info, nil
}

// Package transport описывает удаленное хранилище корня синхронизации и его
// реализации: память, локальная (общая) папка, S3 и relay-сервер.
//
// Для ядра слияния все объекты - непрозрачные байты; разбор выполняет codec.
package transport

import (
	"context"
	"errors"

	"github.com/iudanet/confsync/internal/models"
)

//go:generate moq -out transport_mock.go . Transport

// ErrVersionConflict is returned when a manifest or snapshot write would move
// its version backwards.
var ErrVersionConflict = errors.New("version conflict")

// OperationObject один объект лога операций устройства
type OperationObject struct {
	Key              string // Key ключ объекта в хранилище
	DeviceID         string // DeviceID устройство-владелец лога
	Data             []byte // Data NDJSON записи операций
	CreatedAtEpochMs int64  // CreatedAtEpochMs время создания объекта
}

// CreatedAtMs returns the object's creation time used by the reset gate.
func (o OperationObject) CreatedAtMs() int64 {
	return o.CreatedAtEpochMs
}

// ResetPreview описывает, что будет удалено сбросом
type ResetPreview struct {
	PerDeviceOpCounts map[string]int `json:"per_device_op_counts"`
	KnownDeviceIDs    []string       `json:"known_device_ids"`
	ObjectCount       int            `json:"object_count"`
}

// Transport удаленное хранилище одного корня синхронизации.
//
// Чтение отсутствующего манифеста или снапшота возвращает models.ErrNotFound.
type Transport interface {
	// ReadManifest читает манифест
	ReadManifest(ctx context.Context) (*models.Manifest, error)
	// WriteManifest записывает манифест
	WriteManifest(ctx context.Context, m *models.Manifest) error
	// ReadSnapshot читает последний опубликованный снапшот
	ReadSnapshot(ctx context.Context) (*models.Snapshot, error)
	// WriteSnapshot публикует новый снапшот
	WriteSnapshot(ctx context.Context, s *models.Snapshot) error
	// ListOperationObjects возвращает объекты лога устройства; пустой deviceID - всех устройств
	ListOperationObjects(ctx context.Context, deviceID string) ([]OperationObject, error)
	// AppendOperations добавляет новый объект в лог устройства
	AppendOperations(ctx context.Context, deviceID string, ops []models.Operation) error
	// PruneOperations удаляет объекты лога, все операции которых имеют opId <= throughOpID
	PruneOperations(ctx context.Context, deviceID string, throughOpID int64) (int, error)
	// PreviewReset показывает, что будет удалено сбросом
	PreviewReset(ctx context.Context) (*ResetPreview, error)
	// ApplyReset сдвигает resetAt манифеста и удаляет логи и снапшот
	ApplyReset(ctx context.Context, nowEpochMs int64) error
}

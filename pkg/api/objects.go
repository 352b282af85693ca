package api

// OperationObject представляет один объект лога операций устройства
type OperationObject struct {
	Key       string `json:"key"`        // ключ объекта в корне синхронизации
	DeviceID  string `json:"device_id"`  // устройство-владелец лога
	Data      []byte `json:"data"`       // NDJSON записи (base64 в JSON)
	CreatedAt int64  `json:"created_at"` // время создания объекта, epoch ms
}

// ListOperationsResponse представляет ответ со списком объектов логов
type ListOperationsResponse struct {
	Objects []OperationObject `json:"objects"`
}

// AppendOperationsResponse представляет ответ на добавление объекта в лог
type AppendOperationsResponse struct {
	Count int `json:"count"` // количество принятых операций
}

// PruneResponse представляет ответ на удаление покрытых снапшотом объектов
type PruneResponse struct {
	Pruned int `json:"pruned"` // количество удаленных объектов
}

// ResetRequest представляет запрос на сброс корня синхронизации
type ResetRequest struct {
	NowEpochMs int64 `json:"now_epoch_ms"` // новое значение resetAt
}

// ResetPreviewResponse описывает, что будет удалено сбросом
type ResetPreviewResponse struct {
	PerDeviceOpCounts map[string]int `json:"per_device_op_counts"`
	KnownDeviceIDs    []string       `json:"known_device_ids"`
	ObjectCount       int            `json:"object_count"`
}

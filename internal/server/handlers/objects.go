package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/iudanet/confsync/internal/codec"
	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/transport"
	"github.com/iudanet/confsync/internal/validation"
	"github.com/iudanet/confsync/pkg/api"
)

// DefaultMaxBodyBytes ограничение размера тела запроса по умолчанию
const DefaultMaxBodyBytes = 32 << 20

// Root корень синхронизации, который обслуживает сервер
type Root interface {
	transport.Transport
	// AppendEncoded сохраняет объект лога без повторной сериализации
	AppendEncoded(ctx context.Context, deviceID string, firstOpID, lastOpID int64, data []byte) error
}

// ObjectsHandler обслуживает корень синхронизации: манифест, снапшот и логи
// операций устройств. Сервер не сливает операции, он только хранит объекты
// и назначает им время создания.
type ObjectsHandler struct {
	logger  *slog.Logger
	root    Root
	maxBody int64
	// mu сериализует изменения с проверкой версии и сброс
	mu sync.Mutex
}

// NewObjectsHandler creates a new objects handler
func NewObjectsHandler(logger *slog.Logger, root Root, maxBodyBytes int64) *ObjectsHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &ObjectsHandler{
		logger:  logger,
		root:    root,
		maxBody: maxBodyBytes,
	}
}

func (h *ObjectsHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			sendError(h.logger, w, "request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(h.logger, w, "failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}

// GetManifest обрабатывает GET /api/v1/manifest
func (h *ObjectsHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	m, err := h.root.ReadManifest(r.Context())
	if err != nil {
		h.sendStorageError(w, "read manifest", err)
		return
	}

	data, err := codec.EncodeManifest(m)
	if err != nil {
		h.sendStorageError(w, "encode manifest", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// PutManifest обрабатывает PUT /api/v1/manifest
func (h *ObjectsHandler) PutManifest(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	m, err := codec.DecodeManifest(data)
	if err != nil {
		h.logger.Warn("Invalid manifest", "error", err)
		sendError(h.logger, w, "invalid manifest", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.root.WriteManifest(r.Context(), m); err != nil {
		h.sendStorageError(w, "write manifest", err)
		return
	}

	deviceID, _ := GetDeviceID(r.Context())
	h.logger.Info("Manifest written",
		"device_id", deviceID,
		"manifest_version", m.ManifestVersion,
		"known_devices", len(m.KnownDeviceIDs))
	w.WriteHeader(http.StatusNoContent)
}

// GetSnapshot обрабатывает GET /api/v1/snapshot
func (h *ObjectsHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.root.ReadSnapshot(r.Context())
	if err != nil {
		h.sendStorageError(w, "read snapshot", err)
		return
	}

	data, err := codec.EncodeSnapshot(s)
	if err != nil {
		h.sendStorageError(w, "encode snapshot", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// PutSnapshot обрабатывает PUT /api/v1/snapshot
func (h *ObjectsHandler) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	s, err := codec.DecodeSnapshot(data)
	if err != nil {
		h.logger.Warn("Invalid snapshot", "error", err)
		sendError(h.logger, w, "invalid snapshot", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.root.WriteSnapshot(r.Context(), s); err != nil {
		h.sendStorageError(w, "write snapshot", err)
		return
	}

	deviceID, _ := GetDeviceID(r.Context())
	h.logger.Info("Snapshot written",
		"device_id", deviceID,
		"snapshot_version", s.SnapshotVersion,
		"entities", len(s.Entities))
	w.WriteHeader(http.StatusNoContent)
}

// ListOperations обрабатывает GET /api/v1/operations?device=ID
// Без параметра device возвращает логи всех устройств
func (h *ObjectsHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")

	objects, err := h.root.ListOperationObjects(r.Context(), device)
	if err != nil {
		h.sendStorageError(w, "list operations", err)
		return
	}

	resp := api.ListOperationsResponse{Objects: make([]api.OperationObject, 0, len(objects))}
	for _, obj := range objects {
		resp.Objects = append(resp.Objects, api.OperationObject{
			Key:       obj.Key,
			DeviceID:  obj.DeviceID,
			Data:      obj.Data,
			CreatedAt: obj.CreatedAtEpochMs,
		})
	}

	h.logger.Debug("Operations listed", "device", device, "objects", len(resp.Objects))
	sendJSON(h.logger, w, resp, http.StatusOK)
}

// AppendOperations обрабатывает POST /api/v1/operations/{device}
// Тело - NDJSON записи операций. Устройство пишет только в собственный лог.
func (h *ObjectsHandler) AppendOperations(w http.ResponseWriter, r *http.Request) {
	device := r.PathValue("device")
	if !h.authorizeDevice(w, r, device) {
		return
	}

	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	ops, corrupt := codec.DecodeOperations("request", data, codec.WithDevice(device))
	if len(corrupt) > 0 {
		h.logger.Warn("Rejected malformed operations",
			"device_id", device,
			"corrupt", len(corrupt),
			"first_error", corrupt[0].Error())
		sendError(h.logger, w, corrupt[0].Error(), http.StatusBadRequest)
		return
	}

	if len(ops) == 0 {
		sendJSON(h.logger, w, api.AppendOperationsResponse{}, http.StatusOK)
		return
	}

	first, last := transport.OpIDRange(ops)
	if err := h.root.AppendEncoded(r.Context(), device, first, last, data); err != nil {
		h.sendStorageError(w, "append operations", err)
		return
	}

	h.logger.Info("Operations appended", "device_id", device, "count", len(ops))
	sendJSON(h.logger, w, api.AppendOperationsResponse{Count: len(ops)}, http.StatusCreated)
}

// PruneOperations обрабатывает DELETE /api/v1/operations/{device}?through=N
// Удалять покрытые снапшотом объекты может любое устройство корня.
func (h *ObjectsHandler) PruneOperations(w http.ResponseWriter, r *http.Request) {
	device := r.PathValue("device")
	if err := validation.ValidateDeviceID(device); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	through, err := strconv.ParseInt(r.URL.Query().Get("through"), 10, 64)
	if err != nil || through < 0 {
		h.logger.Warn("Invalid through parameter", "through", r.URL.Query().Get("through"))
		sendError(h.logger, w, "invalid through parameter", http.StatusBadRequest)
		return
	}

	pruned, err := h.root.PruneOperations(r.Context(), device, through)
	if err != nil {
		h.sendStorageError(w, "prune operations", err)
		return
	}

	h.logger.Info("Operations pruned", "device_id", device, "through", through, "pruned", pruned)
	sendJSON(h.logger, w, api.PruneResponse{Pruned: pruned}, http.StatusOK)
}

// PreviewReset обрабатывает GET /api/v1/reset/preview
func (h *ObjectsHandler) PreviewReset(w http.ResponseWriter, r *http.Request) {
	preview, err := h.root.PreviewReset(r.Context())
	if err != nil {
		h.sendStorageError(w, "preview reset", err)
		return
	}

	sendJSON(h.logger, w, api.ResetPreviewResponse{
		PerDeviceOpCounts: preview.PerDeviceOpCounts,
		KnownDeviceIDs:    preview.KnownDeviceIDs,
		ObjectCount:       preview.ObjectCount,
	}, http.StatusOK)
}

// Reset обрабатывает POST /api/v1/reset
func (h *ObjectsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var req api.ResetRequest
	if err := decodeJSON(bytes.NewReader(data), &req); err != nil || req.NowEpochMs <= 0 {
		sendError(h.logger, w, "invalid reset request", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.root.ApplyReset(r.Context(), req.NowEpochMs); err != nil {
		h.sendStorageError(w, "apply reset", err)
		return
	}

	deviceID, _ := GetDeviceID(r.Context())
	h.logger.Warn("Sync root reset", "device_id", deviceID, "reset_at", req.NowEpochMs)
	w.WriteHeader(http.StatusNoContent)
}

// authorizeDevice проверяет, что запрос пришел от владельца лога
func (h *ObjectsHandler) authorizeDevice(w http.ResponseWriter, r *http.Request, device string) bool {
	if err := validation.ValidateDeviceID(device); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return false
	}

	deviceID, ok := GetDeviceID(r.Context())
	if !ok {
		h.logger.Error("Device ID not found in context")
		sendError(h.logger, w, "unauthorized", http.StatusUnauthorized)
		return false
	}

	if deviceID != device {
		h.logger.Warn("Device mismatch", "token_device", deviceID, "path_device", device)
		sendError(h.logger, w, "device may only append to its own log", http.StatusForbidden)
		return false
	}

	return true
}

// sendStorageError отображает ошибки хранилища в HTTP статусы
func (h *ObjectsHandler) sendStorageError(w http.ResponseWriter, op string, err error) {
	var tooNew *models.SchemaTooNewError

	switch {
	case errors.Is(err, models.ErrNotFound):
		sendError(h.logger, w, "not found", http.StatusNotFound)
	case errors.Is(err, transport.ErrVersionConflict):
		sendError(h.logger, w, err.Error(), http.StatusConflict)
	case errors.As(err, &tooNew):
		sendError(h.logger, w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("Storage failure", "op", op, "error", err)
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
	}
}

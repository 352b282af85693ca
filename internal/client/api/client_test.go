package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/confsync/internal/codec"
	"github.com/iudanet/confsync/internal/manifest"
	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/server"
	"github.com/iudanet/confsync/internal/server/handlers"
	"github.com/iudanet/confsync/internal/server/storage/sqlite"
	"github.com/iudanet/confsync/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOp(device string, opID int64) models.Operation {
	return models.NewSetField(models.EntityMonitor, "mon-1", "interval", models.NumberValue(float64(opID)),
		models.WriteKey{DeviceID: device, TimestampEpochMs: 1000 + opID, OpID: opID})
}

// setupRelay поднимает настоящий relay-сервер на in-memory SQLite и
// возвращает клиентов для устройств
func setupRelay(t *testing.T, devices ...string) (string, map[string]*Client) {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	jwtConfig := handlers.JWTConfig{Secret: []byte("relay-secret"), AccessTokenTTL: time.Hour}
	srv := server.New(server.Config{JWT: jwtConfig, Version: "test"}, testLogger(), store)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	clients := make(map[string]*Client, len(devices))
	for _, id := range devices {
		require.NoError(t, store.CreateDevice(ctx, &models.Device{ID: id, CreatedAt: time.Now()}))
		token, _, err := handlers.GenerateDeviceToken(jwtConfig, id)
		require.NoError(t, err)
		clients[id] = NewClient(ts.URL, token, testLogger()).WithMaxRetries(0)
	}
	return ts.URL, clients
}

// TestNewClient проверяет создание нового клиента
func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080", "token", testLogger())

	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Equal(t, uint64(3), client.maxRetries)
}

func TestClient_ManifestAndSnapshot(t *testing.T) {
	_, clients := setupRelay(t, "laptop")
	c := clients["laptop"]
	ctx := context.Background()

	_, err := c.ReadManifest(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = c.ReadSnapshot(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	m := manifest.New("laptop")
	require.NoError(t, c.WriteManifest(ctx, m))

	got, err := c.ReadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"laptop"}, got.KnownDeviceIDs)

	stale := m.Clone()
	stale.ManifestVersion = 0
	assert.ErrorIs(t, c.WriteManifest(ctx, stale), transport.ErrVersionConflict)

	s := models.NewSnapshot()
	s.SnapshotVersion = 1
	s.Entities["mon-1"] = models.NewEntityState(models.EntityMonitor, "mon-1")
	require.NoError(t, c.WriteSnapshot(ctx, s))
	assert.ErrorIs(t, c.WriteSnapshot(ctx, s), transport.ErrVersionConflict)

	read, err := c.ReadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), read.SnapshotVersion)
	assert.Contains(t, read.Entities, "mon-1")
}

func TestClient_AppendListPrune(t *testing.T) {
	_, clients := setupRelay(t, "laptop", "phone")
	ctx := context.Background()

	require.NoError(t, clients["laptop"].AppendOperations(ctx, "laptop", []models.Operation{testOp("laptop", 1), testOp("laptop", 2)}))
	require.NoError(t, clients["laptop"].AppendOperations(ctx, "laptop", []models.Operation{testOp("laptop", 3)}))
	require.NoError(t, clients["laptop"].AppendOperations(ctx, "laptop", nil))

	// Устройство не может писать в чужой лог
	err := clients["phone"].AppendOperations(ctx, "laptop", []models.Operation{testOp("laptop", 4)})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)

	objs, err := clients["phone"].ListOperationObjects(ctx, "laptop")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "laptop", objs[0].DeviceID)
	assert.Positive(t, objs[0].CreatedAtEpochMs)

	ops, corrupt := codec.DecodeOperations(objs[0].Key, objs[0].Data)
	assert.Empty(t, corrupt)
	assert.Equal(t, []models.Operation{testOp("laptop", 1), testOp("laptop", 2)}, ops)

	all, err := clients["phone"].ListOperationObjects(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pruned, err := clients["phone"].PruneOperations(ctx, "laptop", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	objs, err = clients["laptop"].ListOperationObjects(ctx, "laptop")
	require.NoError(t, err)
	assert.Len(t, objs, 1)
}

func TestClient_Reset(t *testing.T) {
	_, clients := setupRelay(t, "laptop")
	c := clients["laptop"]
	ctx := context.Background()

	require.NoError(t, c.WriteManifest(ctx, manifest.New("laptop")))
	require.NoError(t, c.AppendOperations(ctx, "laptop", []models.Operation{testOp("laptop", 1)}))

	preview, err := c.PreviewReset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.ObjectCount)
	assert.Equal(t, map[string]int{"laptop": 1}, preview.PerDeviceOpCounts)

	resetAt := time.Now().Add(time.Hour).UnixMilli()
	require.NoError(t, c.ApplyReset(ctx, resetAt))

	m, err := c.ReadManifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, resetAt, m.ResetAtMs())

	// Объект, записанный после сброса, не отсекается гейтом, даже если
	// resetAt в будущем относительно часов сервера
	require.NoError(t, c.AppendOperations(ctx, "laptop", []models.Operation{testOp("laptop", 1)}))
	objs, err := c.ListOperationObjects(ctx, "laptop")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.False(t, manifest.ShouldIgnore(objs[0].CreatedAtEpochMs, m))
}

func TestClient_Unauthorized(t *testing.T) {
	url, _ := setupRelay(t)
	c := NewClient(url, "bogus", testLogger()).WithMaxRetries(0)

	_, err := c.ReadManifest(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Service Unavailable","message":"try later"}`))
			return
		}
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"manifestVersion":1,"syncSchemaVersion":1,"knownDeviceIds":[]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "token", testLogger()).WithMaxRetries(3)
	m, err := c.ReadManifest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.ManifestVersion)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryAppend(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "token", testLogger()).WithMaxRetries(3)
	err := c.AppendOperations(context.Background(), "laptop", []models.Operation{testOp("laptop", 1)})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ErrorMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Bad Request","message":"invalid through parameter"}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", testLogger())
	_, err := c.PruneOperations(context.Background(), "laptop", 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid through parameter")
	assert.Contains(t, err.Error(), "400")
}

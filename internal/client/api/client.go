// Package api реализует транспорт корня синхронизации поверх HTTP API
// relay-сервера.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/iudanet/confsync/internal/codec"
	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/transport"
	"github.com/iudanet/confsync/pkg/api"
)

var _ transport.Transport = (*Client)(nil)

// StatusError ответ сервера с кодом вне 2xx
type StatusError struct {
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Client представляет HTTP клиент relay-сервера
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	token      string
	maxRetries uint64
}

// NewClient создает новый API клиент.
// token - JWT токен устройства, выданный командой сервера token.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		logger:     logger,
		maxRetries: 3,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("stopped after 10 redirects")
				}
				// Копируем заголовок Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// WithMaxRetries задает число повторов идемпотентных запросов
func (c *Client) WithMaxRetries(n uint64) *Client {
	c.maxRetries = n
	return c
}

// ReadManifest читает манифест
func (c *Client) ReadManifest(ctx context.Context) (*models.Manifest, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/manifest", nil, "")
	if err != nil {
		return nil, fmt.Errorf("read manifest request failed: %w", err)
	}
	return codec.DecodeManifest(data)
}

// WriteManifest записывает манифест
func (c *Client) WriteManifest(ctx context.Context, m *models.Manifest) error {
	data, err := codec.EncodeManifest(m)
	if err != nil {
		return err
	}
	if _, err := c.doRequest(ctx, http.MethodPut, "/api/v1/manifest", data, "application/json"); err != nil {
		return fmt.Errorf("write manifest request failed: %w", err)
	}
	return nil
}

// ReadSnapshot читает снапшот
func (c *Client) ReadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/snapshot", nil, "")
	if err != nil {
		return nil, fmt.Errorf("read snapshot request failed: %w", err)
	}
	return codec.DecodeSnapshot(data)
}

// WriteSnapshot публикует снапшот
func (c *Client) WriteSnapshot(ctx context.Context, s *models.Snapshot) error {
	data, err := codec.EncodeSnapshot(s)
	if err != nil {
		return err
	}
	if _, err := c.doRequest(ctx, http.MethodPut, "/api/v1/snapshot", data, "application/octet-stream"); err != nil {
		return fmt.Errorf("write snapshot request failed: %w", err)
	}
	return nil
}

// ListOperationObjects возвращает объекты лога устройства
func (c *Client) ListOperationObjects(ctx context.Context, deviceID string) ([]transport.OperationObject, error) {
	path := "/api/v1/operations"
	if deviceID != "" {
		path += "?device=" + url.QueryEscape(deviceID)
	}

	var resp api.ListOperationsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list operations request failed: %w", err)
	}

	objects := make([]transport.OperationObject, 0, len(resp.Objects))
	for _, obj := range resp.Objects {
		objects = append(objects, transport.OperationObject{
			Key:              obj.Key,
			DeviceID:         obj.DeviceID,
			Data:             obj.Data,
			CreatedAtEpochMs: obj.CreatedAt,
		})
	}
	return objects, nil
}

// AppendOperations отправляет операции новым объектом лога.
// Время создания объекта назначает сервер.
func (c *Client) AppendOperations(ctx context.Context, deviceID string, ops []models.Operation) error {
	if len(ops) == 0 {
		return nil
	}

	data, err := codec.EncodeOperations(ops)
	if err != nil {
		return err
	}

	path := "/api/v1/operations/" + url.PathEscape(deviceID)
	respBody, err := c.doRequest(ctx, http.MethodPost, path, data, "application/x-ndjson")
	if err != nil {
		return fmt.Errorf("append operations request failed: %w", err)
	}

	var resp api.AppendOperationsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.Count != len(ops) {
		return fmt.Errorf("server accepted %d of %d operations", resp.Count, len(ops))
	}
	return nil
}

// PruneOperations удаляет объекты лога, покрытые снапшотом
func (c *Client) PruneOperations(ctx context.Context, deviceID string, throughOpID int64) (int, error) {
	path := "/api/v1/operations/" + url.PathEscape(deviceID) + "?through=" + strconv.FormatInt(throughOpID, 10)

	var resp api.PruneResponse
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, fmt.Errorf("prune operations request failed: %w", err)
	}
	return resp.Pruned, nil
}

// PreviewReset показывает, что будет удалено сбросом
func (c *Client) PreviewReset(ctx context.Context) (*transport.ResetPreview, error) {
	var resp api.ResetPreviewResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/reset/preview", nil, &resp); err != nil {
		return nil, fmt.Errorf("preview reset request failed: %w", err)
	}

	preview := &transport.ResetPreview{
		PerDeviceOpCounts: resp.PerDeviceOpCounts,
		KnownDeviceIDs:    resp.KnownDeviceIDs,
		ObjectCount:       resp.ObjectCount,
	}
	if preview.PerDeviceOpCounts == nil {
		preview.PerDeviceOpCounts = make(map[string]int)
	}
	if preview.KnownDeviceIDs == nil {
		preview.KnownDeviceIDs = []string{}
	}
	return preview, nil
}

// ApplyReset сбрасывает корень синхронизации
func (c *Client) ApplyReset(ctx context.Context, nowEpochMs int64) error {
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/reset", api.ResetRequest{NowEpochMs: nowEpochMs}, nil); err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}
	return nil
}

// doJSON выполняет запрос с JSON телом и ответом
func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var data []byte
	contentType := ""
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		contentType = "application/json"
	}

	respBody, err := c.doRequest(ctx, method, path, data, contentType)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// doRequest выполняет HTTP запрос. Идемпотентные запросы повторяются при
// сетевых ошибках, 429 и 5xx.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	var (
		respBody []byte
		attempt  int
	)

	backoff := retry.WithMaxRetries(c.retries(method), retry.WithJitterPercent(10,
		retry.WithCappedDuration(5*time.Second, retry.NewExponential(200*time.Millisecond))))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var err error
		respBody, err = c.send(ctx, method, path, body, contentType)
		if err != nil && isRetryable(err) {
			c.logger.Debug("retrying request", "method", method, "path", path, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, mapStatusError(err)
	}
	return respBody, nil
}

func (c *Client) retries(method string) uint64 {
	if method == http.MethodPost {
		return 0
	}
	return c.maxRetries
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			statusErr.Message = errResp.Message
		}
		return nil, statusErr
	}

	return respBody, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return true
}

// mapStatusError переводит коды ответа в ошибки транспорта
func mapStatusError(err error) error {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	switch statusErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrNotFound, statusErr.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", transport.ErrVersionConflict, statusErr.Message)
	}
	return err
}

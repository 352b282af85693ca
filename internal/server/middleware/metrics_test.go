package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	calls []observed
	mu    sync.Mutex
}

func (o *recordingObserver) ObserveRequest(method, route string, status int, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observed{method: method, route: route, status: status})
}

func TestMetricsMiddleware(t *testing.T) {
	observer := &recordingObserver{}
	handler := MetricsMiddleware(observer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/operations/laptop", nil))

	require.Len(t, observer.calls, 1)
	assert.Equal(t, observed{method: http.MethodPost, route: "/api/v1/operations/{device}", status: http.StatusCreated}, observer.calls[0])
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/api/v1/manifest":            "/api/v1/manifest",
		"/api/v1/operations":          "/api/v1/operations",
		"/api/v1/operations/laptop":   "/api/v1/operations/{device}",
		"/api/v1/operations/":         "other",
		"/api/v1/operations/a/b":      "other",
		"/api/v1/reset/preview":       "/api/v1/reset/preview",
		"/wp-admin/install.php":       "other",
	}

	for path, want := range tests {
		assert.Equal(t, want, routeLabel(path), path)
	}
}

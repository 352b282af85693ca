package middleware

import (
	"net/http"
	"strings"
	"time"
)

// RequestObserver получает итоги HTTP запросов (реализуется metrics.Server)
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// MetricsMiddleware создает middleware, передающий длительность и статус
// запросов в observer
func MetricsMiddleware(observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrapResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			observer.ObserveRequest(r.Method, routeLabel(r.URL.Path), wrapped.statusCode, time.Since(start))
		})
	}
}

var knownRoutes = map[string]struct{}{
	"/api/v1/health":        {},
	"/api/v1/manifest":      {},
	"/api/v1/snapshot":      {},
	"/api/v1/operations":    {},
	"/api/v1/reset":         {},
	"/api/v1/reset/preview": {},
	"/metrics":              {},
}

// routeLabel сводит путь к шаблону маршрута, чтобы deviceId не попадал в
// метки метрик
func routeLabel(path string) string {
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	if rest, ok := strings.CutPrefix(path, "/api/v1/operations/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "/api/v1/operations/{device}"
	}
	return "other"
}

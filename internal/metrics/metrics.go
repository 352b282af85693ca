// Package metrics содержит коллекторы Prometheus клиента синхронизации и
// relay-сервера. Коллекторы регистрируются в переданном реестре, чтобы тесты
// и несколько координаторов в одном процессе не конфликтовали.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "confsync"

// Sync метрики циклов синхронизации
type Sync struct {
	cycles         *prometheus.CounterVec
	cycleDuration  prometheus.Histogram
	corruptRecords prometheus.Counter
	applied        prometheus.Counter
	emitted        prometheus.Counter
	overwritten    prometheus.Counter
	collisions     prometheus.Gauge
	compactions    prometheus.Counter
}

// NewSync регистрирует метрики синхронизации в reg.
// nil reg означает отдельный реестр, который никто не опрашивает.
func NewSync(reg prometheus.Registerer) *Sync {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Sync{
		cycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_cycles_total",
			Help:      "Sync cycles by result (ok, degraded, failed)",
		}, []string{"result"}),
		cycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_cycle_duration_seconds",
			Help:      "Duration of sync cycles",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
		}),
		corruptRecords: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_corrupt_records_total",
			Help:      "Malformed operation records skipped during fetch",
		}),
		applied: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_operations_applied_total",
			Help:      "Operations that changed converged state",
		}),
		emitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_operations_emitted_total",
			Help:      "Local operations published to the sync root",
		}),
		overwritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_operations_overwritten_total",
			Help:      "Local edits discarded because a newer remote write won",
		}),
		collisions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_identity_collisions",
			Help:      "Entities quarantined by the last cycle",
		}),
		compactions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_compactions_total",
			Help:      "Snapshots published by this device",
		}),
	}
}

// CycleStats итоги одного цикла для метрик
type CycleStats struct {
	Result      string
	Duration    time.Duration
	Corrupt     int
	Applied     int
	Emitted     int
	Overwritten int
	Collisions  int
	Compacted   bool
}

// ObserveCycle записывает итоги цикла
func (m *Sync) ObserveCycle(s CycleStats) {
	m.cycles.WithLabelValues(s.Result).Inc()
	m.cycleDuration.Observe(s.Duration.Seconds())
	m.corruptRecords.Add(float64(s.Corrupt))
	m.applied.Add(float64(s.Applied))
	m.emitted.Add(float64(s.Emitted))
	m.overwritten.Add(float64(s.Overwritten))
	m.collisions.Set(float64(s.Collisions))
	if s.Compacted {
		m.compactions.Inc()
	}
}

// Server метрики relay-сервера
type Server struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	objects         prometheus.Gauge
	objectBytes     prometheus.Gauge
}

// NewServer регистрирует метрики сервера в reg
func NewServer(reg prometheus.Registerer) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Server{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_requests_total",
			Help:      "HTTP requests handled by the relay",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "relay_request_duration_seconds",
			Help:      "Duration of relay HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		objects: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_objects",
			Help:      "Objects stored in the sync root",
		}),
		objectBytes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_object_bytes",
			Help:      "Total size of objects stored in the sync root",
		}),
	}
}

// ObserveRequest записывает один HTTP запрос
func (m *Server) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// SetStoreSize обновляет размер хранилища
func (m *Server) SetStoreSize(objects int, bytes int64) {
	m.objects.Set(float64(objects))
	m.objectBytes.Set(float64(bytes))
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Package prometheus implements the observability hooks with Prometheus
// metrics.
package prometheus

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/observability"
)

const namespace = "layermap"

// Metrics records pipeline, cache and HTTP events. It implements all three
// hook interfaces.
type Metrics struct {
	loads            *prometheus.CounterVec
	loadDuration     *prometheus.HistogramVec
	remaps           *prometheus.CounterVec
	remapDuration    prometheus.Histogram
	remappedLayers   prometheus.Counter
	rebuiltLayers    prometheus.Counter
	skippedLayers    prometheus.Counter
	cacheOps         *prometheus.CounterVec
	cacheBytes       *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
	remapsInProgress prometheus.Gauge
}

// New registers the metrics with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_loaded_total",
			Help:      "Documents loaded, by codec and result.",
		}, []string{"codec", "result"}),
		loadDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_load_duration_seconds",
			Help:      "Time spent decoding documents.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"codec"}),
		remaps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remaps_total",
			Help:      "Container remaps, by result and error code.",
		}, []string{"result", "error_code"}),
		remapDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remap_duration_seconds",
			Help:      "Time spent remapping one container.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		remappedLayers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remapped_layers_total",
			Help:      "Layers placed by remaps.",
		}),
		rebuiltLayers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconstructed_layers_total",
			Help:      "Layers rebuilt into output documents.",
		}),
		skippedLayers: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconstruct_skipped_layers_total",
			Help:      "Layers dropped because their path no longer resolved.",
		}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes, by key type and operation.",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache.",
		}, []string{"key_type"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_requests_total",
			Help:      "Outgoing HTTP requests, by host and status.",
		}, []string{"host", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_request_duration_seconds",
			Help:      "Outgoing HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_errors_total",
			Help:      "Outgoing HTTP requests that failed without a response.",
		}, []string{"host"}),
		remapsInProgress: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remaps_in_progress",
			Help:      "Remaps currently running.",
		}),
	}
}

// Install registers m as the pipeline, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnLoadStart is a no-op; loads are recorded on completion.
func (m *Metrics) OnLoadStart(context.Context, string, string) {}

// OnLoadComplete records a document load.
func (m *Metrics) OnLoadComplete(_ context.Context, codec, _ string, _ int, d time.Duration, err error) {
	m.loads.WithLabelValues(codec, result(err)).Inc()
	m.loadDuration.WithLabelValues(codec).Observe(d.Seconds())
}

// OnRemapStart tracks an in-flight remap.
func (m *Metrics) OnRemapStart(context.Context, string, string) {
	m.remapsInProgress.Inc()
}

// OnRemapComplete records a finished remap.
func (m *Metrics) OnRemapComplete(_ context.Context, _, _ string, layers int, d time.Duration, err error) {
	m.remapsInProgress.Dec()
	m.remaps.WithLabelValues(result(err), string(errors.GetCode(err))).Inc()
	m.remapDuration.Observe(d.Seconds())
	m.remappedLayers.Add(float64(layers))
}

// OnReconstructComplete records rebuilt and skipped layers.
func (m *Metrics) OnReconstructComplete(_ context.Context, rebuilt, skipped int, _ time.Duration) {
	m.rebuiltLayers.Add(float64(rebuilt))
	m.skippedLayers.Add(float64(skipped))
}

// OnCacheHit records a cache hit.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss records a cache miss.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet records a cache write.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

// OnRequest is a no-op; requests are recorded on response or error.
func (m *Metrics) OnRequest(context.Context, string, string, string) {}

// OnResponse records an HTTP response.
func (m *Metrics) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

// OnError records a failed HTTP request.
func (m *Metrics) OnError(_ context.Context, _, host, _ string, _ error) {
	m.httpErrors.WithLabelValues(host).Inc()
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

// Package observability holds the Prometheus collectors shared by the
// codec service and the helpers that update them.
package observability

import (
	"errors"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method", "route", "status"},
	)

	codecOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codec_operations_total",
			Help: "Codec operations by outcome (ok, out_of_range, invalid_character, error).",
		},
		[]string{"op", "outcome"},
	)

	codecOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codec_operation_duration_seconds",
			Help:    "Latency of codec operations including cache lookups.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"op"},
	)

	geohashLength = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geohash_length",
			Help:    "Length of geohashes produced or consumed.",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		},
		[]string{"op"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache lookups by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Redis operations by status.",
		},
		[]string{"op", "status"},
	)

	redisOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Duration of Redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op"},
	)

	eventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Codec events dropped because the publish queue was full.",
		},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		codecOpsTotal, codecOpDurationSeconds, geohashLength,
		cacheResults, cacheOpTotal, redisOpDurationSeconds,
		eventsDropped,
	}
}

func init() {
	// default registry backs promhttp.Handler(); Init adds a custom one
	mustRegister(prometheus.DefaultRegisterer, append(collectors(), buildInfo)...)
}

var initMu sync.Mutex

// Init registers the collectors on reg as well. Registering twice on the
// same registry is a no-op. With enabled=false nothing is registered.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	initMu.Lock()
	defer initMu.Unlock()
	// app_build_info is owned by the metrics.Provider on custom registries
	mustRegister(reg, collectors()...)
}

func mustRegister(reg prometheus.Registerer, cs ...prometheus.Collector) {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			panic(err)
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveCodec(op, outcome string, length int, durationSeconds float64) {
	codecOpsTotal.WithLabelValues(op, outcome).Inc()
	codecOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
	if outcome == "ok" && length >= 0 {
		geohashLength.WithLabelValues(op).Observe(float64(length))
	}
}

func IncCacheHit(tier string) {
	cacheResults.WithLabelValues(tier, "hit").Inc()
}

func IncCacheMiss(tier string) {
	cacheResults.WithLabelValues(tier, "miss").Inc()
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	cacheOpTotal.WithLabelValues(op, status).Inc()
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncEventsDropped() {
	eventsDropped.Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SpoofStartTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locsim_spoof_start_total",
		Help: "Total spoofing start requests accepted by the engine",
	})
	SpoofStopTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locsim_spoof_stop_total",
		Help: "Total spoofing stop requests",
	})
	SpoofErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locsim_spoof_errors_total",
		Help: "Session errors recorded by kind",
	}, []string{"kind"})
	PersistErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locsim_persist_errors_total",
		Help: "Soft failures writing or clearing the persisted record",
	})
	ReconcileRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locsim_reconcile_runs_total",
		Help: "Reconciliation evaluations executed",
	})
	ReconcileInvalidatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locsim_reconcile_invalidated_total",
		Help: "Persisted records judged externally cancelled and cleared",
	})
	ReconcileRestoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locsim_reconcile_restored_total",
		Help: "Persisted records judged valid and restored into the session",
	})
	ExtractHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locsim_extract_hits_total",
		Help: "Successful coordinate extractions by source form",
	}, []string{"form"})
	ExtractMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locsim_extract_misses_total",
		Help: "Inputs no extractor form matched",
	})
	SimCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locsim_sim_calls_total",
		Help: "Simulation bridge calls by operation",
	}, []string{"op"})
	SimFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locsim_sim_fail_total",
		Help: "Simulation bridge call failures by operation",
	}, []string{"op"})
	GeocodeRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locsim_geocode_requests_total",
		Help: "Reverse geocode REST requests",
	})
	GeocodeFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locsim_geocode_fail_total",
		Help: "Reverse geocode REST failures",
	})
	GeocodeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "locsim_geocode_duration_ms",
		Help:    "Reverse geocode call duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	SignalPublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locsim_signal_publish_total",
		Help: "Cross-process signals published by topic",
	}, []string{"topic"})
	SignalReceiveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locsim_signal_receive_total",
		Help: "Cross-process signals received by topic",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(SpoofStartTotal)
	prometheus.MustRegister(SpoofStopTotal)
	prometheus.MustRegister(SpoofErrorsTotal)
	prometheus.MustRegister(PersistErrorsTotal)
	prometheus.MustRegister(ReconcileRunsTotal)
	prometheus.MustRegister(ReconcileInvalidatedTotal)
	prometheus.MustRegister(ReconcileRestoredTotal)
	prometheus.MustRegister(ExtractHitsTotal)
	prometheus.MustRegister(ExtractMissesTotal)
	prometheus.MustRegister(SimCallsTotal)
	prometheus.MustRegister(SimFailTotal)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeFailTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(SignalPublishTotal)
	prometheus.MustRegister(SignalReceiveTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }

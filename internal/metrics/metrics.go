// Package metrics 定义服务的 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 持有全部指标，使用独立的 Registry 便于测试
type Metrics struct {
	Registry *prometheus.Registry

	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	activeRuns    prometheus.Gauge
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New 创建并注册指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dictation",
			Name:      "pipeline_runs_total",
			Help:      "视频处理流程结束次数，按结果分类",
		}, []string{"result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dictation",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "下载和转写各阶段耗时",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dictation",
			Name:      "pipeline_active_runs",
			Help:      "正在进行的处理流程数",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dictation",
			Name:      "http_requests_total",
			Help:      "HTTP 请求数",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dictation",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.runs, m.stageDuration, m.activeRuns, m.httpRequests, m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// RunStarted 一次处理流程开始
func (m *Metrics) RunStarted() {
	m.activeRuns.Inc()
}

// RunFinished 一次处理流程结束，result 为 completed、error 或 removed
func (m *Metrics) RunFinished(result string) {
	m.activeRuns.Dec()
	m.runs.WithLabelValues(result).Inc()
}

// ObserveStage 记录阶段耗时
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(route, method, code string, d time.Duration) {
	m.httpRequests.WithLabelValues(route, method, code).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Package metrics 入库流程的 Prometheus 指标（独立 Registry，由 main 暴露到 /metrics）
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// 入库结果标签
const (
	OutcomeApplied   = "applied"
	OutcomeNoAdapter = "no_adapter"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// 实体动作标签
const (
	ActionCreated   = "created"
	ActionMatched   = "matched"
	ActionConflict  = "conflict"
	ActionDeflected = "deflected"
)

type Metrics struct {
	registry *prometheus.Registry

	ingestionsTotal   *prometheus.CounterVec
	entitiesTotal     *prometheus.CounterVec
	ingestionDuration *prometheus.HistogramVec
}

// New 创建并注册全部指标；registry 为 nil 时新建一个
func New(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: registry,
		ingestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taxonomy_ingestions_total",
				Help: "Total number of taxonomy ingestion runs",
			},
			[]string{"adapter", "outcome"},
		),
		entitiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taxonomy_entities_total",
				Help: "Total number of taxonomy entities processed by action",
			},
			[]string{"entity", "action"},
		),
		ingestionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taxonomy_ingestion_duration_seconds",
				Help:    "Time taken by one ingestion transaction",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"adapter"},
		),
	}
	for _, c := range []prometheus.Collector{m.ingestionsTotal, m.entitiesTotal, m.ingestionDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WithRuntimeCollectors 附带 Go 运行时与进程指标
func (m *Metrics) WithRuntimeCollectors() *Metrics {
	m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordIngestion 记录一次入库；m 为 nil 时不做任何事
func (m *Metrics) RecordIngestion(adapter, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if adapter == "" {
		adapter = "none"
	}
	m.ingestionsTotal.WithLabelValues(adapter, outcome).Inc()
	m.ingestionDuration.WithLabelValues(adapter).Observe(elapsed.Seconds())
}

// RecordEntities 累加某实体在某动作下的数量
func (m *Metrics) RecordEntities(entity, action string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entitiesTotal.WithLabelValues(entity, action).Add(float64(n))
}

/*
 * @module service/monitoring/metrics
 * @description Prometheus 指标：HTTP 请求、流水线记录数、隔离的缺陷明细、巡检不一致数量、CSV 导入行数
 * @architecture 分层架构 - 监控层
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 业务调用 -> 指标累加 -> /metrics 暴露
 * @rules 收集器只注册一次；nil 接收者上的调用为空操作
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs api/middleware/metrics.go, service/scrap/service.go
 */

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 服务指标集合
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	records         *prometheus.CounterVec
	quarantined     *prometheus.CounterVec
	mismatches      *prometheus.GaugeVec
	ingested        *prometheus.CounterVec
}

// NewMetrics 创建并注册指标，reg 为 nil 时使用默认注册表
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrap_http_requests_total",
			Help: "HTTP 请求总数",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scrap_http_request_duration_seconds",
			Help:    "HTTP 请求耗时",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrap_pipeline_records_total",
			Help: "流水线处理的跟踪记录数",
		}, []string{"source"}),
		quarantined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrap_quarantined_breakdowns_total",
			Help: "格式错误被隔离的缺陷明细数",
		}, []string{"source"}),
		mismatches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scrap_mismatches_detected",
			Help: "最近一次巡检发现的不一致数量",
		}, []string{"kind"}),
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scrap_ingested_rows_total",
			Help: "CSV 导入行数",
		}, []string{"result"}),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.records, m.quarantined, m.mismatches, m.ingested)
	return m
}

// ObserveRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(route).Observe(seconds)
}

// ObservePipeline 记录一次标准化的记录数与隔离数
func (m *Metrics) ObservePipeline(source string, total, quarantined int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(source).Add(float64(total))
	if quarantined > 0 {
		m.quarantined.WithLabelValues(source).Add(float64(quarantined))
	}
}

// SetMismatches 更新巡检不一致数量
func (m *Metrics) SetMismatches(kind string, count int) {
	if m == nil {
		return
	}
	m.mismatches.WithLabelValues(kind).Set(float64(count))
}

// ObserveIngest 记录导入结果
func (m *Metrics) ObserveIngest(inserted, skipped, quarantined int) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues("inserted").Add(float64(inserted))
	m.ingested.WithLabelValues("skipped").Add(float64(skipped))
	m.ingested.WithLabelValues("quarantined").Add(float64(quarantined))
}

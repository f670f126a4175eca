// Package metrics 提供基于Prometheus的指标收集
//
// 指标分为三类：
//   - HTTP指标：请求数、耗时、处理中的请求数（由gin中间件记录）
//   - 业务指标：图书操作次数与耗时、封面写入结果、列表缓存命中率
//   - 基础设施指标：熔断器状态、事件发布结果、Saga补偿次数
//
// 使用示例：
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	start := time.Now()
//	...
//	metrics.ObserveBookOperation("create", err, time.Since(start))
//
// 所有便捷函数在InitMetrics之前调用都是安全的（直接忽略），
// 这样单元测试不需要初始化全局Registry。
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal HTTP请求总数
	// 标签：method、path（路由模板）、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（秒）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// BookOperationsTotal 图书操作次数
	// 标签：operation（list/get/create/update/delete）、result（success/failure）
	BookOperationsTotal *prometheus.CounterVec

	// BookOperationDuration 图书操作耗时（秒）
	BookOperationDuration *prometheus.HistogramVec

	// CoverWritesTotal 封面文件写入次数
	// 标签：root（primary/mirror）、result（success/failure）
	CoverWritesTotal *prometheus.CounterVec

	// BookCacheRequestsTotal 图书列表缓存访问次数
	// 标签：result（hit/miss/error）
	BookCacheRequestsTotal *prometheus.CounterVec

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）
	CircuitBreakerState *prometheus.GaugeVec

	// MessagesPublishedTotal 消息发布次数
	// 标签：routing_key、result（success/failure/rejected）
	MessagesPublishedTotal *prometheus.CounterVec

	// SagaCompensationsTotal Saga补偿触发次数
	SagaCompensationsTotal prometheus.Counter
)

// InitMetrics 初始化并注册所有指标（重复调用安全）
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		BookOperationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "book_operations_total",
				Help: "图书操作次数",
			},
			[]string{"operation", "result"},
		)

		BookOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "book_operation_duration_seconds",
				Help: "图书操作耗时（秒）",
				// JSON文件存储每次写入都会重写整个文件，桶上限放宽到5秒
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		)

		CoverWritesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "book_cover_writes_total",
				Help: "封面文件写入次数",
			},
			[]string{"root", "result"},
		)

		BookCacheRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "book_cache_requests_total",
				Help: "图书列表缓存访问次数",
			},
			[]string{"result"},
		)

		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
			},
			[]string{"name"},
		)

		MessagesPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_published_total",
				Help: "消息发布次数",
			},
			[]string{"routing_key", "result"},
		)

		SagaCompensationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "saga_compensations_total",
				Help: "Saga补偿触发次数",
			},
		)
	})
}

// Result 将error转换为result标签值
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// ObserveBookOperation 记录一次图书操作的结果与耗时
func ObserveBookOperation(operation string, err error, elapsed time.Duration) {
	IncCounterVec(BookOperationsTotal, map[string]string{
		"operation": operation,
		"result":    Result(err),
	})
	ObserveHistogramVec(BookOperationDuration, map[string]string{
		"operation": operation,
	}, elapsed.Seconds())
}

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}

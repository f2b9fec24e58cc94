package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	PM25           prometheus.Gauge       // 最近一次 PM2.5 读数
	PM10           prometheus.Gauge       // 最近一次 PM10 读数
	LastReadingTS  prometheus.Gauge       // 最近读数的 Unix 时间戳
	FramesTotal    *prometheus.CounterVec // labels: result=ok|error
	FatalErrors    prometheus.Counter     // 传输级致命错误计数
	CommandsTotal  *prometheus.CounterVec // labels: kind, result=ok|error
	ReadingsStored prometheus.Counter     // 成功入库的读数条数
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		PM25: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sds011_pm25_micrograms",
			Help: "Latest PM2.5 reading in micrograms per cubic meter.",
		}),
		PM10: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sds011_pm10_micrograms",
			Help: "Latest PM10 reading in micrograms per cubic meter.",
		}),
		LastReadingTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sds011_last_reading_timestamp_seconds",
			Help: "Unix timestamp of the latest reading.",
		}),
		FramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sds011_frames_total",
			Help: "Frames observed on the serial link.",
		}, []string{"result"}),
		FatalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sds011_fatal_errors_total",
			Help: "Fatal transport errors; the owning loop terminates after one.",
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sds011_commands_total",
			Help: "Commands issued to the sensor by kind and result.",
		}, []string{"kind", "result"}),
		ReadingsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sds011_readings_stored_total",
			Help: "Readings persisted to the history store.",
		}),
	}

	reg.MustRegister(
		m.PM25, m.PM10, m.LastReadingTS,
		m.FramesTotal, m.FatalErrors, m.CommandsTotal, m.ReadingsStored,
	)
	return m
}

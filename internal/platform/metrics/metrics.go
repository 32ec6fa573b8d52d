// Package metrics は gRPC 呼び出しの Prometheus メトリクスを定義します。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RPC は gRPC 呼び出しの件数、処理時間、処理中の件数を保持します。
type RPC struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewRPC はメトリクスを生成し、reg に登録します。
func NewRPC(reg prometheus.Registerer) *RPC {
	m := &RPC{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "orgrecords",
				Name:      "rpc_requests_total",
				Help:      "Total number of gRPC requests by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "orgrecords",
				Name:      "rpc_request_duration_seconds",
				Help:      "gRPC request latencies in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "orgrecords",
			Name:      "rpc_in_flight_requests",
			Help:      "In-flight gRPC requests.",
		}),
	}
	reg.MustRegister(m.requests, m.duration, m.inFlight)
	return m
}

// Start は処理中の件数を増やし、完了時に呼び出す関数を返します。
func (m *RPC) Start(method string) func(outcome string) {
	m.inFlight.Inc()
	start := time.Now()
	return func(outcome string) {
		m.inFlight.Dec()
		m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(method, outcome).Inc()
	}
}

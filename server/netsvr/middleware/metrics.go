package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pairlab"

// Metrics HTTP 請求與配對執行的 Prometheus 指標。
//
// 指標註冊到呼叫端給的 Registerer（而不是全域），同一個 process 可以有多個 server（測試）。
type Metrics struct {
	gatherer prometheus.Gatherer

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inflight prometheus.Gauge

	matchRuns   *prometheus.CounterVec
	matchPairs  *prometheus.HistogramVec
	matchRounds *prometheus.HistogramVec
	simRuns     *prometheus.CounterVec
}

// NewMetrics 在新的 prometheus.Registry 上建立指標（含 Go runtime / process collector）。
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith 註冊到指定的 Registerer；g 供 /metrics 讀取。
func NewMetricsWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		gatherer: g,
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route and method.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		inflight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_inflight",
				Help:      "Number of HTTP requests currently being served.",
			},
		),
		matchRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_runs_total",
				Help:      "Total number of matching runs by roster and outcome.",
			},
			[]string{"roster", "outcome"},
		),
		matchPairs: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_pairs",
				Help:      "Number of pairs produced by one matching run.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"roster"},
		),
		matchRounds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "match_rounds",
				Help:      "Number of proposal rounds used by one matching run.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"roster"},
		),
		simRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sim_runs_total",
				Help:      "Total number of Monte Carlo matching runs executed by /v1/sim.",
			},
			[]string{"roster"},
		),
	}
}

// Middleware 以 chi 路由樣板為 label（避免 path 參數炸開 cardinality）
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inflight.Inc()
		defer m.inflight.Dec()

		rw := newStatusRecorder(w)
		next.ServeHTTP(rw, r)

		route := routePattern(r)
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
		m.latency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler /metrics（壓縮交給 Compression middleware）
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{DisableCompression: true})
}

// ObserveMatch 記一次配對；err != nil 時只記 outcome=error。
func (m *Metrics) ObserveMatch(roster string, pairs, rounds int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.matchRuns.WithLabelValues(roster, "error").Inc()
		return
	}
	m.matchRuns.WithLabelValues(roster, "ok").Inc()
	m.matchPairs.WithLabelValues(roster).Observe(float64(pairs))
	m.matchRounds.WithLabelValues(roster).Observe(float64(rounds))
}

// ObserveSim 累加一次 sim 請求跑掉的配對次數
func (m *Metrics) ObserveSim(roster string, runs int) {
	if m == nil {
		return
	}
	m.simRuns.WithLabelValues(roster).Add(float64(runs))
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "apptrack"

// Metrics holds the tracker and HTTP collectors on a private registry so
// that several instances (tests, for one) never collide.
type Metrics struct {
	registry *prometheus.Registry

	SessionsOpened    *prometheus.CounterVec
	SessionsClosed    *prometheus.CounterVec
	SessionsDiscarded *prometheus.CounterVec
	TrackedSeconds    *prometheus.CounterVec
	PollTicks         prometheus.Counter
	ProbeFailures     prometheus.Counter
	SaveFailures      prometheus.Counter
	Running           prometheus.Gauge

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SessionsOpened: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_opened_total",
			Help:      "Sessions opened, by category",
		}, []string{"category"}),
		SessionsClosed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_closed_total",
			Help:      "Sessions closed and retained in history, by category",
		}, []string{"category"}),
		SessionsDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_discarded_total",
			Help:      "Sessions closed below the minimum duration, by category",
		}, []string{"category"}),
		TrackedSeconds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracked_seconds_total",
			Help:      "Retained session seconds, by category",
		}, []string{"category"}),
		PollTicks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Window probe samples taken",
		}),
		ProbeFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_failures_total",
			Help:      "Probe calls that returned an error",
		}),
		SaveFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_failures_total",
			Help:      "History saves that failed",
		}),
		Running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracker_running",
			Help:      "1 while the polling loop is active",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status",
		}, []string{"method", "path", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SessionOpened(category string) {
	m.SessionsOpened.WithLabelValues(category).Inc()
}

func (m *Metrics) SessionClosed(category string, seconds int, retained bool) {
	if !retained {
		m.SessionsDiscarded.WithLabelValues(category).Inc()
		return
	}
	m.SessionsClosed.WithLabelValues(category).Inc()
	m.TrackedSeconds.WithLabelValues(category).Add(float64(seconds))
}

func (m *Metrics) PollTick()    { m.PollTicks.Inc() }
func (m *Metrics) ProbeFailed() { m.ProbeFailures.Inc() }
func (m *Metrics) SaveFailed()  { m.SaveFailures.Inc() }

func (m *Metrics) TrackerRunning(running bool) {
	if running {
		m.Running.Set(1)
		return
	}
	m.Running.Set(0)
}

// Middleware records request counts and latency using the matched route
// template so path parameters do not explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

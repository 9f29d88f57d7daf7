package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Config supplies the constant labels attached to every series.
type Config struct {
	ServiceName string
	Environment string
}

const (
	CartOpAdd    = "add"
	CartOpUpdate = "update"
	CartOpRemove = "remove"
	CartOpClear  = "clear"

	StockRejectCart  = "cart"
	StockRejectOrder = "order"
)

// Metrics exposes storefront business counters.
type Metrics struct {
	cartMutations   *prometheus.CounterVec
	stockRejections *prometheus.CounterVec
	ordersCreated   prometheus.Counter
	orderRollbacks  prometheus.Counter
	syncEntries     *prometheus.CounterVec
	wsClients       prometheus.Gauge
	jobRuns         *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
}

func constLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "autoparts"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{"service": serviceName, "env": environment}
}

// New registers the business counters on registerer.
func New(cfg Config, registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)

	m := &Metrics{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "autoparts_cart_mutations_total",
			Help:        "Committed cart mutations by operation.",
			ConstLabels: labels,
		}, []string{"op"}),
		stockRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "autoparts_stock_rejections_total",
			Help:        "Requests refused because requested quantity exceeded stock.",
			ConstLabels: labels,
		}, []string{"stage"}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "autoparts_orders_created_total",
			Help:        "Orders materialized from carts.",
			ConstLabels: labels,
		}),
		orderRollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "autoparts_order_rollbacks_total",
			Help:        "Order materializations rolled back.",
			ConstLabels: labels,
		}),
		syncEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "autoparts_sync_log_entries_total",
			Help:        "Sync log entries written by table and action.",
			ConstLabels: labels,
		}, []string{"table", "action"}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "autoparts_ws_clients",
			Help:        "Connected realtime sync clients.",
			ConstLabels: labels,
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "autoparts_scheduler_job_runs_total",
			Help:        "Housekeeping job runs by job and outcome.",
			ConstLabels: labels,
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "autoparts_scheduler_job_duration_seconds",
			Help:        "Housekeeping job duration.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"job"}),
	}

	registerer.MustRegister(
		m.cartMutations,
		m.stockRejections,
		m.ordersCreated,
		m.orderRollbacks,
		m.syncEntries,
		m.wsClients,
		m.jobRuns,
		m.jobDuration,
	)
	return m
}

func (m *Metrics) IncCartMutation(op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) IncStockRejection(stage string) {
	if m == nil {
		return
	}
	m.stockRejections.WithLabelValues(stage).Inc()
}

func (m *Metrics) IncOrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) IncOrderRollback() {
	if m == nil {
		return
	}
	m.orderRollbacks.Inc()
}

func (m *Metrics) IncSyncEntry(table, action string) {
	if m == nil {
		return
	}
	m.syncEntries.WithLabelValues(table, action).Inc()
}

func (m *Metrics) ObserveJob(job, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.wsClients.Set(float64(n))
}

// HTTPMetrics records request latency per route.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

func NewHTTPMetrics(cfg Config, registerer prometheus.Registerer) *HTTPMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	labels := constLabels(cfg)
	h := &HTTPMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "autoparts_http_request_duration_seconds",
			Help:        "HTTP request latency by route and status.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "autoparts_http_inflight_requests",
			Help:        "HTTP requests currently being served.",
			ConstLabels: labels,
		}),
	}
	registerer.MustRegister(h.duration, h.inflight)
	return h
}

// GinMiddleware observes every request except websocket upgrades, which stay open.
func (h *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h == nil || strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}
		start := time.Now()
		h.inflight.Inc()
		defer h.inflight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		h.duration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

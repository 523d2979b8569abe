// Package metrics exposes prometheus instrumentation: an HTTP request
// histogram attached as gin middleware on a dedicated listener, plus the
// billing business counters.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var HistogramBuckets = []float64{
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	750, 1000, 1500, 2000,
	3000, 5000, 7500, 10000, 15000, 30000, 60000,
}

// Billing business counters. Registered once in New.
var (
	CheckoutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "billing",
			Name:      "checkout_total",
			Help:      "checkout attempts by final ledger status",
		},
		[]string{"status"},
	)
	RefundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "billing",
			Name:      "refund_total",
			Help:      "refund adjustments by outcome",
		},
		[]string{"outcome"},
	)
	SweepDowngradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: "billing",
			Name:      "sweep_downgraded_total",
			Help:      "users demoted to the free package by the expiration sweep",
		},
	)
)

type Prometheus struct {
	registry   *prometheus.Registry
	reqDur     *prometheus.HistogramVec
	listenAddr string
	log        *zap.SugaredLogger

	// URLLabelFn maps a request to the handler label, defaulting to FullPath.
	URLLabelFn func(c *gin.Context) string
}

func New(log *zap.SugaredLogger) *Prometheus {
	reg := prometheus.NewRegistry()
	reqDur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "request latency in milliseconds",
			Buckets:   HistogramBuckets,
		},
		[]string{"method", "handler", "status"},
	)
	reg.MustRegister(reqDur, CheckoutTotal, RefundTotal, SweepDowngradedTotal)

	return &Prometheus{
		registry: reg,
		reqDur:   reqDur,
		log:      log,
		URLLabelFn: func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return c.Request.URL.Path
		},
	}
}

// SetListenAddress starts the metrics endpoint on its own listener.
func (p *Prometheus) SetListenAddress(addr string) {
	p.listenAddr = addr
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			p.log.Errorf("metrics listener error: %v", err)
		}
	}()
}

// Use attaches the request histogram middleware to the engine.
func (p *Prometheus) Use(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		p.reqDur.WithLabelValues(
			c.Request.Method,
			p.URLLabelFn(c),
			strconv.Itoa(c.Writer.Status()),
		).Observe(float64(time.Since(start).Milliseconds()))
	})
}

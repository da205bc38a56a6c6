package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
)

const namespace = "vrf_coordinator"

var (
	// Registry holds the coordinator's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	ledgerEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "events_total",
			Help:      "Committed coordinator events by type.",
		},
		[]string{"type"},
	)

	fulfillments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "fulfillments_total",
			Help:      "Committed fulfillments by consumer callback outcome.",
		},
		[]string{"callback"},
	)

	settlerOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settler",
			Name:      "submissions_total",
			Help:      "Queued proof submissions by outcome.",
		},
		[]string{"outcome"},
	)

	settlerDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settler",
			Name:      "fulfill_duration_seconds",
			Help:      "Time spent fulfilling one queued submission.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	chainHead = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "head_block",
			Help:      "Latest sealed block observed by the block-hash poller.",
		},
	)

	archivedHashes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "archived_hashes_total",
			Help:      "Block hashes written to the archive.",
		},
	)

	reorgedHashes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "reorged_hashes_total",
			Help:      "Recorded block hashes replaced after a reorg.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		ledgerEvents,
		fulfillments,
		settlerOutcomes,
		settlerDuration,
		chainHead,
		archivedHashes,
		reorgedHashes,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Gin records request counts and latency keyed by the matched route pattern.
func Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordSettlement records one settler outcome and how long it took.
func RecordSettlement(outcome string, d time.Duration) {
	settlerOutcomes.WithLabelValues(outcome).Inc()
	settlerDuration.Observe(d.Seconds())
}

// SetChainHead records the latest sealed block height.
func SetChainHead(height uint64) { chainHead.Set(float64(height)) }

func IncArchived() { archivedHashes.Inc() }

func IncReorged() { reorgedHashes.Inc() }

// Sink counts committed events before handing them to next.
type Sink struct {
	next coordinator.EventSink
}

func NewSink(next coordinator.EventSink) *Sink {
	return &Sink{next: next}
}

func (s *Sink) Publish(ctx context.Context, evs []events.Event) error {
	for _, e := range evs {
		ledgerEvents.WithLabelValues(string(e.Type)).Inc()
		if d, ok := e.Data.(events.RandomWordsFulfilledData); ok {
			fulfillments.WithLabelValues(strconv.FormatBool(d.Success)).Inc()
		}
	}
	if s.next == nil {
		return nil
	}
	return s.next.Publish(ctx, evs)
}

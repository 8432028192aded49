package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Cycles          *prometheus.CounterVec // status label: ok|no_track|no_navigation|no_elevation|off_track|reset
	CycleDuration   prometheus.Histogram
	ProfileRebuilds prometheus.Counter
	MatchedIndex    prometheus.Gauge

	SnapshotFetches   prometheus.Counter
	SnapshotCacheHits prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	RouteSourceReady prometheus.Gauge

	SnapshotTTL  prometheus.Gauge // seconds
	PollInterval prometheus.Gauge // seconds
}

func NewCollector(snapshotTTL, pollInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trackprogress_cycles_total",
			Help: "Progress cycles by outcome.",
		}, []string{"status"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trackprogress_cycle_duration_seconds",
			Help:    "Duration of one progress cycle including snapshot and route fetch.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		ProfileRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trackprogress_profile_rebuilds_total",
			Help: "Elevation profiles computed after a route change.",
		}),
		MatchedIndex: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trackprogress_matched_index",
			Help: "Route point index of the last successful match.",
		}),
		SnapshotFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trackprogress_snapshot_fetches_total",
			Help: "Snapshots requested from the navigation source.",
		}),
		SnapshotCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trackprogress_snapshot_cache_hits_total",
			Help: "Snapshot reads served from the cache.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trackprogress_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trackprogress_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trackprogress_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trackprogress_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RouteSourceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trackprogress_route_source_ready",
			Help: "1 once the route database is connected.",
		}),
		SnapshotTTL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trackprogress_snapshot_ttl_seconds",
			Help: "Snapshot cache time to live in seconds.",
		}),
		PollInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trackprogress_poll_interval_seconds",
			Help: "Poll interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.Cycles, c.CycleDuration, c.ProfileRebuilds, c.MatchedIndex,
		c.SnapshotFetches, c.SnapshotCacheHits,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.RouteSourceReady, c.SnapshotTTL, c.PollInterval,
	)

	c.SnapshotTTL.Set(snapshotTTL.Seconds())
	c.PollInterval.Set(pollInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}

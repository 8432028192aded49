package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"trackprogress/internal/config"
	"trackprogress/internal/db"
	"trackprogress/internal/httpapi"
	"trackprogress/internal/metrics"
	"trackprogress/internal/poller"
	"trackprogress/internal/progress"
	"trackprogress/internal/publisher"
	"trackprogress/internal/route"
	"trackprogress/internal/snapshot"
)

const dbRetryInterval = 5 * time.Second

func main() {
	// Load configuration from .env, CONFIG_FILE and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	route.LogChanges = cfg.LogTrackChanges

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics setup
	var mcol *metrics.Collector
	var servers []*http.Server
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.SnapshotTTL, cfg.PollInterval)
		servers = append(servers, mcol.Serve(cfg.MetricsAddr))
	}

	// NATS carries both the snapshot requests and the published progress
	nc, err := publisher.Connect(cfg.NATSURL, wrapPublisherMetrics(mcol))
	if err != nil {
		log.Fatalf("nats error: %v", err)
	}
	pub := publisher.NewNATSPublisher(nc, cfg.ProgressSubject, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
	defer pub.Close()

	cache := snapshot.NewCache(snapshot.NewNATSSource(nc, cfg.SnapshotSubject, cfg.SnapshotTimeout), cfg.SnapshotTTL, wrapCacheMetrics(mcol))
	cache.LogHits(cfg.LogCacheHits)

	routes := db.NewRouteSource()
	engine := progress.NewEngine(cache, routes, progress.LogReporter{}, wrapEngineMetrics(mcol))

	sqlDB, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer sqlDB.Close()

	// Cycles report noTRK until the route database is reachable
	done := make(chan struct{})
	go func() {
		defer close(done)
		connectRoutes(ctx, sqlDB, routes, engine, mcol)
	}()

	if cfg.HTTPAddr != "" {
		servers = append(servers, httpapi.Serve(cfg.HTTPAddr, httpapi.NewHandler(engine)))
	}

	p := poller.New(engine, pub, cfg.PollInterval)
	p.Start(ctx)

	// Block until context cancelled
	<-ctx.Done()
	p.Stop()
	<-done

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancelShutdown()
	for _, srv := range servers {
		_ = srv.Shutdown(shutdownCtx)
	}
	log.Println("shutdown complete")
}

// connectRoutes pings the route database until it answers, then attaches it
// to the engine's route source. It detaches the handle when ctx ends.
func connectRoutes(ctx context.Context, sqlDB *sql.DB, routes *db.RouteSource, engine *progress.Engine, mcol *metrics.Collector) {
	for {
		err := db.Ping(ctx, sqlDB)
		if err == nil {
			break
		}
		log.Printf("db ping error: %v (retrying in %s)", err, dbRetryInterval)
		select {
		case <-ctx.Done():
			return
		case <-time.After(dbRetryInterval):
		}
	}

	routes.Attach(sqlDB)
	engine.MarkReady()
	if mcol != nil {
		mcol.RouteSourceReady.Set(1)
	}
	log.Printf("route database ready")

	<-ctx.Done()
	routes.Attach(nil)
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}

func wrapCacheMetrics(c *metrics.Collector) snapshot.CacheMetrics {
	if c == nil {
		return nil
	}
	return &cacheMetrics{c: c}
}

type cacheMetrics struct{ c *metrics.Collector }

func (m *cacheMetrics) SnapshotFetchInc()    { m.c.SnapshotFetches.Inc() }
func (m *cacheMetrics) SnapshotCacheHitInc() { m.c.SnapshotCacheHits.Inc() }

func wrapEngineMetrics(c *metrics.Collector) progress.EngineMetrics {
	if c == nil {
		return nil
	}
	return &engineMetrics{c: c}
}

type engineMetrics struct{ c *metrics.Collector }

func (m *engineMetrics) CycleObserve(status progress.Status, d time.Duration) {
	m.c.Cycles.WithLabelValues(status.Label()).Inc()
	m.c.CycleDuration.Observe(d.Seconds())
}
func (m *engineMetrics) ProfileRebuildInc()    { m.c.ProfileRebuilds.Inc() }
func (m *engineMetrics) MatchedIndexSet(i int) { m.c.MatchedIndex.Set(float64(i)) }

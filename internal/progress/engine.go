package progress

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"trackprogress/internal/elevation"
	"trackprogress/internal/route"
	"trackprogress/internal/snapshot"
)

const logTag = "navigation progress"

// SnapshotGetter reads the current navigation snapshot. Invalidate drops any
// cached copy after a failed cycle.
type SnapshotGetter interface {
	Get(ctx context.Context) (*snapshot.Snapshot, error)
	Invalidate()
}

// Reporter receives unexpected cycle failures.
type Reporter interface {
	ReportError(tag, msg string, err error)
}

// LogReporter reports through the standard logger.
type LogReporter struct{}

func (LogReporter) ReportError(tag, msg string, err error) {
	log.Printf("%s: %s: %v", tag, msg, err)
}

// EngineMetrics is optional; nil disables instrumentation.
type EngineMetrics interface {
	CycleObserve(status Status, d time.Duration)
	ProfileRebuildInc()
	MatchedIndexSet(i int)
}

type routeState struct {
	route     *route.Route
	identity  *route.Identity
	profile   elevation.Profile
	lastIndex int
}

func newRouteState(r *route.Route) *routeState {
	st := &routeState{route: r, profile: elevation.BuildProfile(r), lastIndex: -1}
	if r != nil {
		id := r.Identity()
		st.identity = &id
	}
	return st
}

// Engine computes navigation progress once per call to Calculate. Cycles are
// serialized; the cached route state is replaced whole on route change and
// dropped on any unexpected failure.
type Engine struct {
	snapshots SnapshotGetter
	routes    route.Source
	reporter  Reporter
	metrics   EngineMetrics

	ready     chan struct{}
	readyOnce sync.Once

	mu    sync.Mutex
	state *routeState
}

func NewEngine(snapshots SnapshotGetter, routes route.Source, reporter Reporter, m EngineMetrics) *Engine {
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Engine{
		snapshots: snapshots,
		routes:    routes,
		reporter:  reporter,
		metrics:   m,
		ready:     make(chan struct{}),
	}
}

// MarkReady signals that the route source can be used. Safe to call more than once.
func (e *Engine) MarkReady() {
	e.readyOnce.Do(func() { close(e.ready) })
}

func (e *Engine) IsReady() bool {
	select {
	case <-e.ready:
		return true
	default:
		return false
	}
}

// Profile returns a copy of the active route's elevation profile.
func (e *Engine) Profile() elevation.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == nil {
		return nil
	}
	return append(elevation.Profile(nil), e.state.profile...)
}

// Calculate runs one cycle. It never fails: unexpected errors and panics reset
// the cached route and come back as StatusReset. Cancelling ctx does not abort
// a cycle; the snapshot and route sources apply their own timeouts.
func (e *Engine) Calculate(ctx context.Context) (res Result) {
	start := time.Now()
	defer func() {
		if e.metrics != nil {
			e.metrics.CycleObserve(res.Status, time.Since(start))
		}
	}()

	if !e.IsReady() {
		return Result{Status: StatusNoTrack, MatchedIndex: -1}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			res = e.discard(fmt.Errorf("panic: %v", r))
		}
	}()

	var err error
	res, err = e.cycle(context.WithoutCancel(ctx))
	if err != nil {
		return e.discard(err)
	}
	return res
}

func (e *Engine) discard(err error) Result {
	e.state = nil
	e.snapshots.Invalidate()
	e.reporter.ReportError(logTag, "can not get remaining elevation", err)
	return Result{Status: StatusReset, MatchedIndex: -1}
}

func (e *Engine) cycle(ctx context.Context) (Result, error) {
	snap, err := e.snapshots.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("get snapshot: %w", err)
	}
	if snap == nil {
		return Result{}, errors.New("snapshot missing")
	}
	if err := e.resolveRoute(ctx, snap.ActiveRouteID); err != nil {
		return Result{}, err
	}

	res := Result{MatchedIndex: -1}
	st := e.state
	if !snap.GuidanceMode.Active() {
		res.Status = StatusNoNavigation
		return res, nil
	}
	totals, ok := st.profile.Totals()
	if st.route == nil || !ok {
		res.Status = StatusNoTrack
		return res, nil
	}
	if totals.Uphill == 0 {
		res.Status = StatusNoElevation
		return res, nil
	}

	idx := FindPointIndex(st.route.Points, snap.TargetWaypoint, st.lastIndex)
	if idx < 0 {
		// the followed route may have fewer points than the planned course
		idx = FindPointIndex(st.route.Points, snap.NextNavPoint, st.lastIndex)
	}
	if idx < 0 {
		res.Status = StatusOffTrack
		return res, nil
	}
	st.lastIndex = idx
	if e.metrics != nil {
		e.metrics.MatchedIndexSet(idx)
	}

	// the target is the point ahead, so its entry holds what remains from the one before
	remaining := st.profile[idx]
	res.MatchedIndex = idx
	res.RemainingUphill = remaining.Uphill
	res.RemainingDownhill = remaining.Downhill
	res.RemainingUphillPercent = percent(remaining.Uphill, totals.Uphill)
	res.RemainingDownhillPercent = percent(remaining.Downhill, totals.Downhill)
	res.TotalUphill = totals.Uphill
	res.TotalDownhill = totals.Downhill
	res.RouteID = st.route.ID
	res.RouteName = st.route.Name
	return res, nil
}

// resolveRoute fetches the active route and rebuilds the cached state when it
// differs from the cached one. An unavailable source counts as no route.
func (e *Engine) resolveRoute(ctx context.Context, id int64) error {
	var next *route.Route
	if id != snapshot.NoRoute {
		r, err := e.routes.FetchRoute(ctx, id)
		if errors.Is(err, route.ErrSourceUnavailable) {
			e.state = newRouteState(nil)
			return nil
		}
		if err != nil {
			return fmt.Errorf("fetch route %d: %w", id, err)
		}
		next = r
	}

	if e.state != nil && route.SameRoute(e.state.identity, next) {
		return nil
	}
	e.state = newRouteState(next)
	if next != nil && e.metrics != nil {
		e.metrics.ProfileRebuildInc()
	}
	return nil
}

// percent truncates toward zero in single precision. 0/0 gives 0 and x/0
// saturates, so a route with climbing but no descent still yields a number.
func percent(remaining, total int) int {
	p := float32(remaining) / float32(total) * 100
	switch {
	case math.IsNaN(float64(p)):
		return 0
	case math.IsInf(float64(p), 1):
		return math.MaxInt32
	case math.IsInf(float64(p), -1):
		return math.MinInt32
	}
	return int(p)
}

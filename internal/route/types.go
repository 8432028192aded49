package route

import (
	"context"
	"errors"
)

// ErrSourceUnavailable is returned by a Source when the backing store cannot
// serve routes at all (not opened yet, schema missing). Callers treat it as
// "no route" rather than a failure.
var ErrSourceUnavailable = errors.New("route source unavailable")

type Point struct {
	Lon         float64
	Lat         float64
	Altitude    float64 // 0 when HasAltitude is false
	HasAltitude bool
}

type Identity struct {
	ID                    int64
	PointCount            int
	FirstPointHasAltitude bool
}

type Route struct {
	ID     int64
	Name   string
	Points []Point
}

// Identity returns the cheap equality key used for track change detection.
func (r *Route) Identity() Identity {
	id := Identity{ID: r.ID, PointCount: len(r.Points)}
	if len(r.Points) > 0 {
		id.FirstPointHasAltitude = r.Points[0].HasAltitude
	}
	return id
}

// Source loads routes by id. A nil route with a nil error means the id is unknown.
type Source interface {
	FetchRoute(ctx context.Context, id int64) (*Route, error)
}

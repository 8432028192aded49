package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trackprogress/internal/route"
	"trackprogress/internal/snapshot"
)

func gridPoints(n int) []route.Point {
	pts := make([]route.Point, n)
	for i := range pts {
		pts[i] = route.Point{Lon: 10 + float64(i)*0.001, Lat: 50 + float64(i)*0.001}
	}
	return pts
}

func coordOf(p route.Point) *snapshot.Coordinate {
	return &snapshot.Coordinate{Lon: p.Lon, Lat: p.Lat}
}

func TestFindPointIndex_NilTarget(t *testing.T) {
	assert.Equal(t, -1, FindPointIndex(gridPoints(10), nil, 3))
}

func TestFindPointIndex_EmptyRoute(t *testing.T) {
	assert.Equal(t, -1, FindPointIndex(nil, &snapshot.Coordinate{}, 0))
}

func TestFindPointIndex_ForwardScan(t *testing.T) {
	pts := gridPoints(10)
	assert.Equal(t, 9, FindPointIndex(pts, coordOf(pts[9]), 6))
}

func TestFindPointIndex_BackwardScan(t *testing.T) {
	pts := gridPoints(10)
	// window starts at 1, so point 0 is only reachable going backwards
	assert.Equal(t, 0, FindPointIndex(pts, coordOf(pts[0]), 6))
}

func TestFindPointIndex_RewindWindow(t *testing.T) {
	pts := gridPoints(10)
	// a point slightly behind the previous match is found by the forward pass
	assert.Equal(t, 2, FindPointIndex(pts, coordOf(pts[2]), 7))
}

func TestFindPointIndex_PrefersForwardDuplicate(t *testing.T) {
	pts := gridPoints(10)
	// loop route: point 8 revisits point 1
	pts[8] = pts[1]
	assert.Equal(t, 8, FindPointIndex(pts, coordOf(pts[1]), 9))
	assert.Equal(t, 1, FindPointIndex(pts, coordOf(pts[1]), -1))
}

func TestFindPointIndex_PreviousBeyondEnd(t *testing.T) {
	pts := gridPoints(10)
	assert.Equal(t, 4, FindPointIndex(pts, coordOf(pts[4]), 100))
}

func TestFindPointIndex_NotFound(t *testing.T) {
	pts := gridPoints(10)
	assert.Equal(t, -1, FindPointIndex(pts, &snapshot.Coordinate{Lon: 1, Lat: 1}, 4))
}

package progress

import (
	"trackprogress/internal/route"
	"trackprogress/internal/snapshot"
)

// rewindPoints is how far before the previous match the search starts.
const rewindPoints = 5

// FindPointIndex returns the index of the first point whose coordinates equal
// target, or -1. The scan starts a few points before previous and runs to the
// end, then falls back to scanning backwards to the start.
// Coordinates compare exactly; targets are copies of route points.
func FindPointIndex(points []route.Point, target *snapshot.Coordinate, previous int) int {
	if target == nil || len(points) == 0 {
		return -1
	}
	last := len(points) - 1
	start := previous - rewindPoints
	if start < 0 {
		start = 0
	}
	if start > last {
		start = last
	}

	for i := start; i <= last; i++ {
		if matches(points[i], target) {
			return i
		}
	}
	for i := start; i >= 0; i-- {
		if matches(points[i], target) {
			return i
		}
	}
	return -1
}

func matches(p route.Point, c *snapshot.Coordinate) bool {
	return p.Lon == c.Lon && p.Lat == c.Lat
}

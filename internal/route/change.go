package route

import "log"

// LogChanges enables debug logging of why two routes were considered different.
var LogChanges bool

// SameRoute reports whether next describes the same route as the one identified
// by prev. Both absent is the same; one absent is different. Otherwise id, point
// count and the first point's altitude flag must all match. In-place edits that
// keep id and length are not detected.
func SameRoute(prev *Identity, next *Route) bool {
	if prev == nil || next == nil {
		same := prev == nil && next == nil
		if LogChanges && !same {
			log.Printf("route changed: one side is absent")
		}
		return same
	}
	cur := next.Identity()
	switch {
	case prev.ID != cur.ID:
		if LogChanges {
			log.Printf("route changed: id %d != %d", prev.ID, cur.ID)
		}
		return false
	case prev.PointCount != cur.PointCount:
		if LogChanges {
			log.Printf("route changed: point count %d != %d", prev.PointCount, cur.PointCount)
		}
		return false
	case prev.FirstPointHasAltitude != cur.FirstPointHasAltitude:
		if LogChanges {
			log.Printf("route changed: first point altitude flag differs")
		}
		return false
	}
	return true
}

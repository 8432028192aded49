package elevation

import (
	"log"

	"trackprogress/internal/route"
)

// NoiseThreshold is the minimum altitude change counted as climbing or
// descending. Close match to the totals fitness platforms report.
const NoiseThreshold = 3.0

type Remaining struct {
	Uphill   int `json:"uphill"`
	Downhill int `json:"downhill"`
}

// Profile holds the remaining elevation when standing at each point.
// Entry i+1 belongs to point i; entry 0 repeats entry 1 and doubles as the
// route totals.
type Profile []Remaining

// Totals returns the whole-route uphill/downhill and false when the profile is empty.
func (p Profile) Totals() (Remaining, bool) {
	if len(p) == 0 {
		return Remaining{}, false
	}
	return p[0], true
}

// BuildProfile walks the route from the last point to the first, accumulating
// altitude deltas relative to a reference altitude. Deltas below NoiseThreshold
// are dropped and leave the reference untouched, so jitter never adds up.
func BuildProfile(r *route.Route) Profile {
	if r == nil || len(r.Points) == 0 {
		return Profile{}
	}
	log.Printf("recalculate route elevation of: %q", r.Name)

	pts := r.Points
	n := len(pts)
	profile := make(Profile, n+1)

	var uphill, downhill float64
	nextAltitude := pts[n-1].Altitude
	for i := n - 1; i >= 0; i-- {
		cur := pts[i].Altitude
		diff := nextAltitude - cur
		switch {
		case diff >= NoiseThreshold:
			// climbing towards the next point when travelling forward
			uphill += diff
			nextAltitude = cur
		case -diff >= NoiseThreshold:
			downhill -= diff
			nextAltitude = cur
		}
		profile[i+1] = Remaining{Uphill: int(uphill), Downhill: int(downhill)}
	}
	profile[0] = profile[1]

	log.Printf("points calculated: %d", n)
	return profile
}

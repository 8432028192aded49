package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
)

type GuidanceMode int

const (
	GuidanceNone GuidanceMode = iota
	GuidanceRouteGuide
	GuidanceRouteNavigation
)

// NoRoute is the ActiveRouteID sentinel used when nothing is being followed.
const NoRoute int64 = -1

func (m GuidanceMode) String() string {
	switch m {
	case GuidanceRouteGuide:
		return "route_guide"
	case GuidanceRouteNavigation:
		return "route_navigation"
	default:
		return "none"
	}
}

// Active reports whether route following is engaged.
func (m GuidanceMode) Active() bool {
	return m == GuidanceRouteGuide || m == GuidanceRouteNavigation
}

func (m *GuidanceMode) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "none":
		*m = GuidanceNone
	case "route_guide", "guide":
		*m = GuidanceRouteGuide
	case "route_navigation", "navigation":
		*m = GuidanceRouteNavigation
	default:
		return fmt.Errorf("unknown guidance mode %q", string(b))
	}
	return nil
}

func (m GuidanceMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Snapshot is one read of the live navigation state. It is shared between
// callers through the Cache and must be treated as read-only.
type Snapshot struct {
	GuidanceMode   GuidanceMode `json:"guidanceMode"`
	ActiveRouteID  int64        `json:"activeRouteId"`
	TargetWaypoint *Coordinate  `json:"targetWaypoint,omitempty"`
	NextNavPoint   *Coordinate  `json:"nextNavPoint,omitempty"`
}

// Decode parses a JSON snapshot. A missing activeRouteId means NoRoute.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty snapshot payload")
	}
	var wire struct {
		GuidanceMode   GuidanceMode `json:"guidanceMode"`
		ActiveRouteID  *int64       `json:"activeRouteId"`
		TargetWaypoint *Coordinate  `json:"targetWaypoint"`
		NextNavPoint   *Coordinate  `json:"nextNavPoint"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	s := &Snapshot{
		GuidanceMode:   wire.GuidanceMode,
		ActiveRouteID:  NoRoute,
		TargetWaypoint: wire.TargetWaypoint,
		NextNavPoint:   wire.NextNavPoint,
	}
	if wire.ActiveRouteID != nil {
		s.ActiveRouteID = *wire.ActiveRouteID
	}
	return s, nil
}

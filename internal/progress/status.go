package progress

import "fmt"

// Status is the outcome of a cycle that did not produce numbers.
// The zero value means OK.
type Status int

const (
	StatusOK Status = iota
	StatusNoTrack
	StatusNoNavigation
	StatusNoElevation
	StatusOffTrack
	StatusReset
)

// String returns the literal token consumers match on.
func (s Status) String() string {
	switch s {
	case StatusNoTrack:
		return "noTRK"
	case StatusNoNavigation:
		return "noNAV"
	case StatusNoElevation:
		return "noELE"
	case StatusOffTrack:
		return "offTRK"
	case StatusReset:
		return "RESET"
	default:
		return "OK"
	}
}

// Label is a low-cardinality name for metrics.
func (s Status) Label() string {
	switch s {
	case StatusNoTrack:
		return "no_track"
	case StatusNoNavigation:
		return "no_navigation"
	case StatusNoElevation:
		return "no_elevation"
	case StatusOffTrack:
		return "off_track"
	case StatusReset:
		return "reset"
	default:
		return "ok"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	for c := StatusOK; c <= StatusReset; c++ {
		if c.String() == string(b) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", string(b))
}

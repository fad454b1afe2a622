package types

import "errors"

var (
	// ErrNoFrontageFound is returned when the designated frontage street is
	// absent or no edge clears even the degraded search.
	ErrNoFrontageFound = errors.New("no frontage found")
	// ErrDegenerateGeometry is returned for rings with fewer than three
	// distinct vertices or zero area.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// Reason codes reported in the failure list.
const (
	ReasonNoFrontage = "NO_FRONTAGE_FOUND"
	ReasonDegenerate = "DEGENERATE_GEOMETRY"
	ReasonInternal   = "INTERNAL"
)

// ReasonCode maps a stage error to its stable reason code.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrNoFrontageFound):
		return ReasonNoFrontage
	case errors.Is(err, ErrDegenerateGeometry):
		return ReasonDegenerate
	}
	return ReasonInternal
}

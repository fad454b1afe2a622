package types

import "github.com/paulmach/orb"

// Side is the cadastral side an edge belongs to, relative to the frontage.
type Side string

const (
	SideFront   Side = "front"
	SideBack    Side = "back"
	SideRight   Side = "right"
	SideLeft    Side = "left"
	SideUnknown Side = ""
)

// Sides lists the four sides in output order.
var Sides = []Side{SideFront, SideBack, SideRight, SideLeft}

// Unidentified names a boundary segment whose confronting entity could not be
// resolved.
const Unidentified = "unidentified area"

// Tier is the kind of entity an edge confronts. Lower values win exact ties.
type Tier int

const (
	TierNone Tier = iota
	TierNeighbor
	TierStreet
	TierOther
)

func (t Tier) String() string {
	switch t {
	case TierNeighbor:
		return "neighbor"
	case TierStreet:
		return "street"
	case TierOther:
		return "other"
	}
	return "none"
}

// FrontageMode records which candidate pool produced the frontage edge.
type FrontageMode string

const (
	FrontageStrong   FrontageMode = "strong"
	FrontageWeak     FrontageMode = "weak"
	FrontageDegraded FrontageMode = "degraded"
)

// Frontage is the immutable frontage reference of a parcel. Every later stage
// indexes off EdgeIndex and Midpoint.
type Frontage struct {
	Street    string
	EdgeIndex int
	Midpoint  orb.Point
	Overlap   float64
	Mode      FrontageMode
}

// EdgeRecord is one boundary edge of the canonical ring with everything the
// pipeline resolved about it.
type EdgeRecord struct {
	Index         int
	Start         orb.Point
	End           orb.Point
	Length        float64
	Bearing       float64
	Side          Side
	Confrontation string
	Tier          Tier
	Score         float64
	Ambiguous     bool
}

// SideRecord is the authoritative per-side aggregate.
type SideRecord struct {
	Side          Side
	Confrontation string
	Length        float64
	Bearing       float64
	DominantEdge  int
	Edges         []int
	Ambiguous     bool
}

// ParcelResult is everything derived for a successfully resolved parcel.
type ParcelResult struct {
	ParcelID    string
	BlockID     string
	Seq         int
	Ring        orb.Ring // canonical ring: clockwise, open, canonical start vertex
	Area        float64
	Perimeter   float64
	Frontage    Frontage
	Streets     []string // every street touching the parcel, sorted
	Corner      bool
	Edges       []EdgeRecord
	Sides       []SideRecord
	Description string
}

// Side returns the aggregate for s, or false when the parcel has no edge on
// that side.
func (r ParcelResult) Side(s Side) (SideRecord, bool) {
	for _, rec := range r.Sides {
		if rec.Side == s {
			return rec, true
		}
	}
	return SideRecord{}, false
}

// Ambiguous reports whether any edge of the parcel needed an arbitrary
// tie-break.
func (r ParcelResult) Ambiguous() bool {
	for _, e := range r.Edges {
		if e.Ambiguous {
			return true
		}
	}
	for _, s := range r.Sides {
		if s.Ambiguous {
			return true
		}
	}
	return false
}

// Segment is one outline segment of a block perimeter.
type Segment struct {
	Seq           int
	Start         orb.Point
	End           orb.Point
	Bearing       float64
	Length        float64
	Confrontation string // street name, empty when the segment faces no street
}

// BlockResult is the block-level outcome computed after every member parcel.
type BlockResult struct {
	BlockID     string
	Outline     orb.Ring
	Area        float64
	Perimeter   float64
	Parcels     []string
	Segments    []Segment
	Description string
}

// Failure names a parcel that could not be resolved.
type Failure struct {
	ParcelID string
	BlockID  string
	Reason   string
	Detail   string
}

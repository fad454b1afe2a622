package types

import (
	"strconv"

	"github.com/paulmach/orb"
)

// Parcel is a surveyed lot as delivered by upstream ingestion. The engine
// never mutates it; derived attributes live in ParcelResult.
type Parcel struct {
	ID             string
	BlockID        string
	Seq            int // sequence number within the block, 0 when not yet numbered
	FrontageStreet string
	Ring           orb.Ring
}

// Label is the name other parcels use when they confront this one.
func (p Parcel) Label() string {
	if p.Seq > 0 {
		return strconv.Itoa(p.Seq)
	}
	return p.ID
}

// Feature is a named reference geometry: a street or any other boundary of
// record. Geometry may be a line, multi-line, polygon or multi-polygon.
type Feature struct {
	ID       string
	Name     string
	Geometry orb.Geometry
}

// Block groups parcels sharing an outer perimeter. Outline is optional on
// input; the engine derives it from member parcels when empty.
type Block struct {
	ID      string
	Outline orb.Ring
}

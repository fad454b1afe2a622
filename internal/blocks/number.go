package blocks

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"memorial/internal/geom"
)

// Member is a parcel of a block as seen by the numbering pass.
type Member struct {
	ID   string
	Ring orb.Ring
}

// PolarAngle is the direction from center to p, 0 at north and growing
// clockwise.
func PolarAngle(center, p orb.Point) float64 {
	return geom.NormalizeDegrees(90 - geom.Bearing(center, p))
}

// Number orders members clockwise from north around the block centroid.
// Equal angles are broken by id. The position of an id in the result plus
// one is its sequence number.
func Number(members []Member) []string {
	mp := make(orb.MultiPolygon, 0, len(members))
	for _, m := range members {
		mp = append(mp, orb.Polygon{geom.Close(m.Ring)})
	}
	center, _ := planar.CentroidArea(mp)

	type ranked struct {
		id    string
		angle float64
	}
	rs := make([]ranked, len(members))
	for i, m := range members {
		c, _ := planar.CentroidArea(orb.Polygon{geom.Close(m.Ring)})
		rs[i] = ranked{id: m.ID, angle: PolarAngle(center, c)}
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].angle != rs[j].angle {
			return rs[i].angle < rs[j].angle
		}
		return rs[i].id < rs[j].id
	})

	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.id
	}
	return out
}

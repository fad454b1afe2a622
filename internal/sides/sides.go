// Package sides partitions the edges of a parcel into front, back, right
// and left relative to its frontage edge.
package sides

import (
	"github.com/paulmach/orb"

	"memorial/internal/geom"
	"memorial/internal/types"
)

// Classify labels every edge of a canonical ring. The frontage edge is
// always front. An edge whose midpoint lies at depth of at least
// backFraction of the deepest midpoint behind interior is back; the rest
// split on the sign of their projection onto the right axis, which points
// to the right of a viewer standing at interior and facing the frontage.
func Classify(edges []geom.Edge, front int, interior orb.Point, backFraction float64) []types.Side {
	out := make([]types.Side, len(edges))
	if front < 0 || front >= len(edges) {
		return out
	}
	out[front] = types.SideFront

	forward := geom.Unit(geom.Sub(edges[front].Midpoint(), interior))
	if forward == (orb.Point{}) {
		forward = edges[front].OutwardNormal()
	}
	right := orb.Point{forward[1], -forward[0]}

	depth := make([]float64, len(edges))
	minDepth := 0.0
	for i, e := range edges {
		if i == front {
			continue
		}
		depth[i] = geom.Dot(geom.Sub(e.Midpoint(), interior), forward)
		if depth[i] < minDepth {
			minDepth = depth[i]
		}
	}

	for i, e := range edges {
		if i == front {
			continue
		}
		if minDepth < 0 && depth[i] <= backFraction*minDepth {
			out[i] = types.SideBack
			continue
		}
		out[i] = lateral(geom.Dot(geom.Sub(e.Midpoint(), interior), right), depth[i])
	}
	return out
}

func lateral(r, f float64) types.Side {
	switch {
	case r > 0:
		return types.SideRight
	case r < 0:
		return types.SideLeft
	case f < 0:
		return types.SideLeft
	}
	return types.SideRight
}

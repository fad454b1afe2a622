// Package index provides the bounding-box index used for candidate lookup
// over parcels, streets and other reference features.
//
// Queries return candidate ids in ascending order so callers iterate
// candidates identically on every run.
package index

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"
)

// nodeCapacity is the STRtree fan-out.
const nodeCapacity = 10

// Index is an immutable bounding-box index over a GEOS STRtree. Build it
// once and share it read-only between workers; queries are serialised by
// its GEOS context.
type Index struct {
	ctx    *geos.Context
	tree   *geos.STRtree
	bounds []orb.Bound
	boxes  []*geos.Geom // envelopes referenced by the tree
}

// New indexes bounds; the id of each bound is its position in the slice.
func New(bounds []orb.Bound) (*Index, error) {
	ctx := geos.NewContext()
	ix := &Index{
		ctx:    ctx,
		tree:   ctx.NewSTRtree(nodeCapacity),
		bounds: bounds,
		boxes:  make([]*geos.Geom, len(bounds)),
	}
	for i, b := range bounds {
		ix.boxes[i] = ix.box(b)
		if err := ix.tree.Insert(ix.boxes[i], i); err != nil {
			return nil, fmt.Errorf("index bound %d: %w", i, err)
		}
	}
	return ix, nil
}

// box is the rectangle of b. Degenerate bounds still carry a usable
// envelope.
func (ix *Index) box(b orb.Bound) *geos.Geom {
	x0, y0, x1, y1 := b.Min[0], b.Min[1], b.Max[0], b.Max[1]
	return ix.ctx.NewPolygon([][][]float64{{
		{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0},
	}})
}

// Len is the number of indexed bounds.
func (ix *Index) Len() int {
	return len(ix.bounds)
}

// Query returns the ids of all bounds intersecting b, in ascending order.
func (ix *Index) Query(b orb.Bound) []int {
	if len(ix.bounds) == 0 {
		return nil
	}

	var ids []int
	ix.tree.Query(ix.box(b), func(v any) {
		id := v.(int)
		// the tree hands back envelope candidates; recheck on exact bounds
		if ix.bounds[id].Intersects(b) {
			ids = append(ids, id)
		}
	})
	sort.Ints(ids)
	return ids
}

// Bound is the bounding box of g padded by pad on every side.
func Bound(g orb.Geometry, pad float64) orb.Bound {
	return g.Bound().Pad(pad)
}

package geom

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/twpayne/go-geos"
)

// Kit wraps a GEOS context. Geometries created by one Kit must not be mixed
// with geometries from another. A Kit is safe for concurrent use; GEOS calls
// are serialised by the context.
type Kit struct {
	ctx      *geos.Context
	quadSegs int
}

// NewKit creates a toolkit whose buffers approximate quarter circles with
// quadSegs segments.
func NewKit(quadSegs int) *Kit {
	if quadSegs <= 0 {
		quadSegs = 8
	}
	return &Kit{ctx: geos.NewContext(), quadSegs: quadSegs}
}

// FromOrb converts an orb geometry into GEOS through WKB.
func (k *Kit) FromOrb(g orb.Geometry) (*geos.Geom, error) {
	b, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode wkb: %w", err)
	}
	gg, err := k.ctx.NewGeomFromWKB(b)
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	return gg, nil
}

// ToOrb converts a GEOS geometry back into orb.
func (k *Kit) ToOrb(g *geos.Geom) (orb.Geometry, error) {
	if g == nil {
		return nil, errors.New("nil geometry")
	}
	out, err := wkb.Unmarshal(g.ToWKB())
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	return out, nil
}

// Polygon builds a GEOS polygon from an open or closed ring.
func (k *Kit) Polygon(r orb.Ring) (*geos.Geom, error) {
	return k.FromOrb(orb.Polygon{Close(r)})
}

// Segment builds a two-point GEOS line string.
func (k *Kit) Segment(a, b orb.Point) (*geos.Geom, error) {
	return k.FromOrb(orb.LineString{a, b})
}

// Buffer expands g by radius using the kit's segment count.
func (k *Kit) Buffer(g *geos.Geom, radius float64) *geos.Geom {
	return g.Buffer(radius, k.quadSegs)
}

// BufferOrb converts g and buffers it in one step.
func (k *Kit) BufferOrb(g orb.Geometry, radius float64) (*geos.Geom, error) {
	gg, err := k.FromOrb(g)
	if err != nil {
		return nil, err
	}
	return k.Buffer(gg, radius), nil
}

// OverlapLength is the length of the linear part of a ∩ b. Point contacts
// contribute nothing.
func OverlapLength(a, b *geos.Geom) float64 {
	if a == nil || b == nil {
		return 0
	}
	inter := a.Intersection(b)
	if inter == nil || inter.IsEmpty() {
		return 0
	}
	return inter.Length()
}

// InteriorPoint returns a point guaranteed to lie inside the polygon bounded
// by r. Unlike the centroid it stays inside concave shapes.
func (k *Kit) InteriorPoint(r orb.Ring) (orb.Point, error) {
	poly, err := k.Polygon(r)
	if err != nil {
		return orb.Point{}, err
	}
	g, err := k.ToOrb(poly.PointOnSurface())
	if err != nil {
		return orb.Point{}, err
	}
	p, ok := g.(orb.Point)
	if !ok {
		return orb.Point{}, fmt.Errorf("point on surface returned %s", g.GeoJSONType())
	}
	return p, nil
}

// Outline unions rings into a single polygon and returns its open exterior
// ring. Multi-part results keep the largest part; anything else falls back
// to the convex hull. Holes are dropped.
func (k *Kit) Outline(rings []orb.Ring) (orb.Ring, error) {
	if len(rings) == 0 {
		return nil, errors.New("no rings to union")
	}
	mp := make(orb.MultiPolygon, 0, len(rings))
	for _, r := range rings {
		mp = append(mp, orb.Polygon{Close(r)})
	}
	g, err := k.FromOrb(mp)
	if err != nil {
		return nil, err
	}
	u := g.UnaryUnion().Buffer(0, k.quadSegs)

	out, err := k.ToOrb(u)
	if err != nil {
		return nil, err
	}
	if poly, ok := largestPolygon(out); ok {
		return Open(poly[0]), nil
	}

	hull, err := k.ToOrb(u.ConvexHull())
	if err != nil {
		return nil, err
	}
	if poly, ok := hull.(orb.Polygon); ok && len(poly) > 0 {
		return Open(poly[0]), nil
	}
	return nil, errors.New("union is not polygonal")
}

func largestPolygon(g orb.Geometry) (orb.Polygon, bool) {
	var (
		best     orb.Polygon
		bestArea float64
	)
	var walk func(g orb.Geometry)
	walk = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.Polygon:
			if len(g) == 0 {
				return
			}
			if a := Area(Open(g[0])); best == nil || a > bestArea {
				best, bestArea = g, a
			}
		case orb.MultiPolygon:
			for _, p := range g {
				walk(p)
			}
		case orb.Collection:
			for _, sub := range g {
				walk(sub)
			}
		}
	}
	walk(g)
	return best, best != nil
}

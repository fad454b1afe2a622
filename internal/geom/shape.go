package geom

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"
)

// Shape bundles a canonical ring with its edges and their GEOS
// counterparts, built once per parcel and shared by every stage.
type Shape struct {
	Ring     orb.Ring
	Edges    []Edge
	Lines    []*geos.Geom // one two-point line per edge
	Polygon  *geos.Geom
	Boundary *geos.Geom
}

// Shape builds the GEOS view of the normalised ring r.
func (k *Kit) Shape(r orb.Ring) (*Shape, error) {
	poly, err := k.Polygon(r)
	if err != nil {
		return nil, err
	}
	s := &Shape{
		Ring:     r,
		Edges:    Edges(r),
		Polygon:  poly,
		Boundary: poly.Boundary(),
	}
	s.Lines = make([]*geos.Geom, len(s.Edges))
	for i, e := range s.Edges {
		if e.Degenerate() {
			continue
		}
		if s.Lines[i], err = k.Segment(e.A, e.B); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}
	return s, nil
}

// Bound of the ring.
func (s *Shape) Bound() orb.Bound {
	return s.Ring.Bound()
}

package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Edge is the segment from vertex Index to vertex Index+1 of a cyclic ring.
type Edge struct {
	Index   int
	A, B    orb.Point
	Length  float64
	Bearing float64
}

// Edges derives the edges of the open ring r, wrapping the last vertex onto
// the first.
func Edges(r orb.Ring) []Edge {
	n := len(r)
	out := make([]Edge, n)
	for i := range r {
		a, b := r[i], r[(i+1)%n]
		out[i] = Edge{
			Index:   i,
			A:       a,
			B:       b,
			Length:  Distance(a, b),
			Bearing: Bearing(a, b),
		}
	}
	return out
}

// Midpoint of the edge.
func (e Edge) Midpoint() orb.Point {
	return Midpoint(e.A, e.B)
}

// Vector from A to B.
func (e Edge) Vector() orb.Point {
	return orb.Point{e.B[0] - e.A[0], e.B[1] - e.A[1]}
}

// OutwardNormal is the unit normal pointing away from the interior of a
// clockwise ring, i.e. to the left of the direction of travel.
func (e Edge) OutwardNormal() orb.Point {
	if e.Length == 0 {
		return orb.Point{}
	}
	v := e.Vector()
	return orb.Point{-v[1] / e.Length, v[0] / e.Length}
}

// Degenerate reports an edge too short to carry a confrontation.
func (e Edge) Degenerate() bool {
	return e.Length <= Epsilon
}

// Distance between two points.
func Distance(a, b orb.Point) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

// Midpoint of the segment ab.
func Midpoint(a, b orb.Point) orb.Point {
	return orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

// Bearing of the segment ab in degrees counter-clockwise from east, in
// [0, 360).
func Bearing(a, b orb.Point) float64 {
	return NormalizeDegrees(math.Atan2(b[1]-a[1], b[0]-a[0]) * 180 / math.Pi)
}

// NormalizeDegrees maps any angle onto [0, 360).
func NormalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

// Cross is the z component of u × v.
func Cross(u, v orb.Point) float64 {
	return u[0]*v[1] - u[1]*v[0]
}

// Dot product of u and v.
func Dot(u, v orb.Point) float64 {
	return u[0]*v[0] + u[1]*v[1]
}

// Sub returns a - b.
func Sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

// Unit scales v to length one. The zero vector is returned unchanged.
func Unit(v orb.Point) orb.Point {
	l := math.Hypot(v[0], v[1])
	if l == 0 {
		return v
	}
	return orb.Point{v[0] / l, v[1] / l}
}

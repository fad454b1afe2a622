package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"memorial/internal/types"
)

// Epsilon is the coordinate tolerance used to merge repeated vertices.
const Epsilon = 1e-9

// Normalize returns the canonical form of r: closing vertex and repeated
// vertices removed, clockwise winding, starting at the lowest vertex (ties go
// to the easternmost one). The input ring is not modified.
func Normalize(r orb.Ring) (orb.Ring, error) {
	pts := make(orb.Ring, 0, len(r))
	for _, p := range r {
		if len(pts) > 0 && samePoint(pts[len(pts)-1], p) {
			continue
		}
		pts = append(pts, p)
	}
	for len(pts) > 1 && samePoint(pts[0], pts[len(pts)-1]) {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("%w: %d distinct vertices", types.ErrDegenerateGeometry, len(pts))
	}

	closed := Close(pts)
	if planar.Area(orb.Polygon{closed}) < Epsilon {
		return nil, fmt.Errorf("%w: zero area", types.ErrDegenerateGeometry)
	}
	if closed.Orientation() == orb.CCW {
		pts.Reverse()
	}

	start := 0
	for i, p := range pts {
		s := pts[start]
		if p[1] < s[1] || (p[1] == s[1] && p[0] > s[0]) {
			start = i
		}
	}
	out := make(orb.Ring, 0, len(pts))
	out = append(out, pts[start:]...)
	out = append(out, pts[:start]...)
	return out, nil
}

// Close returns a copy of the open ring r with the first vertex repeated at
// the end.
func Close(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r)+1)
	out = append(out, r...)
	if len(r) > 0 && r[0] != r[len(r)-1] {
		out = append(out, r[0])
	}
	return out
}

// Open drops the closing vertex of r, if any.
func Open(r orb.Ring) orb.Ring {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}
	return r
}

// Area is the unsigned area of the open ring r.
func Area(r orb.Ring) float64 {
	return planar.Area(orb.Polygon{Close(r)})
}

// Perimeter is the length of the closed boundary of the open ring r.
func Perimeter(r orb.Ring) float64 {
	return planar.Length(orb.LineString(Close(r)))
}

// Rotate returns r starting at vertex k.
func Rotate(r orb.Ring, k int) orb.Ring {
	n := len(r)
	out := make(orb.Ring, n)
	for i := range r {
		out[i] = r[(i+k)%n]
	}
	return out
}

// DropCollinear removes the vertices of the open ring r that lie on the
// straight line through their neighbours. Spikes are kept. At least three
// vertices always remain.
func DropCollinear(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	copy(out, r)
	for changed := true; changed; {
		changed = false
		for i := 0; i < len(out) && len(out) > 3; i++ {
			n := len(out)
			a, b, c := out[(i+n-1)%n], out[i], out[(i+1)%n]
			u, v := Sub(b, a), Sub(c, b)
			if Dot(u, v) > 0 && math.Abs(Cross(u, v)) <= Epsilon*Distance(a, b)*Distance(b, c) {
				out = append(out[:i], out[i+1:]...)
				changed = true
				i--
			}
		}
	}
	return out
}

func samePoint(a, b orb.Point) bool {
	return math.Abs(a[0]-b[0]) <= Epsilon && math.Abs(a[1]-b[1]) <= Epsilon
}

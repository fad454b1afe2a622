package geom

import "github.com/paulmach/orb"

// PointInRing implements the ray-casting test for p against ring. The ring
// may be open or closed.
func PointInRing(p orb.Point, ring orb.Ring) bool {
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > p[1]) != (yj > p[1]) && p[0] < (xj-xi)*(p[1]-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// PointInPolygon reports whether p lies inside the outer ring of poly and
// outside all of its holes.
func PointInPolygon(p orb.Point, poly orb.Polygon) bool {
	if len(poly) == 0 || !poly.Bound().Contains(p) {
		return false
	}
	if !PointInRing(p, poly[0]) {
		return false
	}
	for _, hole := range poly[1:] {
		if PointInRing(p, hole) {
			return false
		}
	}
	return true
}

// PointInGeometry extends PointInPolygon to multi-polygons. Other geometry
// types never contain a point.
func PointInGeometry(p orb.Point, g orb.Geometry) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return PointInPolygon(p, g)
	case orb.MultiPolygon:
		for _, poly := range g {
			if PointInPolygon(p, poly) {
				return true
			}
		}
	case orb.Collection:
		for _, sub := range g {
			if PointInGeometry(p, sub) {
				return true
			}
		}
	}
	return false
}

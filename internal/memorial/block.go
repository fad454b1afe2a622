package memorial

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"memorial/internal/types"
)

// Vertex names the n-th outline vertex, counting from 1.
func Vertex(n int) string {
	return fmt.Sprintf("P%02d", n)
}

func northEast(p orb.Point, unit string) string {
	return fmt.Sprintf("N %s%s and E %s%s", Coord(p[1]), unit, Coord(p[0]), unit)
}

// Block walks the street-facing segments of a block outline. Segments
// without a confrontation border other lots and are not narrated.
func Block(r types.BlockResult, d Document) string {
	unit := d.unit()
	n := len(r.Segments)

	var b strings.Builder
	fmt.Fprintf(&b, "Block %s%s, with an area of %s %s² and a perimeter of %s %s.",
		r.BlockID, d.locality(), Distance(r.Area), unit, Distance(r.Perimeter), unit)

	var narrated []types.Segment
	for _, s := range r.Segments {
		if s.Confrontation != "" {
			narrated = append(narrated, s)
		}
	}
	if len(narrated) == 0 {
		fmt.Fprintf(&b, " No segment of the perimeter of Block %s faces a street.", r.BlockID)
		return b.String()
	}

	next := func(s types.Segment) int { return s.Seq%n + 1 }
	prevEnd, prevConf := 0, ""
	for k, s := range narrated {
		to := next(s)
		switch {
		case k == 0:
			fmt.Fprintf(&b, " The description of this block starts at vertex %s, of coordinates %s; from there it follows confronting %s, with the following azimuths and distances:",
				Vertex(s.Seq), northEast(s.Start, unit), s.Confrontation)
		case s.Seq != prevEnd:
			fmt.Fprintf(&b, " from vertex %s, of coordinates %s, it follows confronting %s:",
				Vertex(s.Seq), northEast(s.Start, unit), s.Confrontation)
		case s.Confrontation != prevConf:
			fmt.Fprintf(&b, " then confronting %s:", s.Confrontation)
		}

		fmt.Fprintf(&b, " %s and %s %s to vertex %s", DMS(Azimuth(s.Bearing)), Distance(s.Length), unit, Vertex(to))
		last := k == len(narrated)-1
		switch {
		case last && to == 1:
			b.WriteString(", starting point of the description of this perimeter.")
		case last:
			fmt.Fprintf(&b, ", of coordinates %s.", northEast(s.End, unit))
		default:
			fmt.Fprintf(&b, ", of coordinates %s;", northEast(s.End, unit))
		}
		prevEnd, prevConf = to, s.Confrontation
	}
	return b.String()
}

package memorial

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"memorial/internal/geom"
	"memorial/internal/types"
)

// Document carries the locality named in every description.
type Document struct {
	Neighborhood string `yaml:"neighborhood"`
	Municipality string `yaml:"municipality"`
	State        string `yaml:"state"`
	Unit         string `yaml:"unit"`
}

func (d Document) unit() string {
	if d.Unit == "" {
		return "m"
	}
	return d.Unit
}

// locality is the ", in the neighborhood ..." clause, empty when the
// document names no place.
func (d Document) locality() string {
	var b strings.Builder
	if d.Neighborhood != "" {
		fmt.Fprintf(&b, ", in the neighborhood \"%s\"", d.Neighborhood)
	}
	switch {
	case d.Municipality != "" && d.State != "":
		fmt.Fprintf(&b, ", municipality of %s - %s", d.Municipality, d.State)
	case d.Municipality != "":
		fmt.Fprintf(&b, ", municipality of %s", d.Municipality)
	case d.State != "":
		fmt.Fprintf(&b, ", %s", d.State)
	}
	return b.String()
}

func sidePhrase(s types.Side) string {
	switch s {
	case types.SideFront:
		return "at the front"
	case types.SideBack:
		return "at the back"
	case types.SideRight:
		return "on the right side"
	case types.SideLeft:
		return "on the left side"
	}
	return "along the perimeter"
}

// Deflection names the turn from the direction u into the direction v.
func Deflection(u, v orb.Point) string {
	c := geom.Cross(u, v)
	if math.Abs(c) <= 1e-12*math.Hypot(u[0], u[1])*math.Hypot(v[0], v[1]) {
		return "continues straight"
	}
	if c < 0 {
		return "turns right"
	}
	return "turns left"
}

func point(p orb.Point) string {
	return fmt.Sprintf("(E: %s N: %s)", Coord(p[0]), Coord(p[1]))
}

// Parcel walks the parcel clockwise from its frontage edge. Each edge is
// named after the confrontation of its side.
func Parcel(r types.ParcelResult, d Document) string {
	n := len(r.Edges)
	if n == 0 {
		return ""
	}
	unit := d.unit()
	lot := parcelLabel(r)

	confront := func(s types.Side) string {
		if rec, ok := r.Side(s); ok && rec.Confrontation != "" {
			return rec.Confrontation
		}
		return types.Unidentified
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Lot %s", lot)
	if r.BlockID != "" {
		fmt.Fprintf(&b, " of Block %s", r.BlockID)
	}
	fmt.Fprintf(&b, "%s, of irregular shape, with an area of %s %s² and a perimeter of %s %s.",
		d.locality(), Distance(r.Area), unit, Distance(r.Perimeter), unit)

	// the street the parcel was classified against, whatever its front side confronts
	facing := r.Frontage.Street
	if facing == "" {
		facing = confront(types.SideFront)
	}

	front := r.Frontage.EdgeIndex
	for k := range n {
		i := (front + k) % n
		e := r.Edges[i]
		conf := confront(e.Side)
		leg := fmt.Sprintf("%s %s %s to coordinate %s, confronting %s",
			Distance(e.Length), unit, sidePhrase(e.Side), point(e.End), conf)

		switch {
		case k == 0:
			fmt.Fprintf(&b, " Standing inside lot %s facing %s, the description starts at coordinate %s, running %s",
				lot, facing, point(e.Start), leg)
		default:
			prev := r.Edges[(i+n-1)%n]
			fmt.Fprintf(&b, " from this point it %s and runs %s", Deflection(vector(prev), vector(e)), leg)
		}
		if k == n-1 {
			b.WriteString(";")
		} else {
			b.WriteString(",")
		}
	}
	return b.String()
}

// Sides renders one line per side record with its length, azimuth and
// rumo.
func Sides(r types.ParcelResult, d Document) []string {
	unit := d.unit()
	out := make([]string, 0, len(r.Sides))
	for _, s := range r.Sides {
		az := Azimuth(s.Bearing)
		out = append(out, fmt.Sprintf("%s: %s %s, azimuth %s°, %s, confronting %s",
			s.Side, Distance(s.Length), unit, Degrees(az), Rumo(az), s.Confrontation))
	}
	return out
}

func parcelLabel(r types.ParcelResult) string {
	if r.Seq > 0 {
		return strconv.Itoa(r.Seq)
	}
	return r.ParcelID
}

func vector(e types.EdgeRecord) orb.Point {
	return geom.Sub(e.End, e.Start)
}

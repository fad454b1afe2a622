// Package frontage finds the boundary edge of a parcel that faces its
// access street, and assigns access streets to parcels that arrive without
// one.
package frontage

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/twpayne/go-geos"

	"memorial/internal/geom"
	"memorial/internal/index"
	"memorial/internal/types"
)

// Config holds the frontage tunables.
type Config struct {
	Buffer         float64 // contact radius around frontage streets
	FallbackFactor float64 // Buffer multiplier for the degraded search
	ProbeDistance  float64 // outward offset of the probe point
	MinTestada     float64 // minimum boundary contact for a touching street
	CornerMinDelta float64 // degrees between street directions for a corner lot
}

type street struct {
	id     string
	name   string
	shape  orb.Geometry
	line   *geos.Geom
	zone   *geos.Geom
	region orb.Geometry // zone in orb form for probe tests
}

// Resolver holds the prepared street collection. It is read-only after
// NewResolver and safe for concurrent use.
type Resolver struct {
	kit     *geom.Kit
	cfg     Config
	streets []street
	byName  map[string][]int
	ix      *index.Index
}

// NewResolver buffers every named street once. Streets with blank names
// are dropped.
func NewResolver(kit *geom.Kit, streets []types.Feature, cfg Config) (*Resolver, error) {
	r := &Resolver{kit: kit, cfg: cfg, byName: make(map[string][]int)}
	var bounds []orb.Bound
	for _, f := range streets {
		if strings.TrimSpace(f.Name) == "" || f.Geometry == nil {
			continue
		}
		line, err := kit.FromOrb(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("street %s: %w", f.ID, err)
		}
		zone := kit.Buffer(line, cfg.Buffer)
		region, err := kit.ToOrb(zone)
		if err != nil {
			return nil, fmt.Errorf("street %s: %w", f.ID, err)
		}
		r.byName[f.Name] = append(r.byName[f.Name], len(r.streets))
		r.streets = append(r.streets, street{
			id:     f.ID,
			name:   f.Name,
			shape:  f.Geometry,
			line:   line,
			zone:   zone,
			region: region,
		})
		bounds = append(bounds, index.Bound(f.Geometry, cfg.Buffer))
	}
	ix, err := index.New(bounds)
	if err != nil {
		return nil, fmt.Errorf("street index: %w", err)
	}
	r.ix = ix
	return r, nil
}

// Has reports whether a street with exactly this name exists.
func (r *Resolver) Has(name string) bool {
	return len(r.byName[name]) > 0
}

type candidate struct {
	edge    int
	overlap float64
	length  float64
	strong  bool
}

// Resolve picks the frontage edge of s for the street called name. Edges
// whose outward probe lands inside the street buffer are preferred; when no
// edge touches the buffer at all the search is repeated with a wider
// buffer before giving up.
func (r *Resolver) Resolve(s *geom.Shape, name string) (types.Frontage, error) {
	ids := r.byName[name]
	if len(ids) == 0 {
		return types.Frontage{}, fmt.Errorf("%w: street %q not in street set", types.ErrNoFrontageFound, name)
	}

	var strong, weak []candidate
	for _, c := range r.candidates(s, ids, func(st street) *geos.Geom { return st.zone }, true) {
		if c.strong {
			strong = append(strong, c)
		} else {
			weak = append(weak, c)
		}
	}
	if best, ok := pick(strong); ok {
		return r.frontage(s, name, best, types.FrontageStrong), nil
	}
	if best, ok := pick(weak); ok {
		return r.frontage(s, name, best, types.FrontageWeak), nil
	}

	wide := r.cfg.Buffer * r.cfg.FallbackFactor
	widened := func(st street) *geos.Geom { return r.kit.Buffer(st.line, wide) }
	if best, ok := pick(r.candidates(s, ids, widened, false)); ok {
		return r.frontage(s, name, best, types.FrontageDegraded), nil
	}
	return types.Frontage{}, fmt.Errorf("%w: no edge within %.2f of %q", types.ErrNoFrontageFound, wide, name)
}

func (r *Resolver) candidates(s *geom.Shape, ids []int, zoneOf func(street) *geos.Geom, probe bool) []candidate {
	zones := make([]*geos.Geom, len(ids))
	for i, id := range ids {
		zones[i] = zoneOf(r.streets[id])
	}

	var out []candidate
	for i, e := range s.Edges {
		if s.Lines[i] == nil {
			continue
		}
		c := candidate{edge: i, length: e.Length}
		for _, z := range zones {
			c.overlap = math.Max(c.overlap, geom.OverlapLength(z, s.Lines[i]))
		}
		if c.overlap <= 0 {
			continue
		}
		if probe {
			c.strong = r.probe(e, ids)
		}
		out = append(out, c)
	}
	return out
}

// probe reports whether the point just outside the edge midpoint lies in
// any buffer of the named street.
func (r *Resolver) probe(e geom.Edge, ids []int) bool {
	n := e.OutwardNormal()
	m := e.Midpoint()
	p := orb.Point{m[0] + n[0]*r.cfg.ProbeDistance, m[1] + n[1]*r.cfg.ProbeDistance}
	for _, id := range ids {
		if geom.PointInGeometry(p, r.streets[id].region) {
			return true
		}
	}
	return false
}

// pick orders by overlap, then edge length, then edge index.
func pick(cands []candidate) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.overlap != b.overlap {
			return a.overlap > b.overlap
		}
		if a.length != b.length {
			return a.length > b.length
		}
		return a.edge < b.edge
	})
	return cands[0], true
}

func (r *Resolver) frontage(s *geom.Shape, name string, c candidate, mode types.FrontageMode) types.Frontage {
	return types.Frontage{
		Street:    name,
		EdgeIndex: c.edge,
		Midpoint:  s.Edges[c.edge].Midpoint(),
		Overlap:   c.overlap,
		Mode:      mode,
	}
}

// Assignment lists the streets a parcel touches.
type Assignment struct {
	Streets  []string // sorted, unique
	Frontage string   // street with the largest contact, empty when none
	Testada  float64  // contact length of Frontage
	Corner   bool
}

// Assign finds every named street whose buffer covers at least MinTestada
// of the parcel boundary.
func (r *Resolver) Assign(s *geom.Shape) Assignment {
	testada := make(map[string]float64)
	direction := make(map[string]float64)
	centroid, _ := planar.CentroidArea(orb.Polygon{geom.Close(s.Ring)})

	for _, id := range r.ix.Query(s.Bound()) {
		st := r.streets[id]
		t := geom.OverlapLength(st.zone, s.Boundary)
		if t < r.cfg.MinTestada {
			continue
		}
		if prev, ok := testada[st.name]; ok && prev >= t {
			continue
		}
		testada[st.name] = t
		direction[st.name] = nearestDirection(st.shape, centroid)
	}

	var a Assignment
	for name := range testada {
		a.Streets = append(a.Streets, name)
	}
	sort.Strings(a.Streets)
	for _, name := range a.Streets {
		if testada[name] > a.Testada {
			a.Frontage, a.Testada = name, testada[name]
		}
	}

	for i := range a.Streets {
		for j := i + 1; j < len(a.Streets); j++ {
			if AxisDelta(direction[a.Streets[i]], direction[a.Streets[j]]) >= r.cfg.CornerMinDelta {
				a.Corner = true
			}
		}
	}
	return a
}

// AxisDelta is the angle between two undirected lines given by their
// bearings, in [0, 90].
func AxisDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 180)
	return math.Min(d, 180-d)
}

// nearestDirection is the bearing of the segment of g closest to p.
func nearestDirection(g orb.Geometry, p orb.Point) float64 {
	best, dir := math.Inf(1), 0.0
	visit := func(ls []orb.Point) {
		for i := 0; i+1 < len(ls); i++ {
			a, b := ls[i], ls[i+1]
			if a == b {
				continue
			}
			if d := planar.DistanceFromSegment(a, b, p); d < best {
				best, dir = d, geom.Bearing(a, b)
			}
		}
	}
	var walk func(g orb.Geometry)
	walk = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.LineString:
			visit(g)
		case orb.MultiLineString:
			for _, ls := range g {
				visit(ls)
			}
		case orb.Ring:
			visit(g)
		case orb.Polygon:
			for _, ring := range g {
				visit(ring)
			}
		case orb.MultiPolygon:
			for _, poly := range g {
				walk(poly)
			}
		case orb.Collection:
			for _, sub := range g {
				walk(sub)
			}
		}
	}
	walk(g)
	return dir
}

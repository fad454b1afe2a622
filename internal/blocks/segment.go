// Package blocks derives block outlines, numbers the parcels of a block and
// splits the outline into street-facing segments.
package blocks

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"

	"memorial/internal/confront"
	"memorial/internal/geom"
	"memorial/internal/index"
	"memorial/internal/types"
)

// Config holds the street contact rule for outline segments.
type Config struct {
	Buffer      float64
	MinLength   float64
	MinFraction float64
}

type street struct {
	name string
	zone *geos.Geom
}

// Segmenter names the street each outline segment faces.
type Segmenter struct {
	kit     *geom.Kit
	cfg     Config
	streets []street
	ix      *index.Index
}

// NewSegmenter buffers the named streets. Blank names are dropped.
func NewSegmenter(kit *geom.Kit, streets []types.Feature, cfg Config) (*Segmenter, error) {
	s := &Segmenter{kit: kit, cfg: cfg}
	var bounds []orb.Bound
	for _, f := range streets {
		if strings.TrimSpace(f.Name) == "" || f.Geometry == nil {
			continue
		}
		zone, err := kit.BufferOrb(f.Geometry, cfg.Buffer)
		if err != nil {
			return nil, fmt.Errorf("street %s: %w", f.ID, err)
		}
		s.streets = append(s.streets, street{name: f.Name, zone: zone})
		bounds = append(bounds, index.Bound(f.Geometry, cfg.Buffer))
	}
	ix, err := index.New(bounds)
	if err != nil {
		return nil, fmt.Errorf("street index: %w", err)
	}
	s.ix = ix
	return s, nil
}

// Outline derives a block outline from its member rings and returns it in
// canonical form.
func Outline(kit *geom.Kit, rings []orb.Ring) (orb.Ring, error) {
	r, err := kit.Outline(rings)
	if err != nil {
		return nil, err
	}
	return Canonical(r)
}

// Canonical normalises an outline and merges vertices lying on straight
// runs, so a street side shared by several lots is one segment.
func Canonical(r orb.Ring) (orb.Ring, error) {
	n, err := geom.Normalize(r)
	if err != nil {
		return nil, err
	}
	return geom.DropCollinear(n), nil
}

// Segments splits a canonical outline into numbered segments. Numbering
// starts at the first segment of a street run, so the first narrated
// vertex is P01 whenever the block faces a street at all. The returned
// ring is the outline rotated to match.
func (s *Segmenter) Segments(outline orb.Ring) (orb.Ring, []types.Segment, error) {
	edges := geom.Edges(outline)
	names := make([]string, len(edges))
	for i, e := range edges {
		if e.Degenerate() {
			continue
		}
		line, err := s.kit.Segment(e.A, e.B)
		if err != nil {
			return nil, nil, fmt.Errorf("segment %d: %w", i, err)
		}
		names[i] = s.street(e, line)
	}

	start := runStart(names)
	ring := geom.Rotate(outline, start)
	n := len(edges)
	segs := make([]types.Segment, n)
	for k := range n {
		e := edges[(start+k)%n]
		segs[k] = types.Segment{
			Seq:           k + 1,
			Start:         e.A,
			End:           e.B,
			Bearing:       e.Bearing,
			Length:        e.Length,
			Confrontation: names[(start+k)%n],
		}
	}
	return ring, segs, nil
}

func (s *Segmenter) street(e geom.Edge, line *geos.Geom) string {
	bound := orb.Bound{Min: e.A, Max: e.A}.Extend(e.B)
	best, bestLen := "", 0.0
	for _, j := range s.ix.Query(bound) {
		st := s.streets[j]
		l := geom.OverlapLength(st.zone, line)
		if !confront.AbsAndFrac(l, e.Length, s.cfg.MinLength, s.cfg.MinFraction) {
			continue
		}
		if l > bestLen || (l == bestLen && st.name < best) {
			best, bestLen = st.name, l
		}
	}
	return best
}

// runStart is the first index whose segment faces a street while the
// previous one does not. It is 0 when every segment, or none, faces a
// street.
func runStart(names []string) int {
	n := len(names)
	for i := range names {
		if names[i] != "" && names[(i+n-1)%n] == "" {
			return i
		}
	}
	return 0
}

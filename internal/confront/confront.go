// Package confront names what each parcel edge abuts: a neighbor lot, a
// street or another reference feature.
package confront

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"

	"memorial/internal/geom"
	"memorial/internal/index"
	"memorial/internal/types"
)

// Config holds the contact radii and acceptance thresholds.
type Config struct {
	Tolerance           float64 // coincidence radius for shared lot lines
	StreetBuffer        float64
	OtherBuffer         float64
	MinNeighborLength   float64
	MinNeighborFraction float64
	MinStreetLength     float64
	MinStreetFraction   float64
	MinOtherLength      float64
	MinOtherFraction    float64
}

// Neighbor is a resolved parcel other parcels can confront.
type Neighbor struct {
	ID       string
	BlockID  string
	Label    string
	Boundary *geos.Geom
	Bound    orb.Bound
}

// Match is the confrontation chosen for one edge.
type Match struct {
	Name      string
	Tier      types.Tier
	Score     float64
	Ambiguous bool
}

type feature struct {
	id   string
	name string
	zone *geos.Geom
}

// Resolver holds the read-only candidate sets.
type Resolver struct {
	kit       *geom.Kit
	cfg       Config
	neighbors []Neighbor
	streets   []feature
	others    []feature
	nix       *index.Index
	six       *index.Index
	oix       *index.Index
}

// NewResolver buffers streets and other features once and indexes every
// candidate set.
func NewResolver(kit *geom.Kit, neighbors []Neighbor, streets, others []types.Feature, cfg Config) (*Resolver, error) {
	r := &Resolver{kit: kit, cfg: cfg, neighbors: neighbors}

	nb := make([]orb.Bound, len(neighbors))
	for i, n := range neighbors {
		nb[i] = n.Bound
	}
	var err error
	if r.nix, err = index.New(nb); err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}
	if r.streets, r.six, err = prepare(kit, streets, cfg.StreetBuffer); err != nil {
		return nil, fmt.Errorf("streets: %w", err)
	}
	if r.others, r.oix, err = prepare(kit, others, cfg.OtherBuffer); err != nil {
		return nil, fmt.Errorf("other features: %w", err)
	}
	return r, nil
}

func prepare(kit *geom.Kit, fs []types.Feature, radius float64) ([]feature, *index.Index, error) {
	var (
		out    []feature
		bounds []orb.Bound
	)
	for _, f := range fs {
		if strings.TrimSpace(f.Name) == "" || f.Geometry == nil {
			continue
		}
		zone, err := kit.BufferOrb(f.Geometry, radius)
		if err != nil {
			return nil, nil, fmt.Errorf("feature %s: %w", f.ID, err)
		}
		out = append(out, feature{id: f.ID, name: f.Name, zone: zone})
		bounds = append(bounds, index.Bound(f.Geometry, radius))
	}
	ix, err := index.New(bounds)
	if err != nil {
		return nil, nil, err
	}
	return out, ix, nil
}

type candidate struct {
	Match
	key string
}

// better orders by score, then tier priority, then key.
func (c candidate) better(o candidate) bool {
	if c.Score != o.Score {
		return c.Score > o.Score
	}
	if c.Tier != o.Tier {
		return c.Tier < o.Tier
	}
	return c.key < o.key
}

// Resolve returns one match per edge of s, the parcel with the given id
// and block.
func (r *Resolver) Resolve(id, blockID string, s *geom.Shape) []Match {
	out := make([]Match, len(s.Edges))
	for i, e := range s.Edges {
		out[i] = r.edge(id, blockID, e, s.Lines[i])
	}
	return out
}

func (r *Resolver) edge(id, blockID string, e geom.Edge, line *geos.Geom) Match {
	unresolved := Match{Name: types.Unidentified, Tier: types.TierNone}
	if e.Degenerate() || line == nil {
		return unresolved
	}
	bound := orb.Bound{Min: e.A, Max: e.A}.Extend(e.B)

	var cands []candidate

	near := r.kit.Buffer(line, r.cfg.Tolerance)
	for _, j := range r.nix.Query(bound.Pad(r.cfg.Tolerance)) {
		n := r.neighbors[j]
		if n.ID == id {
			continue
		}
		l := geom.OverlapLength(n.Boundary, near)
		if r.cfg.Neighbor(l, e.Length) {
			cands = append(cands, candidate{
				Match: Match{Name: label(n, blockID), Tier: types.TierNeighbor, Score: l},
				key:   n.ID,
			})
		}
	}
	for _, j := range r.six.Query(bound) {
		f := r.streets[j]
		l := geom.OverlapLength(f.zone, line)
		if r.cfg.Street(l, e.Length) {
			cands = append(cands, candidate{
				Match: Match{Name: f.name, Tier: types.TierStreet, Score: l},
				key:   f.name + "\x00" + f.id,
			})
		}
	}
	for _, j := range r.oix.Query(bound) {
		f := r.others[j]
		l := geom.OverlapLength(f.zone, line)
		if r.cfg.Other(l, e.Length) {
			cands = append(cands, candidate{
				Match: Match{Name: f.name, Tier: types.TierOther, Score: l},
				key:   f.name + "\x00" + f.id,
			})
		}
	}
	if len(cands) == 0 {
		return unresolved
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if c.better(best) {
			best = c
		}
	}
	for _, c := range cands {
		if c.Score == best.Score && c.Name != best.Name {
			best.Ambiguous = true
		}
	}
	return best.Match
}

// label names a neighbor lot as seen from a parcel in blockID.
func label(n Neighbor, blockID string) string {
	if n.BlockID != "" && n.BlockID != blockID {
		return fmt.Sprintf("Lot %s, Block %s", n.Label, n.BlockID)
	}
	return "Lot " + n.Label
}

package confront

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorial/internal/geom"
	"memorial/internal/types"
)

func testConfig() Config {
	return Config{
		Tolerance:           0.05,
		StreetBuffer:        4,
		OtherBuffer:         4,
		MinNeighborLength:   0.7,
		MinNeighborFraction: 0.15,
		MinStreetLength:     1,
		MinStreetFraction:   0.30,
		MinOtherLength:      0.7,
		MinOtherFraction:    0.15,
	}
}

func shape(t *testing.T, kit *geom.Kit, r orb.Ring) *geom.Shape {
	t.Helper()
	ring, err := geom.Normalize(r)
	require.NoError(t, err)
	s, err := kit.Shape(ring)
	require.NoError(t, err)
	return s
}

func neighbor(id, block, label string, s *geom.Shape) Neighbor {
	return Neighbor{ID: id, BlockID: block, Label: label, Boundary: s.Boundary, Bound: s.Bound()}
}

func TestSharedEdge(t *testing.T) {
	kit := geom.NewKit(8)
	a := shape(t, kit, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	b := shape(t, kit, orb.Ring{{10, 0}, {20, 0}, {20, 10}, {10, 10}})

	r, err := NewResolver(kit, []Neighbor{
		neighbor("A", "Q1", "1", a),
		neighbor("B", "Q1", "2", b),
	}, nil, nil, testConfig())
	require.NoError(t, err)

	ma := r.Resolve("A", "Q1", a)
	require.Len(t, ma, 4)
	assert.Equal(t, "Lot 2", ma[3].Name) // east edge
	assert.Equal(t, types.TierNeighbor, ma[3].Tier)
	assert.InDelta(t, 10, ma[3].Score, 0.15)
	for _, i := range []int{0, 1, 2} {
		assert.Equal(t, types.Unidentified, ma[i].Name, "edge %d", i)
		assert.Equal(t, types.TierNone, ma[i].Tier)
	}

	mb := r.Resolve("B", "Q1", b)
	assert.Equal(t, "Lot 1", mb[1].Name) // west edge
	assert.InDelta(t, 10, mb[1].Score, 0.15)
}

func TestNeighborInOtherBlock(t *testing.T) {
	kit := geom.NewKit(8)
	a := shape(t, kit, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	b := shape(t, kit, orb.Ring{{10, 0}, {20, 0}, {20, 10}, {10, 10}})

	r, err := NewResolver(kit, []Neighbor{
		neighbor("A", "Q1", "1", a),
		neighbor("B", "Q2", "4", b),
	}, nil, nil, testConfig())
	require.NoError(t, err)
	assert.Equal(t, "Lot 4, Block Q2", r.Resolve("A", "Q1", a)[3].Name)
}

func TestStreetOutscoresNeighbor(t *testing.T) {
	kit := geom.NewKit(8)
	subject := shape(t, kit, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	small := shape(t, kit, orb.Ring{{0, -2}, {2, -2}, {2, 0}, {0, 0}})
	street := types.Feature{ID: "s1", Name: "Elm St", Geometry: orb.LineString{{6, -3}, {30, -3}}}

	r, err := NewResolver(kit, []Neighbor{
		neighbor("A", "Q1", "1", subject),
		neighbor("B", "Q1", "2", small),
	}, []types.Feature{street}, nil, testConfig())
	require.NoError(t, err)

	bottom := r.Resolve("A", "Q1", subject)[0]
	assert.Equal(t, "Elm St", bottom.Name)
	assert.Equal(t, types.TierStreet, bottom.Tier)
	assert.Greater(t, bottom.Score, 6.0)
	assert.False(t, bottom.Ambiguous)
}

func TestOtherFeature(t *testing.T) {
	kit := geom.NewKit(8)
	subject := shape(t, kit, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	creek := types.Feature{ID: "c", Name: "Mill Creek", Geometry: orb.LineString{{-20, 12}, {30, 12}}}

	r, err := NewResolver(kit, nil, nil, []types.Feature{creek}, testConfig())
	require.NoError(t, err)

	top := r.Resolve("A", "Q1", subject)[2]
	assert.Equal(t, "Mill Creek", top.Name)
	assert.Equal(t, types.TierOther, top.Tier)
	assert.InDelta(t, 10, top.Score, 1e-6)
}

func TestExactTieIsAmbiguous(t *testing.T) {
	kit := geom.NewKit(8)
	subject := shape(t, kit, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	line := orb.LineString{{-20, -3}, {30, -3}}

	r, err := NewResolver(kit, nil, []types.Feature{
		{ID: "2", Name: "Oak Ave", Geometry: line},
		{ID: "1", Name: "Elm St", Geometry: line},
	}, nil, testConfig())
	require.NoError(t, err)

	bottom := r.Resolve("A", "Q1", subject)[0]
	assert.Equal(t, "Elm St", bottom.Name)
	assert.True(t, bottom.Ambiguous)
}

func TestSameNameTieIsNotAmbiguous(t *testing.T) {
	kit := geom.NewKit(8)
	subject := shape(t, kit, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	line := orb.LineString{{-20, -3}, {30, -3}}

	r, err := NewResolver(kit, nil, []types.Feature{
		{ID: "a", Name: "Elm St", Geometry: line},
		{ID: "b", Name: "Elm St", Geometry: line},
	}, nil, testConfig())
	require.NoError(t, err)
	assert.False(t, r.Resolve("A", "Q1", subject)[0].Ambiguous)
}

func TestBlankStreetNamesIgnored(t *testing.T) {
	kit := geom.NewKit(8)
	subject := shape(t, kit, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	r, err := NewResolver(kit, nil, []types.Feature{
		{ID: "x", Name: " ", Geometry: orb.LineString{{-20, -3}, {30, -3}}},
	}, nil, testConfig())
	require.NoError(t, err)
	assert.Equal(t, types.Unidentified, r.Resolve("A", "Q1", subject)[0].Name)
}

func TestStreetCornerClipRejected(t *testing.T) {
	kit := geom.NewKit(8)
	subject := shape(t, kit, orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	// runs along the bottom, so the west edge only catches 1 unit of buffer
	street := types.Feature{ID: "s", Name: "Elm St", Geometry: orb.LineString{{-20, -3}, {30, -3}}}
	r, err := NewResolver(kit, nil, []types.Feature{street}, nil, testConfig())
	require.NoError(t, err)

	m := r.Resolve("A", "Q1", subject)
	assert.Equal(t, "Elm St", m[0].Name)
	assert.Equal(t, types.Unidentified, m[1].Name)
	assert.Equal(t, types.Unidentified, m[3].Name)
}

func TestThresholdBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.MinNeighborLength = 100 // only the fraction can accept
	edgeLen := 10.0
	at := cfg.MinNeighborFraction * edgeLen

	assert.True(t, cfg.Neighbor(at, edgeLen), "exactly at the fraction")
	assert.False(t, cfg.Neighbor(math.Nextafter(at, 0), edgeLen), "just below")
	assert.True(t, cfg.Neighbor(math.Nextafter(at, 100), edgeLen))

	cfg = testConfig()
	assert.True(t, cfg.Neighbor(0.7, 100), "absolute threshold alone")
	assert.False(t, cfg.Neighbor(0, 0))

	streetAt := cfg.MinStreetFraction * edgeLen
	assert.True(t, cfg.Street(streetAt, edgeLen))
	assert.False(t, cfg.Street(math.Nextafter(streetAt, 0), edgeLen))
	assert.False(t, cfg.Street(0.9, 2), "fraction met but below the absolute minimum")

	otherAt := cfg.MinOtherFraction * 2
	assert.True(t, cfg.Other(otherAt, 2))
	assert.False(t, cfg.Other(math.Nextafter(otherAt, 0), 2))
}

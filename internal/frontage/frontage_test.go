package frontage

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorial/internal/geom"
	"memorial/internal/types"
)

func testConfig() Config {
	return Config{
		Buffer:         9,
		FallbackFactor: 2,
		ProbeDistance:  0.5,
		MinTestada:     1,
		CornerMinDelta: 30,
	}
}

func squareShape(t *testing.T, kit *geom.Kit) *geom.Shape {
	t.Helper()
	ring, err := geom.Normalize(orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}})
	require.NoError(t, err)
	s, err := kit.Shape(ring)
	require.NoError(t, err)
	return s
}

func horizontal(name string, y float64) types.Feature {
	return types.Feature{ID: name, Name: name, Geometry: orb.LineString{{-20, y}, {30, y}}}
}

func vertical(name string, x float64) types.Feature {
	return types.Feature{ID: name, Name: name, Geometry: orb.LineString{{x, -20}, {x, 30}}}
}

func TestResolveStrong(t *testing.T) {
	kit := geom.NewKit(8)
	r, err := NewResolver(kit, []types.Feature{horizontal("Elm St", -3)}, testConfig())
	require.NoError(t, err)

	f, err := r.Resolve(squareShape(t, kit), "Elm St")
	require.NoError(t, err)
	assert.Equal(t, 0, f.EdgeIndex)
	assert.Equal(t, orb.Point{5, 0}, f.Midpoint)
	assert.Equal(t, types.FrontageStrong, f.Mode)
	assert.Equal(t, "Elm St", f.Street)
	assert.InDelta(t, 10, f.Overlap, 1e-6)
}

func TestResolveMissingStreet(t *testing.T) {
	kit := geom.NewKit(8)
	r, err := NewResolver(kit, []types.Feature{horizontal("Oak Ave", -3)}, testConfig())
	require.NoError(t, err)

	_, err = r.Resolve(squareShape(t, kit), "Elm St")
	assert.ErrorIs(t, err, types.ErrNoFrontageFound)

	// matching is exact
	_, err = r.Resolve(squareShape(t, kit), "oak ave")
	assert.ErrorIs(t, err, types.ErrNoFrontageFound)
}

func TestResolveWeak(t *testing.T) {
	kit := geom.NewKit(8)
	cfg := testConfig()
	cfg.Buffer = 1
	cfg.ProbeDistance = 1.5
	// a street stub entering the lot through its west edge
	stub := types.Feature{ID: "stub", Name: "Stub Ln", Geometry: orb.LineString{{-0.2, 5}, {8, 5}}}
	r, err := NewResolver(kit, []types.Feature{stub}, cfg)
	require.NoError(t, err)

	f, err := r.Resolve(squareShape(t, kit), "Stub Ln")
	require.NoError(t, err)
	assert.Equal(t, types.FrontageWeak, f.Mode)
	assert.Equal(t, 1, f.EdgeIndex)
	assert.InDelta(t, 2, f.Overlap, 1e-6)
}

func TestResolveDegraded(t *testing.T) {
	kit := geom.NewKit(8)
	r, err := NewResolver(kit, []types.Feature{horizontal("Elm St", -15)}, testConfig())
	require.NoError(t, err)

	f, err := r.Resolve(squareShape(t, kit), "Elm St")
	require.NoError(t, err)
	assert.Equal(t, types.FrontageDegraded, f.Mode)
	assert.Equal(t, 0, f.EdgeIndex)

	far, err := NewResolver(kit, []types.Feature{horizontal("Elm St", -40)}, testConfig())
	require.NoError(t, err)
	_, err = far.Resolve(squareShape(t, kit), "Elm St")
	assert.ErrorIs(t, err, types.ErrNoFrontageFound)
}

func TestResolveOrientationInvariant(t *testing.T) {
	kit := geom.NewKit(8)
	r, err := NewResolver(kit, []types.Feature{horizontal("Elm St", -3)}, testConfig())
	require.NoError(t, err)

	var got []types.Frontage
	for _, in := range []orb.Ring{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		{{0, 10}, {10, 10}, {10, 0}, {0, 0}},
		{{10, 10}, {0, 10}, {0, 0}, {10, 0}, {10, 10}},
	} {
		ring, err := geom.Normalize(in)
		require.NoError(t, err)
		s, err := kit.Shape(ring)
		require.NoError(t, err)
		f, err := r.Resolve(s, "Elm St")
		require.NoError(t, err)
		got = append(got, f)
	}
	assert.Equal(t, got[0], got[1])
	assert.Equal(t, got[0], got[2])
}

func TestBlankNamesIgnored(t *testing.T) {
	kit := geom.NewKit(8)
	r, err := NewResolver(kit, []types.Feature{horizontal("  ", -3), horizontal("", 13)}, testConfig())
	require.NoError(t, err)
	assert.False(t, r.Has(""))
	assert.False(t, r.Has("  "))
	assert.Empty(t, r.Assign(squareShape(t, kit)).Streets)
}

func TestAssign(t *testing.T) {
	kit := geom.NewKit(8)

	tests := []struct {
		name     string
		streets  []types.Feature
		frontage string
		touching []string
		corner   bool
	}{
		{
			name:     "corner lot",
			streets:  []types.Feature{vertical("Oak Ave", 14), horizontal("Elm St", -3), horizontal("Far Rd", 200)},
			frontage: "Elm St",
			touching: []string{"Elm St", "Oak Ave"},
			corner:   true,
		},
		{
			name:     "through lot",
			streets:  []types.Feature{horizontal("Pine St", 14), horizontal("Elm St", -3)},
			frontage: "Elm St",
			touching: []string{"Elm St", "Pine St"},
			corner:   false,
		},
		{
			name:     "single street",
			streets:  []types.Feature{horizontal("Elm St", -3)},
			frontage: "Elm St",
			touching: []string{"Elm St"},
		},
		{
			name:    "nothing nearby",
			streets: []types.Feature{horizontal("Far Rd", 200)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResolver(kit, tt.streets, testConfig())
			require.NoError(t, err)
			a := r.Assign(squareShape(t, kit))
			assert.Equal(t, tt.frontage, a.Frontage)
			assert.Equal(t, tt.touching, a.Streets)
			assert.Equal(t, tt.corner, a.Corner)
		})
	}
}

func TestAxisDelta(t *testing.T) {
	assert.InDelta(t, 0, AxisDelta(0, 180), 1e-9)
	assert.InDelta(t, 90, AxisDelta(0, 270), 1e-9)
	assert.InDelta(t, 20, AxisDelta(350, 10), 1e-9)
	assert.InDelta(t, 45, AxisDelta(45, 0), 1e-9)
}

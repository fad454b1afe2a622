package blocks

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorial/internal/geom"
	"memorial/internal/types"
)

func rect(x0, y0, x1, y1 float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}
}

func TestNumber(t *testing.T) {
	members := []Member{
		{ID: "sw", Ring: rect(0, 0, 10, 10)},
		{ID: "nw", Ring: rect(0, 10, 10, 20)},
		{ID: "se", Ring: rect(10, 0, 20, 10)},
		{ID: "ne", Ring: rect(10, 10, 20, 20)},
	}
	assert.Equal(t, []string{"ne", "se", "sw", "nw"}, Number(members))
}

func TestNumberTiesById(t *testing.T) {
	members := []Member{
		{ID: "b", Ring: rect(10, 0, 20, 10)},
		{ID: "a", Ring: rect(10, 0, 20, 10)},
		{ID: "c", Ring: rect(0, 0, 10, 10)},
	}
	assert.Equal(t, []string{"a", "b", "c"}, Number(members))
}

func TestPolarAngle(t *testing.T) {
	c := orb.Point{0, 0}
	assert.InDelta(t, 0, PolarAngle(c, orb.Point{0, 5}), 1e-9)
	assert.InDelta(t, 90, PolarAngle(c, orb.Point{5, 0}), 1e-9)
	assert.InDelta(t, 180, PolarAngle(c, orb.Point{0, -5}), 1e-9)
	assert.InDelta(t, 270, PolarAngle(c, orb.Point{-5, 0}), 1e-9)
}

func TestOutline(t *testing.T) {
	kit := geom.NewKit(8)
	ring, err := Outline(kit, []orb.Ring{rect(0, 0, 10, 10), rect(10, 0, 20, 10)})
	require.NoError(t, err)
	assert.InDelta(t, 200, geom.Area(ring), 1e-6)
	assert.InDelta(t, 60, geom.Perimeter(ring), 1e-6)
	assert.Equal(t, orb.Ring{{20, 0}, {0, 0}, {0, 10}, {20, 10}}, ring)
}

func TestSegments(t *testing.T) {
	kit := geom.NewKit(8)
	seg, err := NewSegmenter(kit, []types.Feature{
		{ID: "1", Name: "Oak Ave", Geometry: orb.LineString{{-20, 43}, {80, 43}}},
		{ID: "2", Name: "Pine St", Geometry: orb.LineString{{63, -20}, {63, 60}}},
		{ID: "3", Name: "", Geometry: orb.LineString{{-20, -3}, {80, -3}}},
	}, Config{Buffer: 9, MinLength: 1, MinFraction: 0.3})
	require.NoError(t, err)

	outline, err := geom.Normalize(rect(0, 0, 60, 40))
	require.NoError(t, err)
	ring, segs, err := seg.Segments(outline)
	require.NoError(t, err)
	require.Len(t, segs, 4)

	assert.Equal(t, orb.Point{0, 40}, ring[0], "numbering starts on the street run")
	assert.Equal(t, []string{"Oak Ave", "Pine St", "", ""}, []string{
		segs[0].Confrontation, segs[1].Confrontation, segs[2].Confrontation, segs[3].Confrontation,
	})
	for i, s := range segs {
		assert.Equal(t, i+1, s.Seq)
		assert.Equal(t, ring[i], s.Start)
		assert.Equal(t, ring[(i+1)%4], s.End)
	}
	assert.InDelta(t, 60, segs[0].Length, 1e-9)
	assert.InDelta(t, 0, segs[0].Bearing, 1e-9)
	assert.InDelta(t, 270, segs[1].Bearing, 1e-9)
}

func TestSegmentsNoStreets(t *testing.T) {
	kit := geom.NewKit(8)
	seg, err := NewSegmenter(kit, nil, Config{Buffer: 9, MinLength: 1, MinFraction: 0.3})
	require.NoError(t, err)

	outline, err := geom.Normalize(rect(0, 0, 60, 40))
	require.NoError(t, err)
	ring, segs, err := seg.Segments(outline)
	require.NoError(t, err)
	assert.Equal(t, outline, ring)
	for _, s := range segs {
		assert.Empty(t, s.Confrontation)
	}
}

func TestRunStart(t *testing.T) {
	assert.Equal(t, 2, runStart([]string{"", "", "a", "b"}))
	assert.Equal(t, 3, runStart([]string{"a", "", "", "a"}))
	assert.Equal(t, 0, runStart([]string{"a", "a"}))
	assert.Equal(t, 0, runStart([]string{"", ""}))
}

func TestCanonical(t *testing.T) {
	ring, err := Canonical(orb.Ring{{0, 0}, {10, 0}, {20, 0}, {20, 10}, {10, 10}, {0, 10}, {0, 0}})
	require.NoError(t, err)
	assert.Equal(t, orb.Ring{{20, 0}, {0, 0}, {0, 10}, {20, 10}}, ring)

	_, err = Canonical(orb.Ring{{0, 0}, {1, 1}})
	assert.ErrorIs(t, err, types.ErrDegenerateGeometry)
}

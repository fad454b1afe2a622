package source

import (
	"os"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorial/internal/types"
)

func writeParcels(t *testing.T, path string) {
	t.Helper()

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("ID", 16),
		shp.StringField("BLOCK", 16),
		shp.NumberField("LOT", 4),
		shp.StringField("STREET", 64),
	}))

	rows := []struct {
		id, block string
		lot       int
		street    string
		x         float64
	}{
		{"p1", "A", 1, "Elm St", 0},
		{"p2", "A", 2, "", 10},
	}
	for _, r := range rows {
		// clockwise outer ring, closed
		ring := []shp.Point{{X: r.x, Y: 0}, {X: r.x, Y: 10}, {X: r.x + 10, Y: 10}, {X: r.x + 10, Y: 0}, {X: r.x, Y: 0}}
		poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
		row := int(w.Write(&poly))
		require.NoError(t, w.WriteAttribute(row, 0, r.id))
		require.NoError(t, w.WriteAttribute(row, 1, r.block))
		require.NoError(t, w.WriteAttribute(row, 2, r.lot))
		require.NoError(t, w.WriteAttribute(row, 3, r.street))
	}
}

func TestReadParcelsShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parcels.shp")
	writeParcels(t, path)

	parcels, err := ReadParcels(path, DefaultFields())
	require.NoError(t, err)
	require.Len(t, parcels, 2)

	assert.Equal(t, "p1", parcels[0].ID)
	assert.Equal(t, "A", parcels[0].BlockID)
	assert.Equal(t, 1, parcels[0].Seq)
	assert.Equal(t, "Elm St", parcels[0].FrontageStreet)
	assert.Len(t, parcels[0].Ring, 5)
	assert.Equal(t, orb.Point{10, 0}, parcels[1].Ring[0])
	assert.Empty(t, parcels[1].FrontageStreet)
}

func TestWriteSegments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "block_segments.shp")
	blocks := []types.BlockResult{{
		BlockID: "A",
		Segments: []types.Segment{
			{Seq: 1, Start: orb.Point{0, 0}, End: orb.Point{0, 10}, Bearing: 90, Length: 10, Confrontation: "Elm St"},
			{Seq: 2, Start: orb.Point{0, 10}, End: orb.Point{10, 10}, Bearing: 0, Length: 10},
		},
	}}
	require.NoError(t, WriteSegments(path, blocks))

	recs, err := readShapefile(path)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "A", recs[0].Attrs["BLOCK"])
	assert.Equal(t, "1", recs[0].Attrs["SEQ"])
	assert.Equal(t, "Elm St", recs[0].Attrs["CONFRONT"])
	assert.Empty(t, recs[1].Attrs["CONFRONT"])
	assert.Equal(t, orb.LineString{{0, 10}, {10, 10}}, recs[1].Geometry)
}

const layer = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": 7, "properties": {"BLOCK": "B", "LOT": 3, "STREET": " Oak Ave "},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[0,0],[0,1],[1,1],[1,0],[0,0]]],
       [[[5,0],[5,4],[9,4],[9,0],[5,0]]]
     ]}},
    {"type": "Feature", "properties": {"NAME": "Oak Ave"},
     "geometry": {"type": "LineString", "coordinates": [[0,-3],[20,-3]]}}
  ]
}`

func TestReadGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layer.geojson")
	require.NoError(t, os.WriteFile(path, []byte(layer), 0o644))

	parcels, err := ReadParcels(path, DefaultFields())
	require.NoError(t, err)
	require.Len(t, parcels, 1)
	assert.Equal(t, "7", parcels[0].ID)
	assert.Equal(t, 3, parcels[0].Seq)
	assert.Equal(t, "Oak Ave", parcels[0].FrontageStreet)
	// largest part wins
	assert.Equal(t, orb.Point{5, 0}, parcels[0].Ring[0])

	streets, err := ReadFeatures(path, DefaultFields())
	require.NoError(t, err)
	require.Len(t, streets, 2)
	assert.Equal(t, "Oak Ave", streets[1].Name)
	assert.Equal(t, "2", streets[1].ID)
}

func TestReadBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parcels.shp")
	writeParcels(t, path)

	blocks, err := ReadBlocks(path, DefaultFields())
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "A", blocks[0].ID)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := ReadParcels("parcels.kml", DefaultFields())
	assert.Error(t, err)
}

func TestToOrbHoles(t *testing.T) {
	outer := []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	hole := []shp.Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 4}, {X: 2, Y: 2}}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{outer, hole}))

	g := toOrb(&poly)
	p, ok := g.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, p, 2)
}

func TestReadGeoJSONFeatureIDUsesConfiguredField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lots.geojson")
	content := `{"type": "FeatureCollection", "features": [
	  {"type": "Feature", "id": "L-12", "properties": {"quadra": "Q3"},
	   "geometry": {"type": "Polygon", "coordinates": [[[0,0],[0,10],[10,10],[10,0],[0,0]]]}},
	  {"type": "Feature", "id": "L-13", "properties": {"lot_id": "L-99", "quadra": "Q3"},
	   "geometry": {"type": "Polygon", "coordinates": [[[10,0],[10,10],[20,10],[20,0],[10,0]]]}}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	fields := DefaultFields()
	fields.ID = "lot_id"
	fields.Block = "quadra"

	parcels, err := ReadParcels(path, fields)
	require.NoError(t, err)
	require.Len(t, parcels, 2)
	assert.Equal(t, "L-12", parcels[0].ID)
	assert.Equal(t, "Q3", parcels[0].BlockID)
	// an explicit property wins over the feature id
	assert.Equal(t, "L-99", parcels[1].ID)
}

// Package source reads parcels, streets, other reference features and block
// outlines from shapefiles or GeoJSON, and exports block perimeter segments.
package source

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"memorial/internal/types"
)

// Fields names the attribute columns read from every layer.
type Fields struct {
	ID     string `yaml:"id"`
	Block  string `yaml:"block"`
	Seq    string `yaml:"seq"`
	Street string `yaml:"street"`
	Name   string `yaml:"name"`
}

// DefaultFields returns the column names used by the municipal exports.
func DefaultFields() Fields {
	return Fields{
		ID:     "ID",
		Block:  "BLOCK",
		Seq:    "LOT",
		Street: "STREET",
		Name:   "NAME",
	}
}

// record is one feature of a layer, independent of its file format.
type record struct {
	Geometry orb.Geometry
	Attrs    map[string]string
}

func read(path string, f Fields) ([]record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return readShapefile(path)
	case ".geojson", ".json":
		return readGeoJSON(path, f.ID)
	}
	return nil, fmt.Errorf("unsupported layer format %q", path)
}

// ReadParcels loads the parcel layer. Multi-part parcels keep their largest
// outer ring. Features without polygon geometry are skipped.
func ReadParcels(path string, f Fields) ([]types.Parcel, error) {
	recs, err := read(path, f)
	if err != nil {
		return nil, fmt.Errorf("read parcels %s: %w", path, err)
	}

	var out []types.Parcel
	for i, r := range recs {
		ring, ok := largestRing(r.Geometry)
		if !ok {
			continue
		}
		id := r.Attrs[f.ID]
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		seq, _ := strconv.Atoi(strings.TrimSuffix(r.Attrs[f.Seq], ".0"))
		out = append(out, types.Parcel{
			ID:             id,
			BlockID:        r.Attrs[f.Block],
			Seq:            seq,
			FrontageStreet: r.Attrs[f.Street],
			Ring:           ring,
		})
	}
	return out, nil
}

// ReadFeatures loads a street or other-feature layer. Blank names are kept;
// the resolvers ignore them.
func ReadFeatures(path string, f Fields) ([]types.Feature, error) {
	recs, err := read(path, f)
	if err != nil {
		return nil, fmt.Errorf("read features %s: %w", path, err)
	}

	out := make([]types.Feature, 0, len(recs))
	for i, r := range recs {
		if r.Geometry == nil {
			continue
		}
		id := r.Attrs[f.ID]
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		out = append(out, types.Feature{
			ID:       id,
			Name:     r.Attrs[f.Name],
			Geometry: r.Geometry,
		})
	}
	return out, nil
}

// ReadBlocks loads block outlines keyed by the block field.
func ReadBlocks(path string, f Fields) ([]types.Block, error) {
	recs, err := read(path, f)
	if err != nil {
		return nil, fmt.Errorf("read blocks %s: %w", path, err)
	}

	var out []types.Block
	for _, r := range recs {
		ring, ok := largestRing(r.Geometry)
		if !ok {
			continue
		}
		id := r.Attrs[f.Block]
		if id == "" {
			id = r.Attrs[f.ID]
		}
		if id == "" {
			continue
		}
		out = append(out, types.Block{ID: id, Outline: ring})
	}
	return out, nil
}

// largestRing returns the outer ring with the largest area.
func largestRing(g orb.Geometry) (orb.Ring, bool) {
	var polys []orb.Polygon
	switch g := g.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{g}
	case orb.MultiPolygon:
		polys = g
	default:
		return nil, false
	}

	var (
		best orb.Ring
		area = -1.0
	)
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		if a := math.Abs(planar.Area(p[0])); a > area {
			best, area = p[0], a
		}
	}
	return best, best != nil
}

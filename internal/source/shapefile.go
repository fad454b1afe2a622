package source

import (
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"memorial/internal/types"
)

// readShapefile reads every shape of the file with its DBF attributes.
func readShapefile(path string) ([]record, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()

	var recs []record
	for r.Next() {
		idx, shape := r.Shape()

		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[f.String()] = strings.TrimSpace(strings.Trim(r.ReadAttribute(idx, i), "\x00"))
		}

		recs = append(recs, record{Geometry: toOrb(shape), Attrs: attrs})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	return recs, nil
}

// parts splits the flat point slice of a multi-part shape.
func parts(offsets []int32, points []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, len(offsets))
	for i, start := range offsets {
		end := int32(len(points))
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range points[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out[i] = part
	}
	return out
}

// toOrb converts a shape. Polygon parts wound clockwise start a new polygon,
// counter-clockwise parts are holes of the previous one.
func toOrb(s shp.Shape) orb.Geometry {
	switch s := s.(type) {
	case *shp.Polygon:
		var mp orb.MultiPolygon
		for _, p := range parts(s.Parts, s.Points) {
			ring := orb.Ring(p)
			if len(ring) < 4 {
				continue
			}
			if ring.Orientation() == orb.CW || len(mp) == 0 {
				mp = append(mp, orb.Polygon{ring})
				continue
			}
			mp[len(mp)-1] = append(mp[len(mp)-1], ring)
		}
		switch len(mp) {
		case 0:
			return nil
		case 1:
			return mp[0]
		}
		return mp
	case *shp.PolyLine:
		var ml orb.MultiLineString
		for _, p := range parts(s.Parts, s.Points) {
			if len(p) >= 2 {
				ml = append(ml, orb.LineString(p))
			}
		}
		switch len(ml) {
		case 0:
			return nil
		case 1:
			return ml[0]
		}
		return ml
	case *shp.Point:
		return orb.Point{s.X, s.Y}
	}
	return nil
}

// WriteSegments exports the perimeter segments of every block as a polyline
// shapefile with block id, sequence, length, bearing and confrontation.
func WriteSegments(path string, blocks []types.BlockResult) error {
	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return fmt.Errorf("create shapefile %s: %w", path, err)
	}
	defer w.Close()

	fields := []shp.Field{
		shp.StringField("BLOCK", 32),
		shp.NumberField("SEQ", 6),
		shp.FloatField("LENGTH", 14, 2),
		shp.FloatField("BEARING", 10, 4),
		shp.StringField("CONFRONT", 128),
	}
	if err := w.SetFields(fields); err != nil {
		return fmt.Errorf("set fields of %s: %w", path, err)
	}

	for _, b := range blocks {
		for _, s := range b.Segments {
			line := shp.NewPolyLine([][]shp.Point{{
				{X: s.Start[0], Y: s.Start[1]},
				{X: s.End[0], Y: s.End[1]},
			}})
			row := int(w.Write(line))

			values := []interface{}{b.BlockID, s.Seq, s.Length, s.Bearing, s.Confrontation}
			for i, v := range values {
				if err := w.WriteAttribute(row, i, v); err != nil {
					return fmt.Errorf("write attribute %s of block %s: %w", fields[i], b.BlockID, err)
				}
			}
		}
	}
	return nil
}

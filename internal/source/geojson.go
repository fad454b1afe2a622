package source

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// readGeoJSON reads a feature collection. A feature id fills idField when
// the properties lack it.
func readGeoJSON(path, idField string) ([]record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson %s: %w", path, err)
	}

	recs := make([]record, 0, len(fc.Features))
	for _, f := range fc.Features {
		attrs := make(map[string]string, len(f.Properties))
		for k, v := range f.Properties {
			attrs[k] = property(v)
		}
		if f.ID != nil && idField != "" {
			if attrs[idField] == "" {
				attrs[idField] = property(f.ID)
			}
		}
		recs = append(recs, record{Geometry: f.Geometry, Attrs: attrs})
	}
	return recs, nil
}

// property renders a property value the way a DBF attribute would read.
func property(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(v)
}

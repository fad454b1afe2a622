// Package aggregate collapses per-edge results into one record per side.
package aggregate

import (
	"sort"

	"memorial/internal/types"
)

// Sides builds the side records of a parcel from its edge records. Edges
// are visited clockwise starting at front, so the earliest edge in that
// walk wins length ties for the dominant bearing. Sides without edges are
// left out. edges[i].Index must be i.
func Sides(edges []types.EdgeRecord, front int) []types.SideRecord {
	n := len(edges)
	var out []types.SideRecord
	for _, side := range types.Sides {
		rec := types.SideRecord{Side: side, DominantEdge: -1}
		named := make(map[string]float64)
		for k := range n {
			e := edges[(front+k)%n]
			if e.Side != side {
				continue
			}
			rec.Edges = append(rec.Edges, e.Index)
			rec.Length += e.Length
			if rec.DominantEdge < 0 || e.Length > edges[rec.DominantEdge].Length {
				rec.DominantEdge = e.Index
			}
			if e.Confrontation != "" && e.Confrontation != types.Unidentified {
				named[e.Confrontation] += e.Length
			}
		}
		if len(rec.Edges) == 0 {
			continue
		}
		rec.Bearing = edges[rec.DominantEdge].Bearing
		rec.Confrontation, rec.Ambiguous = dominant(named)
		out = append(out, rec)
	}
	return out
}

// dominant returns the name with the greatest summed length. Equal sums go
// to the lexicographically smallest name and are reported as ambiguous.
func dominant(named map[string]float64) (string, bool) {
	if len(named) == 0 {
		return types.Unidentified, false
	}
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	best, tie := names[0], false
	for _, name := range names[1:] {
		switch {
		case named[name] > named[best]:
			best, tie = name, false
		case named[name] == named[best]:
			tie = true
		}
	}
	return best, tie
}

package database

import "sort"

// SortRows orders rows by block, sequence and parcel id
func SortRows(rows []ParcelRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.BlockID != b.BlockID {
			return a.BlockID < b.BlockID
		}
		if a.Seq != b.Seq {
			return a.Seq < b.Seq
		}
		return a.ParcelID < b.ParcelID
	})
}

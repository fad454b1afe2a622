package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"memorial/internal/database"
)

// marksFile lives next to the results so marks survive across sessions.
const marksFile = "review_marks.csv"

var marksHeader = []string{"run_id", "parcel_id", "block_id", "status"}

type mark struct {
	RunID    string
	ParcelID string
	BlockID  string
	Status   string
}

// loadMarks returns the marks stored in path. A missing file is no marks.
func loadMarks(path string) ([]mark, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // nothing marked yet
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(marksHeader)

	var marks []mark
	for first := true; ; first = false {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if first && rec[0] == marksHeader[0] {
			continue
		}
		marks = append(marks, mark{RunID: rec[0], ParcelID: rec[1], BlockID: rec[2], Status: rec[3]})
	}
	return marks, nil
}

// saveMark appends the parcel to the marks file unless the same run and
// parcel are already there. It reports whether a row was added.
func saveMark(path, runID string, row database.ParcelRow) (bool, error) {
	existing, err := loadMarks(path)
	if err != nil {
		return false, err
	}
	for _, m := range existing {
		if m.RunID == runID && m.ParcelID == row.ParcelID {
			// Already marked
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if existing == nil {
		if info, err := f.Stat(); err == nil && info.Size() == 0 {
			w.Write(marksHeader)
		}
	}
	w.Write([]string{runID, row.ParcelID, row.BlockID, row.Status})
	w.Flush()
	if err := w.Error(); err != nil {
		return false, err
	}
	return true, nil
}

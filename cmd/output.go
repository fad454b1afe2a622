package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"memorial/internal/engine"
	"memorial/internal/memorial"
	"memorial/internal/source"
)

// Files written into the output directory of a run.
const (
	resultsFile  = "results.json"
	parcelsFile  = "parcels.txt"
	blocksFile   = "blocks.txt"
	failuresFile = "failures.csv"
	segmentsFile = "block_segments.shp"
)

func writeOutputs(dir string, out *engine.Output, doc memorial.Document) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}

	steps := []struct {
		name  string
		write func(path string) error
	}{
		{resultsFile, func(path string) error { return writeResults(path, out) }},
		{parcelsFile, func(path string) error { return writeParcels(path, out, doc) }},
		{blocksFile, func(path string) error { return writeBlocks(path, out) }},
		{failuresFile, func(path string) error { return writeFailures(path, out) }},
		{segmentsFile, func(path string) error { return source.WriteSegments(path, out.Blocks) }},
	}
	for _, s := range steps {
		if err := s.write(filepath.Join(dir, s.name)); err != nil {
			return fmt.Errorf("write %s: %w", s.name, err)
		}
	}
	return nil
}

func writeResults(path string, out *engine.Output) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// loadResults reads the results.json of a previous run.
func loadResults(dir string) (*engine.Output, error) {
	path := filepath.Join(dir, resultsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var out engine.Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &out, nil
}

// writeText writes through a buffered writer and reports the first error.
func writeText(path string, fn func(w *bufio.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fn(w)
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func writeParcels(path string, out *engine.Output, doc memorial.Document) error {
	return writeText(path, func(w *bufio.Writer) {
		for _, p := range out.Parcels {
			fmt.Fprintf(w, "== Lot %s, Block %s (%s)\n", lotLabel(p.Seq, p.ParcelID), p.BlockID, p.ParcelID)
			fmt.Fprintln(w, p.Description)
			for _, line := range memorial.Sides(p, doc) {
				fmt.Fprintf(w, "  %s\n", line)
			}
			fmt.Fprintln(w)
		}
	})
}

func writeBlocks(path string, out *engine.Output) error {
	return writeText(path, func(w *bufio.Writer) {
		for _, b := range out.Blocks {
			fmt.Fprintf(w, "== Block %s\n%s\n\n", b.BlockID, b.Description)
		}
	})
}

func writeFailures(path string, out *engine.Output) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"parcel_id", "block_id", "reason", "detail"}); err != nil {
		return err
	}
	for _, fl := range out.Failures {
		if err := w.Write([]string{fl.ParcelID, fl.BlockID, fl.Reason, fl.Detail}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func lotLabel(seq int, id string) string {
	if seq > 0 {
		return fmt.Sprint(seq)
	}
	return id
}

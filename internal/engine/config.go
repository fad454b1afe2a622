package engine

import (
	"fmt"
	"runtime"

	"memorial/internal/blocks"
	"memorial/internal/confront"
	"memorial/internal/frontage"
)

// Config collects every geometric tunable of a run. Lengths are in the
// linear unit of the survey.
type Config struct {
	// FrontageBuffer is the contact radius around the frontage street.
	FrontageBuffer float64 `yaml:"frontage_buffer"`
	// FallbackBufferFactor widens FrontageBuffer for the degraded search.
	FallbackBufferFactor float64 `yaml:"fallback_buffer_factor"`
	// ProbeDistance is how far outside an edge the frontage probe lands.
	ProbeDistance float64 `yaml:"probe_distance"`

	Tolerance           float64 `yaml:"tolerance"`
	StreetBuffer        float64 `yaml:"street_buffer"`
	OtherBuffer         float64 `yaml:"other_buffer"`
	MinNeighborLength   float64 `yaml:"min_neighbor_length"`
	MinNeighborFraction float64 `yaml:"min_neighbor_fraction"`
	MinStreetLength     float64 `yaml:"min_street_length"`
	MinStreetFraction   float64 `yaml:"min_street_fraction"`
	MinOtherLength      float64 `yaml:"min_other_length"`
	MinOtherFraction    float64 `yaml:"min_other_fraction"`

	// BackDepthFraction of the deepest edge depth marks the back side.
	BackDepthFraction float64 `yaml:"back_depth_fraction"`

	MinTestada     float64 `yaml:"min_testada"`
	CornerMinDelta float64 `yaml:"corner_min_delta"`

	BlockStreetBuffer float64 `yaml:"block_street_buffer"`

	QuadSegments int  `yaml:"quad_segments"`
	Workers      int  `yaml:"workers"`
	Renumber     bool `yaml:"renumber"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		FrontageBuffer:       9,
		FallbackBufferFactor: 2,
		ProbeDistance:        0.5,
		Tolerance:            0.05,
		StreetBuffer:         4,
		OtherBuffer:          4,
		MinNeighborLength:    0.7,
		MinNeighborFraction:  0.15,
		MinStreetLength:      1.0,
		MinStreetFraction:    0.30,
		MinOtherLength:       0.7,
		MinOtherFraction:     0.15,
		BackDepthFraction:    0.85,
		MinTestada:           1.0,
		CornerMinDelta:       30,
		BlockStreetBuffer:    9,
		QuadSegments:         8,
		Workers:              runtime.NumCPU(),
	}
}

// Validate rejects settings no parcel could be resolved with.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"frontage_buffer", c.FrontageBuffer},
		{"probe_distance", c.ProbeDistance},
		{"tolerance", c.Tolerance},
		{"street_buffer", c.StreetBuffer},
		{"other_buffer", c.OtherBuffer},
		{"block_street_buffer", c.BlockStreetBuffer},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", p.name, p.v)
		}
	}
	if c.FallbackBufferFactor < 1 {
		return fmt.Errorf("fallback_buffer_factor must be at least 1, got %v", c.FallbackBufferFactor)
	}

	fractions := []struct {
		name string
		v    float64
	}{
		{"min_neighbor_fraction", c.MinNeighborFraction},
		{"min_street_fraction", c.MinStreetFraction},
		{"min_other_fraction", c.MinOtherFraction},
		{"back_depth_fraction", c.BackDepthFraction},
	}
	for _, f := range fractions {
		if f.v <= 0 || f.v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", f.name, f.v)
		}
	}

	lengths := []struct {
		name string
		v    float64
	}{
		{"min_neighbor_length", c.MinNeighborLength},
		{"min_street_length", c.MinStreetLength},
		{"min_other_length", c.MinOtherLength},
		{"min_testada", c.MinTestada},
	}
	for _, l := range lengths {
		if l.v < 0 {
			return fmt.Errorf("%s must not be negative, got %v", l.name, l.v)
		}
	}
	if c.CornerMinDelta < 0 || c.CornerMinDelta > 90 {
		return fmt.Errorf("corner_min_delta must be in [0, 90], got %v", c.CornerMinDelta)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

func (c Config) frontage() frontage.Config {
	return frontage.Config{
		Buffer:         c.FrontageBuffer,
		FallbackFactor: c.FallbackBufferFactor,
		ProbeDistance:  c.ProbeDistance,
		MinTestada:     c.MinTestada,
		CornerMinDelta: c.CornerMinDelta,
	}
}

func (c Config) confront() confront.Config {
	return confront.Config{
		Tolerance:           c.Tolerance,
		StreetBuffer:        c.StreetBuffer,
		OtherBuffer:         c.OtherBuffer,
		MinNeighborLength:   c.MinNeighborLength,
		MinNeighborFraction: c.MinNeighborFraction,
		MinStreetLength:     c.MinStreetLength,
		MinStreetFraction:   c.MinStreetFraction,
		MinOtherLength:      c.MinOtherLength,
		MinOtherFraction:    c.MinOtherFraction,
	}
}

func (c Config) blocks() blocks.Config {
	return blocks.Config{
		Buffer:      c.BlockStreetBuffer,
		MinLength:   c.MinStreetLength,
		MinFraction: c.MinStreetFraction,
	}
}

func (c Config) workers(n int) int {
	w := c.Workers
	if w <= 0 {
		w = runtime.NumCPU()
	}
	if n > 0 && w > n {
		w = n
	}
	return max(w, 1)
}

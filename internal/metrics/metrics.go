// Package metrics holds the run counters. They are written to a node
// exporter textfile at the end of a run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ParcelsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memorial_parcels_total",
		Help: "Parcels processed by outcome",
	}, []string{"outcome"})
	FrontageModeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "memorial_frontage_mode_total",
		Help: "Resolved frontages by candidate pool",
	}, []string{"mode"})
	AmbiguousEdgesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memorial_ambiguous_edges_total",
		Help: "Edges whose confrontation needed a tie-break",
	})
	BlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memorial_blocks_total",
		Help: "Block descriptions generated",
	})
	RunDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "memorial_run_duration_seconds",
		Help:    "Engine run duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
)

func init() {
	prometheus.MustRegister(ParcelsTotal)
	prometheus.MustRegister(FrontageModeTotal)
	prometheus.MustRegister(AmbiguousEdgesTotal)
	prometheus.MustRegister(BlocksTotal)
	prometheus.MustRegister(RunDurationSeconds)
}

// WriteTextfile dumps every registered metric to path in the text
// exposition format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

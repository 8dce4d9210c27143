package neat

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// GenerationStats summarizes one evaluated generation.
type GenerationStats struct {
	Generation      int     `csv:"generation"`
	BestFitness     float64 `csv:"best_fitness"`
	MeanFitness     float64 `csv:"mean_fitness"`
	StdevFitness    float64 `csv:"stdev_fitness"`
	SpeciesCount    int     `csv:"species"`
	MeanNeurons     float64 `csv:"mean_neurons"`
	MeanLinks       float64 `csv:"mean_links"`
	InnovationCount int     `csv:"innovations"`
	BestGenomeID    int     `csv:"best_genome"`
}

// StatsWriter appends GenerationStats rows to a CSV stream, writing the
// header with the first row.
type StatsWriter struct {
	w             io.Writer
	headerWritten bool
}

// NewStatsWriter creates a writer over w.
func NewStatsWriter(w io.Writer) *StatsWriter {
	return &StatsWriter{w: w}
}

// Write appends one row.
func (sw *StatsWriter) Write(stats GenerationStats) error {
	records := []GenerationStats{stats}
	if !sw.headerWritten {
		if err := gocsv.Marshal(records, sw.w); err != nil {
			return fmt.Errorf("writing generation stats: %w", err)
		}
		sw.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, sw.w); err != nil {
		return fmt.Errorf("writing generation stats: %w", err)
	}
	return nil
}

// ReadStats parses rows written by StatsWriter.
func ReadStats(r io.Reader) ([]GenerationStats, error) {
	var stats []GenerationStats
	if err := gocsv.Unmarshal(r, &stats); err != nil {
		return nil, fmt.Errorf("reading generation stats: %w", err)
	}
	return stats, nil
}

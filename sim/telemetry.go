package sim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// FrameStats is one telemetry record, written as a CSV row per frame.
type FrameStats struct {
	Frame     int     `csv:"frame"`
	Triangles int     `csv:"triangles"`
	ElapsedMS float64 `csv:"elapsed_ms"`
	MeanSpeed float64 `csv:"mean_speed"`
}

// Recorder accumulates per-frame statistics and writes them to
// telemetry.csv in its output directory.
type Recorder struct {
	file          *os.File
	pending       []FrameStats
	headerWritten bool
}

// NewRecorder creates the output directory if needed and opens
// telemetry.csv inside it.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating telemetry.csv: %w", err)
	}
	return &Recorder{file: f}, nil
}

// Record buffers one frame's statistics. Rows are written on Flush.
func (r *Recorder) Record(stats FrameStats) {
	r.pending = append(r.pending, stats)
}

// Flush writes buffered rows to disk. The CSV header is emitted once.
func (r *Recorder) Flush() error {
	if len(r.pending) == 0 {
		return nil
	}
	records := r.pending
	r.pending = r.pending[:0]
	if !r.headerWritten {
		r.headerWritten = true
		return gocsv.Marshal(records, r.file)
	}
	return gocsv.MarshalWithoutHeaders(records, r.file)
}

// Close flushes buffered rows and closes the underlying file.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

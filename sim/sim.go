// Package sim drives per-frame advancement of a metaball field and the
// reconstruction of its isosurface mesh.
package sim

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/soypat/metaballs"
	"github.com/soypat/metaballs/render"
	"gonum.org/v1/gonum/spatial/r3"
)

// Option configures a Simulation at construction.
type Option func(*Simulation)

// WithRand sets the random source used to initialize the ball population.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulation) { s.rng = rng }
}

// WithVisualizer attaches the PNG snapshot collaborator. Show and Hide calls
// on the simulation are forwarded to it.
func WithVisualizer(v *render.Visualizer) Option {
	return func(s *Simulation) { s.vis = v }
}

// WithRecorder attaches a per-frame telemetry recorder.
func WithRecorder(rec *Recorder) Option {
	return func(s *Simulation) { s.rec = rec }
}

// WithLogger sets the structured logger for frame diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// WithConcurrency splits per-cell polygonization across n goroutines.
// Output content is unaffected.
func WithConcurrency(n int) Option {
	return func(s *Simulation) { s.workers = n }
}

// Simulation owns the field, the sample grid and the renderer of one
// metaball system and advances them one frame at a time. It is pull-driven:
// an external loop calls Step once per tick. All work happens synchronously
// inside Step.
type Simulation struct {
	cfg      metaballs.Config
	field    *metaballs.Field
	grid     *metaballs.Grid
	renderer *render.GridRenderer

	rng     *rand.Rand
	vis     *render.Visualizer
	rec     *Recorder
	log     *slog.Logger
	workers int

	paused bool
	frame  int
}

// New constructs a simulation from cfg. Construction fails with a
// descriptive error on any configuration violation; a simulation never runs
// with a degenerate grid.
func New(cfg metaballs.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	field, err := metaballs.NewField(cfg, s.rng)
	if err != nil {
		return nil, err
	}
	grid, err := metaballs.NewGrid(r3.Vec{}, cfg.GridCellWidth, cfg.GridRes)
	if err != nil {
		return nil, err
	}
	s.field = field
	s.grid = grid
	s.renderer = render.NewGridRenderer(grid, cfg.Isolevel)
	if s.workers > 1 {
		s.renderer.SetConcurrent(s.workers)
	}
	if s.vis == nil && cfg.VisualDebug {
		center := boundsCenter(grid)
		s.vis = render.NewVisualizer(render.ViewConfig{
			Lookat: center,
			Up:     r3.Vec{Z: 1},
			Eyepos: r3.Add(center, r3.Vec{X: 3, Y: 3, Z: 3}),
			Near:   1,
			Far:    10,
		})
	}
	return s, nil
}

func boundsCenter(g *metaballs.Grid) r3.Vec {
	bb := g.Bounds()
	return r3.Scale(0.5, r3.Add(bb.Min, bb.Max))
}

// Step advances the simulation by dt seconds and returns the triangle list
// of the reconstructed isosurface for this frame. The list is rebuilt from
// scratch every frame and not retained by the simulation. A paused
// simulation does no work and returns nil.
func (s *Simulation) Step(dt float64) ([]render.Triangle3, error) {
	if s.paused {
		return nil, nil
	}
	start := time.Now()
	s.field.Step(dt)
	s.grid.Resample(s.field)
	s.renderer.Reset()
	model, err := render.RenderAll(s.renderer)
	if err != nil {
		return nil, err
	}
	s.frame++
	elapsed := time.Since(start)
	if s.rec != nil {
		s.rec.Record(FrameStats{
			Frame:     s.frame,
			Triangles: len(model),
			ElapsedMS: float64(elapsed.Microseconds()) / 1e3,
			MeanSpeed: meanSpeed(s.field.Balls()),
		})
	}
	if s.log != nil {
		s.log.Debug("frame",
			"n", s.frame,
			"triangles", len(model),
			"elapsed", elapsed,
		)
	}
	return model, nil
}

// Pause suspends all per-frame computation until Resume. Idempotent; no
// state is discarded.
func (s *Simulation) Pause() { s.paused = true }

// Resume re-enables per-frame computation. Idempotent.
func (s *Simulation) Resume() { s.paused = false }

// Paused reports whether Step currently performs work.
func (s *Simulation) Paused() bool { return s.paused }

// Show forwards visibility to the visualization collaborator. It has no
// effect on the algorithmic output.
func (s *Simulation) Show() {
	if s.vis != nil {
		s.vis.Show()
	}
}

// Hide forwards visibility to the visualization collaborator.
func (s *Simulation) Hide() {
	if s.vis != nil {
		s.vis.Hide()
	}
}

// Snapshot rasterizes a frame mesh to a PNG file through the attached
// visualizer. Without a visualizer it is a no-op.
func (s *Simulation) Snapshot(model []render.Triangle3, path string) error {
	if s.vis == nil {
		return nil
	}
	return s.vis.Snapshot(model, path)
}

// Field returns the simulation's metaball field.
func (s *Simulation) Field() *metaballs.Field { return s.field }

// Grid returns the simulation's sample grid.
func (s *Simulation) Grid() *metaballs.Grid { return s.grid }

// Frame returns the number of completed steps.
func (s *Simulation) Frame() int { return s.frame }

func meanSpeed(balls []metaballs.Metaball) float64 {
	if len(balls) == 0 {
		return 0
	}
	var sum float64
	for _, b := range balls {
		sum += r3.Norm(b.Vel)
	}
	return sum / float64(len(balls))
}

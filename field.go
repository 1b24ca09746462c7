// Package metaballs implements a dynamic scalar field generated by a fixed
// population of moving point sources and a uniform sample grid over a cubic
// domain, the inputs to marching-cubes isosurface extraction.
package metaballs

import (
	"errors"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// minSquaredDistance clamps the denominator of a single ball's field term.
// Evaluating the field at a point coincident with a ball center yields a
// large finite value instead of an infinity.
const minSquaredDistance = 1e-12

// Metaball is a point source radiating a scalar influence that decays with
// the inverse square of distance.
type Metaball struct {
	Pos    r3.Vec
	Vel    r3.Vec
	Radius float64
}

// ScalarField is a scalar function over 3D space. Evaluation is total: it
// never fails once the field is constructed.
type ScalarField interface {
	Evaluate(p r3.Vec) float64
}

// Field is the summed influence of a fixed set of metaballs confined to the
// cubic domain [0, width]³. The population is allocated once and never
// changes size; only ball positions and velocities mutate.
type Field struct {
	balls []Metaball
	width float64
}

var _ ScalarField = (*Field)(nil)

// NewField creates a field of cfg.NumMetaballs balls with positions uniform
// in the domain, radii uniform in [cfg.MinRadius, cfg.MaxRadius] and
// per-axis velocities uniform in [-cfg.MaxSpeed, cfg.MaxSpeed]. A nil rng
// seeds a new source from the wall clock.
func NewField(cfg Config, rng *rand.Rand) (*Field, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	balls := make([]Metaball, cfg.NumMetaballs)
	for i := range balls {
		balls[i] = Metaball{
			Pos: r3.Vec{
				X: rng.Float64() * cfg.GridWidth,
				Y: rng.Float64() * cfg.GridWidth,
				Z: rng.Float64() * cfg.GridWidth,
			},
			Vel: r3.Vec{
				X: (2*rng.Float64() - 1) * cfg.MaxSpeed,
				Y: (2*rng.Float64() - 1) * cfg.MaxSpeed,
				Z: (2*rng.Float64() - 1) * cfg.MaxSpeed,
			},
			Radius: cfg.MinRadius + rng.Float64()*(cfg.MaxRadius-cfg.MinRadius),
		}
	}
	return &Field{balls: balls, width: cfg.GridWidth}, nil
}

// FieldFromBalls creates a field with an explicit ball population confined
// to [0, width]³. Useful for deterministic setups.
func FieldFromBalls(width float64, balls ...Metaball) (*Field, error) {
	if width <= 0 {
		return nil, errors.New("field domain width must be positive")
	}
	if len(balls) == 0 {
		return nil, errors.New("field requires at least one metaball")
	}
	for _, b := range balls {
		if b.Radius <= 0 {
			return nil, errors.New("metaball radius must be positive")
		}
	}
	return &Field{balls: append([]Metaball{}, balls...), width: width}, nil
}

// Evaluate returns the summed density Σ rᵢ²/dᵢ² over all balls, where dᵢ is
// the distance from p to ball i. Squared distances below minSquaredDistance
// are clamped so the result stays finite.
func (f *Field) Evaluate(p r3.Vec) float64 {
	var sum float64
	for i := range f.balls {
		b := &f.balls[i]
		dx := p.X - b.Pos.X
		dy := p.Y - b.Pos.Y
		dz := p.Z - b.Pos.Z
		d2 := dx*dx + dy*dy + dz*dz
		if d2 < minSquaredDistance {
			d2 = minSquaredDistance
		}
		sum += b.Radius * b.Radius / d2
	}
	return sum
}

// Step advances every ball by vel·dt. Balls bounce elastically off the six
// faces of the raw domain boundary: per axis, a position leaving [0, width]
// is clamped to the face and that axis's velocity component is negated. The
// ball center, not the ball's visible extent, is what stays inside.
func (f *Field) Step(dt float64) {
	for i := range f.balls {
		b := &f.balls[i]
		b.Pos = r3.Add(b.Pos, r3.Scale(dt, b.Vel))
		b.Pos.X, b.Vel.X = bounce1(b.Pos.X, b.Vel.X, f.width)
		b.Pos.Y, b.Vel.Y = bounce1(b.Pos.Y, b.Vel.Y, f.width)
		b.Pos.Z, b.Vel.Z = bounce1(b.Pos.Z, b.Vel.Z, f.width)
	}
}

// bounce1 reflects a single axis off the [0, limit] interval.
func bounce1(pos, vel, limit float64) (float64, float64) {
	if pos < 0 {
		return 0, -vel
	}
	if pos > limit {
		return limit, -vel
	}
	return pos, vel
}

// Balls returns a copy of the current ball population.
func (f *Field) Balls() []Metaball {
	return append([]Metaball{}, f.balls...)
}

// Width returns the side length of the cubic domain.
func (f *Field) Width() float64 { return f.width }

// Bounds returns the domain box [0, width]³.
func (f *Field) Bounds() r3.Box {
	return r3.Box{Max: r3.Vec{X: f.width, Y: f.width, Z: f.width}}
}

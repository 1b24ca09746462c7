package metaballs

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestFieldEvaluateSingleBall(t *testing.T) {
	const tol = 1e-12
	f, err := FieldFromBalls(8, Metaball{Pos: r3.Vec{X: 1, Y: 1, Z: 1}, Radius: 2})
	if err != nil {
		t.Fatal(err)
	}
	// R²/d² along each axis independently. A formula that reuses one
	// axis's difference for another produces the wrong value for at least
	// one of these.
	for _, test := range []struct {
		p    r3.Vec
		want float64
	}{
		{r3.Vec{X: 3, Y: 1, Z: 1}, 1},      // d²=4 along x
		{r3.Vec{X: 1, Y: 2, Z: 1}, 4},      // d²=1 along y
		{r3.Vec{X: 1, Y: 1, Z: 5}, 0.25},   // d²=16 along z
		{r3.Vec{X: 2, Y: 2, Z: 2}, 4. / 3}, // d²=3 diagonal
	} {
		got := f.Evaluate(test.p)
		if math.Abs(got-test.want) > tol {
			t.Errorf("Evaluate(%v) = %g, want %g", test.p, got, test.want)
		}
	}
}

func TestFieldEvaluateSums(t *testing.T) {
	f, err := FieldFromBalls(8,
		Metaball{Pos: r3.Vec{X: 0, Y: 0, Z: 0}, Radius: 1},
		Metaball{Pos: r3.Vec{X: 4, Y: 0, Z: 0}, Radius: 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	got := f.Evaluate(r3.Vec{X: 2, Y: 0, Z: 0})
	want := 1.0/4 + 1.0/4
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("two-ball sum = %g, want %g", got, want)
	}
}

func TestFieldEvaluateClampAtCenter(t *testing.T) {
	center := r3.Vec{X: 2, Y: 2, Z: 2}
	f, err := FieldFromBalls(4, Metaball{Pos: center, Radius: 1.5})
	if err != nil {
		t.Fatal(err)
	}
	got := f.Evaluate(center)
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("evaluation at ball center must be finite, got %g", got)
	}
	want := 1.5 * 1.5 / minSquaredDistance
	if got != want {
		t.Errorf("clamped value = %g, want %g", got, want)
	}
}

func TestFieldStepBounce(t *testing.T) {
	f, err := FieldFromBalls(4,
		Metaball{Pos: r3.Vec{X: 3.9, Y: 2, Z: 0.1}, Vel: r3.Vec{X: 1, Y: 0.5, Z: -1}, Radius: 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	f.Step(0.2)
	b := f.Balls()[0]
	// x left through the max face: clamped, velocity flipped.
	if b.Pos.X != 4 || b.Vel.X != -1 {
		t.Errorf("x axis: pos=%g vel=%g, want pos=4 vel=-1", b.Pos.X, b.Vel.X)
	}
	// y stayed inside: unchanged velocity.
	if b.Pos.Y != 2.1 || b.Vel.Y != 0.5 {
		t.Errorf("y axis: pos=%g vel=%g, want pos=2.1 vel=0.5", b.Pos.Y, b.Vel.Y)
	}
	// z left through the min face: clamped to 0, velocity flipped.
	if b.Pos.Z != 0 || b.Vel.Z != 1 {
		t.Errorf("z axis: pos=%g vel=%g, want pos=0 vel=1", b.Pos.Z, b.Vel.Z)
	}
}

func TestFieldStepContainment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSpeed = 3 // exaggerate movement to hit walls often
	f, err := NewField(cfg, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5000; i++ {
		f.Step(0.05)
		for _, b := range f.Balls() {
			if b.Pos.X < 0 || b.Pos.X > cfg.GridWidth ||
				b.Pos.Y < 0 || b.Pos.Y > cfg.GridWidth ||
				b.Pos.Z < 0 || b.Pos.Z > cfg.GridWidth {
				t.Fatalf("step %d: ball escaped domain: %+v", i, b.Pos)
			}
		}
	}
}

func TestNewFieldPopulation(t *testing.T) {
	cfg := DefaultConfig()
	f, err := NewField(cfg, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	balls := f.Balls()
	if len(balls) != cfg.NumMetaballs {
		t.Fatalf("population %d, want %d", len(balls), cfg.NumMetaballs)
	}
	for _, b := range balls {
		if b.Radius < cfg.MinRadius || b.Radius > cfg.MaxRadius {
			t.Errorf("radius %g outside [%g, %g]", b.Radius, cfg.MinRadius, cfg.MaxRadius)
		}
		if math.Abs(b.Vel.X) > cfg.MaxSpeed || math.Abs(b.Vel.Y) > cfg.MaxSpeed || math.Abs(b.Vel.Z) > cfg.MaxSpeed {
			t.Errorf("velocity %+v exceeds per-axis bound %g", b.Vel, cfg.MaxSpeed)
		}
		if b.Pos.X < 0 || b.Pos.X > cfg.GridWidth ||
			b.Pos.Y < 0 || b.Pos.Y > cfg.GridWidth ||
			b.Pos.Z < 0 || b.Pos.Z > cfg.GridWidth {
			t.Errorf("position %+v outside domain", b.Pos)
		}
	}
}

func TestFieldFromBallsErrors(t *testing.T) {
	if _, err := FieldFromBalls(0, Metaball{Radius: 1}); err == nil {
		t.Error("expected error for non-positive width")
	}
	if _, err := FieldFromBalls(4); err == nil {
		t.Error("expected error for empty population")
	}
	if _, err := FieldFromBalls(4, Metaball{Radius: 0}); err == nil {
		t.Error("expected error for non-positive radius")
	}
}

package render

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// unitCorners is the canonical corner layout of a unit cell used across the
// marching cubes tests: the bottom ring counterclockwise from the origin,
// then the top ring.
var unitCorners = [8]r3.Vec{
	{X: 0, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
	{X: 1, Y: 1, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: 0, Z: 1},
	{X: 1, Y: 0, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: 0, Y: 1, Z: 1},
}

func TestMarchingCubesMaxTriangles(t *testing.T) {
	max := 0
	for _, tri := range mcTriangleTable {
		if len(tri) > max {
			max = len(tri)
		}
	}
	got := max / 3
	if got != marchingCubesMaxTriangles {
		t.Errorf("mismatch marching cubes max triangles. got %d. want %d", got, marchingCubesMaxTriangles)
	}
}

func TestTriangleTableWellFormed(t *testing.T) {
	for index, row := range mcTriangleTable {
		if len(row)%3 != 0 {
			t.Errorf("case %d: row length %d not a multiple of 3", index, len(row))
		}
		for _, e := range row {
			if e >= 12 {
				t.Errorf("case %d: edge index %d out of range", index, e)
			}
		}
	}
	if len(mcTriangleTable[0]) != 0 || len(mcTriangleTable[255]) != 0 {
		t.Error("uniform-sign cases 0 and 255 must be empty")
	}
}

func TestEdgeTableSymmetry(t *testing.T) {
	// Complementary corner configurations cross the same edges.
	for index := 0; index < 256; index++ {
		if mcEdgeTable[index] != mcEdgeTable[255^index] {
			t.Errorf("edge mask of case %d differs from complement %d", index, 255^index)
		}
		if mcEdgeTable[index]>>12 != 0 {
			t.Errorf("case %d: edge mask wider than 12 bits", index)
		}
	}
}

func TestEdgeIndexPairs(t *testing.T) {
	for e, pair := range mcEdgeIndex {
		a, b := unitCorners[pair[0]], unitCorners[pair[1]]
		d := r3.Sub(a, b)
		axes := 0
		if d.X != 0 {
			axes++
		}
		if d.Y != 0 {
			axes++
		}
		if d.Z != 0 {
			axes++
		}
		if axes != 1 {
			t.Errorf("edge %d connects corners %d and %d which do not share a cube edge", e, pair[0], pair[1])
		}
	}
}

func TestCubeIndexPerCornerBit(t *testing.T) {
	// Each corner contributes exactly its own bit, independently of the
	// others.
	for corner := 0; corner < 8; corner++ {
		var samples [8]float64
		samples[corner] = 1
		index := mcCubeIndex(mcClassify(samples, 0.5))
		if index != 1<<corner {
			t.Errorf("corner %d alone: cube index %#08b, want %#08b", corner, index, 1<<corner)
		}
	}
}

func TestCubeIndexAllCombinations(t *testing.T) {
	var tmp [marchingCubesMaxTriangles]Triangle3
	for pattern := 0; pattern < 256; pattern++ {
		var samples [8]float64
		for i := 0; i < 8; i++ {
			if pattern&(1<<i) != 0 {
				samples[i] = 1
			} else {
				samples[i] = -1
			}
		}
		index := mcCubeIndex(mcClassify(samples, 0))
		if int(index) != pattern {
			t.Fatalf("pattern %#08b: cube index %#08b", pattern, index)
		}
		n := mcToTriangles(tmp[:], unitCorners, samples, 0)
		if n > marchingCubesMaxTriangles {
			t.Fatalf("pattern %#08b: %d triangles exceeds maximum", pattern, n)
		}
		if want := len(mcTriangleTable[pattern]) / 3; n != want {
			t.Fatalf("pattern %#08b: %d triangles, table says %d", pattern, n, want)
		}
	}
}

func TestUniformSignCellsEmitNothing(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var tmp [marchingCubesMaxTriangles]Triangle3
	for trial := 0; trial < 100; trial++ {
		var below, above [8]float64
		for i := range below {
			below[i] = rng.Float64() // in [0,1), all below isolevel 1
			above[i] = 1 + rng.Float64()
		}
		if n := mcToTriangles(tmp[:], unitCorners, below, 1); n != 0 {
			t.Fatalf("all-below cell emitted %d triangles", n)
		}
		if n := mcToTriangles(tmp[:], unitCorners, above, 1); n != 0 {
			t.Fatalf("all-above cell emitted %d triangles", n)
		}
	}
}

func TestInterpBoundary(t *testing.T) {
	p0 := r3.Vec{X: 0.1, Y: 0.2, Z: 0.3}
	p1 := r3.Vec{X: 0.7, Y: 0.2, Z: 0.3}
	if got := mcInterp(2, p0, p1, 2, 5); got != p0 {
		t.Errorf("isolevel == s0: got %v, want p0 %v exactly", got, p0)
	}
	if got := mcInterp(5, p0, p1, 2, 5); got != p1 {
		t.Errorf("isolevel == s1: got %v, want p1 %v exactly", got, p1)
	}
	// Degenerate edge falls back to p0.
	if got := mcInterp(3, p0, p1, 2, 2); got != p0 {
		t.Errorf("degenerate edge: got %v, want p0 %v", got, p0)
	}
	// Midpoint for a centered crossing.
	got := mcInterp(0.5, r3.Vec{}, r3.Vec{X: 1}, 0, 1)
	if got.X != 0.5 || got.Y != 0 || got.Z != 0 {
		t.Errorf("midpoint crossing: got %v", got)
	}
}

func TestSingleCornerTriangle(t *testing.T) {
	// Only corner 0 above the isolevel: one triangle crossing edges 0, 8
	// and 3, each at its midpoint, wound facing away from corner 0.
	samples := [8]float64{2, 0, 0, 0, 0, 0, 0, 0}
	var tmp [marchingCubesMaxTriangles]Triangle3
	n := mcToTriangles(tmp[:], unitCorners, samples, 1)
	if n != 1 {
		t.Fatalf("got %d triangles, want 1", n)
	}
	wantVerts := map[r3.Vec]bool{
		{X: 0.5, Y: 0, Z: 0}: false, // edge 0, corners 0-1
		{X: 0, Y: 0, Z: 0.5}: false, // edge 8, corners 0-4
		{X: 0, Y: 0.5, Z: 0}: false, // edge 3, corners 3-0
	}
	for _, v := range tmp[0].V {
		if _, ok := wantVerts[v]; !ok {
			t.Fatalf("unexpected vertex %v", v)
		}
		wantVerts[v] = true
	}
	for v, seen := range wantVerts {
		if !seen {
			t.Errorf("missing vertex %v", v)
		}
	}
	// The above-isolevel region is the corner at the origin, so the normal
	// must have positive components pointing away from it.
	normal := tmp[0].Normal()
	if normal.X <= 0 || normal.Y <= 0 || normal.Z <= 0 {
		t.Errorf("triangle normal %v points toward the enclosed corner", normal)
	}
}

func TestTriangleWindingPerCorner(t *testing.T) {
	// Single-corner cases and their complements pin the orientation
	// convention: when only corner k is above the isolevel the clipped
	// triangle must face away from corner k, and when only corner k is
	// below it must face toward corner k.
	var tmp [marchingCubesMaxTriangles]Triangle3
	for k := 0; k < 8; k++ {
		var above, below [8]float64
		for i := range above {
			above[i] = 2
		}
		above[k] = 0
		below[k] = 2

		n := mcToTriangles(tmp[:], unitCorners, below, 1)
		if n != 1 {
			t.Fatalf("corner %d above: got %d triangles, want 1", k, n)
		}
		if r3.Dot(tmp[0].Normal(), r3.Sub(centroid(tmp[0]), unitCorners[k])) <= 0 {
			t.Errorf("corner %d above: triangle faces the enclosed corner", k)
		}

		n = mcToTriangles(tmp[:], unitCorners, above, 1)
		if n != 1 {
			t.Fatalf("corner %d below: got %d triangles, want 1", k, n)
		}
		if r3.Dot(tmp[0].Normal(), r3.Sub(unitCorners[k], centroid(tmp[0]))) <= 0 {
			t.Errorf("corner %d below: triangle faces away from the excluded corner", k)
		}
	}
}

func centroid(t Triangle3) r3.Vec {
	return r3.Scale(1.0/3.0, r3.Add(r3.Add(t.V[0], t.V[1]), t.V[2]))
}

func TestDegenerateCrossingsDropped(t *testing.T) {
	// Corner 0 sampled exactly at the isolevel with all other corners
	// above: the three crossed edges meet at corner 0 and the would-be
	// triangle collapses to a point. It must not be emitted; a consumer
	// would compute a NaN normal from it.
	samples := [8]float64{1, 2, 2, 2, 2, 2, 2, 2}
	var tmp [marchingCubesMaxTriangles]Triangle3
	if n := mcToTriangles(tmp[:], unitCorners, samples, 1); n != 0 {
		t.Fatalf("collapsed triangle emitted: %+v", tmp[:n])
	}
}

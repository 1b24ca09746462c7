package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// marchingCubesMaxTriangles is the maximum number of triangles marching
// cubes can produce for a single cell.
const marchingCubesMaxTriangles = 5

// interpEpsilon is the sample difference below which an edge is considered
// degenerate and the crossing point falls back to the edge's first corner.
const interpEpsilon = 1e-12

// mcClassify reports, per corner, whether the sample exceeds the isolevel.
func mcClassify(samples [8]float64, isolevel float64) (above [8]bool) {
	for i, s := range samples {
		above[i] = s > isolevel
	}
	return above
}

// mcCubeIndex assembles the 8-bit cube index from the corner classification.
// Corner i contributes bit i (corner 0 is least significant), the weighting
// mcTriangleTable is indexed by. The result is in [0, 256) by construction.
func mcCubeIndex(above [8]bool) uint8 {
	var index uint8
	for i, a := range above {
		if a {
			index |= 1 << i
		}
	}
	return index
}

// mcInterp returns the isosurface crossing point on the edge (p0, p1) with
// samples (s0, s1). Endpoint hits return the endpoint exactly. A degenerate
// edge with s0 == s1 has no well defined crossing; it returns p0.
func mcInterp(isolevel float64, p0, p1 r3.Vec, s0, s1 float64) r3.Vec {
	switch {
	case isolevel == s0:
		return p0
	case isolevel == s1:
		return p1
	case math.Abs(s1-s0) < interpEpsilon:
		return p0
	}
	t := (isolevel - s0) / (s1 - s0)
	return r3.Add(p0, r3.Scale(t, r3.Sub(p1, p0)))
}

// mcToTriangles polygonizes a single cell from its 8 corner positions and
// samples, writing the resulting triangles to dst and returning the number
// written. dst must have room for marchingCubesMaxTriangles triangles.
// Cells entirely above or entirely below the isolevel produce nothing.
// Triangles are wound so their normals point away from the above-isolevel
// region; zero-area triangles, produced when crossings collapse onto a
// corner sampled exactly at the isolevel, are dropped. No vertex normals
// are computed; normal estimation is left to consumers.
func mcToTriangles(dst []Triangle3, corners [8]r3.Vec, samples [8]float64, isolevel float64) int {
	index := mcCubeIndex(mcClassify(samples, isolevel))
	edgeMask := mcEdgeTable[index]
	if edgeMask == 0 {
		return 0
	}
	var crossing [12]r3.Vec
	for e := 0; e < 12; e++ {
		if edgeMask&(1<<e) == 0 {
			continue
		}
		v0, v1 := mcEdgeIndex[e][0], mcEdgeIndex[e][1]
		crossing[e] = mcInterp(isolevel, corners[v0], corners[v1], samples[v0], samples[v1])
	}
	row := mcTriangleTable[index]
	n := 0
	for i := 0; i < len(row); i += 3 {
		// The table's vertex order assumes below-isolevel classification;
		// with the above-isolevel cube index each triangle is emitted in
		// reverse so the winding faces outward.
		tri := Triangle3{V: [3]r3.Vec{
			crossing[row[i+2]],
			crossing[row[i+1]],
			crossing[row[i]],
		}}
		if tri.Degenerate(0) {
			continue
		}
		dst[n] = tri
		n++
	}
	return n
}

// Package render extracts triangle meshes from sampled metaball grids via
// marching cubes and ships them to mesh consumers (STL files, PNG
// snapshots).
package render

import (
	"io"

	"gonum.org/v1/gonum/spatial/r3"
)

// Renderer is a source of triangles. ReadTriangles fills t with rendered
// triangles, returning the number written. It returns io.EOF once the model
// is exhausted.
type Renderer interface {
	ReadTriangles(t []Triangle3) (int, error)
}

// Triangle3 is a 3D triangle defined by its three vertices. Vertex order
// controls winding and is preserved throughout the pipeline.
type Triangle3 struct {
	V [3]r3.Vec
}

// Normal returns the unit normal of the plane defined by the triangle's
// vertices, oriented by their winding.
func (t Triangle3) Normal() r3.Vec {
	e1 := r3.Sub(t.V[1], t.V[0])
	e2 := r3.Sub(t.V[2], t.V[0])
	return r3.Unit(r3.Cross(e1, e2))
}

// Degenerate returns true if any two vertices coincide within tol.
func (t Triangle3) Degenerate(tol float64) bool {
	return equalWithin(t.V[0], t.V[1], tol) ||
		equalWithin(t.V[1], t.V[2], tol) ||
		equalWithin(t.V[2], t.V[0], tol)
}

func equalWithin(a, b r3.Vec, tol float64) bool {
	d := r3.Sub(a, b)
	return d.X*d.X+d.Y*d.Y+d.Z*d.Z <= tol*tol
}

// RenderAll reads the full contents of a Renderer and returns the slice
// read. It does not return io.EOF.
func RenderAll(r Renderer) ([]Triangle3, error) {
	var err error
	var nt int
	result := make([]Triangle3, 0, 1<<12)
	buf := make([]Triangle3, 1024)
	for {
		nt, err = r.ReadTriangles(buf)
		if err != nil {
			break
		}
		result = append(result, buf[:nt]...)
	}
	if err == io.EOF {
		return result, nil
	}
	return result, err
}

type triangle3Buffer struct {
	buf []Triangle3
}

// Read reads from this buffer.
func (b *triangle3Buffer) Read(t []Triangle3) int {
	n := copy(t, b.buf)
	b.buf = b.buf[n:]
	return n
}

// Write appends triangles to this buffer.
func (b *triangle3Buffer) Write(t []Triangle3) int {
	b.buf = append(b.buf, t...)
	return len(t)
}

func (b *triangle3Buffer) Len() int { return len(b.buf) }

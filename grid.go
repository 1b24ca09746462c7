package metaballs

import (
	"fmt"

	"github.com/soypat/metaballs/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// cornerOffsets are the unit offsets of a cell's 8 corners from its center:
// the bottom ring counterclockwise starting at (-,-,-), then the top ring in
// the same order. This is the corner numbering the marching cubes topology
// tables are indexed by; reordering it silently corrupts the extracted
// surface.
var cornerOffsets = [8]r3.Vec{
	{X: -1, Y: -1, Z: -1},
	{X: +1, Y: -1, Z: -1},
	{X: +1, Y: +1, Z: -1},
	{X: -1, Y: +1, Z: -1},
	{X: -1, Y: -1, Z: +1},
	{X: +1, Y: -1, Z: +1},
	{X: +1, Y: +1, Z: +1},
	{X: -1, Y: +1, Z: +1},
}

// Cell is a single cubic sample cell. Geometry (Center, Corners) is fixed at
// grid construction; Samples and CenterSample are overwritten on every
// resample. CenterSample exists for visibility gating by collaborators and
// plays no part in polygonization.
type Cell struct {
	Center       r3.Vec
	Corners      [8]r3.Vec
	Samples      [8]float64
	CenterSample float64
}

// Grid is a uniform lattice of resolution³ cubic cells covering an
// axis-aligned cubic domain. Cells are allocated once and never reallocated.
type Grid struct {
	origin     r3.Vec
	cellWidth  float64
	resolution int
	cells      []Cell
}

// NewGrid constructs a grid of resolution³ cells of side cellWidth whose
// domain minimum corner sits at origin. All cell geometry is precomputed
// here; resampling only rewrites scalar values.
func NewGrid(origin r3.Vec, cellWidth float64, resolution int) (*Grid, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("grid resolution must be positive, got %d", resolution)
	}
	if cellWidth <= 0 {
		return nil, fmt.Errorf("grid cell width must be positive, got %g", cellWidth)
	}
	g := &Grid{
		origin:     origin,
		cellWidth:  cellWidth,
		resolution: resolution,
		cells:      make([]Cell, resolution*resolution*resolution),
	}
	half := 0.5 * cellWidth
	for i := range g.cells {
		ix, iy, iz := g.IndexToCoords(i)
		center := g.CoordsToPosition(ix, iy, iz)
		cell := &g.cells[i]
		cell.Center = center
		for k, off := range cornerOffsets {
			cell.Corners[k] = r3.Add(center, r3.Scale(half, off))
		}
	}
	return g, nil
}

// Len returns the total cell count, resolution³.
func (g *Grid) Len() int { return len(g.cells) }

// Resolution returns the cell count per axis.
func (g *Grid) Resolution() int { return g.resolution }

// CellWidth returns the side length of a single cell.
func (g *Grid) CellWidth() float64 { return g.cellWidth }

// Origin returns the minimum corner of the grid domain.
func (g *Grid) Origin() r3.Vec { return g.origin }

// Cell returns the cell at flat index i in [0, Len()).
func (g *Grid) Cell(i int) *Cell { return &g.cells[i] }

// Bounds returns the axis-aligned box covered by the grid.
func (g *Grid) Bounds() r3.Box {
	w := g.cellWidth * float64(g.resolution)
	size := d3.Elem(w)
	center := r3.Add(g.origin, r3.Scale(0.5, size))
	return r3.Box(d3.NewBox(center, size))
}

// IndexToCoords maps a flat cell index to its (ix, iy, iz) triple. x varies
// fastest. It is the exact inverse of CoordsToIndex.
func (g *Grid) IndexToCoords(i int) (ix, iy, iz int) {
	r := g.resolution
	ix = i % r
	iy = (i / r) % r
	iz = i / (r * r)
	return ix, iy, iz
}

// CoordsToIndex maps an (ix, iy, iz) triple, each component in
// [0, resolution), to its flat cell index. It is the exact inverse of
// IndexToCoords.
func (g *Grid) CoordsToIndex(ix, iy, iz int) int {
	r := g.resolution
	return ix + r*(iy+r*iz)
}

// CoordsToPosition returns the world-space center of cell (ix, iy, iz).
func (g *Grid) CoordsToPosition(ix, iy, iz int) r3.Vec {
	h := 0.5 * g.cellWidth
	return r3.Add(g.origin, r3.Vec{
		X: float64(ix)*g.cellWidth + h,
		Y: float64(iy)*g.cellWidth + h,
		Z: float64(iz)*g.cellWidth + h,
	})
}

// PositionToCoords returns the (ix, iy, iz) triple of the cell containing p.
// For cell centers it is the exact inverse of CoordsToPosition.
func (g *Grid) PositionToCoords(p r3.Vec) (ix, iy, iz int) {
	d := r3.Sub(p, g.origin)
	return int(d.X / g.cellWidth), int(d.Y / g.cellWidth), int(d.Z / g.cellWidth)
}

// Resample overwrites every cell's 8 corner samples and its center sample
// with values of f. Pure recomputation: no incremental update, no staleness
// tracking. Cost is O(resolution³) field evaluations.
func (g *Grid) Resample(f ScalarField) {
	for i := range g.cells {
		cell := &g.cells[i]
		for k := range cell.Corners {
			cell.Samples[k] = f.Evaluate(cell.Corners[k])
		}
		cell.CenterSample = f.Evaluate(cell.Center)
	}
}

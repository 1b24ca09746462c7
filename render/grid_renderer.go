package render

import (
	"io"
	"sync"

	"github.com/soypat/metaballs"
)

// GridRenderer streams the marching-cubes triangulation of a sampled
// metaball grid at a fixed isolevel. It consumes the grid's current samples;
// resample the grid before each frame and Reset the renderer to stream the
// new surface. The renderer and its buffers are allocated once and reused
// across frames.
type GridRenderer struct {
	grid     *metaballs.Grid
	isolevel float64
	// next is the flat index of the first unprocessed cell.
	next      int
	unwritten triangle3Buffer
	// concurrent goroutine processing. <=1 means sequential.
	concurrent int
}

// NewGridRenderer returns a marching cubes Renderer over all cells of g.
func NewGridRenderer(g *metaballs.Grid, isolevel float64) *GridRenderer {
	if g == nil {
		panic("nil grid")
	}
	return &GridRenderer{
		grid:      g,
		isolevel:  isolevel,
		unwritten: triangle3Buffer{buf: make([]Triangle3, 0, 1024)},
	}
}

// SetConcurrent sets the number of goroutines used to polygonize cells.
// Cells share no mutable state so they may be processed in parallel; results
// are still emitted in cell order, so output is identical to the sequential
// path.
func (gr *GridRenderer) SetConcurrent(n int) { gr.concurrent = n }

// Reset rewinds the renderer so the grid's current samples can be streamed
// again. Call it after each resample.
func (gr *GridRenderer) Reset() {
	gr.next = 0
	gr.unwritten.buf = gr.unwritten.buf[:0]
}

// ReadTriangles writes triangles polygonized from the grid into dst. It
// returns the number of triangles written and io.EOF once every cell has
// been consumed.
func (gr *GridRenderer) ReadTriangles(dst []Triangle3) (n int, err error) {
	if len(dst) == 0 {
		panic("cannot write to empty triangle slice")
	}
	if gr.unwritten.Len() > 0 {
		n += gr.unwritten.Read(dst[n:])
		if n == len(dst) {
			return n, nil
		}
	}
	if gr.next >= gr.grid.Len() && gr.unwritten.Len() == 0 {
		if n > 0 {
			// Triangles were drained above. EOF on the next call.
			return n, nil
		}
		return 0, io.EOF
	}
	if gr.concurrent > 1 {
		gr.polygonizeConcurrent()
		n += gr.unwritten.Read(dst[n:])
		return n, nil
	}
	n += gr.readTriangles(dst[n:])
	return n, nil
}

// readTriangles is the single threaded cell loop. It returns the number of
// triangles written to dst.
func (gr *GridRenderer) readTriangles(dst []Triangle3) (n int) {
	for gr.next < gr.grid.Len() {
		if n == len(dst) {
			// Finished writing all the buffer.
			break
		}
		cell := gr.grid.Cell(gr.next)
		if n+marchingCubesMaxTriangles > len(dst) {
			// Not enough room in dst for all triangles this cell could
			// produce. Spill into the unwritten buffer instead.
			var tmp [marchingCubesMaxTriangles]Triangle3
			nt := mcToTriangles(tmp[:], cell.Corners, cell.Samples, gr.isolevel)
			gr.unwritten.Write(tmp[:nt])
			gr.next++
			break
		}
		n += mcToTriangles(dst[n:], cell.Corners, cell.Samples, gr.isolevel)
		gr.next++
	}
	return n
}

// polygonizeConcurrent processes every remaining cell across gr.concurrent
// goroutines and appends the results to the unwritten buffer in cell order.
func (gr *GridRenderer) polygonizeConcurrent() {
	total := gr.grid.Len() - gr.next
	if total <= 0 {
		return
	}
	workers := gr.concurrent
	if workers > total {
		workers = total
	}
	chunk := (total + workers - 1) / workers
	results := make([][]Triangle3, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := gr.next + w*chunk
		hi := lo + chunk
		if hi > gr.grid.Len() {
			hi = gr.grid.Len()
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			var tmp [marchingCubesMaxTriangles]Triangle3
			var out []Triangle3
			for i := lo; i < hi; i++ {
				cell := gr.grid.Cell(i)
				nt := mcToTriangles(tmp[:], cell.Corners, cell.Samples, gr.isolevel)
				out = append(out, tmp[:nt]...)
			}
			results[w] = out
		}(w, lo, hi)
	}
	wg.Wait()
	for _, out := range results {
		gr.unwritten.Write(out)
	}
	gr.next = gr.grid.Len()
}

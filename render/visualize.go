package render

import (
	"errors"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"
)

// ViewConfig describes the camera used to rasterize mesh snapshots.
type ViewConfig struct {
	// what position (point) to look at
	Lookat r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// where the camera/eye is located at (point)
	Eyepos r3.Vec
	Far    float64
	Near   float64
}

// Visualizer rasterizes frame meshes to PNG images. It is the visual-debug
// collaborator of the simulation: hiding it turns Snapshot into a no-op
// without touching any simulation state.
type Visualizer struct {
	View          ViewConfig
	Width, Height int
	hidden        bool
}

// NewVisualizer returns a visible Visualizer rendering 1920x1080 snapshots
// with the given camera.
func NewVisualizer(view ViewConfig) *Visualizer {
	return &Visualizer{View: view, Width: 1920, Height: 1080}
}

// Show enables snapshot output. Idempotent.
func (v *Visualizer) Show() { v.hidden = false }

// Hide disables snapshot output. Idempotent.
func (v *Visualizer) Hide() { v.hidden = true }

// Snapshot renders model to a PNG file at outputname. A hidden visualizer
// does nothing and returns nil.
func (v *Visualizer) Snapshot(model []Triangle3, outputname string) error {
	if v.hidden {
		return nil
	}
	if len(model) == 0 {
		return errors.New("empty triangle slice")
	}
	const (
		scale = 1  // optional supersampling
		fovy  = 30 // vertical field of view in degrees
	)
	var (
		width  = v.Width
		height = v.Height
		eye    = fauxgl.V(v.View.Eyepos.X, v.View.Eyepos.Y, v.View.Eyepos.Z)
		center = fauxgl.V(v.View.Lookat.X, v.View.Lookat.Y, v.View.Lookat.Z)
		up     = fauxgl.V(v.View.Up.X, v.View.Up.Y, v.View.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize() // light direction
		color  = fauxgl.HexColor("#468966")           // object color
	)
	mesh := fauxglMesh(model)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	context := fauxgl.NewContext(width*scale, height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(width) / float64(height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, v.View.Near, v.View.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	// downsample image for antialiasing
	image := context.Image()
	image = resize.Resize(uint(width), uint(height), image, resize.Bilinear)
	return fauxgl.SavePNG(outputname, image)
}

func fauxglMesh(model []Triangle3) *fauxgl.Mesh {
	triangles := make([]*fauxgl.Triangle, len(model))
	for i, t := range model {
		triangles[i] = fauxgl.NewTriangleForPoints(
			fauxgl.V(t.V[0].X, t.V[0].Y, t.V[0].Z),
			fauxgl.V(t.V[1].X, t.V[1].Y, t.V[1].Z),
			fauxgl.V(t.V[2].X, t.V[2].Y, t.V[2].Z),
		)
	}
	return fauxgl.NewTriangleMesh(triangles)
}

package render

import (
	"github.com/taigrr/portals/pkg/math3d"
)

// Wireframe draws debug outlines through a rasterizer's camera. Lines are
// clipped to the view volume but ignore the depth buffer.
type Wireframe struct {
	r *Rasterizer
}

// NewWireframe creates a wireframe overlay drawing through r.
func NewWireframe(r *Rasterizer) *Wireframe {
	return &Wireframe{r: r}
}

// DrawLine3D draws a line in 3D space.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	w.r.DrawLine3D(p1, p2, color)
}

var boxEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0}, // back
	{4, 5}, {5, 6}, {6, 7}, {7, 4}, // front
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawBox draws a box with the given half extents in transform's local space.
func (w *Wireframe) DrawBox(transform math3d.Mat4, half math3d.Vec3, color Color) {
	local := [8]math3d.Vec3{
		{X: -half.X, Y: -half.Y, Z: -half.Z},
		{X: half.X, Y: -half.Y, Z: -half.Z},
		{X: half.X, Y: half.Y, Z: -half.Z},
		{X: -half.X, Y: half.Y, Z: -half.Z},
		{X: -half.X, Y: -half.Y, Z: half.Z},
		{X: half.X, Y: -half.Y, Z: half.Z},
		{X: half.X, Y: half.Y, Z: half.Z},
		{X: -half.X, Y: half.Y, Z: half.Z},
	}

	var world [8]math3d.Vec3
	for i, v := range local {
		world[i] = transform.MulVec3(v)
	}

	for _, edge := range boxEdges {
		w.DrawLine3D(world[edge[0]], world[edge[1]], color)
	}
}

// DrawRect draws a rectangle of half size (hw, hh) in the local XY plane.
func (w *Wireframe) DrawRect(transform math3d.Mat4, hw, hh float64, color Color) {
	corners := [4]math3d.Vec3{
		transform.MulVec3(math3d.V3(-hw, -hh, 0)),
		transform.MulVec3(math3d.V3(hw, -hh, 0)),
		transform.MulVec3(math3d.V3(hw, hh, 0)),
		transform.MulVec3(math3d.V3(-hw, hh, 0)),
	}
	for i := range corners {
		w.DrawLine3D(corners[i], corners[(i+1)%4], color)
	}
}

// DrawAxes draws the local axes of a pose: X red, Y green, Z blue.
func (w *Wireframe) DrawAxes(p math3d.Pose, length float64) {
	o := p.Position
	w.DrawLine3D(o, p.TransformPoint(math3d.V3(length, 0, 0)), ColorRed)
	w.DrawLine3D(o, p.TransformPoint(math3d.V3(0, length, 0)), ColorGreen)
	w.DrawLine3D(o, p.TransformPoint(math3d.V3(0, 0, length)), ColorBlue)
}

// DrawGrid draws a grid on the XZ plane at height y.
func (w *Wireframe) DrawGrid(size, step, y float64, color Color) {
	half := size / 2
	for x := -half; x <= half; x += step {
		w.DrawLine3D(math3d.V3(x, y, -half), math3d.V3(x, y, half), color)
	}
	for z := -half; z <= half; z += step {
		w.DrawLine3D(math3d.V3(-half, y, z), math3d.V3(half, y, z), color)
	}
}

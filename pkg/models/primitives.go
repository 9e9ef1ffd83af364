package models

import "github.com/taigrr/portals/pkg/math3d"

// face axes for the six box sides: normal, u and v with u x v = normal so
// quads wind counter-clockwise seen from outside.
var boxSides = [6][3]math3d.Vec3{
	{{X: 1}, {Z: -1}, {Y: 1}},
	{{X: -1}, {Z: 1}, {Y: 1}},
	{{Y: 1}, {X: 1}, {Z: -1}},
	{{Y: -1}, {X: 1}, {Z: 1}},
	{{Z: 1}, {X: 1}, {Y: 1}},
	{{Z: -1}, {X: -1}, {Y: 1}},
}

// NewBox creates a box centered on the origin with the given half extents
// and a single material.
func NewBox(name string, half math3d.Vec3, mat Material) *Mesh {
	m := NewMesh(name)
	m.Materials = []Material{mat}
	for _, side := range boxSides {
		n, u, v := side[0], side[1], side[2]
		m.addQuad(
			scale3(n.Sub(u).Sub(v), half),
			scale3(n.Add(u).Sub(v), half),
			scale3(n.Add(u).Add(v), half),
			scale3(n.Sub(u).Add(v), half),
			n, 1, 1, 0,
		)
	}
	m.CalculateBounds()
	return m
}

// NewQuad creates a rectangle of half size (hw, hh) in the XY plane
// facing +Z.
func NewQuad(name string, hw, hh float64, mat Material) *Mesh {
	m := NewMesh(name)
	m.Materials = []Material{mat}
	m.addQuad(
		math3d.V3(-hw, -hh, 0),
		math3d.V3(hw, -hh, 0),
		math3d.V3(hw, hh, 0),
		math3d.V3(-hw, hh, 0),
		math3d.Back(), 1, 1, 0,
	)
	m.CalculateBounds()
	return m
}

// NewPlane creates a horizontal rectangle of half size (hw, hd) facing +Y.
// UVs repeat tiles times across each axis.
func NewPlane(name string, hw, hd, tiles float64, mat Material) *Mesh {
	m := NewMesh(name)
	m.Materials = []Material{mat}
	m.addQuad(
		math3d.V3(-hw, 0, hd),
		math3d.V3(hw, 0, hd),
		math3d.V3(hw, 0, -hd),
		math3d.V3(-hw, 0, -hd),
		math3d.Up(), tiles, tiles, 0,
	)
	m.CalculateBounds()
	return m
}

// NewFrame creates a rectangular border around a (hw, hh) opening in the
// XY plane, thickness t wide and depth d deep, for portal rims.
func NewFrame(name string, hw, hh, t, d float64, mat Material) *Mesh {
	m := NewMesh(name)
	bars := []struct{ center, half math3d.Vec3 }{
		{math3d.V3(0, hh+t/2, 0), math3d.V3(hw+t, t/2, d/2)},
		{math3d.V3(0, -hh-t/2, 0), math3d.V3(hw+t, t/2, d/2)},
		{math3d.V3(-hw-t/2, 0, 0), math3d.V3(t/2, hh, d/2)},
		{math3d.V3(hw+t/2, 0, 0), math3d.V3(t/2, hh, d/2)},
	}
	for _, b := range bars {
		box := NewBox(name, b.half, mat)
		box.Transform(math3d.Translate(b.center))
		m.Append(box)
	}
	m.Materials = []Material{mat}
	for i := range m.Faces {
		m.Faces[i].Material = 0
	}
	m.CalculateBounds()
	return m
}

// Append adds other's geometry to m. Material indices of other are
// offset past m's materials.
func (m *Mesh) Append(other *Mesh) {
	base := len(m.Vertices)
	matBase := len(m.Materials)
	m.Vertices = append(m.Vertices, other.Vertices...)
	m.Materials = append(m.Materials, other.Materials...)
	for _, f := range other.Faces {
		nf := Face{Material: -1}
		if f.Material >= 0 {
			nf.Material = f.Material + matBase
		}
		for k := range f.V {
			nf.V[k] = f.V[k] + base
		}
		m.Faces = append(m.Faces, nf)
	}
}

func (m *Mesh) addQuad(a, b, c, d, normal math3d.Vec3, us, vs float64, material int) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices,
		MeshVertex{Position: a, Normal: normal, UV: math3d.V2(0, 0)},
		MeshVertex{Position: b, Normal: normal, UV: math3d.V2(us, 0)},
		MeshVertex{Position: c, Normal: normal, UV: math3d.V2(us, vs)},
		MeshVertex{Position: d, Normal: normal, UV: math3d.V2(0, vs)},
	)
	m.Faces = append(m.Faces,
		Face{V: [3]int{base, base + 1, base + 2}, Material: material},
		Face{V: [3]int{base, base + 2, base + 3}, Material: material},
	)
}

func scale3(v, s math3d.Vec3) math3d.Vec3 {
	return math3d.V3(v.X*s.X, v.Y*s.Y, v.Z*s.Z)
}

package models

import (
	"testing"

	"github.com/taigrr/portals/pkg/math3d"
)

// faceNormal returns the geometric normal implied by the face winding.
func faceNormal(m *Mesh, i int) math3d.Vec3 {
	f := m.GetFace(i)
	a, _, _ := m.GetVertex(f[0])
	b, _, _ := m.GetVertex(f[1])
	c, _, _ := m.GetVertex(f[2])
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

func TestPrimitiveWindingMatchesNormals(t *testing.T) {
	mat := Material{Name: "m"}
	tests := []struct {
		name string
		mesh *Mesh
		tris int
	}{
		{"box", NewBox("box", math3d.V3(1, 2, 3), mat), 12},
		{"quad", NewQuad("quad", 1, 2, mat), 2},
		{"plane", NewPlane("plane", 5, 5, 4, mat), 2},
		{"frame", NewFrame("frame", 1, 1.5, 0.2, 0.2, mat), 48},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.mesh.TriangleCount() != tc.tris {
				t.Fatalf("triangles = %d, want %d", tc.mesh.TriangleCount(), tc.tris)
			}
			for i := range tc.mesh.TriangleCount() {
				_, n, _ := tc.mesh.GetVertex(tc.mesh.GetFace(i)[0])
				if faceNormal(tc.mesh, i).Dot(n) < 0.99 {
					t.Errorf("face %d winds against its normal %v", i, n)
				}
				if tc.mesh.GetFaceMaterial(i) != 0 {
					t.Errorf("face %d material = %d, want 0", i, tc.mesh.GetFaceMaterial(i))
				}
			}
		})
	}
}

func TestBoxNormalsPointOutward(t *testing.T) {
	box := NewBox("box", math3d.V3(1, 1, 1), Material{})
	for i := range box.TriangleCount() {
		p, n, _ := box.GetVertex(box.GetFace(i)[0])
		if p.Dot(n) <= 0 {
			t.Errorf("face %d normal %v points inward at %v", i, n, p)
		}
	}
}

func TestPrimitiveBounds(t *testing.T) {
	tests := []struct {
		name     string
		mesh     *Mesh
		min, max math3d.Vec3
	}{
		{"box", NewBox("box", math3d.V3(1, 2, 3), Material{}), math3d.V3(-1, -2, -3), math3d.V3(1, 2, 3)},
		{"quad", NewQuad("quad", 1, 2, Material{}), math3d.V3(-1, -2, 0), math3d.V3(1, 2, 0)},
		{"plane", NewPlane("plane", 4, 6, 1, Material{}), math3d.V3(-4, 0, -6), math3d.V3(4, 0, 6)},
		{"frame", NewFrame("frame", 1, 2, 0.5, 0.2, Material{}), math3d.V3(-1.5, -2.5, -0.1), math3d.V3(1.5, 2.5, 0.1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := tc.mesh.GetBounds()
			if !lo.ApproxEqual(tc.min, 1e-9) || !hi.ApproxEqual(tc.max, 1e-9) {
				t.Errorf("bounds = %v..%v, want %v..%v", lo, hi, tc.min, tc.max)
			}
		})
	}
}

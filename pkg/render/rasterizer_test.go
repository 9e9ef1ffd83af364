package render

import (
	"math"
	"testing"

	"github.com/taigrr/portals/pkg/math3d"
)

type mockVertex struct {
	pos    math3d.Vec3
	normal math3d.Vec3
	uv     math3d.Vec2
}

// mockMesh implements MeshRenderer for testing.
type mockMesh struct {
	vertices []mockVertex
	faces    [][3]int
}

func (m *mockMesh) VertexCount() int     { return len(m.vertices) }
func (m *mockMesh) TriangleCount() int   { return len(m.faces) }
func (m *mockMesh) GetFace(i int) [3]int { return m.faces[i] }
func (m *mockMesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.vertices[i]
	return v.pos, v.normal, v.uv
}

// boundedMock adds bounds so DrawMesh performs frustum culling.
type boundedMock struct {
	*mockMesh
	min, max math3d.Vec3
}

func (m boundedMock) GetBounds() (min, max math3d.Vec3) { return m.min, m.max }

// quadMesh returns a square in the XY plane at depth z, facing +Z.
func quadMesh(half, z float64) *mockMesh {
	n := math3d.V3(0, 0, 1)
	return &mockMesh{
		vertices: []mockVertex{
			{math3d.V3(-half, -half, z), n, math3d.V2(0, 0)},
			{math3d.V3(half, -half, z), n, math3d.V2(1, 0)},
			{math3d.V3(half, half, z), n, math3d.V2(1, 1)},
			{math3d.V3(-half, half, z), n, math3d.V2(0, 1)},
		},
		faces: [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}

// createTestRasterizer creates a rasterizer whose camera sits at z=10
// looking down -Z at the origin.
func createTestRasterizer(width, height int) (*Rasterizer, *Framebuffer) {
	fb := NewFramebuffer(width, height)
	camera := NewCamera()
	camera.SetLens(Lens{
		FOV:         math.Pi / 3,
		AspectRatio: float64(width) / float64(height),
		Near:        0.1,
		Far:         100,
	})
	camera.SetPosition(math3d.V3(0, 0, 10))
	rasterizer := NewRasterizer(camera, fb)
	rasterizer.Begin(ColorBlack)
	return rasterizer, fb
}

func countLit(fb *Framebuffer) int {
	n := 0
	for _, c := range fb.Pixels {
		if c.R > 0 || c.G > 0 || c.B > 0 {
			n++
		}
	}
	return n
}

func TestBarycentric(t *testing.T) {
	// Test barycentric coordinates at triangle vertices
	tests := []struct {
		name     string
		px, py   float64
		expected math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 1, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 1, math3d.V3(0, 0, 1)},
		{"centroid", 1.0 / 3, 1.0 / 3, math3d.V3(1.0/3, 1.0/3, 1.0/3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Triangle: (0,0), (1,0), (0,1)
			bc := barycentric(0, 0, 1, 0, 0, 1, tc.px, tc.py)

			if math.Abs(bc.X-tc.expected.X) > 0.001 ||
				math.Abs(bc.Y-tc.expected.Y) > 0.001 ||
				math.Abs(bc.Z-tc.expected.Z) > 0.001 {
				t.Errorf("barycentric(%v, %v) = %v, want %v", tc.px, tc.py, bc, tc.expected)
			}
		})
	}

	// Test point outside triangle
	t.Run("outside triangle", func(t *testing.T) {
		bc := barycentric(0, 0, 1, 0, 0, 1, -1, -1)
		if bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0 {
			t.Error("point outside triangle should have negative barycentric coordinate")
		}
	})
}

func TestMin3Max3(t *testing.T) {
	if min3(1, 2, 3) != 1 || min3(3, 1, 2) != 1 || min3(2, 3, 1) != 1 {
		t.Error("min3 failed")
	}
	if max3(1, 2, 3) != 3 || max3(3, 1, 2) != 3 || max3(2, 3, 1) != 3 {
		t.Error("max3 failed")
	}
}

func TestDrawTriangleWinding(t *testing.T) {
	ccw := Triangle{V: [3]Vertex{
		{Position: math3d.V3(-5, -5, 0), Color: ColorWhite},
		{Position: math3d.V3(5, -5, 0), Color: ColorWhite},
		{Position: math3d.V3(0, 5, 0), Color: ColorWhite},
	}}
	cw := Triangle{V: [3]Vertex{ccw.V[0], ccw.V[2], ccw.V[1]}}

	tests := []struct {
		name       string
		tri        Triangle
		doubleSide bool
		wantPixels bool
	}{
		{"counter-clockwise is front facing", ccw, false, true},
		{"clockwise is culled", cw, false, false},
		{"clockwise drawn when culling disabled", cw, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, fb := createTestRasterizer(100, 100)
			r.DisableBackfaceCulling = tc.doubleSide
			r.DrawTriangle(tc.tri)
			if got := countLit(fb) > 0; got != tc.wantPixels {
				t.Errorf("drew pixels = %v, want %v", got, tc.wantPixels)
			}
		})
	}
}

func TestDrawTriangleCrossingEye(t *testing.T) {
	r, fb := createTestRasterizer(100, 100)
	r.DisableBackfaceCulling = true

	// One vertex far behind the camera; without clipping this would
	// project to the wrong side of the screen.
	r.DrawTriangle(Triangle{V: [3]Vertex{
		{Position: math3d.V3(-2, -1, 0), Color: ColorRed},
		{Position: math3d.V3(2, -1, 0), Color: ColorRed},
		{Position: math3d.V3(0, -1, 30), Color: ColorRed},
	}})

	if countLit(fb) == 0 {
		t.Fatal("visible part of the triangle should be drawn")
	}
	for y := 0; y < fb.Height/2; y++ {
		for x := 0; x < fb.Width; x++ {
			if fb.GetPixel(x, y) != ColorBlack {
				t.Fatalf("pixel (%d, %d) above the horizon should be empty", x, y)
			}
		}
	}
}

func TestDepthTest(t *testing.T) {
	near := quadMesh(2, 2)
	far := quadMesh(4, -2)

	for _, order := range []string{"near first", "far first"} {
		t.Run(order, func(t *testing.T) {
			r, fb := createTestRasterizer(64, 64)
			if order == "near first" {
				r.DrawMesh(near, math3d.Identity(), DrawOptions{Color: ColorRed})
				r.DrawMesh(far, math3d.Identity(), DrawOptions{Color: ColorBlue})
			} else {
				r.DrawMesh(far, math3d.Identity(), DrawOptions{Color: ColorBlue})
				r.DrawMesh(near, math3d.Identity(), DrawOptions{Color: ColorRed})
			}
			if c := fb.GetPixel(32, 32); c != ColorRed {
				t.Errorf("center pixel = %v, want the nearer quad", c)
			}
			if r.Depth(32, 32) >= r.Depth(0, 0) {
				t.Error("center depth should be nearer than the empty corner")
			}
		})
	}
}

func TestDrawMeshLighting(t *testing.T) {
	tests := []struct {
		name     string
		lightDir math3d.Vec3
		want     uint8
	}{
		{"unlit keeps base color", math3d.Vec3{}, 200},
		{"facing the light is full brightness", math3d.V3(0, 0, 1), 200},
		{"light from behind is ambient only", math3d.V3(0, 0, -1), 60},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, fb := createTestRasterizer(32, 32)
			r.DrawMesh(quadMesh(3, 0), math3d.Identity(), DrawOptions{
				Color:    RGB(200, 200, 200),
				LightDir: tc.lightDir,
			})
			if c := fb.GetPixel(16, 16); c.R != tc.want {
				t.Errorf("center red = %d, want %d", c.R, tc.want)
			}
		})
	}
}

func TestDrawMeshSlice(t *testing.T) {
	r, fb := createTestRasterizer(100, 100)
	keepRight := math3d.V4(1, 0, 0, 0)

	r.DrawMesh(quadMesh(20, 0), math3d.Identity(), DrawOptions{Color: ColorGreen, Slice: &keepRight})

	if c := fb.GetPixel(10, 50); c != ColorBlack {
		t.Errorf("left side should be sliced away, got %v", c)
	}
	if c := fb.GetPixel(90, 50); c != ColorGreen {
		t.Errorf("right side should be drawn, got %v", c)
	}
}

func TestDrawMeshTextured(t *testing.T) {
	r, fb := createTestRasterizer(64, 64)
	tex := NewCheckerTexture(2, 2, 1, ColorRed, ColorBlue)

	r.DrawMesh(quadMesh(20, 0), math3d.Identity(), DrawOptions{Mode: ShadeTexture, Texture: tex})

	if countLit(fb) != fb.Width*fb.Height {
		t.Fatal("quad should cover the whole screen")
	}
	seen := map[Color]bool{}
	for _, c := range fb.Pixels {
		seen[c] = true
	}
	if !seen[ColorRed] || !seen[ColorBlue] {
		t.Errorf("expected both checker colors, saw %v", seen)
	}
}

func TestDrawMeshScreenMapped(t *testing.T) {
	r, fb := createTestRasterizer(100, 100)
	tex := NewTexture(2, 1)
	tex.WrapU, tex.WrapV = WrapClamp, WrapClamp
	tex.SetPixel(0, 0, ColorRed)
	tex.SetPixel(1, 0, ColorBlue)

	// A small quad still samples by screen position, not by its UVs.
	r.DrawMesh(quadMesh(5, 0), math3d.Identity(), DrawOptions{Mode: ShadeScreen, Texture: tex})

	if c := fb.GetPixel(40, 50); c != ColorRed {
		t.Errorf("left of center = %v, want red", c)
	}
	if c := fb.GetPixel(60, 50); c != ColorBlue {
		t.Errorf("right of center = %v, want blue", c)
	}
	if c := fb.GetPixel(0, 50); c != ColorBlack {
		t.Errorf("outside the quad = %v, want clear color", c)
	}
}

func TestNearPlaneClipsGeometry(t *testing.T) {
	r, fb := createTestRasterizer(64, 64)
	cam := r.Camera()
	cam.SetProjectionMatrix(Lens{FOV: cam.FOV, AspectRatio: cam.AspectRatio, Near: 5, Far: 100}.Matrix())
	r.Begin(ColorBlack)

	r.DrawMesh(quadMesh(1, 8), math3d.Identity(), DrawOptions{Color: ColorRed})
	if n := countLit(fb); n != 0 {
		t.Errorf("quad in front of the near plane drew %d pixels", n)
	}

	r.DrawMesh(quadMesh(1, 0), math3d.Identity(), DrawOptions{Color: ColorRed})
	if countLit(fb) == 0 {
		t.Error("quad past the near plane should be drawn")
	}
}

func TestDrawMeshFrustumCulling(t *testing.T) {
	r, _ := createTestRasterizer(64, 64)

	visible := boundedMock{quadMesh(1, 0), math3d.V3(-1, -1, 0), math3d.V3(1, 1, 0)}
	if !r.DrawMesh(visible, math3d.Identity(), DrawOptions{Color: ColorRed}) {
		t.Error("visible mesh reported culled")
	}
	if r.DrawMesh(visible, math3d.Translate(math3d.V3(0, 0, 50)), DrawOptions{Color: ColorRed}) {
		t.Error("mesh behind the camera should be culled")
	}

	want := CullingStats{MeshesTested: 2, MeshesCulled: 1, MeshesDrawn: 1, TrianglesDrawn: 2}
	if r.CullingStats != want {
		t.Errorf("stats = %+v, want %+v", r.CullingStats, want)
	}
}

func TestDrawMeshCulled(t *testing.T) {
	r, fb := createTestRasterizer(64, 64)
	bounds := NewAABB(math3d.V3(-1, -1, 0), math3d.V3(1, 1, 0))

	if r.DrawMeshCulled(quadMesh(1, 0), math3d.Translate(math3d.V3(100, 0, 0)), bounds, DrawOptions{Color: ColorRed}) {
		t.Error("off-screen mesh should be culled")
	}
	if !r.DrawMeshCulled(quadMesh(1, 0), math3d.Identity(), bounds, DrawOptions{Color: ColorRed}) {
		t.Error("on-screen mesh should be drawn")
	}
	if countLit(fb) == 0 {
		t.Error("expected pixels from the drawn mesh")
	}
	if r.CullingStats.MeshesTested != 2 {
		t.Errorf("MeshesTested = %d, want 2", r.CullingStats.MeshesTested)
	}
}

func TestSlicePoly(t *testing.T) {
	square := []math3d.Vec3{
		math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0),
	}

	tests := []struct {
		name  string
		plane math3d.Vec4
		count int
	}{
		{"all kept", math3d.V4(1, 0, 0, 5), 4},
		{"all removed", math3d.V4(1, 0, 0, -5), 0},
		{"halved", math3d.V4(1, 0, 0, 0), 4},
		{"corner cut", math3d.V4(1, 1, 0, -1).Scale(1 / math.Sqrt2), 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := SlicePoly(square, tc.plane)
			if len(out) != tc.count {
				t.Fatalf("got %d vertices, want %d", len(out), tc.count)
			}
			for _, p := range out {
				if tc.plane.DistanceToPoint(p) < -1e-9 {
					t.Errorf("vertex %v is behind the plane", p)
				}
			}
		})
	}
}

func TestClipLine(t *testing.T) {
	tests := []struct {
		name string
		a, b math3d.Vec4
		ok   bool
	}{
		{"inside", math3d.V4(0, 0, 0, 1), math3d.V4(0.5, 0.5, 0.5, 1), true},
		{"crosses eye", math3d.V4(0, 0, 0, 1), math3d.V4(0, 0, 0, -1), true},
		{"behind eye", math3d.V4(0, 0, 0, -1), math3d.V4(0, 0, 0, -2), false},
		{"left of view", math3d.V4(-3, 0, 0, 1), math3d.V4(-2, 0, 0, 1), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, b, ok := clipLine(tc.a, tc.b)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && (a.W <= 0 || b.W <= 0) {
				t.Errorf("clipped endpoints must be in front of the eye: %v %v", a, b)
			}
		})
	}
}

func TestRasterizerClearDepth(t *testing.T) {
	r, _ := createTestRasterizer(10, 10)

	r.DrawMesh(quadMesh(20, 0), math3d.Identity(), DrawOptions{Color: ColorRed})
	if r.Depth(5, 5) == math.MaxFloat64 {
		t.Fatal("drawing should write depth")
	}

	r.ClearDepth()
	if r.Depth(5, 5) != math.MaxFloat64 {
		t.Error("ClearDepth should reset to MaxFloat64")
	}
	if r.Depth(-1, 0) != math.MaxFloat64 || r.Depth(100, 0) != math.MaxFloat64 {
		t.Error("out of bounds Depth should return MaxFloat64")
	}
}

func BenchmarkDrawTriangle(b *testing.B) {
	r, _ := createTestRasterizer(200, 200)

	tri := Triangle{
		V: [3]Vertex{
			{Position: math3d.V3(-5, -5, 0), Color: RGB(255, 100, 50)},
			{Position: math3d.V3(5, -5, 0), Color: RGB(50, 255, 100)},
			{Position: math3d.V3(0, 5, 0), Color: RGB(100, 50, 255)},
		},
	}

	for b.Loop() {
		r.ClearDepth()
		r.DrawTriangle(tri)
	}
}

func BenchmarkDrawMeshSliced(b *testing.B) {
	r, _ := createTestRasterizer(200, 200)
	mesh := quadMesh(4, 0)
	slice := math3d.V4(1, 1, 0, 0).Scale(1 / math.Sqrt2)
	opts := DrawOptions{Color: ColorWhite, LightDir: math3d.V3(0, 0, 1), Slice: &slice}

	for b.Loop() {
		r.ClearDepth()
		r.DrawMesh(mesh, math3d.Identity(), opts)
	}
}

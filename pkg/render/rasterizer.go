// Package render provides software rasterization for the portal renderer.
package render

import (
	"math"

	"github.com/taigrr/portals/pkg/math3d"
)

// Vertex represents a vertex with all attributes needed for rasterization.
type Vertex struct {
	Position math3d.Vec3 // World position
	Normal   math3d.Vec3 // Normal vector (for lighting)
	UV       math3d.Vec2 // Texture coordinates
	Color    Color       // Vertex color
}

// Triangle represents a triangle to be rasterized.
type Triangle struct {
	V [3]Vertex
}

// ShadeMode selects where a triangle's fragment color comes from.
type ShadeMode int

const (
	ShadeColor   ShadeMode = iota // Interpolated vertex color
	ShadeTexture                  // Texture sampled at the vertex UVs, modulated by lighting
	ShadeScreen                   // Texture sampled at the fragment's screen position
)

// DrawOptions controls how a mesh or triangle is shaded.
type DrawOptions struct {
	Mode     ShadeMode
	Color    Color
	Texture  *Texture
	LightDir math3d.Vec3 // Direction towards the light; zero disables lighting

	// Slice, when set, discards everything on the negative side of this
	// world-space plane.
	Slice *math3d.Vec4
}

// Rasterizer handles software triangle rasterization.
type Rasterizer struct {
	camera                 *Camera
	fb                     *Framebuffer
	zbuffer                []float64    // Depth buffer (1D array, row-major)
	frustum                Frustum      // Cached frustum planes
	frustumDirty           bool         // Whether frustum needs recalculation
	CullingStats           CullingStats // Statistics for debugging/benchmarking
	DisableBackfaceCulling bool         // If true, render both sides of triangles

	polyA, polyB []clipVertex // scratch buffers for clipping
}

// CullingStats tracks frustum culling performance.
type CullingStats struct {
	MeshesTested   int // Total meshes tested for culling
	MeshesCulled   int // Meshes culled (not rendered)
	MeshesDrawn    int // Meshes that passed culling
	TrianglesDrawn int // Triangles that survived clipping and backface culling
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera:       camera,
		fb:           fb,
		frustumDirty: true,
	}
	r.Resize()
	return r
}

// Camera returns the camera the rasterizer projects through.
func (r *Rasterizer) Camera() *Camera {
	return r.camera
}

// Framebuffer returns the color target.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// Resize resizes the rasterizer's buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer.
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// Begin starts a frame: clears color and depth, refreshes the frustum from
// the camera and resets the culling statistics.
func (r *Rasterizer) Begin(clear Color) {
	if r.fb != nil {
		r.fb.Clear(clear)
	}
	r.ClearDepth()
	r.InvalidateFrustum()
	r.ResetCullingStats()
}

// InvalidateFrustum marks the frustum as needing recalculation.
// Call this when the camera moves, rotates or changes projection.
func (r *Rasterizer) InvalidateFrustum() {
	r.frustumDirty = true
}

// UpdateFrustum recalculates the frustum planes from the camera.
func (r *Rasterizer) UpdateFrustum() {
	if r.frustumDirty {
		r.frustum = r.camera.GetFrustum()
		r.frustumDirty = false
	}
}

// GetFrustum returns the current frustum (updating if needed).
func (r *Rasterizer) GetFrustum() Frustum {
	r.UpdateFrustum()
	return r.frustum
}

// ResetCullingStats resets the culling statistics (call once per frame).
func (r *Rasterizer) ResetCullingStats() {
	r.CullingStats = CullingStats{}
}

// IsVisible tests if a world-space AABB is visible in the frustum.
func (r *Rasterizer) IsVisible(worldBounds AABB) bool {
	r.UpdateFrustum()
	return r.frustum.IntersectAABB(worldBounds)
}

// IsVisibleTransformed tests if a local-space AABB is visible after transformation.
func (r *Rasterizer) IsVisibleTransformed(localBounds AABB, transform math3d.Mat4) bool {
	return r.IsVisible(localBounds.Transform(transform))
}

// Depth returns the stored depth at (x, y), MaxFloat64 where nothing was drawn.
func (r *Rasterizer) Depth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y  float64 // Screen coordinates
	Z     float64 // NDC depth
	InvW  float64 // 1/w for perspective-correct interpolation
	Color [4]float64
	UV    math3d.Vec2
}

// DrawTriangle rasterizes a single triangle with per-vertex colors.
func (r *Rasterizer) DrawTriangle(tri Triangle) {
	var poly [3]clipVertex
	viewProj := r.camera.ViewProjectionMatrix()
	for i, v := range tri.V {
		poly[i] = clipVertex{
			world: v.Position,
			clip:  viewProj.MulVec4(math3d.V4FromV3(v.Position, 1)),
			color: colorVec(v.Color),
			uv:    v.UV,
		}
	}
	r.drawClipped(poly, DrawOptions{Mode: ShadeColor})
}

// DrawTriangleOpts rasterizes a triangle with explicit shading options.
// Vertex colors are ignored in favour of opts.Color.
func (r *Rasterizer) DrawTriangleOpts(tri Triangle, opts DrawOptions) {
	var poly [3]clipVertex
	viewProj := r.camera.ViewProjectionMatrix()
	base := colorVec(opts.Color)
	light := opts.LightDir.Normalize()
	lit := opts.LightDir.LenSq() > 0
	for i, v := range tri.V {
		c := base
		if lit {
			c = shade(base, v.Normal, light)
		}
		poly[i] = clipVertex{
			world: v.Position,
			clip:  viewProj.MulVec4(math3d.V4FromV3(v.Position, 1)),
			color: c,
			uv:    v.UV,
		}
	}
	r.drawClipped(poly, opts)
}

// drawClipped clips a clip-space triangle against the eye, the (possibly
// oblique) near plane and the optional slice plane, then rasterizes the
// resulting convex polygon as a fan.
func (r *Rasterizer) drawClipped(tri [3]clipVertex, opts DrawOptions) {
	if r.fb == nil {
		return
	}

	// Trivial reject: every vertex outside the same clip plane.
	if allOutside(tri, func(c math3d.Vec4) bool { return c.X < -c.W }) ||
		allOutside(tri, func(c math3d.Vec4) bool { return c.X > c.W }) ||
		allOutside(tri, func(c math3d.Vec4) bool { return c.Y < -c.W }) ||
		allOutside(tri, func(c math3d.Vec4) bool { return c.Y > c.W }) {
		return
	}

	poly := append(r.polyA[:0], tri[:]...)
	poly, r.polyB = clipPolygon(r.polyB, poly, eyeDistance), poly
	poly, r.polyB = clipPolygon(r.polyB, poly, nearDistance), poly
	if opts.Slice != nil {
		plane := *opts.Slice
		poly, r.polyB = clipPolygon(r.polyB, poly, func(v clipVertex) float64 {
			return plane.DistanceToPoint(v.world)
		}), poly
	}
	r.polyA = poly
	if len(poly) < 3 {
		return
	}

	w, h := float64(r.Width()), float64(r.Height())
	sv := make([]screenVertex, len(poly))
	for i, v := range poly {
		invW := 1 / v.clip.W
		sv[i] = screenVertex{
			X:    (v.clip.X*invW + 1) * 0.5 * w,
			Y:    (1 - v.clip.Y*invW) * 0.5 * h, // Y flipped
			Z:    v.clip.Z * invW,
			InvW: invW,
			UV:   v.uv.Scale(invW),
		}
		for c := range v.color {
			sv[i].Color[c] = v.color[c] * invW
		}
	}

	// Backface culling on the whole polygon. Front faces wind
	// counter-clockwise in NDC, which is clockwise once Y is flipped.
	if !r.DisableBackfaceCulling && polygonArea(sv) > 0 {
		return
	}

	r.CullingStats.TrianglesDrawn++
	for i := 1; i+1 < len(sv); i++ {
		r.rasterize(sv[0], sv[i], sv[i+1], opts)
	}
}

func allOutside(tri [3]clipVertex, outside func(math3d.Vec4) bool) bool {
	return outside(tri[0].clip) && outside(tri[1].clip) && outside(tri[2].clip)
}

// polygonArea returns twice the signed screen-space area.
func polygonArea(sv []screenVertex) float64 {
	var a float64
	for i := range sv {
		j := (i + 1) % len(sv)
		a += sv[i].X*sv[j].Y - sv[j].X*sv[i].Y
	}
	return a
}

// rasterize fills one screen-space triangle.
func (r *Rasterizer) rasterize(s0, s1, s2 screenVertex, opts DrawOptions) {
	minX := int(math.Max(0, math.Floor(min3(s0.X, s1.X, s2.X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(s0.X, s1.X, s2.X))))
	minY := int(math.Max(0, math.Floor(min3(s0.Y, s1.Y, s2.Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(s0.Y, s1.Y, s2.Y))))

	area := (s1.X-s0.X)*(s2.Y-s0.Y) - (s1.Y-s0.Y)*(s2.X-s0.X)
	if area == 0 {
		return
	}

	width := r.Width()
	fw, fh := float64(r.Width()), float64(r.Height())

	// Rasterize using barycentric coordinates
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			bc := barycentric(s0.X, s0.Y, s1.X, s1.Y, s2.X, s2.Y, px, py)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			// NDC depth is affine in screen space
			z := bc.X*s0.Z + bc.Y*s1.Z + bc.Z*s2.Z
			idx := y*width + x
			if z >= r.zbuffer[idx] {
				continue
			}

			invW := bc.X*s0.InvW + bc.Y*s1.InvW + bc.Z*s2.InvW
			if invW <= 0 {
				continue
			}
			wCorr := 1 / invW

			var rgba [4]float64
			for c := range rgba {
				rgba[c] = (bc.X*s0.Color[c] + bc.Y*s1.Color[c] + bc.Z*s2.Color[c]) * wCorr
			}

			var out Color
			switch {
			case opts.Mode == ShadeTexture && opts.Texture != nil:
				u := (bc.X*s0.UV.X + bc.Y*s1.UV.X + bc.Z*s2.UV.X) * wCorr
				v := (bc.X*s0.UV.Y + bc.Y*s1.UV.Y + bc.Z*s2.UV.Y) * wCorr
				out = ModulateColor(opts.Texture.Sample(u, v), vecColor(rgba))
			case opts.Mode == ShadeScreen && opts.Texture != nil:
				out = opts.Texture.Sample(px/fw, 1-py/fh)
			default:
				out = vecColor(rgba)
			}

			r.zbuffer[idx] = z
			r.fb.Pixels[idx] = out
		}
	}
}

// barycentric calculates barycentric coordinates for point (px, py) in triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}

func colorVec(c Color) [4]float64 {
	return [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A)}
}

func vecColor(v [4]float64) Color {
	return Color{R: clampByte(v[0]), G: clampByte(v[1]), B: clampByte(v[2]), A: clampByte(v[3])}
}

func clampByte(f float64) uint8 {
	switch {
	case f <= 0:
		return 0
	case f >= 255:
		return 255
	}
	return uint8(f + 0.5)
}

// shade applies ambient plus diffuse lighting to a base color.
func shade(base [4]float64, normal, light math3d.Vec3) [4]float64 {
	intensity := math.Max(0, normal.Normalize().Dot(light))
	intensity = 0.3 + 0.7*intensity // Ambient + diffuse
	return [4]float64{base[0] * intensity, base[1] * intensity, base[2] * intensity, base[3]}
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// MeshRenderer is implemented by models.Mesh.
// This interface allows drawing meshes without importing the models package.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer extends MeshRenderer with bounding box support for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// tryFrustumCull attempts to cull a mesh using its bounds if available.
// Returns true if the mesh should be culled (not visible).
func (r *Rasterizer) tryFrustumCull(mesh MeshRenderer, transform math3d.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		return false
	}

	r.CullingStats.MeshesTested++

	minBounds, maxBounds := bounded.GetBounds()
	if !r.IsVisibleTransformed(NewAABB(minBounds, maxBounds), transform) {
		r.CullingStats.MeshesCulled++
		return true
	}

	r.CullingStats.MeshesDrawn++
	return false
}

// DrawMesh renders a mesh with Gouraud lighting (or flat color when
// opts.LightDir is zero). Performs frustum culling if the mesh provides bounds.
// Reports whether the mesh survived culling.
func (r *Rasterizer) DrawMesh(mesh MeshRenderer, transform math3d.Mat4, opts DrawOptions) bool {
	if r.tryFrustumCull(mesh, transform) {
		return false
	}

	viewProj := r.camera.ViewProjectionMatrix()
	mvp := viewProj.Mul(transform)
	base := colorVec(opts.Color)
	if opts.Mode != ShadeColor && opts.Color == (Color{}) {
		base = colorVec(ColorWhite)
	}
	light := opts.LightDir.Normalize()
	lit := opts.LightDir.LenSq() > 0 && opts.Mode != ShadeScreen

	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)
		var tri [3]clipVertex
		for k, vi := range face {
			pos, normal, uv := mesh.GetVertex(vi)
			c := base
			if lit {
				c = shade(base, transform.MulVec3Dir(normal), light)
			}
			tri[k] = clipVertex{
				world: transform.MulVec3(pos),
				clip:  mvp.MulVec4(math3d.V4FromV3(pos, 1)),
				color: c,
				uv:    uv,
			}
		}
		r.drawClipped(tri, opts)
	}
	return true
}

// DrawMeshCulled renders a mesh using explicit local bounds for culling.
// Returns true if the mesh was drawn, false if culled.
func (r *Rasterizer) DrawMeshCulled(mesh MeshRenderer, transform math3d.Mat4, localBounds AABB, opts DrawOptions) bool {
	r.CullingStats.MeshesTested++
	if !r.IsVisibleTransformed(localBounds, transform) {
		r.CullingStats.MeshesCulled++
		return false
	}
	r.CullingStats.MeshesDrawn++
	return r.DrawMesh(unboundedMesh{mesh}, transform, opts)
}

// unboundedMesh hides GetBounds so culling is not repeated.
type unboundedMesh struct {
	MeshRenderer
}

// DrawMeshWireframe renders a mesh as wireframe.
// Automatically performs frustum culling if the mesh provides bounds.
func (r *Rasterizer) DrawMeshWireframe(mesh MeshRenderer, transform math3d.Mat4, color Color) {
	if r.tryFrustumCull(mesh, transform) {
		return
	}

	for i := 0; i < mesh.TriangleCount(); i++ {
		face := mesh.GetFace(i)

		p0, _, _ := mesh.GetVertex(face[0])
		p1, _, _ := mesh.GetVertex(face[1])
		p2, _, _ := mesh.GetVertex(face[2])

		v0 := transform.MulVec3(p0)
		v1 := transform.MulVec3(p1)
		v2 := transform.MulVec3(p2)

		r.DrawLine3D(v0, v1, color)
		r.DrawLine3D(v1, v2, color)
		r.DrawLine3D(v2, v0, color)
	}
}

// DrawLine3D draws a world-space line clipped to the view volume, so
// segments passing behind the camera do not wrap around the screen.
func (r *Rasterizer) DrawLine3D(a, b math3d.Vec3, color Color) {
	if r.fb == nil {
		return
	}
	viewProj := r.camera.ViewProjectionMatrix()

	clipA, clipB, ok := clipLine(
		viewProj.MulVec4(math3d.V4FromV3(a, 1)),
		viewProj.MulVec4(math3d.V4FromV3(b, 1)),
	)
	if !ok {
		return
	}

	w, h := float64(r.Width()), float64(r.Height())
	x0 := int((clipA.X/clipA.W + 1) * 0.5 * w)
	y0 := int((1 - clipA.Y/clipA.W) * 0.5 * h)
	x1 := int((clipB.X/clipB.W + 1) * 0.5 * w)
	y1 := int((1 - clipB.Y/clipB.W) * 0.5 * h)

	r.fb.DrawLine(x0, y0, x1, y1, color)
}

// clipLine clips a clip-space segment against the side planes, the near
// plane and the eye (Liang-Barsky).
func clipLine(a, b math3d.Vec4) (math3d.Vec4, math3d.Vec4, bool) {
	t0, t1 := 0.0, 1.0
	dist := func(v math3d.Vec4) [6]float64 {
		return [6]float64{v.W + v.X, v.W - v.X, v.W + v.Y, v.W - v.Y, v.W + v.Z, v.W - minClipW}
	}
	da, db := dist(a), dist(b)
	for i := range da {
		switch {
		case da[i] < 0 && db[i] < 0:
			return a, b, false
		case da[i] < 0:
			t0 = math.Max(t0, da[i]/(da[i]-db[i]))
		case db[i] < 0:
			t1 = math.Min(t1, da[i]/(da[i]-db[i]))
		}
	}
	if t0 > t1 {
		return a, b, false
	}
	return a.Lerp(b, t0), a.Lerp(b, t1), true
}

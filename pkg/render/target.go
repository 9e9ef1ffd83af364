package render

import "math"

// RenderTarget is an off-screen color and depth buffer that is resolved
// into a texture at output resolution. Portal views render into one target
// each and the resolved texture is then sampled in screen space.
type RenderTarget struct {
	camera *Camera
	fb     *Framebuffer
	raster *Rasterizer
	tex    *Texture

	scale      float64
	outW, outH int
}

// NewRenderTarget creates a target that renders through camera at scale
// times the output size. scale is clamped to (0, 1].
func NewRenderTarget(camera *Camera, width, height int, scale float64) *RenderTarget {
	t := &RenderTarget{camera: camera, scale: clampScale(scale)}
	t.Resize(width, height)
	return t
}

func clampScale(s float64) float64 {
	if s <= 0 || s > 1 {
		return 1
	}
	return s
}

// Resize reallocates the target for a new output size.
func (t *RenderTarget) Resize(width, height int) {
	if width == t.outW && height == t.outH && t.fb != nil {
		return
	}
	t.outW, t.outH = width, height
	iw := max(1, int(math.Ceil(float64(width)*t.scale)))
	ih := max(1, int(math.Ceil(float64(height)*t.scale)))

	t.fb = NewFramebuffer(iw, ih)
	t.raster = NewRasterizer(t.camera, t.fb)
	t.tex = NewTexture(width, height)
	t.tex.WrapU, t.tex.WrapV = WrapClamp, WrapClamp
}

// Camera returns the camera the target renders through.
func (t *RenderTarget) Camera() *Camera {
	return t.camera
}

// Rasterizer returns the rasterizer drawing into the target.
func (t *RenderTarget) Rasterizer() *Rasterizer {
	return t.raster
}

// Framebuffer returns the internal color buffer.
func (t *RenderTarget) Framebuffer() *Framebuffer {
	return t.fb
}

// Texture returns the most recently resolved texture.
func (t *RenderTarget) Texture() *Texture {
	return t.tex
}

// Resolve copies the internal buffer into the output texture, scaling it
// up when the target renders at reduced resolution.
func (t *RenderTarget) Resolve() *Texture {
	t.tex.CopyFrom(t.fb)
	return t.tex
}

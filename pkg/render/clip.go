package render

import "github.com/taigrr/portals/pkg/math3d"

// minClipW keeps clipped vertices strictly in front of the eye so the
// perspective divide stays finite even when an oblique near plane reaches
// behind the camera.
const minClipW = 1e-6

// clipVertex carries everything interpolated across a triangle.
type clipVertex struct {
	world math3d.Vec3 // world position (for slicing)
	clip  math3d.Vec4 // clip-space position
	color [4]float64  // lit vertex color, 0-255 per channel
	uv    math3d.Vec2
}

func lerpClipVertex(a, b clipVertex, t float64) clipVertex {
	var c [4]float64
	for i := range c {
		c[i] = a.color[i] + (b.color[i]-a.color[i])*t
	}
	return clipVertex{
		world: a.world.Lerp(b.world, t),
		clip:  a.clip.Lerp(b.clip, t),
		color: c,
		uv:    a.uv.Lerp(b.uv, t),
	}
}

// clipPolygon keeps the part of poly where dist >= 0 (Sutherland-Hodgman).
// dst is reused as the output buffer.
func clipPolygon(dst, poly []clipVertex, dist func(clipVertex) float64) []clipVertex {
	dst = dst[:0]
	n := len(poly)
	if n == 0 {
		return dst
	}
	prev := poly[n-1]
	prevD := dist(prev)
	for _, cur := range poly {
		curD := dist(cur)
		if curD >= 0 {
			if prevD < 0 {
				dst = append(dst, lerpClipVertex(prev, cur, prevD/(prevD-curD)))
			}
			dst = append(dst, cur)
		} else if prevD >= 0 {
			dst = append(dst, lerpClipVertex(prev, cur, prevD/(prevD-curD)))
		}
		prev, prevD = cur, curD
	}
	return dst
}

// nearDistance is positive on the visible side of the projection's near
// plane. For an oblique projection this is the portal exit plane.
func nearDistance(v clipVertex) float64 {
	return v.clip.Z + v.clip.W
}

func eyeDistance(v clipVertex) float64 {
	return v.clip.W - minClipW
}

// SlicePoly clips a world-space polygon against plane, keeping the positive
// side. Exposed for tests and for callers that need the sliced outline.
func SlicePoly(poly []math3d.Vec3, plane math3d.Vec4) []math3d.Vec3 {
	in := make([]clipVertex, len(poly))
	for i, p := range poly {
		in[i] = clipVertex{world: p}
	}
	out := clipPolygon(nil, in, func(v clipVertex) float64 { return plane.DistanceToPoint(v.world) })
	res := make([]math3d.Vec3, len(out))
	for i, v := range out {
		res[i] = v.world
	}
	return res
}

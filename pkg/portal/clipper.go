package portal

import (
	"math"

	"github.com/taigrr/portals/pkg/math3d"
)

// ObliqueProjection replaces the near clip plane of proj with the plane
// through planePoint with normal planeNormal (both in world space), using
// Lengyel's oblique frustum method. The normal must point away from the
// camera. offset is added to the camera-space plane distance.
//
// When the camera is closer to the plane than threshold, or the plane does
// not cut the view volume, proj is returned unchanged with false.
func ObliqueProjection(proj, view math3d.Mat4, planePoint, planeNormal math3d.Vec3, threshold, offset float64) (math3d.Mat4, bool) {
	p := view.MulVec3(planePoint)
	n := view.MulVec3Dir(planeNormal).Normalize()
	d := -n.Dot(p) + offset
	if math.Abs(d) < threshold {
		return proj, false
	}

	// camera-space plane; the camera (origin) sits at d < 0
	c := math3d.V4(n.X, n.Y, n.Z, d)
	if d > 0 {
		c = c.Scale(-1)
	}

	inv := proj.Inverse()
	// corner of the view volume opposite the plane
	clip := inv.Transpose().MulVec4(c)
	q := inv.MulVec4(math3d.V4(math3d.Sign(clip.X), math3d.Sign(clip.Y), 1, 1))

	dot := c.Dot(q)
	if dot <= 1e-12 {
		return proj, false
	}
	c = c.Scale(2 / dot)

	m := proj
	m.SetRow(2, c.Sub(proj.Row(3)))
	return m, true
}

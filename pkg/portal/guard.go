package portal

import (
	"math"

	"github.com/taigrr/portals/pkg/math3d"
	"github.com/taigrr/portals/pkg/render"
)

// Slab is the portal screen volume along the surface's forward axis.
// Depth is its full thickness and Offset the position of its centre, both
// in world units.
type Slab struct {
	Depth  float64
	Offset float64
}

// NearClipDiagonal returns the distance from the eye to a corner of the
// near clip rectangle.
func NearClipDiagonal(l render.Lens) float64 {
	hw, hh := l.NearHalfExtents()
	return math.Sqrt(hw*hw + hh*hh + l.Near*l.Near)
}

// GuardSlab sizes the slab so the viewer's near plane never cuts through
// the screen while the viewer passes the surface. The face toward the
// viewer stays on the portal plane and the slab extends away from it.
func GuardSlab(l render.Lens, portal math3d.Pose, viewer math3d.Vec3, margin float64) Slab {
	half := NearClipDiagonal(l) + margin
	forward := portal.TransformDir(math3d.Back())
	side := math3d.Sign(forward.Dot(viewer.Sub(portal.Position)))
	return Slab{Depth: 2 * half, Offset: -side * half}
}

// Transform returns the world matrix of the unit slab box (-0.5..0.5 on
// each axis) for s.
func (sl Slab) Transform(s *Surface) math3d.Mat4 {
	return s.pose.Matrix().
		Mul(math3d.Translate(math3d.V3(0, 0, sl.Offset))).
		Mul(math3d.Scale(math3d.V3(s.Width, s.Height, sl.Depth)))
}

// Package portal renders linked planar windows into each other and moves
// entities through them with position, orientation and momentum intact.
//
// A Surface owns a virtual camera and render target. Each frame, before the
// viewer draws, World.BeginCamera runs its pre-render callbacks in order; the
// Driver callback places every visible surface's camera at the viewer pose
// mapped through the surface pair, clips it against the exit plane and draws
// the scene into the surface's target. The viewer then samples that target in
// screen space when it draws the surface's slab.
package portal

import (
	"errors"
	"math"

	"github.com/taigrr/portals/pkg/math3d"
	"github.com/taigrr/portals/pkg/render"
)

// ErrSelfLink is returned when a surface is linked to itself.
var ErrSelfLink = errors.New("portal: surface cannot link to itself")

// Defaults for new surfaces.
const (
	DefaultSlabMargin  = 0.1
	DefaultTargetScale = 1.0
)

// Default render target size used until the surface is resized to the
// viewer's output.
var (
	DefaultTargetWidth  = 160
	DefaultTargetHeight = 90
)

// View describes one scene draw.
type View struct {
	Camera *render.Camera
	// Through is the surface whose target is being drawn, nil for the
	// viewer's own pass.
	Through *Surface
}

// SceneDrawer draws the scene through a rasterizer. The rasterizer has
// already been cleared.
type SceneDrawer interface {
	DrawScene(r *render.Rasterizer, v View)
}

// Surface is one planar portal. Its forward direction is local +Z.
type Surface struct {
	Name          string
	Width, Height float64

	// ClipOffset is added to the exit plane's camera-space distance.
	ClipOffset float64
	// ClipThreshold is the minimum plane distance for oblique clipping;
	// zero means the viewer's near distance.
	ClipThreshold float64
	// SlabMargin is added to the slab's half thickness.
	SlabMargin float64
	// ClearColor fills the target before the scene is drawn.
	ClearColor render.Color

	pose   math3d.Pose
	link   *Surface
	camera *render.Camera
	target *render.RenderTarget
	slab   Slab
	scale  float64

	records  []*TraversalRecord
	previews map[int]Preview
}

// NewSurface creates an unlinked surface of the given size.
func NewSurface(name string, pose math3d.Pose, width, height float64) *Surface {
	s := &Surface{
		Name:       name,
		Width:      width,
		Height:     height,
		SlabMargin: DefaultSlabMargin,
		ClearColor: render.ColorBlack,
		pose:       pose,
		camera:     render.NewCamera(),
		scale:      DefaultTargetScale,
		previews:   make(map[int]Preview),
	}
	s.slab = Slab{Depth: 2 * s.SlabMargin, Offset: -s.SlabMargin}
	return s
}

// Pose returns the surface's world pose.
func (s *Surface) Pose() math3d.Pose {
	return s.pose
}

// SetPose moves the surface.
func (s *Surface) SetPose(p math3d.Pose) {
	s.pose = p
}

// Forward returns the world direction of local +Z.
func (s *Surface) Forward() math3d.Vec3 {
	return s.pose.TransformDir(math3d.Back())
}

// Linked returns the partner surface, or nil.
func (s *Surface) Linked() *Surface {
	return s.link
}

// IsActive reports whether the surface has a partner.
func (s *Surface) IsActive() bool {
	return s.link != nil
}

// Camera returns the surface's virtual camera.
func (s *Surface) Camera() *render.Camera {
	return s.camera
}

// Target returns the render target, or nil before the first render or resize.
func (s *Surface) Target() *render.RenderTarget {
	return s.target
}

// Slab returns the slab computed by the last guard pass.
func (s *Surface) Slab() Slab {
	return s.slab
}

// Link connects s and other in both directions. Previous partners lose
// their back-reference. Link(nil) is the same as Unlink.
func (s *Surface) Link(other *Surface) error {
	if other == nil {
		s.Unlink()
		return nil
	}
	if other == s {
		return ErrSelfLink
	}
	s.Unlink()
	other.Unlink()
	s.link = other
	other.link = s
	Logger().Debug("portal linked", "surface", s.Name, "link", other.Name)
	return nil
}

// LinkOneWay points s at other without touching other's link.
func (s *Surface) LinkOneWay(other *Surface) error {
	if other == s {
		return ErrSelfLink
	}
	if other == nil {
		s.Unlink()
		return nil
	}
	if s.link != nil && s.link != other && s.link.link == s {
		s.link.link = nil
	}
	s.link = other
	Logger().Debug("portal linked one way", "surface", s.Name, "link", other.Name)
	return nil
}

// Unlink clears s's link and the partner's link if it points back at s.
func (s *Surface) Unlink() {
	if s.link == nil {
		return
	}
	if s.link.link == s {
		s.link.link = nil
	}
	Logger().Debug("portal unlinked", "surface", s.Name, "link", s.link.Name)
	s.link = nil
}

// Map takes a world pose on this surface's side to the matching pose at
// the linked surface: link ∘ this⁻¹ ∘ p. Inactive surfaces return p.
func (s *Surface) Map(p math3d.Pose) math3d.Pose {
	if s.link == nil {
		return p
	}
	return s.link.pose.Mul(s.pose.Inverse()).Mul(p)
}

// MapDir rotates a world direction from this surface's frame to the linked one.
func (s *Surface) MapDir(v math3d.Vec3) math3d.Vec3 {
	if s.link == nil {
		return v
	}
	return s.link.pose.Rotation.Mul(s.pose.Rotation.Inverse()).Rotate(v)
}

// SignedDistance returns the distance of p along the surface's forward.
func (s *Surface) SignedDistance(p math3d.Vec3) float64 {
	return s.Forward().Dot(p.Sub(s.pose.Position))
}

// SideOf returns +1 or -1 for the side of the plane p lies on. Points on
// the plane count as +1.
func (s *Surface) SideOf(p math3d.Vec3) float64 {
	if s.SignedDistance(p) < 0 {
		return -1
	}
	return 1
}

// Contains reports whether p projects inside the surface rectangle grown
// by margin on each edge.
func (s *Surface) Contains(p math3d.Vec3, margin float64) bool {
	local := s.pose.InverseTransformPoint(p)
	return math.Abs(local.X) <= s.Width/2+margin && math.Abs(local.Y) <= s.Height/2+margin
}

// Plane returns the surface plane with its normal along side·forward.
func (s *Surface) Plane(side float64) math3d.Vec4 {
	return math3d.PlaneFromPointNormal(s.pose.Position, s.Forward().Scale(side))
}

// Bounds returns the world bounds of the current slab.
func (s *Surface) Bounds() render.AABB {
	unit := render.NewAABB(math3d.V3(-0.5, -0.5, -0.5), math3d.V3(0.5, 0.5, 0.5))
	return unit.Transform(s.slab.Transform(s))
}

// SetResolution sizes the render target to the viewer's output at scale
// times the resolution. scale outside (0, 1] means full resolution.
func (s *Surface) SetResolution(width, height int, scale float64) {
	if s.target == nil || scale != s.scale {
		s.scale = scale
		s.target = render.NewRenderTarget(s.camera, width, height, scale)
		return
	}
	s.target.Resize(width, height)
}

// Guard recomputes the slab for the viewer. Inactive surfaces keep their
// previous slab.
func (s *Surface) Guard(viewer *render.Camera) Slab {
	if s.link == nil {
		return s.slab
	}
	s.slab = GuardSlab(viewer.Lens, s.pose, viewer.Position(), s.SlabMargin)
	return s.slab
}

// Render places the virtual camera for viewer, clips it at the exit plane,
// guards the slab and draws scene into the render target. Inactive
// surfaces draw nothing and return false.
func (s *Surface) Render(viewer *render.Camera, scene SceneDrawer) bool {
	if s.link == nil || viewer == nil || scene == nil {
		return false
	}
	if s.target == nil {
		s.SetResolution(DefaultTargetWidth, DefaultTargetHeight, s.scale)
	}

	Projector{}.Place(s, viewer, s.camera)
	s.Guard(viewer)

	r := s.target.Rasterizer()
	r.Begin(s.ClearColor)
	scene.DrawScene(r, View{Camera: s.camera, Through: s})
	s.target.Resolve()
	return true
}

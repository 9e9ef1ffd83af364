package render

import (
	"math"

	"github.com/taigrr/portals/pkg/math3d"
)

// Lens holds the perspective parameters of a camera.
type Lens struct {
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane
}

// DefaultLens returns a 60 degree, 16:9 lens.
func DefaultLens() Lens {
	return Lens{
		FOV:         math.Pi / 3,
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         1000,
	}
}

// Matrix returns the symmetric perspective projection for the lens.
func (l Lens) Matrix() math3d.Mat4 {
	return math3d.Perspective(l.FOV, l.AspectRatio, l.Near, l.Far)
}

// NearHalfExtents returns half the width and height of the near clip rectangle.
func (l Lens) NearHalfExtents() (halfWidth, halfHeight float64) {
	halfHeight = l.Near * math.Tan(l.FOV/2)
	return halfHeight * l.AspectRatio, halfHeight
}

// Camera represents a 3D camera with a rigid pose and a lens.
// The camera looks down its local -Z axis with +Y up.
type Camera struct {
	Lens

	pose math3d.Pose

	// Projection override (oblique clipping); nil means derive from Lens.
	projOverride *math3d.Mat4

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
}

// NewCamera creates a new camera at the origin with the default lens.
func NewCamera() *Camera {
	return &Camera{
		Lens:      DefaultLens(),
		pose:      math3d.PoseIdent(),
		viewDirty: true,
		projDirty: true,
	}
}

// Pose returns the camera's world pose.
func (c *Camera) Pose() math3d.Pose {
	return c.pose
}

// Position returns the camera position.
func (c *Camera) Position() math3d.Vec3 {
	return c.pose.Position
}

// SetPose sets the camera position and orientation.
func (c *Camera) SetPose(p math3d.Pose) {
	c.pose = p
	c.viewDirty = true
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.pose.Position = pos
	c.viewDirty = true
}

// SetRotation sets the camera orientation.
func (c *Camera) SetRotation(q math3d.Quat) {
	c.pose.Rotation = q
	c.viewDirty = true
}

// SetEuler sets the camera rotation from pitch, yaw and roll in radians.
func (c *Camera) SetEuler(pitch, yaw, roll float64) {
	c.SetRotation(math3d.QuatEuler(pitch, yaw, roll))
}

// SetLens replaces the projection parameters and drops any override.
func (c *Camera) SetLens(l Lens) {
	c.Lens = l
	c.projOverride = nil
	c.projDirty = true
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
}

// SetProjectionMatrix overrides the projection derived from the lens.
func (c *Camera) SetProjectionMatrix(m math3d.Mat4) {
	c.projOverride = &m
	c.projDirty = true
}

// ResetProjectionMatrix drops a projection override.
func (c *Camera) ResetProjectionMatrix() {
	c.projOverride = nil
	c.projDirty = true
}

// HasProjectionOverride reports whether an override is installed.
func (c *Camera) HasProjectionOverride() bool {
	return c.projOverride != nil
}

// Forward returns the forward direction vector.
func (c *Camera) Forward() math3d.Vec3 {
	return c.pose.TransformDir(math3d.Forward())
}

// Right returns the right direction vector.
func (c *Camera) Right() math3d.Vec3 {
	return c.pose.TransformDir(math3d.Right())
}

// Up returns the up direction vector.
func (c *Camera) Up() math3d.Vec3 {
	return c.pose.TransformDir(math3d.Up())
}

// ViewMatrix returns the world-to-camera matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.viewMatrix = c.pose.Inverse().Matrix()
		c.viewDirty = false
		c.projDirty = true // forces the combined matrix to refresh
	}
	return c.viewMatrix
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		if c.projOverride != nil {
			c.projMatrix = *c.projOverride
		} else {
			c.projMatrix = c.Lens.Matrix()
		}
		c.viewProjMatrix = c.projMatrix.Mul(c.ViewMatrix())
		c.projDirty = false
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	_ = c.ViewMatrix()
	_ = c.ProjectionMatrix()
	return c.viewProjMatrix
}

// LookAt makes the camera look at a target point, keeping world up.
func (c *Camera) LookAt(target math3d.Vec3) {
	dir := target.Sub(c.pose.Position).Normalize()
	pitch := math.Asin(dir.Y)
	yaw := math.Atan2(-dir.X, -dir.Z)
	c.SetEuler(pitch, yaw, 0)
}

// GetFrustum returns the current view frustum from the camera.
func (c *Camera) GetFrustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}

// WorldToScreen transforms a world point to screen coordinates.
// Returns (screenX, screenY, depth, visible).
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clipPos := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))

	// Behind the camera or in front of the (possibly oblique) near plane
	if clipPos.W <= 0 || clipPos.Z < -clipPos.W {
		return 0, 0, 0, false
	}

	ndc := clipPos.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight) // Y is flipped
	depth = ndc.Z

	return x, y, depth, true
}

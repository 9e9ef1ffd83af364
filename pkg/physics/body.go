// Package physics provides a small rigid-sphere simulation: bodies are
// integrated with harmonica projectiles, spin is damped with springs and
// collision queries run against proxies that only refresh on Step or
// SyncTransforms.
package physics

import (
	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/portals/pkg/math3d"
)

// Body is a sphere-bounded rigid body.
type Body struct {
	Name   string
	Radius float64

	// Kinematic bodies are never integrated; only explicit pose writes move them.
	Kinematic bool
	// Collides controls whether the body shows up in overlap queries.
	Collides bool

	id      int
	world   *World
	pose    math3d.Pose
	linear  math3d.Vec3
	angular math3d.Vec3

	proj     *harmonica.Projectile
	spinVel  [3]float64 // spring velocity per angular axis
	dirty    bool       // pose or velocity written since the last sync
	grounded bool
}

// NewBody creates a dynamic, colliding body.
func NewBody(name string, pose math3d.Pose, radius float64) *Body {
	return &Body{
		Name:     name,
		Radius:   radius,
		Collides: true,
		pose:     pose,
		dirty:    true,
	}
}

// ID returns the identifier assigned by the world, or 0 when detached.
func (b *Body) ID() int {
	return b.id
}

// Pose returns the body's pose.
func (b *Body) Pose() math3d.Pose {
	return b.pose
}

// Position returns the body's position.
func (b *Body) Position() math3d.Vec3 {
	return b.pose.Position
}

// SetPose writes the pose directly. Collision queries keep seeing the old
// pose until the world's next Step or SyncTransforms.
func (b *Body) SetPose(p math3d.Pose) {
	b.pose = p
	b.dirty = true
}

// Velocity returns the linear velocity.
func (b *Body) Velocity() math3d.Vec3 {
	return b.linear
}

// SetVelocity writes the linear velocity.
func (b *Body) SetVelocity(v math3d.Vec3) {
	b.linear = v
	b.dirty = true
}

// AngularVelocity returns the angular velocity in radians per second
// around each world axis.
func (b *Body) AngularVelocity() math3d.Vec3 {
	return b.angular
}

// SetAngularVelocity writes the angular velocity.
func (b *Body) SetAngularVelocity(w math3d.Vec3) {
	b.angular = w
	b.spinVel = [3]float64{}
}

// AddImpulse adds a velocity change.
func (b *Body) AddImpulse(dv math3d.Vec3) {
	b.SetVelocity(b.linear.Add(dv))
}

// Grounded reports whether the body rested on the floor after the last step.
func (b *Body) Grounded() bool {
	return b.grounded
}

// Clone returns a frozen, non-colliding copy of the body at the same pose.
// The copy is not attached to any world.
func (b *Body) Clone() *Body {
	c := NewBody(b.Name+" (copy)", b.pose, b.Radius)
	c.Kinematic = true
	c.Collides = false
	return c
}

// rebuild restarts the integrator from the current pose and velocity.
func (b *Body) rebuild(dt float64, gravity math3d.Vec3) {
	p := b.pose.Position
	b.proj = harmonica.NewProjectile(
		dt,
		harmonica.Point{X: p.X, Y: p.Y, Z: p.Z},
		harmonica.Vector{X: b.linear.X, Y: b.linear.Y, Z: b.linear.Z},
		harmonica.Vector{X: gravity.X, Y: gravity.Y, Z: gravity.Z},
	)
}

package scene

import (
	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/portals/pkg/math3d"
	"github.com/taigrr/portals/pkg/portal"
)

// DefaultHoldDistance is how far in front of the eye a held entity floats.
const DefaultHoldDistance = 1.5

// Hand carries one entity in front of the viewer. The entity eases
// towards the hold point in eye space; when the line from the eye to the
// hold point passes through a portal, the entity is placed on the far side.
type Hand struct {
	Distance float64

	world  *portal.World
	spring harmonica.Spring

	held      *portal.Entity
	kinematic bool // body flag to restore on Drop

	local       math3d.Vec3 // eye-space offset
	vel         math3d.Vec3 // spring velocity per axis
	relocations int
}

// NewHand creates a hand that looks for portals in w.
func NewHand(w *portal.World, fps int) *Hand {
	if fps <= 0 {
		fps = 60
	}
	return &Hand{
		Distance: DefaultHoldDistance,
		world:    w,
		spring:   harmonica.NewSpring(harmonica.FPS(fps), 8.0, 1.0),
	}
}

// Held returns the carried entity, or nil.
func (h *Hand) Held() *portal.Entity {
	return h.held
}

// Relocations counts how often the held entity was teleported.
func (h *Hand) Relocations() int {
	return h.relocations
}

// Grab picks e up from where it is, seen from eye. Any entity already
// held is dropped first.
func (h *Hand) Grab(e *portal.Entity, eye math3d.Pose) {
	if e == nil || e == h.held {
		return
	}
	h.Drop()

	h.held = e
	h.local = eye.InverseTransformPoint(e.Pose().Position)
	h.vel = math3d.Zero3()
	if b := e.Body(); b != nil {
		h.kinematic = b.Kinematic
		b.Kinematic = true
		b.SetVelocity(math3d.Zero3())
		b.SetAngularVelocity(math3d.Zero3())
	}
	e.SetHolder(h)
	portal.Logger().Debug("entity grabbed", "entity", e.Name)
}

// Drop releases the held entity where it is, at rest.
func (h *Hand) Drop() {
	e := h.held
	if e == nil {
		return
	}
	e.SetHolder(nil)
	if b := e.Body(); b != nil {
		b.Kinematic = h.kinematic
		b.SetVelocity(math3d.Zero3())
	}
	h.held = nil
	portal.Logger().Debug("entity dropped", "entity", e.Name)
}

// Update moves the held entity one frame towards the hold point of eye.
func (h *Hand) Update(eye math3d.Pose) {
	if h.held == nil {
		return
	}

	goal := math3d.V3(0, 0, -h.Distance)
	h.local.X, h.vel.X = h.spring.Update(h.local.X, h.vel.X, goal.X)
	h.local.Y, h.vel.Y = h.spring.Update(h.local.Y, h.vel.Y, goal.Y)
	h.local.Z, h.vel.Z = h.spring.Update(h.local.Z, h.vel.Z, goal.Z)

	target := math3d.NewPose(eye.TransformPoint(h.local), math3d.QuatYaw(eye.Rotation.Yaw()))
	if s := h.through(eye.Position, target.Position); s != nil {
		target = s.Map(target)
	}
	h.held.SetPose(target)
}

// through returns the active surface whose rectangle the segment a-b
// crosses, or nil.
func (h *Hand) through(a, b math3d.Vec3) *portal.Surface {
	for _, s := range h.world.Surfaces() {
		if !s.IsActive() {
			continue
		}
		da, db := s.SignedDistance(a), s.SignedDistance(b)
		if da == db || math3d.Sign(da) == math3d.Sign(db) {
			continue
		}
		hit := a.Lerp(b, da/(da-db))
		if s.Contains(hit, 0) {
			return s
		}
	}
	return nil
}

// OnRelocated re-targets the hand after the held entity went through a
// portal on its own. The entity stays kinematic and at rest.
func (h *Hand) OnRelocated(e portal.Teleportable) {
	ent, ok := e.(*portal.Entity)
	if !ok {
		return
	}
	h.held = ent
	h.vel = math3d.Zero3()
	if b := ent.Body(); b != nil {
		b.Kinematic = true
		b.SetVelocity(math3d.Zero3())
		b.SetAngularVelocity(math3d.Zero3())
	}
	h.relocations++
}

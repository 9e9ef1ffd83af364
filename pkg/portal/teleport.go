package portal

import (
	"github.com/taigrr/portals/pkg/math3d"
)

// Syncer pushes pending pose writes into the physics state so collision
// queries see them immediately.
type Syncer interface {
	SyncTransforms()
}

// Transformer moves entities between surfaces.
type Transformer struct {
	// Syncer is optional; entities without physics only get their pose written.
	Syncer Syncer
}

// Teleport moves e to (pos, rot) after it crossed from into to. In order:
// the pose is written (yaw only for upright entities), physics is synced,
// linear and angular velocity are rotated by to·from⁻¹, and the holder, if
// any, is told. The entity's record at from is dropped afterwards.
// Returns false, doing nothing, when any argument is missing.
func (t *Transformer) Teleport(e Teleportable, from, to *Surface, pos math3d.Vec3, rot math3d.Quat) bool {
	if e == nil || from == nil || to == nil {
		return false
	}

	if u, ok := e.(Upright); ok && u.Upright() {
		rot = math3d.QuatYaw(rot.Yaw())
	}
	e.SetPose(math3d.NewPose(pos, rot))

	if t.Syncer != nil {
		t.Syncer.SyncTransforms()
	}

	if k, ok := e.(Kinetic); ok {
		delta := to.pose.Rotation.Mul(from.pose.Rotation.Inverse())
		k.SetVelocity(delta.Rotate(k.Velocity()))
		k.SetAngularVelocity(delta.Rotate(k.AngularVelocity()))
	}

	if h := e.Holder(); h != nil {
		h.OnRelocated(e)
	}

	from.ExitField(e)
	Logger().Info("teleported", "entity", e.ID(), "from", from.Name, "to", to.Name, "position", pos)
	return true
}

package math3d

// Pose is a rigid transform: a rotation followed by a translation.
// Poses carry no scale, so composing and inverting them is exact up to
// floating point error and mapping a pose through a portal pair and back
// returns the original pose.
type Pose struct {
	Position Vec3
	Rotation Quat
}

// NewPose creates a pose from a position and rotation.
func NewPose(pos Vec3, rot Quat) Pose {
	return Pose{Position: pos, Rotation: rot}
}

// PoseIdent returns the identity pose at the origin.
func PoseIdent() Pose {
	return Pose{Rotation: QuatIdent()}
}

// Mul returns the composition p ∘ o: o expressed in p's frame, then taken to world.
func (p Pose) Mul(o Pose) Pose {
	return Pose{
		Position: p.Position.Add(p.Rotation.Rotate(o.Position)),
		Rotation: p.Rotation.Mul(o.Rotation).Normalize(),
	}
}

// Inverse returns the pose that undoes p.
func (p Pose) Inverse() Pose {
	inv := p.Rotation.Inverse()
	return Pose{
		Position: inv.Rotate(p.Position).Negate(),
		Rotation: inv,
	}
}

// Matrix returns the local-to-world matrix of the pose.
func (p Pose) Matrix() Mat4 {
	return Translate(p.Position).Mul(p.Rotation.Mat4())
}

// TransformPoint maps a local point to world space.
func (p Pose) TransformPoint(v Vec3) Vec3 {
	return p.Position.Add(p.Rotation.Rotate(v))
}

// TransformDir maps a local direction to world space.
func (p Pose) TransformDir(v Vec3) Vec3 {
	return p.Rotation.Rotate(v)
}

// InverseTransformPoint maps a world point into the pose's local space.
func (p Pose) InverseTransformPoint(v Vec3) Vec3 {
	return p.Rotation.Inverse().Rotate(v.Sub(p.Position))
}

// InverseTransformDir maps a world direction into the pose's local space.
func (p Pose) InverseTransformDir(v Vec3) Vec3 {
	return p.Rotation.Inverse().Rotate(v)
}

// ApproxEqual reports whether both position and rotation match within eps.
func (p Pose) ApproxEqual(o Pose, eps float64) bool {
	return p.Position.ApproxEqual(o.Position, eps) && p.Rotation.ApproxEqual(o.Rotation, eps)
}

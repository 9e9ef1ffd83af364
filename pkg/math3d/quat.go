package math3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quat is a rotation quaternion with scalar part W and vector part V.
// Arithmetic is delegated to mgl64.
type Quat struct {
	W float64
	V Vec3
}

// QuatIdent returns the identity rotation.
func QuatIdent() Quat {
	return Quat{W: 1}
}

// QuatAxisAngle returns a rotation of angle radians around axis.
func QuatAxisAngle(axis Vec3, angle float64) Quat {
	return quatFrom(mgl64.QuatRotate(angle, axis.Normalize().mgl()))
}

// QuatYaw returns a rotation of angle radians around the world up axis.
func QuatYaw(angle float64) Quat {
	return QuatAxisAngle(Up(), angle)
}

// QuatEuler builds a rotation from pitch (X), yaw (Y) and roll (Z), applied
// roll first, then pitch, then yaw. This is the first-person camera order.
func QuatEuler(pitch, yaw, roll float64) Quat {
	return QuatYaw(yaw).
		Mul(QuatAxisAngle(Right(), pitch)).
		Mul(QuatAxisAngle(Back(), roll))
}

// QuatFromMat4 extracts the rotation of a pure rotation matrix.
func QuatFromMat4(m Mat4) Quat {
	return quatFrom(mgl64.Mat4ToQuat(mgl64.Mat4(m)))
}

func (q Quat) mgl() mgl64.Quat {
	return mgl64.Quat{W: q.W, V: q.V.mgl()}
}

func quatFrom(q mgl64.Quat) Quat {
	return Quat{W: q.W, V: vec3From(q.V)}
}

// Mul returns the composition q * r (r applied first).
func (q Quat) Mul(r Quat) Quat {
	return quatFrom(q.mgl().Mul(r.mgl()))
}

// Inverse returns the inverse rotation.
func (q Quat) Inverse() Quat {
	return quatFrom(q.mgl().Inverse())
}

// Normalize returns q scaled to unit length.
func (q Quat) Normalize() Quat {
	return quatFrom(q.mgl().Normalize())
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	return vec3From(q.mgl().Rotate(v.mgl()))
}

// Mat4 returns the rotation as a matrix.
func (q Quat) Mat4() Mat4 {
	return Mat4(q.mgl().Mat4())
}

// Yaw returns the heading of the rotated camera forward axis around world up,
// using the same convention as QuatYaw.
func (q Quat) Yaw() float64 {
	f := q.Rotate(Forward())
	return math.Atan2(-f.X, -f.Z)
}

// ApproxEqual reports whether q and r describe the same rotation within eps.
// q and -q are the same rotation.
func (q Quat) ApproxEqual(r Quat, eps float64) bool {
	return math.Abs(math.Abs(q.mgl().Dot(r.mgl()))-1) <= eps
}

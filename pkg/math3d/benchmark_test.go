package math3d

import (
	"math"
	"testing"
)

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := QuatYaw(0.5).Mat4()

	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4MulVec4(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(QuatYaw(0.5).Mat4())
	v := V4(1, 2, 3, 1)

	for b.Loop() {
		_ = m.MulVec4(v)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(QuatYaw(0.5).Mat4()).Mul(Scale(V3(2, 2, 2)))

	for b.Loop() {
		_ = m.Inverse()
	}
}

func BenchmarkQuatRotate(b *testing.B) {
	q := QuatEuler(0.2, 0.5, 0.1)
	v := V3(1, 2, 3)

	for b.Loop() {
		_ = q.Rotate(v)
	}
}

func BenchmarkPoseMul(b *testing.B) {
	a := NewPose(V3(1, 2, 3), QuatYaw(0.5))
	c := NewPose(V3(-4, 0, 2), QuatYaw(math.Pi))

	for b.Loop() {
		_ = a.Mul(c.Inverse())
	}
}

func BenchmarkPerspective(b *testing.B) {
	for b.Loop() {
		_ = Perspective(math.Pi/3, 1.333, 0.1, 100.0)
	}
}

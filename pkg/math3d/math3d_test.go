package math3d

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestQuatYawRotatesForward(t *testing.T) {
	tests := []struct {
		name  string
		angle float64
		want  Vec3
	}{
		{"zero", 0, V3(0, 0, -1)},
		{"quarter", math.Pi / 2, V3(-1, 0, 0)},
		{"half", math.Pi, V3(0, 0, 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := QuatYaw(tc.angle).Rotate(Forward())
			if !got.ApproxEqual(tc.want, 1e-12) {
				t.Errorf("Rotate(Forward) = %v, want %v", got, tc.want)
			}
			if yaw := QuatYaw(tc.angle).Yaw(); math.Abs(math.Remainder(yaw-tc.angle, 2*math.Pi)) > 1e-12 {
				t.Errorf("Yaw() = %v, want %v", yaw, tc.angle)
			}
		})
	}
}

func TestQuatMatrixAgrees(t *testing.T) {
	q := QuatEuler(0.3, -1.2, 0.7)
	v := V3(1, -2, 0.5)

	byQuat := q.Rotate(v)
	byMat := q.Mat4().MulVec3Dir(v)
	if !byQuat.ApproxEqual(byMat, eps) {
		t.Errorf("quat rotate %v != matrix rotate %v", byQuat, byMat)
	}

	back := QuatFromMat4(q.Mat4())
	if !back.ApproxEqual(q, eps) {
		t.Errorf("QuatFromMat4 = %v, want %v", back, q)
	}
}

func TestQuatApproxEqualIgnoresSign(t *testing.T) {
	q := QuatYaw(0.8)
	neg := Quat{W: -q.W, V: q.V.Negate()}
	if !q.ApproxEqual(neg, eps) {
		t.Error("q and -q should be the same rotation")
	}
	if q.ApproxEqual(QuatYaw(0.9), 1e-6) {
		t.Error("different yaws compared equal")
	}
}

func TestPoseInverse(t *testing.T) {
	p := NewPose(V3(3, -1, 7), QuatEuler(0.4, 2.1, -0.3))

	id := p.Mul(p.Inverse())
	if !id.ApproxEqual(PoseIdent(), eps) {
		t.Errorf("p * p^-1 = %+v, want identity", id)
	}

	pt := V3(1, 2, 3)
	if got := p.InverseTransformPoint(p.TransformPoint(pt)); !got.ApproxEqual(pt, eps) {
		t.Errorf("point round trip = %v, want %v", got, pt)
	}
}

func TestPoseMatrixMatchesTransform(t *testing.T) {
	p := NewPose(V3(10, 0, -2), QuatYaw(math.Pi/3))
	pt := V3(0.5, 1, -4)

	if got, want := p.Matrix().MulVec3(pt), p.TransformPoint(pt); !got.ApproxEqual(want, eps) {
		t.Errorf("Matrix().MulVec3 = %v, TransformPoint = %v", got, want)
	}
	if got, want := p.Matrix().Inverse(), p.Inverse().Matrix(); !got.ApproxEqual(want, 1e-9) {
		t.Errorf("inverse matrix mismatch:\n%v\n%v", got, want)
	}
}

func TestPlaneFromPointNormal(t *testing.T) {
	plane := PlaneFromPointNormal(V3(0, 0, 5), V3(0, 0, 2))

	tests := []struct {
		name  string
		point Vec3
		want  float64
	}{
		{"on plane", V3(4, -3, 5), 0},
		{"in front", V3(0, 0, 8), 3},
		{"behind", V3(1, 1, 1), -4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := plane.DistanceToPoint(tc.point); math.Abs(got-tc.want) > eps {
				t.Errorf("DistanceToPoint(%v) = %v, want %v", tc.point, got, tc.want)
			}
		})
	}
}

func TestMat4Rows(t *testing.T) {
	m := Perspective(math.Pi/2, 1, 1, 10)
	row := m.Row(3)
	if row != V4(0, 0, -1, 0) {
		t.Errorf("perspective row 3 = %v, want (0, 0, -1, 0)", row)
	}

	m.SetRow(2, V4(1, 2, 3, 4))
	if m.Get(2, 0) != 1 || m.Get(2, 3) != 4 {
		t.Errorf("SetRow did not write row 2: %v", m)
	}
}

func TestSign(t *testing.T) {
	if Sign(-0.1) != -1 || Sign(0) != 1 || Sign(3) != 1 {
		t.Error("Sign should map negatives to -1 and everything else to +1")
	}
}

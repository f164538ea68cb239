package humanoid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// FromEuler builds a rotation from Euler angles (radians) applied in
// yaw-pitch-roll order: R = Ry(y) * Rx(x) * Rz(z). This is the convention
// of browser 3D engines' FromEulerAngles(x, y, z).
func FromEuler(x, y, z float64) mgl64.Quat {
	return mgl64.QuatRotate(y, axisY).
		Mul(mgl64.QuatRotate(x, axisX)).
		Mul(mgl64.QuatRotate(z, axisZ)).
		Normalize()
}

// ToEuler decomposes q into the angles accepted by FromEuler. Near the
// pitch singularity (x = ±π/2) the roll is folded into the yaw.
func ToEuler(q mgl64.Quat) (x, y, z float64) {
	m := q.Normalize().Mat4()

	sx := -m.At(1, 2)
	if sx >= 1-1e-9 || sx <= -1+1e-9 {
		x = math.Copysign(math.Pi/2, sx)
		y = math.Atan2(-m.At(2, 0), m.At(0, 0))
		return x, y, 0
	}

	x = math.Asin(sx)
	y = math.Atan2(m.At(0, 2), m.At(2, 2))
	z = math.Atan2(m.At(1, 0), m.At(1, 1))
	return x, y, z
}

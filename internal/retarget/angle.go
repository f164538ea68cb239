// Package retarget maps tracked hand data onto avatar bone rotations:
// finger bend angles, wrist orientation and proportional arm reach.
package retarget

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats/scalar"
)

// Epsilon is the length below which a vector is treated as degenerate.
const Epsilon = 1e-9

// SignedAngle returns the angle from v1 to v2 measured around normal, in
// (-π, π]. The sign is positive when v1×v2 points along normal.
func SignedAngle(v1, v2, normal mgl64.Vec3) float64 {
	l1, l2 := v1.Len(), v2.Len()
	if nearZero(l1) || nearZero(l2) {
		return 0
	}
	u1, u2 := v1.Mul(1/l1), v2.Mul(1/l2)

	angle := math.Acos(mgl64.Clamp(u1.Dot(u2), -1, 1))
	if u1.Cross(u2).Dot(normal) < 0 {
		return -angle
	}
	return angle
}

// BendAngle measures the angle at origin between the segments towards p1
// and p2, around the normal of the plane they span.
//
// With v1 = origin-p1 and v2 = origin-p2 the normal is normalize(v1×v2), so
// the result is the interior angle in [0, π]. A straight joint gives π.
// Collinear segments have no plane; they still resolve to 0 or π from the
// dot product. ok is false only when a segment has zero length, in which
// case the caller keeps its previous value.
func BendAngle(origin, p1, p2 mgl64.Vec3) (angle float64, ok bool) {
	v1 := origin.Sub(p1)
	v2 := origin.Sub(p2)
	if nearZero(v1.Len()) || nearZero(v2.Len()) {
		return 0, false
	}

	cross := v1.Cross(v2)
	if nearZero(cross.Len() / (v1.Len() * v2.Len())) {
		if v1.Dot(v2) < 0 {
			return math.Pi, true
		}
		return 0, true
	}

	return SignedAngle(v1, v2, cross.Normalize()), true
}

func nearZero(v float64) bool {
	return scalar.EqualWithinAbs(v, 0, Epsilon)
}

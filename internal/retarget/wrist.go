package retarget

import (
	"math"

	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	worldX = mgl64.Vec3{1, 0, 0}
	worldY = mgl64.Vec3{0, 1, 0}
	worldZ = mgl64.Vec3{0, 0, 1}
)

// HandBone returns the avatar wrist bone for side.
func HandBone(side tracking.Side) string {
	if side == tracking.Left {
		return humanoid.LeftHand
	}
	return humanoid.RightHand
}

// RemapWrist converts the tracked wrist's world orientation into the
// avatar wrist's local rotation.
//
// The left wrist takes the relabelled Euler angles (ez, -ey, ex) directly.
// The right wrist is reset and then turned in world space by Y=0, X=ex and
// Z=ez+π/2 on top of its parent's orientation, so parentWorld must be the
// lower arm's world rotation after this frame's IK solve.
func RemapWrist(side tracking.Side, tracked, parentWorld mgl64.Quat) mgl64.Quat {
	ex, ey, ez := humanoid.ToEuler(tracked)

	if side == tracking.Left {
		return humanoid.FromEuler(ez, -ey, ex)
	}

	// Y stays at zero: the IK solve already supplies the twist about it.
	world := mgl64.QuatRotate(ez+math.Pi/2, worldZ).
		Mul(mgl64.QuatRotate(ex, worldX)).
		Mul(mgl64.QuatRotate(0, worldY))

	p := parentWorld.Normalize()
	return p.Inverse().Mul(world).Mul(p).Normalize()
}

// ApplyWrist writes the remapped wrist rotation for hand into bones. It
// reports false when the hand is invalid or the wrist bone is missing.
func ApplyWrist(bones humanoid.BoneSet, hand *tracking.Hand, parentWorld mgl64.Quat) bool {
	if !hand.Valid() {
		return false
	}
	return humanoid.Set(bones, HandBone(hand.Side), RemapWrist(hand.Side, hand.Orientation, parentWorld))
}

// WristDegrees reports the tracked wrist Euler angles in degrees, in the
// form shown on the debug readout.
func WristDegrees(side tracking.Side, tracked mgl64.Quat) [3]float64 {
	ex, ey, ez := humanoid.ToEuler(tracked)
	if side == tracking.Left {
		return [3]float64{mgl64.RadToDeg(ez), mgl64.RadToDeg(-ey), mgl64.RadToDeg(ex)}
	}
	return [3]float64{mgl64.RadToDeg(ex), mgl64.RadToDeg(-ey), mgl64.RadToDeg(ez + math.Pi/2)}
}

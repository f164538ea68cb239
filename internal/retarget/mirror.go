package retarget

import (
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

// Mirror returns the sign applied to side-dependent angles. The tracker
// and the avatar disagree on handedness for the left side only.
func Mirror(side tracking.Side) float64 {
	if side == tracking.Left {
		return -1
	}
	return 1
}

// MirrorX reflects v across the sagittal plane when side is Left. Avatar
// defaults are authored for the right arm and mirrored for the left.
func MirrorX(side tracking.Side, v mgl64.Vec3) mgl64.Vec3 {
	if side == tracking.Left {
		return mgl64.Vec3{-v[0], v[1], v[2]}
	}
	return v
}

// sideName is the bone-name prefix for side.
func sideName(side tracking.Side) string {
	return side.String()
}

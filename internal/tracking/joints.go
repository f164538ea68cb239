// Package tracking describes the per-frame input of the retargeting core:
// tracked hand joints, the wrist orientation and the head position.
package tracking

import "fmt"

// Joint identifies one of the 25 hand joints reported by a WebXR-style
// hand tracking rig.
// See: https://www.w3.org/TR/webxr-hand-input-1/#skeleton-joints-section
type Joint int

const (
	Wrist Joint = iota
	ThumbMetacarpal
	ThumbProximal
	ThumbDistal
	ThumbTip
	IndexMetacarpal
	IndexProximal
	IndexIntermediate
	IndexDistal
	IndexTip
	MiddleMetacarpal
	MiddleProximal
	MiddleIntermediate
	MiddleDistal
	MiddleTip
	RingMetacarpal
	RingProximal
	RingIntermediate
	RingDistal
	RingTip
	PinkyMetacarpal
	PinkyProximal
	PinkyIntermediate
	PinkyDistal
	PinkyTip
	NumJoints
)

var jointNames = [NumJoints]string{
	"wrist",
	"thumb-metacarpal",
	"thumb-phalanx-proximal",
	"thumb-phalanx-distal",
	"thumb-tip",
	"index-finger-metacarpal",
	"index-finger-phalanx-proximal",
	"index-finger-phalanx-intermediate",
	"index-finger-phalanx-distal",
	"index-finger-tip",
	"middle-finger-metacarpal",
	"middle-finger-phalanx-proximal",
	"middle-finger-phalanx-intermediate",
	"middle-finger-phalanx-distal",
	"middle-finger-tip",
	"ring-finger-metacarpal",
	"ring-finger-phalanx-proximal",
	"ring-finger-phalanx-intermediate",
	"ring-finger-phalanx-distal",
	"ring-finger-tip",
	"pinky-finger-metacarpal",
	"pinky-finger-phalanx-proximal",
	"pinky-finger-phalanx-intermediate",
	"pinky-finger-phalanx-distal",
	"pinky-finger-tip",
}

// String returns the WebXR joint name.
func (j Joint) String() string {
	if j < 0 || j >= NumJoints {
		return fmt.Sprintf("joint(%d)", int(j))
	}
	return jointNames[j]
}

// ParseJoint resolves a WebXR joint name.
func ParseJoint(name string) (Joint, bool) {
	for i, n := range jointNames {
		if n == name {
			return Joint(i), true
		}
	}
	return 0, false
}

// Side is the handedness of a tracked hand or an avatar limb.
type Side int

const (
	Left Side = iota
	Right
)

// Sides lists both sides in index order.
var Sides = [2]Side{Left, Right}

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// ParseSide accepts "left"/"right" in any case used by trackers.
func ParseSide(v string) (Side, error) {
	switch v {
	case "left", "Left", "LEFT":
		return Left, nil
	case "right", "Right", "RIGHT":
		return Right, nil
	}
	return 0, fmt.Errorf("unknown handedness %q", v)
}

package retarget

import (
	"math"

	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

// Segment binds one finger bone to the three tracked joints that measure
// its bend: the joint itself, the one before it and the one after it.
type Segment struct {
	Bone   string
	Origin tracking.Joint
	Prev   tracking.Joint
	Next   tracking.Joint
	Axis   mgl64.Vec3
}

var (
	thumbAxis  = mgl64.Vec3{0, 1, 0}
	fingerAxis = mgl64.Vec3{0, 0, 1}
)

// fingerJoints lists the tracked joints of each digit, base to tip. The
// thumb starts at the wrist because it has no intermediate phalanx.
var fingerJoints = [5][5]tracking.Joint{
	{tracking.Wrist, tracking.ThumbMetacarpal, tracking.ThumbProximal, tracking.ThumbDistal, tracking.ThumbTip},
	{tracking.IndexMetacarpal, tracking.IndexProximal, tracking.IndexIntermediate, tracking.IndexDistal, tracking.IndexTip},
	{tracking.MiddleMetacarpal, tracking.MiddleProximal, tracking.MiddleIntermediate, tracking.MiddleDistal, tracking.MiddleTip},
	{tracking.RingMetacarpal, tracking.RingProximal, tracking.RingIntermediate, tracking.RingDistal, tracking.RingTip},
	{tracking.PinkyMetacarpal, tracking.PinkyProximal, tracking.PinkyIntermediate, tracking.PinkyDistal, tracking.PinkyTip},
}

// FingerSegments returns the 15 finger segments of one hand.
func FingerSegments(side tracking.Side) []Segment {
	segs := make([]Segment, 0, 15)
	for f, joints := range fingerJoints {
		axis := fingerAxis
		if f == 0 {
			axis = thumbAxis
		}
		for s, seg := range humanoid.Segments {
			segs = append(segs, Segment{
				Bone:   humanoid.FingerBone(sideName(side), humanoid.Fingers[f], seg),
				Origin: joints[s+1],
				Prev:   joints[s],
				Next:   joints[s+2],
				Axis:   axis,
			})
		}
	}
	return segs
}

var segmentsBySide = [2][]Segment{
	tracking.Left:  FingerSegments(tracking.Left),
	tracking.Right: FingerSegments(tracking.Right),
}

// SegmentAngle is the rotation written for seg: the bend rebased so a
// straight finger is zero, with the side's mirror sign applied.
func SegmentAngle(hand *tracking.Hand, seg Segment) (float64, bool) {
	bend, ok := BendAngle(hand.Position(seg.Origin), hand.Position(seg.Prev), hand.Position(seg.Next))
	if !ok {
		return 0, false
	}
	return Mirror(hand.Side) * (bend - math.Pi), true
}

// MapFingers writes the finger rotations of hand into bones and returns
// how many bones were written. Missing bones and degenerate segments are
// skipped and keep their previous rotation.
func MapFingers(bones humanoid.BoneSet, hand *tracking.Hand) int {
	if !hand.Valid() {
		return 0
	}

	n := 0
	for _, seg := range segmentsBySide[hand.Side] {
		b, ok := bones.Bone(seg.Bone)
		if !ok {
			continue
		}
		angle, ok := SegmentAngle(hand, seg)
		if !ok {
			continue
		}
		b.SetRotation(mgl64.QuatRotate(angle, seg.Axis))
		n++
	}
	return n
}

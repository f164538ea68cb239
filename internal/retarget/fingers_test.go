package retarget

import (
	"testing"

	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rightWrist = mgl64.Vec3{-0.3, 1.2, -0.3}

func TestFingerSegments(t *testing.T) {
	segs := FingerSegments(tracking.Right)
	require.Len(t, segs, 15)

	assert.Equal(t, Segment{
		Bone:   "rightThumbProximal",
		Origin: tracking.ThumbMetacarpal,
		Prev:   tracking.Wrist,
		Next:   tracking.ThumbProximal,
		Axis:   mgl64.Vec3{0, 1, 0},
	}, segs[0])

	assert.Equal(t, Segment{
		Bone:   "rightIndexIntermediate",
		Origin: tracking.IndexIntermediate,
		Prev:   tracking.IndexProximal,
		Next:   tracking.IndexDistal,
		Axis:   mgl64.Vec3{0, 0, 1},
	}, segs[4])

	assert.Equal(t, "rightLittleDistal", segs[14].Bone)
	assert.Equal(t, tracking.PinkyTip, segs[14].Next)

	left := FingerSegments(tracking.Left)
	assert.Equal(t, "leftThumbProximal", left[0].Bone)
}

func TestMapFingers_OpenHandIsStraight(t *testing.T) {
	bones := humanoid.NewFullSkeleton()
	hand := tracking.CurledHand(tracking.Right, rightWrist, 0)

	n := MapFingers(bones, &hand)
	assert.Equal(t, 15, n)

	for _, seg := range FingerSegments(tracking.Right) {
		got := humanoid.Get(bones, seg.Bone)
		assertRotation(t, mgl64.QuatIdent(), got)
	}
}

func TestMapFingers_Curl(t *testing.T) {
	const curl = 0.5
	bones := humanoid.NewFullSkeleton()
	hand := tracking.CurledHand(tracking.Right, rightWrist, curl)

	require.Equal(t, 15, MapFingers(bones, &hand))

	for _, seg := range FingerSegments(tracking.Right) {
		want := mgl64.QuatRotate(-curl, seg.Axis)
		got := humanoid.Get(bones, seg.Bone)
		assertRotation(t, want, got)
	}
}

func TestMapFingers_MirroredHands(t *testing.T) {
	for _, curl := range []float64{0.2, 0.7, 1.3} {
		right := tracking.CurledHand(tracking.Right, rightWrist, curl)
		left := right.Mirrored(0)

		rightSegs := FingerSegments(tracking.Right)
		leftSegs := FingerSegments(tracking.Left)
		for i := range rightSegs {
			r, ok := SegmentAngle(&right, rightSegs[i])
			require.True(t, ok)
			l, ok := SegmentAngle(&left, leftSegs[i])
			require.True(t, ok)

			assert.InDelta(t, -r, l, 1e-9, "segment %s", rightSegs[i].Bone)
			assert.InDelta(t, curl, l, 1e-9)
		}
	}
}

func TestMapFingers_SkipsMissingBones(t *testing.T) {
	bones := humanoid.NewSkeleton("rightIndexProximal", "leftIndexProximal")
	hand := tracking.CurledHand(tracking.Right, rightWrist, 0.3)

	assert.Equal(t, 1, MapFingers(bones, &hand))
	assert.Equal(t, mgl64.QuatIdent(), humanoid.Get(bones, "leftIndexProximal"))
}

func TestMapFingers_InvalidHand(t *testing.T) {
	bones := humanoid.NewFullSkeleton()

	absent := tracking.CurledHand(tracking.Right, rightWrist, 0.3)
	absent.Present = false
	assert.Equal(t, 0, MapFingers(bones, &absent))

	var zero tracking.Hand
	zero.Present = true
	assert.Equal(t, 0, MapFingers(bones, &zero))
}

func TestMapFingers_DegenerateSegmentHoldsValue(t *testing.T) {
	bones := humanoid.NewFullSkeleton()
	prev := mgl64.QuatRotate(-0.4, fingerAxis)
	humanoid.Set(bones, "rightIndexDistal", prev)

	hand := tracking.CurledHand(tracking.Right, rightWrist, 0.3)
	hand.Joints[tracking.IndexTip] = hand.Joints[tracking.IndexDistal]

	assert.Equal(t, 14, MapFingers(bones, &hand))
	assert.Equal(t, prev, humanoid.Get(bones, "rightIndexDistal"))
}

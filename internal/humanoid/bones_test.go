package humanoid

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 25+30)
	assert.Contains(t, names, "rightIndexProximal")
	assert.Contains(t, names, "leftThumbDistal")
	assert.Contains(t, names, RightUpperArm)
}

func TestSkeleton_MissingBone(t *testing.T) {
	s := NewSkeleton(RightHand)

	_, ok := s.Bone(LeftHand)
	assert.False(t, ok)
	assert.False(t, Set(s, LeftHand, mgl64.QuatRotate(1, axisX)))
	assert.Equal(t, mgl64.QuatIdent(), Get(s, LeftHand))

	var nilSkeleton *Skeleton
	_, ok = nilSkeleton.Bone(RightHand)
	assert.False(t, ok)
}

func TestSkeleton_SetAndPose(t *testing.T) {
	s := NewSkeleton(RightHand, RightLowerArm)
	q := mgl64.QuatRotate(0.5, axisZ)

	require.True(t, Set(s, RightHand, q))
	assert.Equal(t, q, Get(s, RightHand))

	pose := s.Pose()
	assert.Len(t, pose, 2)
	assert.Equal(t, q, pose[RightHand])
	assert.Equal(t, mgl64.QuatIdent(), pose[RightLowerArm])
	assert.Equal(t, []string{RightHand, RightLowerArm}, s.BoneNames())

	s.Reset()
	assert.Equal(t, mgl64.QuatIdent(), Get(s, RightHand))
}

func TestEuler_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
	}{
		{"zero", 0, 0, 0},
		{"pitch only", 0.4, 0, 0},
		{"yaw only", 0, -1.2, 0},
		{"roll only", 0, 0, 2.5},
		{"mixed", 0.3, -0.7, 1.1},
		{"mixed negative pitch", -1.2, 2.9, -0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := FromEuler(tt.x, tt.y, tt.z)
			x, y, z := ToEuler(q)
			assert.InDelta(t, tt.x, x, 1e-9)
			assert.InDelta(t, tt.y, y, 1e-9)
			assert.InDelta(t, tt.z, z, 1e-9)
		})
	}
}

func TestEuler_SingleAxis(t *testing.T) {
	assertRotation(t, mgl64.QuatRotate(0.7, axisZ), FromEuler(0, 0, 0.7))
	assertRotation(t, mgl64.QuatRotate(0.7, axisY), FromEuler(0, 0.7, 0))
	assertRotation(t, mgl64.QuatRotate(0.7, axisX), FromEuler(0.7, 0, 0))
}

func TestEuler_Singularity(t *testing.T) {
	q := FromEuler(math.Pi/2, 0.3, 0)
	x, y, z := ToEuler(q)
	assert.InDelta(t, math.Pi/2, x, 1e-6)
	assert.InDelta(t, 0.3, y, 1e-6)
	assert.Equal(t, 0.0, z)
}

func TestPreset_Apply(t *testing.T) {
	s := NewSkeleton(RightHand, RightLowerArm, Head)

	n := RelaxedPreset().Apply(s)
	assert.Equal(t, 3, n)

	want := mgl64.QuatRotate(math.Pi/2, axisZ)
	assertRotation(t, want, Get(s, RightHand))

	n = TPose().Apply(s)
	assert.Equal(t, 3, n)
	assertRotation(t, mgl64.QuatIdent(), Get(s, RightHand))
}

// assertRotation compares quaternions componentwise, accepting q and -q.
func assertRotation(t *testing.T, want, got mgl64.Quat) {
	t.Helper()
	if got.Dot(want) < 0 {
		got = got.Scale(-1)
	}
	assert.InDelta(t, want.W, got.W, 1e-12, "w: want %v got %v", want, got)
	for i := range want.V {
		assert.InDelta(t, want.V[i], got.V[i], 1e-12, "v%d: want %v got %v", i, want, got)
	}
}

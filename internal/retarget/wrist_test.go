package retarget

import (
	"math"
	"testing"

	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestRemapWrist_Left(t *testing.T) {
	tests := []struct {
		name       string
		ex, ey, ez float64
	}{
		{"identity", 0, 0, 0},
		{"pitch", 0.4, 0, 0},
		{"mixed", 0.3, -0.6, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracked := humanoid.FromEuler(tt.ex, tt.ey, tt.ez)
			got := RemapWrist(tracking.Left, tracked, mgl64.QuatRotate(1.1, worldY))
			want := humanoid.FromEuler(tt.ez, -tt.ey, tt.ex)
			assertRotation(t, want, got)
		})
	}
}

func TestRemapWrist_RightIdentityParent(t *testing.T) {
	got := RemapWrist(tracking.Right, mgl64.QuatIdent(), mgl64.QuatIdent())
	want := mgl64.QuatRotate(math.Pi/2, worldZ)
	assertRotation(t, want, got)

	tracked := humanoid.FromEuler(0.25, 0.8, -0.3)
	got = RemapWrist(tracking.Right, tracked, mgl64.QuatIdent())
	want = mgl64.QuatRotate(-0.3+math.Pi/2, worldZ).Mul(mgl64.QuatRotate(0.25, worldX))
	assertRotation(t, want, got)
}

func TestRemapWrist_RightFollowsParent(t *testing.T) {
	parent := humanoid.FromEuler(0.2, -1.0, 0.4)
	tracked := humanoid.FromEuler(0.5, 0.1, 0.3)

	local := RemapWrist(tracking.Right, tracked, parent)

	// The wrist's world orientation is the world-space correction applied
	// on top of the parent.
	world := mgl64.QuatRotate(0.3+math.Pi/2, worldZ).Mul(mgl64.QuatRotate(0.5, worldX))
	gotWorld := parent.Mul(local)
	wantWorld := world.Mul(parent)

	assertRotation(t, wantWorld, gotWorld)
}

func TestApplyWrist(t *testing.T) {
	bones := humanoid.NewSkeleton(humanoid.RightHand)
	hand := tracking.CurledHand(tracking.Right, rightWrist, 0)

	assert.True(t, ApplyWrist(bones, &hand, mgl64.QuatIdent()))
	assertRotation(t, mgl64.QuatRotate(math.Pi/2, worldZ), humanoid.Get(bones, humanoid.RightHand))

	left := hand.Mirrored(0)
	assert.False(t, ApplyWrist(bones, &left, mgl64.QuatIdent()), "left hand bone is missing")

	hand.Present = false
	assert.False(t, ApplyWrist(bones, &hand, mgl64.QuatIdent()))
}

func TestWristDegrees(t *testing.T) {
	got := WristDegrees(tracking.Right, mgl64.QuatIdent())
	assert.InDelta(t, 0, got[0], 1e-9)
	assert.InDelta(t, 0, got[1], 1e-9)
	assert.InDelta(t, 90, got[2], 1e-9)
}

// assertRotation compares quaternions componentwise, accepting q and -q.
func assertRotation(t *testing.T, want, got mgl64.Quat) {
	t.Helper()
	if got.Dot(want) < 0 {
		got = got.Scale(-1)
	}
	assert.InDelta(t, want.W, got.W, 1e-9, "w: want %v got %v", want, got)
	for i := range want.V {
		assert.InDelta(t, want.V[i], got.V[i], 1e-9, "v%d: want %v got %v", i, want, got)
	}
}

package retarget

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	avatarRight = AvatarReference{
		Head:  mgl64.Vec3{0, 1.5, 0},
		Wrist: mgl64.Vec3{-0.45, 1.39, -0.27},
	}
	trackedHead  = mgl64.Vec3{0, 1.6, 0}
	trackedWrist = mgl64.Vec3{0.3, 1.2, -0.3}
)

func newCalibratedReach(t *testing.T, cfg ReachConfig) *Reach {
	t.Helper()
	r := NewReach(cfg, avatarRight)
	r.now = func() time.Time { return time.Unix(1700000000, 0) }

	got, ok := r.Update(trackedHead, trackedWrist)
	require.True(t, ok)
	require.True(t, r.Calibrated())
	assertVec(t, avatarRight.Wrist, got)
	return r
}

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "axis %d: want %v got %v", i, want, got)
	}
}

func TestClampSameSide(t *testing.T) {
	tests := []struct {
		name             string
		v, natural, base float64
		want             float64
	}{
		{"overshoot past natural", -0.54, -0.45, 0, -0.45},
		{"inside natural", -0.30, -0.45, 0, -0.30},
		{"crossed midline", 0.15, -0.45, 0, 0.15},
		{"positive side overshoot", 0.6, 0.45, 0, 0.45},
		{"on the base", 0, -0.45, 0, 0},
		{"equal magnitude", -0.45, -0.45, 0, -0.45},
		{"offset base", 0.9, 0.5, 0.2, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampSameSide(tt.v, tt.natural, tt.base))
		})
	}
}

func TestReach_Calibration(t *testing.T) {
	r := newCalibratedReach(t, DefaultReachConfig())

	snap, ok := r.Snapshot()
	require.True(t, ok)
	assert.Equal(t, trackedWrist, snap.TrackedWrist)
	assert.Equal(t, trackedHead, snap.TrackedHead)
	assert.Equal(t, avatarRight.Wrist, snap.AvatarTarget)
	assertVec(t, mgl64.Vec3{0.45 / 0.3, 0.11 / 0.4, 0.27 / 0.3}, snap.Ratio)
	assert.Equal(t, time.Unix(1700000000, 0), snap.CapturedAt)
}

func TestReach_NoDataDoesNotCalibrate(t *testing.T) {
	r := NewReach(DefaultReachConfig(), avatarRight)

	got, ok := r.Update(mgl64.Vec3{}, trackedWrist)
	assert.False(t, ok)
	assert.Equal(t, avatarRight.Wrist, got)

	// The zero wrist is the tracker's no-data sentinel.
	_, ok = r.Update(trackedHead, mgl64.Vec3{})
	assert.False(t, ok)
	assert.False(t, r.Calibrated())

	_, ok = r.Snapshot()
	assert.False(t, ok)
}

func TestReach_CalibratesOnce(t *testing.T) {
	r := newCalibratedReach(t, DefaultReachConfig())
	first, _ := r.Snapshot()

	// Tracking lost, then resumed somewhere else.
	_, ok := r.Update(mgl64.Vec3{}, mgl64.Vec3{})
	assert.False(t, ok)
	_, ok = r.Update(mgl64.Vec3{0.5, 1.7, 0.1}, mgl64.Vec3{0.1, 1.0, -0.5})
	assert.True(t, ok)

	again, _ := r.Snapshot()
	assert.Equal(t, first, again)
}

func TestReach_Idempotent(t *testing.T) {
	r := newCalibratedReach(t, DefaultReachConfig())
	wrist := mgl64.Vec3{0.25, 1.35, -0.4}

	a, _ := r.Update(trackedHead, wrist)
	b, _ := r.Update(trackedHead, wrist)
	c, _ := r.Update(mgl64.Vec3{0.2, 1.62, 0.05}, wrist)

	assert.Equal(t, a, b)
	assert.Equal(t, a, c, "head motion after calibration does not move the target")
}

func TestReach_Axes(t *testing.T) {
	tests := []struct {
		name  string
		wrist mgl64.Vec3
		want  mgl64.Vec3
	}{
		{
			name:  "outward motion clamps to natural reach",
			wrist: mgl64.Vec3{0.4, 1.2, -0.3},
			want:  mgl64.Vec3{-0.45, 1.39, -0.27},
		},
		{
			name:  "inward motion uses calibrated ratio",
			wrist: mgl64.Vec3{0.2, 1.2, -0.3},
			want:  mgl64.Vec3{-0.45 + 0.1*1.5, 1.39, -0.27},
		},
		{
			name:  "crossing the midline is not clamped",
			wrist: mgl64.Vec3{-0.1, 1.2, -0.3},
			want:  mgl64.Vec3{-0.45 + 0.4*1.5, 1.39, -0.27},
		},
		{
			name:  "vertical motion is doubled",
			wrist: mgl64.Vec3{0.3, 1.3, -0.3},
			want:  mgl64.Vec3{-0.45, 1.39 + 0.1*2, -0.27},
		},
		{
			name:  "depth is mirrored and scaled",
			wrist: mgl64.Vec3{0.3, 1.2, -0.4},
			want:  mgl64.Vec3{-0.45, 1.39, -0.27 + 0.1*0.9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newCalibratedReach(t, DefaultReachConfig())
			got, ok := r.Update(trackedHead, tt.wrist)
			require.True(t, ok)
			assertVec(t, tt.want, got)
			assert.Equal(t, got, r.Target())
		})
	}
}

func TestReach_OutwardRatioWithoutClamp(t *testing.T) {
	cfg := DefaultReachConfig()
	cfg.Clamp = [3]bool{}
	r := newCalibratedReach(t, cfg)

	got, _ := r.Update(trackedHead, mgl64.Vec3{0.4, 1.2, -0.3})
	assertVec(t, mgl64.Vec3{-0.45 - 0.1*0.9, 1.39, -0.27}, got)
}

func TestReach_ScaleOverride(t *testing.T) {
	one, half := 1.0, 0.5
	cfg := DefaultReachConfig()
	cfg.Clamp = [3]bool{}
	cfg.ScaleOverride = [3]*float64{&one, &half, nil}
	r := newCalibratedReach(t, cfg)

	got, _ := r.Update(trackedHead, mgl64.Vec3{0.4, 1.4, -0.3})
	assertVec(t, mgl64.Vec3{-0.55, 1.49, -0.27}, got)
}

func TestReach_ZeroTrackedExtent(t *testing.T) {
	r := NewReach(DefaultReachConfig(), avatarRight)
	_, ok := r.Update(mgl64.Vec3{0.3, 1.6, 0}, mgl64.Vec3{0.3, 1.2, -0.3})
	require.True(t, ok)

	snap, _ := r.Snapshot()
	assert.Equal(t, 1.0, snap.Ratio[AxisX])
}

func TestReach_SeparateTarget(t *testing.T) {
	ref := avatarRight
	ref.Target = mgl64.Vec3{-0.4, 1.3, -0.2}
	r := NewReach(DefaultReachConfig(), ref)

	got, ok := r.Update(trackedHead, trackedWrist)
	require.True(t, ok)
	assertVec(t, ref.Target, got)
}

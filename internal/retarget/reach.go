package retarget

import (
	"math"
	"time"

	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

// Axis indices into a Vec3.
const (
	AxisX = 0
	AxisY = 1
	AxisZ = 2
)

// ReachConfig tunes how tracked wrist motion is scaled onto the avatar.
type ReachConfig struct {
	// OutwardRatio scales lateral motion away from the body. The tracker
	// cannot see the real elbow at full extension, so there is no
	// calibrated distance for it (default: 0.9).
	OutwardRatio float64

	// VerticalMultiplier scales vertical motion (default: 2.0).
	VerticalMultiplier float64

	// ScaleOverride replaces the computed factor of an axis when set.
	ScaleOverride [3]*float64

	// Clamp enables the same-side magnitude clamp per axis (default: X).
	Clamp [3]bool
}

// DefaultReachConfig returns a ReachConfig with the tuned defaults.
func DefaultReachConfig() ReachConfig {
	return ReachConfig{
		OutwardRatio:       0.9,
		VerticalMultiplier: 2.0,
		Clamp:              [3]bool{true, false, false},
	}
}

// AvatarReference holds fixed avatar positions read once from the rest
// pose.
type AvatarReference struct {
	Head   mgl64.Vec3 // head bone
	Wrist  mgl64.Vec3 // natural wrist position
	Target mgl64.Vec3 // starting IK target; defaults to Wrist
}

// Snapshot is the one-shot calibration of a reach retargeter.
type Snapshot struct {
	TrackedWrist mgl64.Vec3 `json:"tracked_wrist"`
	TrackedHead  mgl64.Vec3 `json:"tracked_head"`
	AvatarWrist  mgl64.Vec3 `json:"avatar_wrist"`
	AvatarHead   mgl64.Vec3 `json:"avatar_head"`
	AvatarTarget mgl64.Vec3 `json:"avatar_target"`
	Ratio        mgl64.Vec3 `json:"ratio"`
	CapturedAt   time.Time  `json:"captured_at"`
}

// Reach maps tracked wrist displacement onto an IK target position. It is
// calibrated on the first valid frame and never again.
type Reach struct {
	cfg    ReachConfig
	ref    AvatarReference
	snap   *Snapshot
	target mgl64.Vec3
	now    func() time.Time
}

// NewReach creates an uncalibrated Reach.
func NewReach(cfg ReachConfig, ref AvatarReference) *Reach {
	if tracking.IsZero(ref.Target) {
		ref.Target = ref.Wrist
	}
	return &Reach{
		cfg:    cfg,
		ref:    ref,
		target: ref.Target,
		now:    time.Now,
	}
}

// Calibrated reports whether the snapshot has been taken.
func (r *Reach) Calibrated() bool {
	return r.snap != nil
}

// Snapshot returns the calibration snapshot if one was taken.
func (r *Reach) Snapshot() (Snapshot, bool) {
	if r.snap == nil {
		return Snapshot{}, false
	}
	return *r.snap, true
}

// Target returns the most recent IK target position.
func (r *Reach) Target() mgl64.Vec3 {
	return r.target
}

// Update computes the IK target for the current tracked head and wrist.
// A zero head or wrist means no data: the previous target is returned with
// ok == false and nothing is calibrated.
func (r *Reach) Update(head, wrist mgl64.Vec3) (mgl64.Vec3, bool) {
	if tracking.IsZero(head) || tracking.IsZero(wrist) {
		return r.target, false
	}
	if r.snap == nil {
		r.calibrate(head, wrist)
	}

	s := r.snap
	delta := mgl64.Vec3{
		s.TrackedWrist[AxisX] - wrist[AxisX],
		wrist[AxisY] - s.TrackedWrist[AxisY],
		s.TrackedWrist[AxisZ] - wrist[AxisZ],
	}

	var out mgl64.Vec3
	for a := AxisX; a <= AxisZ; a++ {
		out[a] = r.ref.Target[a] + delta[a]*r.scale(a, delta[a])
		if r.cfg.Clamp[a] {
			out[a] = ClampSameSide(out[a], r.ref.Wrist[a], r.ref.Head[a])
		}
	}

	r.target = out
	return out, true
}

func (r *Reach) calibrate(head, wrist mgl64.Vec3) {
	s := &Snapshot{
		TrackedWrist: wrist,
		TrackedHead:  head,
		AvatarWrist:  r.ref.Wrist,
		AvatarHead:   r.ref.Head,
		AvatarTarget: r.ref.Target,
		CapturedAt:   r.now(),
	}
	for a := AxisX; a <= AxisZ; a++ {
		tracked := math.Abs(wrist[a] - head[a])
		if tracked < Epsilon {
			s.Ratio[a] = 1
			continue
		}
		s.Ratio[a] = math.Abs(r.ref.Wrist[a]-r.ref.Head[a]) / tracked
	}
	r.snap = s
}

// scale picks the factor for a displacement of d along axis a.
func (r *Reach) scale(a int, d float64) float64 {
	if o := r.cfg.ScaleOverride[a]; o != nil {
		return *o
	}
	switch a {
	case AxisX:
		// Outward means the target moves away from the head, towards the
		// side the natural wrist already sits on.
		if d*(r.ref.Wrist[AxisX]-r.ref.Head[AxisX]) > 0 {
			return r.cfg.OutwardRatio
		}
		return r.snap.Ratio[AxisX]
	case AxisY:
		return r.cfg.VerticalMultiplier
	default:
		return r.snap.Ratio[AxisZ]
	}
}

// ClampSameSide limits v to the natural reach envelope. When v and
// natural lie on the same side of base, the one with the smaller magnitude
// wins; otherwise v passes through so the hand may cross the midline.
func ClampSameSide(v, natural, base float64) float64 {
	if (v > base && natural > base) || (v < base && natural < base) {
		if math.Abs(v) > math.Abs(natural) {
			return natural
		}
	}
	return v
}

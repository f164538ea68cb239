// Package driver runs the per-frame retargeting pipeline: reach, IK, wrist
// and fingers, in that order, followed by secondary motion.
package driver

import (
	"log/slog"

	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/ayusman/puppet/internal/ik"
	"github.com/ayusman/puppet/internal/retarget"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

// Config holds the settings shared by both arms.
type Config struct {
	Reach  retarget.ReachConfig
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the default reach tuning.
func DefaultConfig() Config {
	return Config{
		Reach: retarget.DefaultReachConfig(),
	}
}

// Arm is the avatar side of one tracked hand. A nil Chain disables IK for
// the side; the reach target is still computed and reported.
type Arm struct {
	Chain  *ik.Chain
	Avatar retarget.AvatarReference
}

// SideResult reports what happened to one side during a Step.
type SideResult struct {
	Valid bool // hand had usable data

	Calibrated     bool
	JustCalibrated bool // calibration was captured this frame

	Target mgl64.Vec3
	Solved bool
	Bend   float64
	Arm    int // arm bones written

	Wrist   bool // wrist rotation written
	Fingers int  // finger bones written
}

// Result summarizes one Step for observers.
type Result struct {
	Seq     uint64
	Skipped bool // no head or no valid hand: pose left untouched
	Sides   [2]SideResult
}

// BonesWritten returns the number of bone rotations written during the
// step.
func (r Result) BonesWritten() int {
	n := 0
	for _, s := range r.Sides {
		n += s.Arm + s.Fingers
		if s.Wrist {
			n++
		}
	}
	return n
}

type side struct {
	chain *ik.Chain
	reach *retarget.Reach
}

// Driver applies tracking frames to a bone set. It is not safe for
// concurrent use; one goroutine owns it and calls Step once per frame.
type Driver struct {
	bones     humanoid.BoneSet
	sides     [2]*side
	secondary []SecondaryMotion
	logger    *slog.Logger

	live bool
}

// New creates a Driver writing into bones. arms configures each tracked
// side; a side without an entry only gets wrist and finger mapping.
func New(cfg Config, bones humanoid.BoneSet, arms map[tracking.Side]Arm, secondary ...SecondaryMotion) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Driver{
		bones:     bones,
		secondary: secondary,
		logger:    logger,
	}
	for s, arm := range arms {
		d.sides[s] = &side{
			chain: arm.Chain,
			reach: retarget.NewReach(cfg.Reach, arm.Avatar),
		}
	}
	return d
}

// Snapshot returns the calibration captured for side, if any.
func (d *Driver) Snapshot(s tracking.Side) (retarget.Snapshot, bool) {
	if d.sides[s] == nil {
		return retarget.Snapshot{}, false
	}
	return d.sides[s].reach.Snapshot()
}

// Step runs the pipeline for one frame.
func (d *Driver) Step(f *tracking.Frame) Result {
	res := Result{Seq: f.Seq}

	if !f.HeadValid() || !f.AnyHandValid() {
		res.Skipped = true
		d.setLive(false, f.Seq)
	} else {
		d.setLive(true, f.Seq)
		for _, s := range tracking.Sides {
			d.stepSide(f, s, &res.Sides[s])
		}
	}

	for _, m := range d.secondary {
		m.Update(f.Delta)
	}
	return res
}

func (d *Driver) stepSide(f *tracking.Frame, s tracking.Side, out *SideResult) {
	hand := f.Hand(s)
	if !hand.Valid() {
		return
	}
	out.Valid = true

	parentWorld := mgl64.QuatIdent()
	if sd := d.sides[s]; sd != nil {
		wasCalibrated := sd.reach.Calibrated()
		target, ok := sd.reach.Update(f.Head, hand.Position(tracking.Wrist))
		out.Target = target
		out.Calibrated = sd.reach.Calibrated()

		if out.Calibrated && !wasCalibrated {
			out.JustCalibrated = true
			snap, _ := sd.reach.Snapshot()
			d.logger.Debug("reach calibrated",
				"side", s,
				"tracked_wrist", snap.TrackedWrist,
				"tracked_head", snap.TrackedHead,
				"ratio", snap.Ratio)
		}

		if sd.chain != nil {
			if ok {
				sol, solved := sd.chain.Solve(target, sd.chain.Spec().Pole)
				if solved {
					out.Arm = sd.chain.Apply(d.bones, sol)
					out.Solved = true
					out.Bend = sol.Bend
				}
			}
			// Held rotations stand in when the solve was skipped.
			parentWorld = sd.chain.LowerWorld(d.bones)
		}
	}

	out.Wrist = retarget.ApplyWrist(d.bones, hand, parentWorld)
	out.Fingers = retarget.MapFingers(d.bones, hand)
}

func (d *Driver) setLive(live bool, seq uint64) {
	if live == d.live {
		return
	}
	d.live = live
	if live {
		d.logger.Debug("tracking resumed", "seq", seq)
	} else {
		d.logger.Debug("tracking lost", "seq", seq)
	}
}

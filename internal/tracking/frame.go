package tracking

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Hand is one tracked hand for a single frame. Joint positions are world
// space. Only the wrist carries an orientation.
type Hand struct {
	Side        Side
	Present     bool
	Joints      [NumJoints]mgl64.Vec3
	Orientation mgl64.Quat
}

// Position returns the world position of joint j.
func (h *Hand) Position(j Joint) mgl64.Vec3 {
	return h.Joints[j]
}

// Valid reports whether the hand carries usable data this frame. The
// tracker reports an exact zero wrist when it has no data.
func (h *Hand) Valid() bool {
	return h != nil && h.Present && !IsZero(h.Joints[Wrist])
}

// Frame is everything the tracker produced for one rendered frame.
type Frame struct {
	Seq   uint64
	Head  mgl64.Vec3
	Hands [2]Hand
	Delta time.Duration
}

// Hand returns the hand for side s.
func (f *Frame) Hand(s Side) *Hand {
	return &f.Hands[s]
}

// HeadValid reports whether the head position is live.
func (f *Frame) HeadValid() bool {
	return !IsZero(f.Head)
}

// AnyHandValid reports whether at least one hand has usable data.
func (f *Frame) AnyHandValid() bool {
	return f.Hands[Left].Valid() || f.Hands[Right].Valid()
}

// IsZero reports whether v is exactly the zero vector, the tracker's
// "no data" sentinel.
func IsZero(v mgl64.Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// NewFrame returns an empty frame with both hand sides labelled.
func NewFrame() Frame {
	var f Frame
	for _, s := range Sides {
		f.Hands[s].Side = s
		f.Hands[s].Orientation = mgl64.QuatIdent()
	}
	return f
}

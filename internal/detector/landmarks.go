// Package detector finds hands in webcam frames and converts the 21
// MediaPipe landmarks into the 25-joint tracking model.
package detector

import (
	"fmt"

	"github.com/ayusman/puppet/internal/tracking"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark in normalized image space: x right and y down in
// [0, 1], z depth relative to the wrist on roughly the x scale.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Side parses the handedness label.
func (h *HandLandmarks) Side() (tracking.Side, error) {
	s, err := tracking.ParseSide(h.Handedness)
	if err != nil {
		return 0, fmt.Errorf("handedness %q: %w", h.Handedness, err)
	}
	return s, nil
}

package tracking

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Coordinate spaces accepted in the "space" field of a wire frame.
const (
	// SpaceLeftHanded is the frame space: meters, Y up, left-handed with
	// +Z pointing away from the viewer, as a Babylon.js scene reports
	// WebXR poses. The reach Z delta and the wrist Euler decomposition
	// assume it.
	SpaceLeftHanded = "left"
	// SpaceWebXR is raw right-handed WebXR reference space (+Z towards
	// the viewer). Such frames are converted on decode by negating Z.
	SpaceWebXR = "webxr"
)

// wireFrame is the JSON shape sent by the browser-side WebXR client.
// Quaternions use the WebXR component order [x, y, z, w]. Positions and
// orientations are in SpaceLeftHanded unless Space says otherwise; sending
// raw WebXR poses without "space": "webxr" inverts the Z reach and the
// wrist yaw.
type wireFrame struct {
	Seq     uint64     `json:"seq"`
	Space   string     `json:"space,omitempty"`
	Head    [3]float64 `json:"head"`
	DeltaMs float64    `json:"delta_ms"`
	Hands   []wireHand `json:"hands"`
}

type wireHand struct {
	Handedness  string       `json:"handedness"`
	Joints      [][3]float64 `json:"joints"`
	Orientation *[4]float64  `json:"orientation,omitempty"`
}

// DecodeFrame parses a JSON tracking frame. Hands that are not listed are
// left absent. A hand with fewer than NumJoints joints is rejected.
func DecodeFrame(data []byte) (Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}

	var flip bool
	switch w.Space {
	case "", SpaceLeftHanded:
	case SpaceWebXR:
		flip = true
	default:
		return Frame{}, fmt.Errorf("decode frame: unknown space %q", w.Space)
	}

	f := NewFrame()
	f.Seq = w.Seq
	f.Head = mgl64.Vec3(w.Head)
	if w.DeltaMs > 0 {
		f.Delta = time.Duration(w.DeltaMs * float64(time.Millisecond))
	}

	for _, wh := range w.Hands {
		side, err := ParseSide(wh.Handedness)
		if err != nil {
			return Frame{}, fmt.Errorf("decode frame: %w", err)
		}
		if len(wh.Joints) < int(NumJoints) {
			return Frame{}, fmt.Errorf("decode frame: %s hand has %d joints, want %d", side, len(wh.Joints), NumJoints)
		}

		h := f.Hand(side)
		h.Present = true
		for i := 0; i < int(NumJoints); i++ {
			h.Joints[i] = mgl64.Vec3(wh.Joints[i])
		}
		if wh.Orientation != nil {
			o := wh.Orientation
			q := mgl64.Quat{W: o[3], V: mgl64.Vec3{o[0], o[1], o[2]}}
			if l := q.Len(); l > 0 && !math.IsNaN(l) {
				h.Orientation = q.Normalize()
			}
		}
	}

	if flip {
		flipZ(&f)
	}
	return f, nil
}

// flipZ mirrors f through the XY plane: positions get -z and rotations
// keep their z axis component while x and y are negated.
func flipZ(f *Frame) {
	f.Head[2] = -f.Head[2]
	for s := range f.Hands {
		h := &f.Hands[s]
		if !h.Present {
			continue
		}
		for i := range h.Joints {
			h.Joints[i][2] = -h.Joints[i][2]
		}
		h.Orientation.V[0] = -h.Orientation.V[0]
		h.Orientation.V[1] = -h.Orientation.V[1]
	}
}

// EncodeFrame renders f in the wire format accepted by DecodeFrame.
func EncodeFrame(f Frame) ([]byte, error) {
	w := wireFrame{
		Seq:     f.Seq,
		Head:    [3]float64(f.Head),
		DeltaMs: float64(f.Delta) / float64(time.Millisecond),
	}
	for _, s := range Sides {
		h := f.Hands[s]
		if !h.Present {
			continue
		}
		wh := wireHand{
			Handedness:  s.String(),
			Joints:      make([][3]float64, NumJoints),
			Orientation: &[4]float64{h.Orientation.V[0], h.Orientation.V[1], h.Orientation.V[2], h.Orientation.W},
		}
		for i := range h.Joints {
			wh.Joints[i] = [3]float64(h.Joints[i])
		}
		w.Hands = append(w.Hands, wh)
	}
	return json.Marshal(w)
}

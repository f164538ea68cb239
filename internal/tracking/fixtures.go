package tracking

import "github.com/go-gl/mathgl/mgl64"

// fingerLayout places one finger relative to the wrist for a right hand
// whose fingers point up (+Y) and whose palm faces -Z.
type fingerLayout struct {
	first   Joint
	base    mgl64.Vec3 // offset of the first point from the wrist
	lengths [4]float64
	thumb   bool
}

var rightHandLayout = [5]fingerLayout{
	{first: ThumbMetacarpal, base: mgl64.Vec3{0, 0, 0}, lengths: [4]float64{0.035, 0.04, 0.032, 0.025}, thumb: true},
	{first: IndexMetacarpal, base: mgl64.Vec3{-0.02, 0.03, 0}, lengths: [4]float64{0.065, 0.04, 0.025, 0.02}},
	{first: MiddleMetacarpal, base: mgl64.Vec3{0, 0.03, 0}, lengths: [4]float64{0.065, 0.045, 0.028, 0.022}},
	{first: RingMetacarpal, base: mgl64.Vec3{0.018, 0.028, 0}, lengths: [4]float64{0.06, 0.042, 0.026, 0.021}},
	{first: PinkyMetacarpal, base: mgl64.Vec3{0.034, 0.024, 0}, lengths: [4]float64{0.055, 0.032, 0.02, 0.018}},
}

// CurledHand returns a synthetic hand with the wrist at wrist and every
// finger joint bent by curl radians toward the palm. A curl of 0 is a flat
// open hand. The left hand is the mirror image of the right hand across
// the plane x = wrist.X.
func CurledHand(side Side, wrist mgl64.Vec3, curl float64) Hand {
	h := Hand{Side: Right, Present: true, Orientation: mgl64.QuatIdent()}
	h.Joints[Wrist] = mgl64.Vec3{}

	bendAxis := mgl64.Vec3{1, 0, 0}
	thumbSplay := mgl64.QuatRotate(-0.6, mgl64.Vec3{0, 0, 1})

	for _, f := range rightHandLayout {
		dir, axis := mgl64.Vec3{0, 1, 0}, bendAxis
		if f.thumb {
			dir, axis = thumbSplay.Rotate(dir), thumbSplay.Rotate(axis)
		}

		// Fingers start at the metacarpal; the thumb chain starts at the
		// wrist so its first bend lands on the metacarpal.
		var points [5]mgl64.Vec3
		points[0] = f.base
		for i := 0; i < 4; i++ {
			points[i+1] = points[i].Add(dir.Mul(f.lengths[i]))
			if i < 3 {
				dir = mgl64.QuatRotate(curl, axis).Rotate(dir)
			}
		}

		if f.thumb {
			for i := 1; i < 5; i++ {
				h.Joints[int(f.first)+i-1] = points[i]
			}
		} else {
			for i := 0; i < 5; i++ {
				h.Joints[int(f.first)+i] = points[i]
			}
		}
	}

	for i := range h.Joints {
		h.Joints[i] = h.Joints[i].Add(wrist)
	}
	if side == Left {
		return h.Mirrored(wrist[0])
	}
	return h
}

// Mirrored reflects the hand across the plane x = planeX and flips its
// side, producing the same pose on the opposite hand.
func (h Hand) Mirrored(planeX float64) Hand {
	m := h
	m.Side = 1 - h.Side
	for i, p := range h.Joints {
		m.Joints[i] = mgl64.Vec3{2*planeX - p[0], p[1], p[2]}
	}
	o := h.Orientation
	m.Orientation = mgl64.Quat{W: o.W, V: mgl64.Vec3{o.V[0], -o.V[1], -o.V[2]}}
	return m
}

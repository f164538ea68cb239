package detector

import (
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

// metacarpalBase places the synthesized finger metacarpal joint along the
// wrist->knuckle line. MediaPipe does not report it.
const metacarpalBase = 0.3

// Projection maps normalized image landmarks into tracking world space.
// The camera is assumed to face the user, so image x grows towards the
// user's right-hand side only when the image is mirrored.
type Projection struct {
	// Origin is the world position of the image centre at wrist depth.
	Origin mgl64.Vec3
	// Scale is the world distance spanned by the full image width.
	Scale float64
	// Mirror is set for selfie-view (horizontally flipped) input.
	Mirror bool
}

// Point maps one landmark to world space.
func (p Projection) Point(pt Point3D) mgl64.Vec3 {
	x := 0.5 - pt.X
	if p.Mirror {
		x = -x
	}
	return p.Origin.Add(mgl64.Vec3{x, 0.5 - pt.Y, pt.Z}.Mul(p.Scale))
}

// Unproject is the inverse of Point.
func (p Projection) Unproject(v mgl64.Vec3) Point3D {
	d := v.Sub(p.Origin).Mul(1 / p.Scale)
	x := d[0]
	if p.Mirror {
		x = -x
	}
	return Point3D{X: 0.5 - x, Y: 0.5 - d[1], Z: d[2]}
}

// fingerBases pairs each finger's MediaPipe knuckle with its first tracking
// joint.
var fingerBases = [4]struct {
	mcp   int
	first tracking.Joint
}{
	{IndexMCP, tracking.IndexMetacarpal},
	{MiddleMCP, tracking.MiddleMetacarpal},
	{RingMCP, tracking.RingMetacarpal},
	{PinkyMCP, tracking.PinkyMetacarpal},
}

// ToHand converts MediaPipe landmarks into a tracked hand. The finger
// metacarpal joints are synthesized on the wrist->knuckle line and the
// wrist orientation is derived from the palm.
func ToHand(lm HandLandmarks, p Projection) (tracking.Hand, error) {
	side, err := lm.Side()
	if err != nil {
		return tracking.Hand{}, err
	}

	at := func(i int) mgl64.Vec3 { return p.Point(lm.Points[i]) }
	wrist := at(Wrist)

	h := tracking.Hand{Side: side, Present: true}
	h.Joints[tracking.Wrist] = wrist
	h.Joints[tracking.ThumbMetacarpal] = at(ThumbCMC)
	h.Joints[tracking.ThumbProximal] = at(ThumbMCP)
	h.Joints[tracking.ThumbDistal] = at(ThumbIP)
	h.Joints[tracking.ThumbTip] = at(ThumbTip)

	for _, f := range fingerBases {
		knuckle := at(f.mcp)
		h.Joints[f.first] = wrist.Add(knuckle.Sub(wrist).Mul(metacarpalBase))
		for i := 0; i < 4; i++ {
			h.Joints[f.first+tracking.Joint(i+1)] = at(f.mcp + i)
		}
	}

	h.Orientation = PalmOrientation(side, wrist, at(IndexMCP), at(MiddleMCP), at(PinkyMCP))
	return h, nil
}

// PalmOrientation returns the wrist rotation that takes the rest hand
// (fingers along +Y, index knuckle towards -X for the right hand and +X
// for the left) onto the palm described by the wrist and three knuckles.
// Degenerate palms give the identity.
func PalmOrientation(side tracking.Side, wrist, index, middle, pinky mgl64.Vec3) mgl64.Quat {
	up := middle.Sub(wrist)
	if up.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	up = up.Normalize()

	across := index.Sub(pinky)
	across = across.Sub(up.Mul(across.Dot(up)))
	if across.Len() < 1e-9 {
		return mgl64.QuatIdent()
	}
	x := across.Normalize()
	if side == tracking.Right {
		x = x.Mul(-1)
	}

	m := mgl64.Mat3FromCols(x, up, x.Cross(up))
	return mgl64.Mat4ToQuat(m.Mat4()).Normalize()
}

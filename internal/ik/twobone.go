// Package ik solves two-bone limbs (upper arm, lower arm) analytically so
// the end of the lower bone lands on a target, with the elbow steered by a
// pole position.
package ik

import (
	"errors"
	"fmt"
	"math"

	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats/scalar"
)

const epsilon = 1e-9

// ErrInvalidChain is returned by NewChain for unusable chain geometry.
var ErrInvalidChain = errors.New("invalid ik chain")

// Spec describes one two-bone chain on the avatar.
type Spec struct {
	Upper string // upper bone name, e.g. "rightUpperArm"
	Lower string // lower bone name, e.g. "rightLowerArm"

	// Root is the world position of the upper bone's head (the shoulder
	// joint).
	Root mgl64.Vec3

	// ParentRotation is the world rotation of the upper bone's parent.
	ParentRotation mgl64.Quat

	// Axis is the direction both bones point along in their own local
	// space.
	Axis mgl64.Vec3

	// Hinge is the local axis the lower bone bends around. Must be
	// perpendicular to Axis.
	Hinge mgl64.Vec3

	UpperLength float64
	LowerLength float64

	// Pole is the default world position the elbow points towards.
	Pole mgl64.Vec3

	// PoleAngle rotates the bend plane around the root->target axis.
	PoleAngle float64

	// MaxAngle caps the elbow bend. Zero means π.
	MaxAngle float64
}

// Solution is the result of one solve.
type Solution struct {
	Elbow mgl64.Vec3
	End   mgl64.Vec3

	UpperLocal mgl64.Quat
	LowerLocal mgl64.Quat
	UpperWorld mgl64.Quat
	LowerWorld mgl64.Quat

	// Bend is the elbow bend: 0 for a straight arm, π fully folded.
	Bend float64
}

// Chain is a validated, immutable two-bone chain. Solve keeps no state
// between calls.
type Chain struct {
	spec Spec

	axis  mgl64.Vec3
	hinge mgl64.Vec3
	// local is the rest frame (axis, hinge, axis x hinge) as columns.
	local mgl64.Mat3
}

// NewChain validates spec and precomputes the chain's rest frame.
func NewChain(spec Spec) (*Chain, error) {
	if spec.Upper == "" || spec.Lower == "" {
		return nil, fmt.Errorf("%w: bone names are required", ErrInvalidChain)
	}
	if !(spec.UpperLength > epsilon) || !(spec.LowerLength > epsilon) {
		return nil, fmt.Errorf("%w: %s: link lengths must be positive (%v, %v)",
			ErrInvalidChain, spec.Upper, spec.UpperLength, spec.LowerLength)
	}
	if spec.Axis.Len() < epsilon || spec.Hinge.Len() < epsilon {
		return nil, fmt.Errorf("%w: %s: axis and hinge must be non-zero", ErrInvalidChain, spec.Upper)
	}
	axis := spec.Axis.Normalize()
	hinge := spec.Hinge.Normalize()
	if math.Abs(axis.Dot(hinge)) > 1e-6 {
		return nil, fmt.Errorf("%w: %s: hinge %v is not perpendicular to axis %v",
			ErrInvalidChain, spec.Upper, spec.Hinge, spec.Axis)
	}
	if spec.MaxAngle <= 0 {
		spec.MaxAngle = math.Pi
	}
	if spec.ParentRotation.Len() < epsilon {
		spec.ParentRotation = mgl64.QuatIdent()
	}
	spec.ParentRotation = spec.ParentRotation.Normalize()

	return &Chain{
		spec:  spec,
		axis:  axis,
		hinge: hinge,
		local: mgl64.Mat3FromCols(axis, hinge, axis.Cross(hinge)),
	}, nil
}

// Spec returns the chain's (normalized) spec.
func (c *Chain) Spec() Spec {
	return c.spec
}

// Solve computes bone rotations that bring the chain's end to target with
// the elbow bending towards pole. ok is false for degenerate input; the
// caller should keep the previous rotations.
func (c *Chain) Solve(target, pole mgl64.Vec3) (Solution, bool) {
	if !finite(target) || !finite(pole) {
		return Solution{}, false
	}
	a, b := c.spec.UpperLength, c.spec.LowerLength
	root := c.spec.Root

	toTarget := target.Sub(root)
	d := toTarget.Len()
	if d < epsilon {
		return Solution{}, false
	}
	dir := toTarget.Mul(1 / d)

	bend := 0.0
	if d < a+b {
		interior := math.Acos(mgl64.Clamp((a*a+b*b-d*d)/(2*a*b), -1, 1))
		bend = math.Pi - interior
	}
	bend = mgl64.Clamp(bend, 0, c.spec.MaxAngle)

	// Effective reach once the bend is clamped, and the upper bone's angle
	// off the root->target ray.
	reach := math.Sqrt(a*a + b*b + 2*a*b*math.Cos(bend))
	alpha := 0.0
	if bend > 0 && reach > epsilon {
		alpha = math.Acos(mgl64.Clamp((a*a+reach*reach-b*b)/(2*a*reach), -1, 1))
	}

	bendDir := c.bendDirection(dir, pole)
	if c.spec.PoleAngle != 0 {
		bendDir = mgl64.QuatRotate(c.spec.PoleAngle, dir).Rotate(bendDir)
	}

	upperDir := dir.Mul(math.Cos(alpha)).Add(bendDir.Mul(math.Sin(alpha))).Normalize()
	lowerDir := dir.Mul(math.Cos(bend - alpha)).Sub(bendDir.Mul(math.Sin(bend - alpha))).Normalize()
	normal := bendDir.Cross(dir).Normalize()

	world := mgl64.Mat3FromCols(upperDir, normal, upperDir.Cross(normal))
	upperWorld := mgl64.Mat4ToQuat(world.Mul3(c.local.Transpose()).Mat4()).Normalize()
	upperLocal := c.spec.ParentRotation.Inverse().Mul(upperWorld).Normalize()
	lowerLocal := mgl64.QuatRotate(bend, c.hinge)

	elbow := root.Add(upperDir.Mul(a))
	return Solution{
		Elbow:      elbow,
		End:        elbow.Add(lowerDir.Mul(b)),
		UpperLocal: upperLocal,
		LowerLocal: lowerLocal,
		UpperWorld: upperWorld,
		LowerWorld: upperWorld.Mul(lowerLocal).Normalize(),
		Bend:       bend,
	}, true
}

// bendDirection returns a unit vector perpendicular to dir pointing where
// the elbow should go.
func (c *Chain) bendDirection(dir, pole mgl64.Vec3) mgl64.Vec3 {
	if v, ok := perpendicular(pole.Sub(c.spec.Root), dir); ok {
		return v
	}
	rest := c.spec.ParentRotation.Rotate(c.axis.Cross(c.hinge))
	if v, ok := perpendicular(rest, dir); ok {
		return v
	}
	return anyPerpendicular(dir)
}

// Apply writes sol's local rotations to the chain's bones and returns how
// many were written. Missing bones are skipped.
func (c *Chain) Apply(bones humanoid.BoneSet, sol Solution) int {
	n := 0
	if humanoid.Set(bones, c.spec.Upper, sol.UpperLocal) {
		n++
	}
	if humanoid.Set(bones, c.spec.Lower, sol.LowerLocal) {
		n++
	}
	return n
}

// Forward places the chain for the given local rotations and returns the
// elbow and end positions.
func (c *Chain) Forward(upperLocal, lowerLocal mgl64.Quat) (elbow, end mgl64.Vec3) {
	upperWorld := c.spec.ParentRotation.Mul(upperLocal)
	lowerWorld := upperWorld.Mul(lowerLocal)
	elbow = c.spec.Root.Add(upperWorld.Rotate(c.axis).Mul(c.spec.UpperLength))
	end = elbow.Add(lowerWorld.Rotate(c.axis).Mul(c.spec.LowerLength))
	return elbow, end
}

// LowerWorld returns the world rotation of the lower bone for the current
// rotations in bones.
func (c *Chain) LowerWorld(bones humanoid.BoneSet) mgl64.Quat {
	upper := humanoid.Get(bones, c.spec.Upper)
	lower := humanoid.Get(bones, c.spec.Lower)
	return c.spec.ParentRotation.Mul(upper).Mul(lower).Normalize()
}

// perpendicular returns the unit component of v perpendicular to the unit
// vector dir.
func perpendicular(v, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	p := v.Sub(dir.Mul(v.Dot(dir)))
	l := p.Len()
	if scalar.EqualWithinAbs(l, 0, 1e-6) {
		return mgl64.Vec3{}, false
	}
	return p.Mul(1 / l), true
}

func anyPerpendicular(dir mgl64.Vec3) mgl64.Vec3 {
	e := mgl64.Vec3{1, 0, 0}
	switch {
	case math.Abs(dir[1]) <= math.Abs(dir[0]) && math.Abs(dir[1]) <= math.Abs(dir[2]):
		e = mgl64.Vec3{0, 1, 0}
	case math.Abs(dir[2]) <= math.Abs(dir[0]):
		e = mgl64.Vec3{0, 0, 1}
	}
	return dir.Cross(e).Normalize()
}

func finite(v mgl64.Vec3) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

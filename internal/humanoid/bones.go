// Package humanoid models the target avatar's humanoid bone set: canonical
// VRM bone names mapped to mutable local rotations.
package humanoid

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Canonical VRM humanoid bone names.
const (
	Hips       = "hips"
	Spine      = "spine"
	Chest      = "chest"
	UpperChest = "upperChest"
	Neck       = "neck"
	Head       = "head"
	LeftEye    = "leftEye"
	RightEye   = "rightEye"
	Jaw        = "jaw"

	LeftShoulder = "leftShoulder"
	LeftUpperArm = "leftUpperArm"
	LeftLowerArm = "leftLowerArm"
	LeftHand     = "leftHand"

	RightShoulder = "rightShoulder"
	RightUpperArm = "rightUpperArm"
	RightLowerArm = "rightLowerArm"
	RightHand     = "rightHand"

	LeftUpperLeg  = "leftUpperLeg"
	LeftLowerLeg  = "leftLowerLeg"
	LeftFoot      = "leftFoot"
	LeftToes      = "leftToes"
	RightUpperLeg = "rightUpperLeg"
	RightLowerLeg = "rightLowerLeg"
	RightFoot     = "rightFoot"
	RightToes     = "rightToes"
)

// Finger names the five digits as they appear in VRM bone names.
var Fingers = [5]string{"Thumb", "Index", "Middle", "Ring", "Little"}

// Segments names the three phalanx bones of every digit.
var Segments = [3]string{"Proximal", "Intermediate", "Distal"}

// FingerBone builds a finger bone name such as "rightIndexProximal".
// side is "left" or "right".
func FingerBone(side, finger, segment string) string {
	return side + finger + segment
}

// Names returns every canonical humanoid bone name, fingers included.
func Names() []string {
	names := []string{
		Hips, Spine, Chest, UpperChest, Neck, Head, LeftEye, RightEye, Jaw,
		LeftShoulder, LeftUpperArm, LeftLowerArm, LeftHand,
		RightShoulder, RightUpperArm, RightLowerArm, RightHand,
		LeftUpperLeg, LeftLowerLeg, LeftFoot, LeftToes,
		RightUpperLeg, RightLowerLeg, RightFoot, RightToes,
	}
	for _, side := range []string{"left", "right"} {
		for _, f := range Fingers {
			for _, s := range Segments {
				names = append(names, FingerBone(side, f, s))
			}
		}
	}
	return names
}

// Bone is a handle to one bone's local rotation on the target skeleton.
type Bone interface {
	Rotation() mgl64.Quat
	SetRotation(q mgl64.Quat)
}

// BoneSet looks up bones by canonical name. A missing bone is reported
// with ok == false and callers skip it.
type BoneSet interface {
	Bone(name string) (Bone, bool)
}

// Skeleton is an in-memory BoneSet. Bones are fixed at construction; the
// retargeting code only mutates rotations. It is safe for concurrent use so
// the server can read a pose while the frame loop writes.
type Skeleton struct {
	mu    sync.RWMutex
	bones map[string]*joint
}

type joint struct {
	s    *Skeleton
	name string
	rot  mgl64.Quat
}

func (j *joint) Rotation() mgl64.Quat {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	return j.rot
}

func (j *joint) SetRotation(q mgl64.Quat) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	j.rot = q
}

// NewSkeleton creates a skeleton holding the named bones, all at the
// identity rotation.
func NewSkeleton(names ...string) *Skeleton {
	s := &Skeleton{bones: make(map[string]*joint, len(names))}
	for _, n := range names {
		s.bones[n] = &joint{s: s, name: n, rot: mgl64.QuatIdent()}
	}
	return s
}

// NewFullSkeleton creates a skeleton with every canonical humanoid bone.
func NewFullSkeleton() *Skeleton {
	return NewSkeleton(Names()...)
}

// Bone implements BoneSet.
func (s *Skeleton) Bone(name string) (Bone, bool) {
	if s == nil {
		return nil, false
	}
	b, ok := s.bones[name]
	if !ok {
		return nil, false
	}
	return b, true
}

// Pose returns a copy of every bone's local rotation.
func (s *Skeleton) Pose() map[string]mgl64.Quat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]mgl64.Quat, len(s.bones))
	for n, b := range s.bones {
		out[n] = b.rot
	}
	return out
}

// BoneNames returns the bone names in sorted order.
func (s *Skeleton) BoneNames() []string {
	names := make([]string, 0, len(s.bones))
	for n := range s.bones {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Reset puts every bone back to the identity rotation.
func (s *Skeleton) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bones {
		b.rot = mgl64.QuatIdent()
	}
}

// Set writes q into the named bone if it exists and reports whether it did.
func Set(bones BoneSet, name string, q mgl64.Quat) bool {
	b, ok := bones.Bone(name)
	if !ok {
		return false
	}
	b.SetRotation(q)
	return true
}

// Get reads the named bone's rotation, falling back to identity when the
// bone is missing.
func Get(bones BoneSet, name string) mgl64.Quat {
	b, ok := bones.Bone(name)
	if !ok {
		return mgl64.QuatIdent()
	}
	return b.Rotation()
}

package humanoid

import "math"

// Preset is a named static pose: bone name to Euler angles (radians, see
// FromEuler).
type Preset struct {
	Name  string
	Bones map[string][3]float64
}

// Apply writes every rotation of p into bones, skipping bones the
// skeleton does not have. It returns the number of bones written.
func (p Preset) Apply(bones BoneSet) int {
	n := 0
	for name, e := range p.Bones {
		if Set(bones, name, FromEuler(e[0], e[1], e[2])) {
			n++
		}
	}
	return n
}

// RelaxedPreset is a resting pose with a slightly turned spine, a tilted
// head and a loosely closed right hand.
func RelaxedPreset() Preset {
	return Preset{
		Name: "relaxed",
		Bones: map[string][3]float64{
			Hips:       {0, 0, 0},
			Spine:      {-math.Pi / 20, math.Pi / 20, 0},
			Chest:      {0, 0, 0},
			UpperChest: {0, 0, 0},
			Neck:       {0, 0, 0},
			Head:       {0, 0, -math.Pi / 30},

			LeftShoulder: {0, 0, 0},
			LeftUpperArm: {0, 0, 0},
			LeftLowerArm: {0, 0, 0},
			LeftHand:     {0, 0, 0},

			RightShoulder: {0, math.Pi / 6, 0},
			RightUpperArm: {0, 0, 0},
			RightLowerArm: {0, math.Pi / 8, 0},
			RightHand:     {0, 0, math.Pi / 2},

			"rightThumbProximal":      {-math.Pi / 8, -math.Pi / 4, 0},
			"rightThumbIntermediate":  {-math.Pi / 4, 0, 0},
			"rightThumbDistal":        {0, 0, 0},
			"rightIndexProximal":      {0, math.Pi / 12, 0},
			"rightMiddleProximal":     {0, -math.Pi / 12, 0},
			"rightRingProximal":       {0, 0, -math.Pi / 2},
			"rightRingIntermediate":   {0, 0, -math.Pi / 2},
			"rightLittleProximal":     {0, 0, -math.Pi / 2},
			"rightLittleIntermediate": {0, 0, -math.Pi / 2},
		},
	}
}

// TPose resets every canonical bone to the identity rotation.
func TPose() Preset {
	p := Preset{Name: "tpose", Bones: make(map[string][3]float64)}
	for _, n := range Names() {
		p.Bones[n] = [3]float64{}
	}
	return p
}

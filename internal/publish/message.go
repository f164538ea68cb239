// Package publish ships retargeted poses to observers outside the process.
package publish

import (
	"time"

	"github.com/ayusman/puppet/internal/driver"
	"github.com/ayusman/puppet/internal/retarget"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

// PoseMessage is one frame of avatar pose as sent to websocket and MQTT
// subscribers. Quaternions are [x, y, z, w].
type PoseMessage struct {
	Seq     uint64                `json:"seq"`
	Time    time.Time             `json:"time"`
	Live    bool                  `json:"live"`
	Bones   map[string][4]float64 `json:"bones"`
	Targets map[string][3]float64 `json:"targets,omitempty"`

	// Wrists holds the tracked wrist Euler angles in degrees per side.
	Wrists     map[string][3]float64 `json:"wrists,omitempty"`
	Calibrated map[string]bool       `json:"calibrated"`
}

// NewPoseMessage builds the message for one driver step.
func NewPoseMessage(pose map[string]mgl64.Quat, f *tracking.Frame, res driver.Result, at time.Time) PoseMessage {
	msg := PoseMessage{
		Seq:        res.Seq,
		Time:       at,
		Live:       !res.Skipped,
		Bones:      make(map[string][4]float64, len(pose)),
		Calibrated: make(map[string]bool, 2),
	}
	for name, q := range pose {
		msg.Bones[name] = Quat(q)
	}

	for _, s := range tracking.Sides {
		sr := res.Sides[s]
		msg.Calibrated[s.String()] = sr.Calibrated
		if !sr.Valid {
			continue
		}
		if sr.Calibrated {
			if msg.Targets == nil {
				msg.Targets = make(map[string][3]float64, 2)
			}
			msg.Targets[s.String()] = [3]float64(sr.Target)
		}
		if msg.Wrists == nil {
			msg.Wrists = make(map[string][3]float64, 2)
		}
		msg.Wrists[s.String()] = retarget.WristDegrees(s, f.Hand(s).Orientation)
	}
	return msg
}

// Quat renders q in [x, y, z, w] order.
func Quat(q mgl64.Quat) [4]float64 {
	return [4]float64{q.V[0], q.V[1], q.V[2], q.W}
}

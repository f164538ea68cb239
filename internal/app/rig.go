package app

import (
	"fmt"

	"github.com/ayusman/puppet/internal/config"
	"github.com/ayusman/puppet/internal/driver"
	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/ayusman/puppet/internal/ik"
	"github.com/ayusman/puppet/internal/retarget"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

// ReachConfig converts the reach section of the file config.
func ReachConfig(c config.ReachConfig) retarget.ReachConfig {
	return retarget.ReachConfig{
		OutwardRatio:       c.OutwardRatio,
		VerticalMultiplier: c.VerticalMultiplier,
		ScaleOverride:      [3]*float64{c.ScaleOverride.X, c.ScaleOverride.Y, c.ScaleOverride.Z},
		Clamp:              [3]bool{c.Clamp.X, c.Clamp.Y, c.Clamp.Z},
	}
}

// Arms builds the IK chains and avatar references of every enabled arm.
func Arms(cfg *config.Config) (map[tracking.Side]driver.Arm, error) {
	arms := make(map[tracking.Side]driver.Arm, 2)
	for _, s := range tracking.Sides {
		ac := cfg.Arms.Right
		upper, lower := humanoid.RightUpperArm, humanoid.RightLowerArm
		if s == tracking.Left {
			ac = cfg.Arms.Left
			upper, lower = humanoid.LeftUpperArm, humanoid.LeftLowerArm
		}
		if !ac.Enabled {
			continue
		}

		pr := ac.ParentRotation
		chain, err := ik.NewChain(ik.Spec{
			Upper:          upper,
			Lower:          lower,
			Root:           mgl64.Vec3(ac.Shoulder),
			ParentRotation: humanoid.FromEuler(pr[0], pr[1], pr[2]),
			Axis:           mgl64.Vec3(ac.Axis),
			Hinge:          mgl64.Vec3(ac.Hinge),
			UpperLength:    ac.UpperLength,
			LowerLength:    ac.LowerLength,
			Pole:           mgl64.Vec3(ac.Pole),
			PoleAngle:      cfg.IK.PoleAngle,
			MaxAngle:       cfg.IK.MaxAngle,
		})
		if err != nil {
			return nil, fmt.Errorf("%s arm: %w", s, err)
		}

		ref := retarget.AvatarReference{
			Head:  mgl64.Vec3(cfg.Avatar.Head),
			Wrist: mgl64.Vec3(ac.AvatarWrist),
		}
		if ac.IKTarget != nil {
			ref.Target = mgl64.Vec3(*ac.IKTarget)
		}
		arms[s] = driver.Arm{Chain: chain, Avatar: ref}
	}
	return arms, nil
}

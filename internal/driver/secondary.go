package driver

import "time"

// SecondaryMotion is anything that advances on its own once the pose for a
// frame is final, such as spring-bone hair and cloth. It is called every
// frame, including frames whose pose update was skipped.
type SecondaryMotion interface {
	Update(dt time.Duration)
}

// SecondaryMotionFunc adapts a function to SecondaryMotion.
type SecondaryMotionFunc func(dt time.Duration)

// Update calls f(dt).
func (f SecondaryMotionFunc) Update(dt time.Duration) {
	f(dt)
}

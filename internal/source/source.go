// Package source feeds tracking frames to the retargeting loop.
package source

import "github.com/ayusman/puppet/internal/tracking"

// Source is anything that can provide tracking frames over time. Next
// reports false when it has nothing usable for the current tick.
type Source interface {
	Next() (tracking.Frame, bool)
}

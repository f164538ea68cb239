package source

import (
	"math"
	"time"

	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

// MockOptions shapes the synthetic performer.
type MockOptions struct {
	Head   mgl64.Vec3
	Radius float64 // wrist circle radius
	Period time.Duration
}

// DefaultMockOptions returns a performer of average height tracing a
// 15 cm circle with the right hand every four seconds.
func DefaultMockOptions() MockOptions {
	return MockOptions{
		Head:   mgl64.Vec3{0, 1.6, 0},
		Radius: 0.15,
		Period: 4 * time.Second,
	}
}

type mockSource struct {
	opts  MockOptions
	start time.Time
	last  time.Time
	seq   uint64
	now   func() time.Time
}

// NewMockSource creates a source that generates smoothly changing frames:
// the right wrist circles in front of the chest while the fingers open and
// close. The left hand is reported absent.
func NewMockSource(opts MockOptions) Source {
	if opts.Period <= 0 {
		opts.Period = DefaultMockOptions().Period
	}
	now := time.Now
	return &mockSource{opts: opts, start: now(), now: now}
}

func (m *mockSource) Next() (tracking.Frame, bool) {
	t := m.now()
	phase := 2 * math.Pi * t.Sub(m.start).Seconds() / m.opts.Period.Seconds()

	centre := m.opts.Head.Add(mgl64.Vec3{0.25, -0.4, -0.3})
	wrist := centre.Add(mgl64.Vec3{math.Cos(phase), math.Sin(phase), 0}.Mul(m.opts.Radius))
	curl := 0.6 * (1 - math.Cos(phase)) / 2

	f := tracking.NewFrame()
	m.seq++
	f.Seq = m.seq
	f.Head = m.opts.Head
	f.Hands[tracking.Right] = tracking.CurledHand(tracking.Right, wrist, curl)
	if !m.last.IsZero() {
		f.Delta = t.Sub(m.last)
	}
	m.last = t
	return f, true
}

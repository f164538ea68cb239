package source

import (
	"sync"
	"time"

	"github.com/ayusman/puppet/internal/tracking"
)

// DefaultMaxAge is how long a frame stays current without a newer one.
const DefaultMaxAge = 250 * time.Millisecond

// Latest holds the most recent frame written by a producer goroutine
// (websocket ingest, camera) for the single consumer loop. Older frames
// are overwritten, never queued.
type Latest struct {
	mu     sync.Mutex
	frame  tracking.Frame
	at     time.Time
	has    bool
	puts   uint64
	maxAge time.Duration
	now    func() time.Time
}

// NewLatest creates a holder whose frames expire after maxAge. A
// non-positive maxAge uses DefaultMaxAge.
func NewLatest(maxAge time.Duration) *Latest {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Latest{maxAge: maxAge, now: time.Now}
}

// Put replaces the held frame.
func (l *Latest) Put(f tracking.Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame = f
	l.at = l.now()
	l.has = true
	l.puts++
}

// Next returns the held frame while it is current. Once it expires the
// producer is treated as lost and Next returns an empty frame and false.
func (l *Latest) Next() (tracking.Frame, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.has || l.now().Sub(l.at) > l.maxAge {
		return tracking.NewFrame(), false
	}
	return l.frame, true
}

// Puts returns how many frames were written.
func (l *Latest) Puts() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.puts
}

// LastUpdate returns when the last frame arrived.
func (l *Latest) LastUpdate() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.at
}

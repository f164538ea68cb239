package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// MotionOptions tunes frame differencing.
type MotionOptions struct {
	// Threshold is the percentage of changed pixels that counts as motion.
	Threshold float64
	// BlurSize is the odd Gaussian kernel size applied before differencing.
	BlurSize int
	// PixelDelta is the per-pixel grey level change that marks a pixel as
	// changed.
	PixelDelta float64
}

// DefaultMotionOptions returns options that ignore sensor noise but catch
// a hand moving across a 640x480 frame.
func DefaultMotionOptions() MotionOptions {
	return MotionOptions{
		Threshold:  0.5,
		BlurSize:   21,
		PixelDelta: 25,
	}
}

// Motion is the result of comparing a frame with the previous one.
type Motion struct {
	Moved   bool
	Changed float64 // percent of pixels that changed
}

// MotionDetector compares consecutive frames. The camera source uses it to
// skip the landmark detector while the scene is still.
type MotionDetector struct {
	opts     MotionOptions
	prevGray gocv.Mat
	primed   bool
	mu       sync.Mutex
}

// NewMotionDetector creates a MotionDetector. Invalid options fall back to
// DefaultMotionOptions field by field.
func NewMotionDetector(opts MotionOptions) *MotionDetector {
	def := DefaultMotionOptions()
	if opts.Threshold <= 0 {
		opts.Threshold = def.Threshold
	}
	if opts.BlurSize <= 0 || opts.BlurSize%2 == 0 {
		opts.BlurSize = def.BlurSize
	}
	if opts.PixelDelta <= 0 {
		opts.PixelDelta = def.PixelDelta
	}
	return &MotionDetector{
		opts:     opts,
		prevGray: gocv.NewMat(),
	}
}

// Detect compares frame with the previous frame. The first frame after
// creation or Reset only primes the detector and reports motion, so a
// fresh source always runs detection once.
func (m *MotionDetector) Detect(frame *gocv.Mat) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Motion{}
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := m.opts.BlurSize
	gocv.GaussianBlur(gray, &blurred, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)

	if !m.primed || m.prevGray.Rows() != blurred.Rows() || m.prevGray.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.primed = true
		return Motion{Moved: true, Changed: 100}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, float32(m.opts.PixelDelta), 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0
	blurred.CopyTo(&m.prevGray)

	return Motion{Moved: changed > m.opts.Threshold, Changed: changed}
}

// Reset drops the previous frame so the next Detect primes again.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases the stored frame. The detector may be used again after
// Close; it simply primes again.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.primed = false
}

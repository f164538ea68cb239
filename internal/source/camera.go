package source

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/puppet/internal/capture"
	"github.com/ayusman/puppet/internal/detector"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
	"gocv.io/x/gocv"
)

// ErrNoPreview is returned by Preview before the first camera frame.
var ErrNoPreview = errors.New("no camera frame yet")

// Camera pacing.
const (
	// IdleFPS is the frame rate while the scene is still.
	IdleFPS = 5
	// ActiveFPS is the frame rate while hands are moving.
	ActiveFPS = 30
	// IdleTimeout is how long without motion before dropping to IdleFPS.
	IdleTimeout = 2 * time.Second
)

// CameraOptions configures a Camera source.
type CameraOptions struct {
	Projection detector.Projection
	// Head is reported as the head position of every frame. A webcam has
	// no head tracking, so this is a fixed point in front of the camera.
	Head mgl64.Vec3
	// MinScore drops hands the detector is unsure about.
	MinScore float64
}

// Camera pumps webcam frames through motion gating and landmark detection
// into a Latest holder. While the scene is still the last detected hands
// are re-published without running the detector.
type Camera struct {
	camera   capture.Camera
	motion   *capture.MotionDetector
	detector detector.Detector
	opts     CameraOptions
	out      *Latest
	logger   *slog.Logger

	hands      [2]tracking.Hand
	seq        uint64
	lastMotion time.Time
	lastTick   time.Time
	active     bool

	previewMu sync.Mutex
	preview   gocv.Mat
}

// NewCamera creates a camera source writing into out.
func NewCamera(cam capture.Camera, motion *capture.MotionDetector, det detector.Detector, opts CameraOptions, out *Latest, logger *slog.Logger) *Camera {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Camera{
		camera:   cam,
		motion:   motion,
		detector: det,
		opts:     opts,
		out:      out,
		logger:   logger,
		preview:  gocv.NewMat(),
	}
	c.clearHands()
	return c
}

// Run opens the camera and pumps frames until ctx is done.
func (c *Camera) Run(ctx context.Context) error {
	if err := c.camera.Open(); err != nil {
		return err
	}
	defer func() {
		if err := c.camera.Close(); err != nil {
			c.logger.Warn("close camera", "err", err)
		}
		c.motion.Close()
		if err := c.detector.Close(); err != nil {
			c.logger.Warn("close detector", "err", err)
		}
		c.previewMu.Lock()
		c.preview.Close()
		c.previewMu.Unlock()
	}()

	c.camera.SetFPS(IdleFPS)
	ticker := time.NewTicker(time.Second / IdleFPS)
	defer ticker.Stop()

	c.logger.Info("camera source started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("camera source stopped")
			return nil
		case now := <-ticker.C:
			wasActive := c.active
			if err := c.Tick(now); err != nil {
				c.logger.Warn("camera tick", "err", err)
				continue
			}
			if c.active == wasActive {
				continue
			}
			fps := IdleFPS
			if c.active {
				fps = ActiveFPS
			}
			c.camera.SetFPS(fps)
			ticker.Reset(time.Second / time.Duration(fps))
			c.logger.Debug("camera pacing changed", "fps", fps)
		}
	}
}

// Tick reads one camera frame and publishes the resulting tracking frame.
func (c *Camera) Tick(now time.Time) error {
	frame, err := c.camera.ReadFrame()
	if err != nil {
		return err
	}
	defer frame.Close()

	c.previewMu.Lock()
	frame.CopyTo(&c.preview)
	c.previewMu.Unlock()

	if c.motion.Detect(frame).Moved {
		c.lastMotion = now
		c.active = true
	} else if c.active && now.Sub(c.lastMotion) > IdleTimeout {
		c.active = false
	}

	if c.active {
		landmarks, err := c.detector.Detect(frame)
		if err != nil {
			return err
		}
		c.setHands(landmarks)
	}

	f := tracking.NewFrame()
	c.seq++
	f.Seq = c.seq
	f.Head = c.opts.Head
	f.Hands = c.hands
	if !c.lastTick.IsZero() {
		f.Delta = now.Sub(c.lastTick)
	}
	c.lastTick = now
	c.out.Put(f)
	return nil
}

// Preview returns the last camera frame encoded as JPEG.
func (c *Camera) Preview() ([]byte, error) {
	c.previewMu.Lock()
	defer c.previewMu.Unlock()

	if c.preview.Empty() {
		return nil, ErrNoPreview
	}
	buf, err := gocv.IMEncode(".jpg", c.preview)
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return bytes.Clone(buf.GetBytes()), nil
}

// Active reports whether the source is running at ActiveFPS.
func (c *Camera) Active() bool {
	return c.active
}

func (c *Camera) setHands(landmarks []detector.HandLandmarks) {
	c.clearHands()
	for _, lm := range landmarks {
		if lm.Score < c.opts.MinScore {
			continue
		}
		h, err := detector.ToHand(lm, c.opts.Projection)
		if err != nil {
			c.logger.Debug("skip hand", "err", err)
			continue
		}
		c.hands[h.Side] = h
	}
}

func (c *Camera) clearHands() {
	for _, s := range tracking.Sides {
		c.hands[s] = tracking.Hand{Side: s, Orientation: mgl64.QuatIdent()}
	}
}

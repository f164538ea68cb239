package app

import (
	"context"
	"time"

	"github.com/ayusman/puppet/internal/driver"
	"github.com/ayusman/puppet/internal/publish"
	"github.com/ayusman/puppet/internal/store"
	"github.com/ayusman/puppet/internal/tracking"
)

// Run drives the avatar at the configured rate until ctx is done. The run
// is recorded as a session when a store is configured.
func (a *App) Run(ctx context.Context) error {
	if err := a.startSession(); err != nil {
		return err
	}
	defer a.endSession()

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	a.logger.Info("retargeting loop started", "fps", a.config.FPS, "source", a.config.SourceName)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("retargeting loop stopped")
			return nil
		case now := <-ticker.C:
			a.Tick(now)
		}
	}
}

// Tick runs one frame: pull the latest tracking frame, step the driver,
// persist a fresh calibration and publish the pose.
func (a *App) Tick(now time.Time) driver.Result {
	f, _ := a.config.Source.Next()

	a.mu.Lock()
	if !a.lastTick.IsZero() {
		f.Delta = now.Sub(a.lastTick)
	}
	a.lastTick = now
	enabled := a.enabled
	a.mu.Unlock()

	if !enabled {
		// Hold the pose; only secondary motion advances.
		f = tracking.Frame{Seq: f.Seq, Delta: f.Delta}
	}

	a.stepMu.Lock()
	res := a.driver.Step(&f)
	pose := a.bones.Pose()
	a.stepMu.Unlock()

	a.mu.Lock()
	a.frames++
	a.live = !res.Skipped
	for _, s := range tracking.Sides {
		a.sides[s] = a.sides[s] || res.Sides[s].Calibrated
	}
	a.mu.Unlock()

	for _, s := range tracking.Sides {
		if res.Sides[s].JustCalibrated {
			a.saveCalibration(s)
		}
	}

	if a.config.Sink != nil {
		if err := a.config.Sink.Publish(publish.NewPoseMessage(pose, &f, res, now)); err != nil {
			a.logger.Debug("publish pose", "err", err)
		}
	}
	return res
}

func (a *App) startSession() error {
	if a.config.Store == nil {
		return nil
	}
	sess := &store.Session{Source: a.config.SourceName}
	if err := a.config.Store.Sessions().Create(sess); err != nil {
		return err
	}

	a.mu.Lock()
	a.session = sess
	a.frames = 0
	a.mu.Unlock()

	a.logger.Info("session started", "id", sess.ID)
	return nil
}

func (a *App) endSession() {
	a.mu.Lock()
	sess, frames := a.session, a.frames
	a.session = nil
	a.mu.Unlock()

	if sess == nil {
		return
	}
	if err := a.config.Store.Sessions().End(sess.ID, frames); err != nil {
		a.logger.Error("end session", "id", sess.ID, "err", err)
		return
	}
	a.logger.Info("session ended", "id", sess.ID, "frames", frames)
}

func (a *App) saveCalibration(s tracking.Side) {
	snap, ok := a.driver.Snapshot(s)
	if !ok {
		return
	}
	a.logger.Info("reach calibrated", "side", s, "ratio", snap.Ratio)

	a.mu.RLock()
	sess := a.session
	a.mu.RUnlock()
	if sess == nil {
		return
	}
	if err := a.config.Store.Calibrations().Save(sess.ID, s, snap); err != nil {
		a.logger.Error("save calibration", "side", s, "err", err)
	}
}

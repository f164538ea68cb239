package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/puppet/internal/config"
	"github.com/ayusman/puppet/internal/driver"
	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/ayusman/puppet/internal/publish"
	"github.com/ayusman/puppet/internal/store"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
)

// scriptSource replays frames and then repeats the last one.
type scriptSource struct {
	mu     sync.Mutex
	frames []tracking.Frame
	i      int
}

func (s *scriptSource) Next() (tracking.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return tracking.NewFrame(), false
	}
	f := s.frames[min(s.i, len(s.frames)-1)]
	s.i++
	return f, true
}

type captureSink struct {
	mu   sync.Mutex
	msgs []publish.PoseMessage
}

func (c *captureSink) Publish(m publish.PoseMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *captureSink) last() (publish.PoseMessage, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msgs) == 0 {
		return publish.PoseMessage{}, 0
	}
	return c.msgs[len(c.msgs)-1], len(c.msgs)
}

func trackedFrame(seq uint64) tracking.Frame {
	f := tracking.NewFrame()
	f.Seq = seq
	f.Head = mgl64.Vec3{0, 1.6, 0}
	f.Hands[tracking.Right] = tracking.CurledHand(tracking.Right, mgl64.Vec3{0.3, 1.2, -0.3}, 0.3)
	return f
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestApp(t *testing.T, src *scriptSource, s *store.Store, sink publish.Sink) *App {
	t.Helper()
	cfg := config.Default()
	arms, err := Arms(cfg)
	if err != nil {
		t.Fatalf("Arms() error = %v", err)
	}
	a, err := New(Config{
		FPS:    cfg.FPS,
		Store:  s,
		Source: src,
		Driver: driver.Config{Reach: ReachConfig(cfg.Reach)},
		Arms:   arms,
		Sink:   sink,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() without a source should fail")
	}
}

func TestNew_SeedsPresets(t *testing.T) {
	s := newTestStore(t)
	newTestApp(t, &scriptSource{}, s, nil)

	for _, name := range []string{"relaxed", "tpose"} {
		if _, err := s.Presets().GetByName(name); err != nil {
			t.Errorf("preset %q not seeded: %v", name, err)
		}
	}
}

func TestArms_DefaultConfig(t *testing.T) {
	cfg := config.Default()
	arms, err := Arms(cfg)
	if err != nil {
		t.Fatalf("Arms() error = %v", err)
	}
	if arm, ok := arms[tracking.Right]; !ok || arm.Chain == nil {
		t.Fatal("right arm should be built with a chain")
	}
	if _, ok := arms[tracking.Left]; ok {
		t.Error("disabled left arm should be omitted")
	}

	cfg.Arms.Left.Enabled = true
	arms, err = Arms(cfg)
	if err != nil {
		t.Fatalf("Arms() error = %v", err)
	}
	if len(arms) != 2 {
		t.Errorf("len(arms) = %d, want 2", len(arms))
	}
}

func TestApp_TickDrivesAndPublishes(t *testing.T) {
	s := newTestStore(t)
	sink := &captureSink{}
	src := &scriptSource{frames: []tracking.Frame{trackedFrame(1), trackedFrame(2)}}
	a := newTestApp(t, src, s, sink)

	if err := a.startSession(); err != nil {
		t.Fatalf("startSession() error = %v", err)
	}

	start := time.Now()
	res := a.Tick(start)
	if res.Skipped {
		t.Fatal("tracked frame should not be skipped")
	}
	if !res.Sides[tracking.Right].JustCalibrated {
		t.Error("first tracked frame should calibrate the right side")
	}

	msg, n := sink.last()
	if n != 1 {
		t.Fatalf("published %d messages, want 1", n)
	}
	if !msg.Live || !msg.Calibrated["right"] {
		t.Errorf("message = %+v, want live and calibrated", msg)
	}
	if _, ok := msg.Bones[humanoid.RightUpperArm]; !ok {
		t.Error("message should carry the upper arm rotation")
	}

	res = a.Tick(start.Add(16 * time.Millisecond))
	if res.Sides[tracking.Right].JustCalibrated {
		t.Error("calibration should only be captured once")
	}

	st := a.Status()
	if st.Frames != 2 || !st.Live || !st.Calibrated[tracking.Right] {
		t.Errorf("Status() = %+v", st)
	}

	cals, err := s.Calibrations().ListBySession(st.SessionID)
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(cals) != 1 || cals[0].Side != "right" {
		t.Fatalf("calibrations = %+v, want one right", cals)
	}

	a.endSession()
	sess, err := s.Sessions().GetByID(st.SessionID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if sess.Frames != 2 || sess.EndedAt == nil {
		t.Errorf("session = %+v, want 2 frames and ended", sess)
	}
}

func TestApp_DisabledHoldsPose(t *testing.T) {
	sink := &captureSink{}
	src := &scriptSource{frames: []tracking.Frame{trackedFrame(1)}}
	a := newTestApp(t, src, nil, sink)

	a.Tick(time.Now())
	before := a.Bones().Pose()

	a.SetEnabled(false)
	if a.IsEnabled() {
		t.Fatal("IsEnabled() = true after SetEnabled(false)")
	}
	src.frames[0].Hands[tracking.Right].Joints[tracking.Wrist] = mgl64.Vec3{0.1, 1.4, -0.4}
	res := a.Tick(time.Now())
	if !res.Skipped {
		t.Error("disabled app should skip retargeting")
	}

	after := a.Bones().Pose()
	for name, q := range before {
		if !q.ApproxEqual(after[name]) {
			t.Errorf("bone %s moved while disabled", name)
		}
	}
	if msg, _ := sink.last(); msg.Live {
		t.Error("message should not be live while disabled")
	}
}

func TestApp_ApplyPreset(t *testing.T) {
	s := newTestStore(t)
	a := newTestApp(t, &scriptSource{}, s, nil)

	n, err := a.ApplyPreset("tpose")
	if err != nil {
		t.Fatalf("ApplyPreset() error = %v", err)
	}
	if n != len(humanoid.TPose().Bones) {
		t.Errorf("applied %d bones, want %d", n, len(humanoid.TPose().Bones))
	}

	custom := &store.Preset{Name: "salute", Bones: map[string][3]float64{humanoid.Head: {0.2, 0, 0}}}
	if err := s.Presets().Create(custom); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if n, err := a.ApplyPreset("salute"); err != nil || n != 1 {
		t.Errorf("ApplyPreset(salute) = %d, %v", n, err)
	}
	want := humanoid.FromEuler(0.2, 0, 0)
	if got := humanoid.Get(a.Bones(), humanoid.Head); !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("head = %v, want %v", got, want)
	}

	if _, err := a.ApplyPreset("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("ApplyPreset(missing) = %v, want ErrNotFound", err)
	}
}

func TestApp_ApplyPresetWithoutStore(t *testing.T) {
	a := newTestApp(t, &scriptSource{}, nil, nil)
	if _, err := a.ApplyPreset("relaxed"); err != nil {
		t.Errorf("built-in preset should apply without a store: %v", err)
	}
}

func TestApp_StartupPreset(t *testing.T) {
	_, err := New(Config{Source: &scriptSource{}, Preset: "missing"})
	if err == nil {
		t.Error("unknown startup preset should fail New()")
	}
}

func TestApp_RunRecordsSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	s := newTestStore(t)
	sink := &captureSink{}
	src := &scriptSource{frames: []tracking.Frame{trackedFrame(1)}}
	a := newTestApp(t, src, s, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, n := sink.last(); n == 0 {
		t.Error("Run() should publish poses")
	}
	sessions, err := s.Sessions().List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	if sessions[0].EndedAt == nil || sessions[0].Frames == 0 {
		t.Errorf("session = %+v, want ended with frames", sessions[0])
	}
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ayusman/puppet/internal/app"
	"github.com/ayusman/puppet/internal/capture"
	"github.com/ayusman/puppet/internal/config"
	"github.com/ayusman/puppet/internal/detector"
	"github.com/ayusman/puppet/internal/driver"
	"github.com/ayusman/puppet/internal/publish"
	"github.com/ayusman/puppet/internal/server"
	"github.com/ayusman/puppet/internal/source"
	"github.com/ayusman/puppet/internal/store"
	"github.com/ayusman/puppet/internal/tracking"
	"github.com/ayusman/puppet/internal/tray"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr   string
	Mock   bool
	Tray   bool
	WebDir string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the retargeting loop and the HTTP/WebSocket server",
		Long: `Run the retargeting loop. Tracking frames arrive on /ws/tracking, from
the MQTT tracking topic or from the webcam; poses leave on /ws/pose and the
MQTT pose topic.

Example:
  puppet serve --config puppet.yaml
  puppet serve --mock --verbose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&opts.Mock, "mock", false, "drive the avatar from a synthetic circling hand")
	cmd.Flags().BoolVar(&opts.Tray, "tray", false, "show a system tray menu")
	cmd.Flags().StringVar(&opts.WebDir, "web", "", "directory of static web files")

	return cmd
}

func runServe(parent context.Context, opts *ServeOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	logger, err := newLogger(cfg.Log, os.Stderr, opts.Verbose)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("opening store", "path", cfg.Store.Path)
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}
	}()

	latest := source.NewLatest(source.DefaultMaxAge)
	hub := server.NewPoseHub(logger.With("component", "hub"))
	sinks := publish.Multi{hub}

	var src source.Source = latest
	sourceName := "websocket"

	if cfg.MQTT.Broker != "" {
		mq, err := publish.DialMQTT(publish.MQTTOptions{
			Broker:        cfg.MQTT.Broker,
			ClientID:      cfg.MQTT.ClientID,
			Topic:         cfg.MQTT.Topic,
			TrackingTopic: cfg.MQTT.TrackingTopic,
		}, logger.With("component", "mqtt"))
		if err != nil {
			return err
		}
		defer mq.Close()
		sinks = append(sinks, mq)

		if cfg.MQTT.TrackingTopic != "" {
			if err := mq.SubscribeFrames(latest.Put); err != nil {
				return err
			}
			sourceName = "mqtt"
		}
	}

	var camera *source.Camera
	switch {
	case opts.Mock:
		src = source.NewMockSource(source.DefaultMockOptions())
		sourceName = "mock"
	case cfg.Camera.Enabled:
		camera, err = newCameraSource(cfg, latest, logger)
		if err != nil {
			return err
		}
		sourceName = "camera"
	}

	arms, err := app.Arms(cfg)
	if err != nil {
		return err
	}
	a, err := app.New(app.Config{
		FPS:        cfg.FPS,
		Store:      st,
		Source:     src,
		SourceName: sourceName,
		Driver:     driver.Config{Reach: app.ReachConfig(cfg.Reach)},
		Arms:       arms,
		Sink:       sinks,
		Preset:     cfg.Preset,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		StaticDir: findWebDir(opts.WebDir),
		Store:     st,
		Hub:       hub,
		Ingest:    latest.Put,
		Presets:   a,
		Logger:    logger.With("component", "server"),
	}
	if camera != nil {
		srvCfg.Preview = camera
	}
	srv := server.New(srvCfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(gctx) })
	g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Server.Addr) })
	if camera != nil {
		g.Go(func() error { return camera.Run(gctx) })
	}

	logger.Info("puppet started", "addr", cfg.Server.Addr, "source", sourceName)

	if opts.Tray {
		t := newTray(a, cancel, logger)
		go func() {
			<-gctx.Done()
			t.Quit()
		}()
		go watchStatus(gctx, a, t)
		// The tray owns the main thread until quit.
		t.Run()
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("puppet stopped")
	return nil
}

func newCameraSource(cfg *config.Config, out *source.Latest, logger *slog.Logger) (*source.Camera, error) {
	det, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		return nil, err
	}
	cam := capture.NewCamera(capture.Options{Device: cfg.Camera.Device})
	motion := capture.NewMotionDetector(capture.DefaultMotionOptions())

	head := mgl64.Vec3(cfg.Camera.Head)
	return source.NewCamera(cam, motion, det, source.CameraOptions{
		Projection: detector.Projection{
			Origin: head.Sub(mgl64.Vec3{0, 0.4, 0.3}),
			Scale:  cfg.Camera.Scale,
			Mirror: cfg.Camera.Mirror,
		},
		Head:     head,
		MinScore: detector.DefaultConfig().MinConfidence,
	}, out, logger.With("component", "camera")), nil
}

func newTray(a *app.App, quit func(), logger *slog.Logger) *tray.Tray {
	t := tray.New("relaxed", "tpose")
	t.OnToggle(a.SetEnabled)
	t.OnPreset(func(name string) {
		if _, err := a.ApplyPreset(name); err != nil {
			logger.Warn("apply preset", "name", name, "err", err)
		}
	})
	t.OnQuit(quit)
	return t
}

func watchStatus(ctx context.Context, a *app.App, t *tray.Tray) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.SetStatus(trayStatus(a.Status()))
		}
	}
}

func trayStatus(st app.Status) tray.Status {
	ts := tray.Status{Live: st.Live}
	for _, s := range tracking.Sides {
		if st.Calibrated[s] {
			ts.Calibrated = append(ts.Calibrated, s.String())
		}
	}
	return ts
}

// findWebDir returns dir when given, else the first of "web", "../web"
// and ~/.puppet/web that exists. Empty means no static files.
func findWebDir(dir string) string {
	if dir != "" {
		return dir
	}
	candidates := []string{"web", "../web"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".puppet", "web"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

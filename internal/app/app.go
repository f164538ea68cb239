// Package app wires a tracking source, the retargeting driver, the store
// and pose sinks into the running puppet application.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/puppet/internal/driver"
	"github.com/ayusman/puppet/internal/humanoid"
	"github.com/ayusman/puppet/internal/publish"
	"github.com/ayusman/puppet/internal/source"
	"github.com/ayusman/puppet/internal/store"
	"github.com/ayusman/puppet/internal/tracking"
)

// DefaultFPS is the loop rate used when Config.FPS is unset.
const DefaultFPS = 60

// Config holds configuration options for the application.
type Config struct {
	FPS int

	// Store persists sessions, calibrations and presets. Optional.
	Store *store.Store

	Source     source.Source
	SourceName string // recorded on the session, e.g. "websocket"

	Driver driver.Config
	Arms   map[tracking.Side]driver.Arm

	// Sink receives one pose message per tick. Optional.
	Sink publish.Sink

	// Preset is applied once before the first tick when set.
	Preset string

	Secondary []driver.SecondaryMotion
	Logger    *slog.Logger
}

// Status is a point-in-time summary of the application.
type Status struct {
	Enabled    bool
	SessionID  string
	Frames     int64
	Live       bool
	Calibrated [2]bool
}

// App is the main application that drives the avatar from tracking input.
type App struct {
	config Config
	logger *slog.Logger
	bones  *humanoid.Skeleton
	driver *driver.Driver

	// stepMu serializes pose writers: the loop and preset application.
	stepMu sync.Mutex

	mu       sync.RWMutex
	enabled  bool
	session  *store.Session
	frames   int64
	live     bool
	lastTick time.Time
	sides    [2]bool
}

// New creates a new App instance with the given configuration. It seeds
// the built-in presets when a store is configured.
func New(config Config) (*App, error) {
	if config.Source == nil {
		return nil, errors.New("app: no tracking source")
	}
	if config.FPS <= 0 {
		config.FPS = DefaultFPS
	}
	if config.SourceName == "" {
		config.SourceName = "websocket"
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	config.Driver.Logger = logger.With("component", "driver")

	bones := humanoid.NewFullSkeleton()
	a := &App{
		config:  config,
		logger:  logger,
		bones:   bones,
		driver:  driver.New(config.Driver, bones, config.Arms, config.Secondary...),
		enabled: true,
	}

	if config.Store != nil {
		for _, p := range []humanoid.Preset{humanoid.RelaxedPreset(), humanoid.TPose()} {
			inserted, err := config.Store.Presets().Seed(p)
			if err != nil {
				return nil, fmt.Errorf("seed preset %s: %w", p.Name, err)
			}
			if inserted {
				logger.Info("seeded preset", "name", p.Name)
			}
		}
	}

	if config.Preset != "" {
		n, err := a.ApplyPreset(config.Preset)
		if err != nil {
			return nil, fmt.Errorf("apply preset %s: %w", config.Preset, err)
		}
		logger.Info("applied preset", "name", config.Preset, "bones", n)
	}

	return a, nil
}

// SetEnabled enables or disables retargeting. While disabled the avatar
// holds its pose and secondary motion keeps running.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.enabled != enabled {
		a.logger.Info("retargeting toggled", "enabled", enabled)
	}
	a.enabled = enabled
}

// IsEnabled returns whether retargeting is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Bones returns the avatar skeleton.
func (a *App) Bones() *humanoid.Skeleton {
	return a.bones
}

// Status returns a snapshot of the application state.
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	st := Status{
		Enabled:    a.enabled,
		Frames:     a.frames,
		Live:       a.live,
		Calibrated: a.sides,
	}
	if a.session != nil {
		st.SessionID = a.session.ID
	}
	return st
}

// ApplyPreset poses the avatar with a preset. Stored presets take
// precedence over the built-in ones, which remain available without a
// store.
func (a *App) ApplyPreset(name string) (int, error) {
	p, err := a.lookupPreset(name)
	if err != nil {
		return 0, err
	}

	a.stepMu.Lock()
	defer a.stepMu.Unlock()
	return p.Apply(a.bones), nil
}

func (a *App) lookupPreset(name string) (humanoid.Preset, error) {
	if a.config.Store != nil {
		p, err := a.config.Store.Presets().GetByName(name)
		if err == nil {
			return p.Pose(), nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return humanoid.Preset{}, err
		}
	}
	for _, p := range []humanoid.Preset{humanoid.RelaxedPreset(), humanoid.TPose()} {
		if p.Name == name {
			return p, nil
		}
	}
	return humanoid.Preset{}, store.ErrNotFound
}

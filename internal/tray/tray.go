// Package tray provides a system tray menu for toggling retargeting and
// watching tracking status.
package tray

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"
)

// Status is what the tray displays about the running loop.
type Status struct {
	Live       bool
	Calibrated []string // calibrated sides, e.g. "right"
}

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onPreset   func(name string)
	onSettings func()
	onQuit     func()
	presets    []string
	enabled    bool
	mu         sync.RWMutex

	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a new Tray. Each preset name gets a menu item.
func New(presets ...string) *Tray {
	return &Tray{
		enabled: true,
		presets: presets,
	}
}

// OnToggle sets the callback called when retargeting is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnPreset sets the callback called when a preset item is clicked.
func (t *Tray) OnPreset(fn func(name string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPreset = fn
}

// OnSettings sets the callback called when the settings item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback called when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Puppet")
	systray.SetTooltip("Puppet avatar retargeting")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle retargeting")
	systray.AddSeparator()
	t.menuStatus = systray.AddMenuItem(statusTitle(Status{}), "Tracking status")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	for _, name := range t.presets {
		item := systray.AddMenuItem("Pose: "+name, "Apply the "+name+" preset")
		go func(name string) {
			for range item.ClickedCh {
				t.handlePreset(name)
			}
		}(name)
	}
	if len(t.presets) > 0 {
		systray.AddSeparator()
	}

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Puppet")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Outside the lock: the callback may call back into the tray.
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handlePreset(name string) {
	t.mu.RLock()
	callback := t.onPreset
	t.mu.RUnlock()

	if callback != nil {
		callback(name)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetStatus updates the status line in the menu.
func (t *Tray) SetStatus(st Status) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(st))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Retargeting"
	}
	return "○ Paused"
}

func statusTitle(st Status) string {
	var b strings.Builder
	if st.Live {
		b.WriteString("Tracking: live")
	} else {
		b.WriteString("Tracking: lost")
	}
	if len(st.Calibrated) > 0 {
		b.WriteString(" | calibrated: ")
		b.WriteString(strings.Join(st.Calibrated, ", "))
	}
	return b.String()
}

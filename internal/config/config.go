// Package config loads the puppet configuration from a YAML file layered
// over built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Vec3 is a position or direction written as [x, y, z].
type Vec3 [3]float64

// Config is the full application configuration.
type Config struct {
	FPS    int          `yaml:"fps"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	MQTT   MQTTConfig   `yaml:"mqtt"`
	Camera CameraConfig `yaml:"camera"`
	IK     IKConfig     `yaml:"ik"`
	Reach  ReachConfig  `yaml:"reach"`
	Avatar AvatarConfig `yaml:"avatar"`
	Arms   ArmsConfig   `yaml:"arms"`

	// Preset names a stored pose preset applied at startup.
	Preset string `yaml:"preset"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// MQTTConfig configures the optional pose sink. An empty broker disables
// it.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`

	// TrackingTopic, when set, is subscribed for tracking frames in the
	// websocket wire format.
	TrackingTopic string `yaml:"tracking_topic"`
}

// CameraConfig configures the webcam tracking source.
type CameraConfig struct {
	Enabled bool `yaml:"enabled"`
	Device  int  `yaml:"device"`

	// Head is the fixed head position reported with camera frames.
	Head Vec3 `yaml:"head"`

	// Scale converts normalized image landmarks to meters.
	Scale float64 `yaml:"scale"`

	// Mirror is set when the camera delivers selfie-view images.
	Mirror bool `yaml:"mirror"`
}

type IKConfig struct {
	PoleAngle float64 `yaml:"pole_angle"`
	MaxAngle  float64 `yaml:"max_angle"`
}

// AxisOverride holds optional per-axis values.
type AxisOverride struct {
	X *float64 `yaml:"x"`
	Y *float64 `yaml:"y"`
	Z *float64 `yaml:"z"`
}

// AxisToggle holds per-axis switches.
type AxisToggle struct {
	X bool `yaml:"x"`
	Y bool `yaml:"y"`
	Z bool `yaml:"z"`
}

type ReachConfig struct {
	OutwardRatio       float64      `yaml:"outward_ratio"`
	VerticalMultiplier float64      `yaml:"vertical_multiplier"`
	ScaleOverride      AxisOverride `yaml:"scale_override"`
	Clamp              AxisToggle   `yaml:"clamp"`
}

type AvatarConfig struct {
	Head Vec3 `yaml:"head"`
}

type ArmsConfig struct {
	Right ArmConfig `yaml:"right"`
	Left  ArmConfig `yaml:"left"`
}

// ArmConfig describes one avatar arm in its rest pose.
type ArmConfig struct {
	Enabled bool `yaml:"enabled"`

	Shoulder       Vec3 `yaml:"shoulder"`
	ParentRotation Vec3 `yaml:"parent_rotation"` // Euler radians, YXZ order
	Axis           Vec3 `yaml:"axis"`
	Hinge          Vec3 `yaml:"hinge"`

	UpperLength float64 `yaml:"upper_length"`
	LowerLength float64 `yaml:"lower_length"`

	Pole        Vec3  `yaml:"pole"`
	AvatarWrist Vec3  `yaml:"avatar_wrist"`
	IKTarget    *Vec3 `yaml:"ik_target"`
}

// Default returns the configuration used when no file is given. The arm
// measurements fit a 1.6 m VRM avatar standing at the origin.
func Default() *Config {
	return &Config{
		FPS: 60,
		Log: LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
		MQTT: MQTTConfig{
			Topic:    "puppet/pose",
			ClientID: "puppet",
		},
		Camera: CameraConfig{
			Device: 0,
			Head:   Vec3{0, 1.6, 0},
			Scale:  0.5,
		},
		IK: IKConfig{
			PoleAngle: 0.9 * math.Pi,
			MaxAngle:  math.Pi,
		},
		Reach: ReachConfig{
			OutwardRatio:       0.9,
			VerticalMultiplier: 2.0,
			Clamp:              AxisToggle{X: true},
		},
		Avatar: AvatarConfig{
			Head: Vec3{0, 1.5, 0},
		},
		Arms: ArmsConfig{
			Right: ArmConfig{
				Enabled:     true,
				Shoulder:    Vec3{-0.18, 1.42, -0.02},
				Axis:        Vec3{-1, 0, 0},
				Hinge:       Vec3{0, 1, 0},
				UpperLength: 0.26,
				LowerLength: 0.24,
				Pole:        Vec3{0.47, 1.36, -0.07},
				AvatarWrist: Vec3{-0.45, 1.39, -0.27},
			},
			Left: ArmConfig{
				Enabled:     false,
				Shoulder:    Vec3{0.18, 1.42, -0.02},
				Axis:        Vec3{1, 0, 0},
				Hinge:       Vec3{0, -1, 0},
				UpperLength: 0.26,
				LowerLength: 0.24,
				Pole:        Vec3{-0.47, 1.36, -0.07},
				AvatarWrist: Vec3{0.45, 1.39, -0.27},
			},
		},
		Preset: "relaxed",
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "puppet.db"
	}
	return filepath.Join(home, ".puppet", "puppet.db")
}

// Load reads path over Default and validates the result. Unknown keys are
// rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.FPS <= 0 || c.FPS > 240 {
		return fmt.Errorf("%w: fps must be in 1..240, got %d", ErrInvalid, c.FPS)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalid)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is required", ErrInvalid)
	}
	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		return fmt.Errorf("%w: mqtt.topic is required when mqtt.broker is set", ErrInvalid)
	}
	if c.Camera.Enabled && c.Camera.Scale <= 0 {
		return fmt.Errorf("%w: camera.scale must be positive", ErrInvalid)
	}
	if c.IK.MaxAngle <= 0 || c.IK.MaxAngle > math.Pi {
		return fmt.Errorf("%w: ik.max_angle must be in (0, π]", ErrInvalid)
	}
	if c.Reach.OutwardRatio <= 0 || c.Reach.VerticalMultiplier <= 0 {
		return fmt.Errorf("%w: reach ratios must be positive", ErrInvalid)
	}

	for _, arm := range []struct {
		name string
		cfg  ArmConfig
	}{{"right", c.Arms.Right}, {"left", c.Arms.Left}} {
		if !arm.cfg.Enabled {
			continue
		}
		if arm.cfg.UpperLength <= 0 || arm.cfg.LowerLength <= 0 {
			return fmt.Errorf("%w: arms.%s: link lengths must be positive", ErrInvalid, arm.name)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/pinpoint/internal/core/automation"
	"github.com/example/pinpoint/internal/core/drivepanel"
	"github.com/example/pinpoint/internal/models"
)

// Link kinds
const (
	LinkSerial    = "serial"
	LinkSimulated = "sim"
)

// Config is the pinpoint configuration file.
type Config struct {
	Database string `yaml:"database"`

	// Operator is recorded on every automation event.
	Operator string `yaml:"operator,omitempty"`

	Link       LinkConfig       `yaml:"link"`
	Automation AutomationConfig `yaml:"automation"`
	Panel      PanelConfig      `yaml:"panel"`
	Converter  ConverterConfig  `yaml:"converter"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// LinkConfig selects and configures the manipulator transport.
type LinkConfig struct {
	Kind   string `yaml:"kind"`             // "serial" or "sim"
	Device string `yaml:"device,omitempty"` // serial device path
	Baud   int    `yaml:"baud,omitempty"`

	// SimMoveDelay is how long simulated moves take.
	SimMoveDelay time.Duration `yaml:"sim_move_delay,omitempty"`

	// SimManipulators are the manipulator IDs of the simulated rig.
	SimManipulators []string `yaml:"sim_manipulators,omitempty"`
}

// AutomationConfig configures the automatic drive sequences.
type AutomationConfig struct {
	// Speed is the automatic movement speed in mm/s.
	Speed float64 `yaml:"speed"`

	// Travel is the manipulator's range on each axis in mm.
	Travel models.Vector4 `yaml:"travel"`

	// RightHanded lists manipulator IDs mounted right-handed.
	RightHanded []string `yaml:"right_handed,omitempty"`
}

// PanelConfig holds the manual drive panel defaults.
type PanelConfig struct {
	BaseSpeed         float64 `yaml:"base_speed"`
	DrivePastDistance float64 `yaml:"drive_past_distance"`
}

// ConverterConfig configures the axis-aligned coordinate converter.
type ConverterConfig struct {
	SurfaceDV float64 `yaml:"surface_dv"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// DefaultPath returns ~/.pinpoint/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".pinpoint", "config.yaml"), nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// LoadConfig reads and validates the configuration at path. ${VAR}
// placeholders are replaced from the environment. A missing file is an error
// wrapping fs.ErrNotExist so callers can fall back to Default().
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	expanded := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
		if value := os.Getenv(match[2 : len(match)-1]); value != "" {
			return value
		}
		return match
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// SaveConfig writes cfg to path, creating its directory.
func SaveConfig(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Database = filepath.Join(home, ".pinpoint", "pinpoint.db")
		}
	}
	if cfg.Link.Kind == "" {
		cfg.Link.Kind = LinkSimulated
	}
	if cfg.Link.Baud == 0 {
		cfg.Link.Baud = 115200
	}
	if cfg.Link.Kind == LinkSimulated && len(cfg.Link.SimManipulators) == 0 {
		cfg.Link.SimManipulators = []string{"1", "2"}
	}
	if cfg.Automation.Speed == 0 {
		cfg.Automation.Speed = automation.DefaultAutomaticMovementSpeed
	}
	if cfg.Automation.Travel == (models.Vector4{}) {
		cfg.Automation.Travel = models.Vector4{X: 20, Y: 20, Z: 20, W: 20}
	}
	if cfg.Panel.BaseSpeed == 0 {
		cfg.Panel.BaseSpeed = drivepanel.DefaultBaseSpeed
	}
	if cfg.Panel.DrivePastDistance == 0 {
		cfg.Panel.DrivePastDistance = drivepanel.DefaultDrivePastDistance
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Link.Kind {
	case LinkSerial:
		if c.Link.Device == "" {
			return fmt.Errorf("link.device is required for a serial link")
		}
	case LinkSimulated:
	default:
		return fmt.Errorf("unknown link kind %q (want %q or %q)", c.Link.Kind, LinkSerial, LinkSimulated)
	}

	if c.Automation.Speed < 0 || c.Panel.BaseSpeed < 0 {
		return fmt.Errorf("speeds must be positive")
	}
	if c.Panel.DrivePastDistance < 0 {
		return fmt.Errorf("panel.drive_past_distance must not be negative")
	}
	if c.Automation.Travel.X < 0 || c.Automation.Travel.Y < 0 || c.Automation.Travel.Z < 0 || c.Automation.Travel.W < 0 {
		return fmt.Errorf("automation.travel must not be negative")
	}
	return nil
}

// IsRightHanded reports whether the manipulator is listed as right-handed.
func (c *Config) IsRightHanded(manipulatorID string) bool {
	for _, id := range c.Automation.RightHanded {
		if id == manipulatorID {
			return true
		}
	}
	return false
}

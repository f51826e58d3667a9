package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file relative to the workspace.
const DefaultPath = ".folio/config.yaml"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all folio configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Sections is the ordered list of page sections; the first one is the top of the page.
	Sections []string `yaml:"sections"`

	Viewport    ViewportConfig    `yaml:"viewport"`
	Animation   AnimationConfig   `yaml:"animation"`
	Pointer     PointerConfig     `yaml:"pointer"`
	Preferences PreferencesConfig `yaml:"preferences"`
	Relay       RelayConfig       `yaml:"relay"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ViewportConfig configures scroll sampling and section visibility.
type ViewportConfig struct {
	VisibilityThreshold float64 `yaml:"visibility_threshold"`
	FrameInterval       string  `yaml:"frame_interval"`
}

// AnimationConfig configures the hero typewriter, the role rotation and staggered reveals.
type AnimationConfig struct {
	TypewriterInterval string               `yaml:"typewriter_interval"`
	Roles              []string             `yaml:"roles"`
	RoleInterval       string               `yaml:"role_interval"`
	Stagger            []StaggerGroupConfig `yaml:"stagger"`
}

// StaggerGroupConfig is one list revealed item by item: item i appears at base + i*step.
type StaggerGroupConfig struct {
	Section string `yaml:"section"`
	Name    string `yaml:"name"`
	Base    string `yaml:"base"`
	Step    string `yaml:"step"`
}

// PointerConfig configures the pointer-follow overlay.
type PointerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// PreferencesConfig selects where the theme preference is stored.
type PreferencesConfig struct {
	Backend        string `yaml:"backend"` // file, sqlite, memory
	Path           string `yaml:"path"`
	PersistTimeout string `yaml:"persist_timeout"`
	Watch          bool   `yaml:"watch"`
}

// RelayConfig configures the contact-form mail relay.
type RelayConfig struct {
	Endpoint   string `yaml:"endpoint"`
	ServiceID  string `yaml:"service_id"`
	TemplateID string `yaml:"template_id"`
	PublicKey  string `yaml:"public_key"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
	ResetAfter string `yaml:"reset_after"`
}

// Enabled reports whether a relay endpoint is configured.
func (r RelayConfig) Enabled() bool {
	return r.Endpoint != ""
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:     "folio",
		Version:  "0.3.0",
		Sections: []string{"home", "about", "projects", "contact"},

		Viewport: ViewportConfig{
			VisibilityThreshold: 0.1,
			FrameInterval:       "16ms",
		},

		Animation: AnimationConfig{
			TypewriterInterval: "80ms",
			Roles: []string{
				"Software Engineer",
				"Full Stack Developer",
				"Frontend Specialist",
				"Backend Developer",
				"Problem Solver",
			},
			RoleInterval: "3s",
			Stagger: []StaggerGroupConfig{
				{Section: "about", Name: "experience", Base: "300ms", Step: "100ms"},
				{Section: "about", Name: "skills", Base: "400ms", Step: "150ms"},
				{Section: "projects", Name: "projects", Base: "0s", Step: "150ms"},
			},
		},

		Pointer: PointerConfig{Enabled: true},

		Preferences: PreferencesConfig{
			Backend:        "file",
			Path:           ".folio/preferences.json",
			PersistTimeout: "2s",
			Watch:          true,
		},

		Relay: RelayConfig{
			Timeout:    "10s",
			MaxRetries: 3,
			ResetAfter: "5s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   ".folio/logs/folio.log",
		},
	}
}

// Load loads configuration from a YAML file over the defaults, then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// envOverrides lists every FOLIO_* variable. Pointer fields stay nil when unset.
type envOverrides struct {
	Sections            []string `env:"FOLIO_SECTIONS" envSeparator:","`
	VisibilityThreshold *float64 `env:"FOLIO_VISIBILITY_THRESHOLD"`
	FrameInterval       *string  `env:"FOLIO_FRAME_INTERVAL"`
	TypewriterInterval  *string  `env:"FOLIO_TYPEWRITER_INTERVAL"`
	Roles               []string `env:"FOLIO_ROLES" envSeparator:","`
	RoleInterval        *string  `env:"FOLIO_ROLE_INTERVAL"`
	Pointer             *bool    `env:"FOLIO_POINTER"`
	PrefsBackend        *string  `env:"FOLIO_PREFS_BACKEND"`
	PrefsPath           *string  `env:"FOLIO_PREFS_PATH"`
	PrefsWatch          *bool    `env:"FOLIO_PREFS_WATCH"`
	RelayEndpoint       *string  `env:"FOLIO_RELAY_ENDPOINT"`
	RelayServiceID      *string  `env:"FOLIO_RELAY_SERVICE_ID"`
	RelayTemplateID     *string  `env:"FOLIO_RELAY_TEMPLATE_ID"`
	RelayPublicKey      *string  `env:"FOLIO_RELAY_PUBLIC_KEY"`
	LogLevel            *string  `env:"FOLIO_LOG_LEVEL"`
	LogFormat           *string  `env:"FOLIO_LOG_FORMAT"`
	LogFile             *string  `env:"FOLIO_LOG_FILE"`
	Debug               *bool    `env:"FOLIO_DEBUG"`
}

func override[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// applyEnvOverrides applies FOLIO_* environment variables over the loaded values.
func (c *Config) applyEnvOverrides() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if len(o.Sections) > 0 {
		c.Sections = o.Sections
	}
	if len(o.Roles) > 0 {
		c.Animation.Roles = o.Roles
	}
	override(&c.Viewport.VisibilityThreshold, o.VisibilityThreshold)
	override(&c.Viewport.FrameInterval, o.FrameInterval)
	override(&c.Animation.TypewriterInterval, o.TypewriterInterval)
	override(&c.Animation.RoleInterval, o.RoleInterval)
	override(&c.Pointer.Enabled, o.Pointer)
	override(&c.Preferences.Backend, o.PrefsBackend)
	override(&c.Preferences.Path, o.PrefsPath)
	override(&c.Preferences.Watch, o.PrefsWatch)
	override(&c.Relay.Endpoint, o.RelayEndpoint)
	override(&c.Relay.ServiceID, o.RelayServiceID)
	override(&c.Relay.TemplateID, o.RelayTemplateID)
	override(&c.Relay.PublicKey, o.RelayPublicKey)
	override(&c.Logging.Level, o.LogLevel)
	override(&c.Logging.Format, o.LogFormat)
	override(&c.Logging.File, o.LogFile)
	override(&c.Logging.DebugMode, o.Debug)
	return nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("%w: at least one section is required", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Sections))
	for _, s := range c.Sections {
		if s == "" {
			return fmt.Errorf("%w: empty section id", ErrInvalid)
		}
		if seen[s] {
			return fmt.Errorf("%w: duplicate section %q", ErrInvalid, s)
		}
		seen[s] = true
	}

	if t := c.Viewport.VisibilityThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("%w: visibility_threshold %v outside (0, 1]", ErrInvalid, t)
	}

	for _, g := range c.Animation.Stagger {
		if !seen[g.Section] {
			return fmt.Errorf("%w: stagger group %q names unknown section %q", ErrInvalid, g.Name, g.Section)
		}
	}

	switch c.Preferences.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("%w: preferences backend %q (valid: file, sqlite, memory)", ErrInvalid, c.Preferences.Backend)
	}

	if c.Relay.MaxRetries < 0 {
		return fmt.Errorf("%w: relay max_retries must not be negative", ErrInvalid)
	}

	return nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// GetFrameInterval returns the frame interval as a duration.
func (c *Config) GetFrameInterval() time.Duration {
	d := parseDuration(c.Viewport.FrameInterval, 16*time.Millisecond)
	if d == 0 {
		return 16 * time.Millisecond
	}
	return d
}

// GetTypewriterInterval returns the per-grapheme typewriter delay.
func (c *Config) GetTypewriterInterval() time.Duration {
	return parseDuration(c.Animation.TypewriterInterval, 80*time.Millisecond)
}

// GetRoleInterval returns how long each role stays on screen.
func (c *Config) GetRoleInterval() time.Duration {
	return parseDuration(c.Animation.RoleInterval, 3*time.Second)
}

// GetPersistTimeout returns the bound on one theme write.
func (c *Config) GetPersistTimeout() time.Duration {
	return parseDuration(c.Preferences.PersistTimeout, 2*time.Second)
}

// GetRelayTimeout returns the per-attempt relay timeout.
func (c *Config) GetRelayTimeout() time.Duration {
	return parseDuration(c.Relay.Timeout, 10*time.Second)
}

// GetRelayResetAfter returns how long a finished submission stays on screen.
func (c *Config) GetRelayResetAfter() time.Duration {
	return parseDuration(c.Relay.ResetAfter, 5*time.Second)
}

// Delays returns the parsed base and step of a stagger group.
func (g StaggerGroupConfig) Delays() (base, step time.Duration) {
	return parseDuration(g.Base, 0), parseDuration(g.Step, 150*time.Millisecond)
}

// StaggerGroups returns the groups configured for section.
func (c *Config) StaggerGroups(section string) []StaggerGroupConfig {
	var out []StaggerGroupConfig
	for _, g := range c.Animation.Stagger {
		if g.Section == section {
			out = append(out, g)
		}
	}
	return out
}

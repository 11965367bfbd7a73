// Package config loads dulang settings from DULANG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dulang/warehouse-verify/internal/log"
	"github.com/dulang/warehouse-verify/pkg/camera"
	"github.com/dulang/warehouse-verify/pkg/verification"
)

// Camera backends.
const (
	BackendMock   = "mock"
	BackendOpenCV = "opencv"
)

// Config is the full process configuration.
type Config struct {
	Port     int    `env:"DULANG_PORT" envDefault:"8080"`
	Env      string `env:"GO_ENV" envDefault:"development"`
	LogLevel string `env:"DULANG_LOG_LEVEL" envDefault:"info"`
	// Language is the default UI language.
	Language string `env:"DULANG_LANGUAGE" envDefault:"id"`

	Camera    Camera    `envPrefix:"DULANG_CAMERA_"`
	Sessions  Sessions  `envPrefix:"DULANG_SESSION_"`
	Inspector Inspector `envPrefix:"DULANG_INSPECTOR_"`
}

// Camera selects the backend and overrides preset values. Zero values
// keep the preset's setting.
type Camera struct {
	Backend         string        `env:"BACKEND" envDefault:"mock"`
	Preset          string        `env:"PRESET" envDefault:"default"`
	Facing          string        `env:"FACING"`
	FrontDevice     int           `env:"FRONT_DEVICE" envDefault:"1"`
	BackDevice      int           `env:"BACK_DEVICE" envDefault:"0"`
	Width           int           `env:"WIDTH"`
	Height          int           `env:"HEIGHT"`
	Quality         int           `env:"QUALITY"`
	MaxPhotos       int           `env:"MAX_PHOTOS"`
	PreviewInterval time.Duration `env:"PREVIEW_INTERVAL"`
	AcquireTimeout  time.Duration `env:"ACQUIRE_TIMEOUT"`
}

// Sessions bounds the open verification workspaces.
type Sessions struct {
	Max int           `env:"MAX" envDefault:"8"`
	TTL time.Duration `env:"TTL" envDefault:"15m"`
}

// Inspector is the simulated logged-in user.
type Inspector struct {
	Name       string `env:"NAME" envDefault:"John Doe"`
	Role       string `env:"ROLE" envDefault:"Surveyor Senior"`
	Location   string `env:"LOCATION" envDefault:"Gudang A"`
	Department string `env:"DEPARTMENT" envDefault:"Kontrol Kualitas"`
	Email      string `env:"EMAIL" envDefault:"john.doe@example.com"`
}

// Overrides are command-line values that take precedence over the
// environment. Empty fields leave the environment value in place.
type Overrides struct {
	LogLevel string
	Backend  string
	Preset   string
}

func (o Overrides) apply(c *Config) {
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.Backend != "" {
		c.Camera.Backend = o.Backend
	}
	if o.Preset != "" {
		c.Camera.Preset = o.Preset
	}
}

// Load reads the process environment, applies o and validates the result.
func Load(o Overrides) (Config, error) {
	return parse(env.Options{}, o)
}

// LoadFrom reads from the given variables instead of the process environment.
func LoadFrom(vars map[string]string, o Overrides) (Config, error) {
	return parse(env.Options{Environment: vars}, o)
}

func parse(opts env.Options, o Overrides) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	o.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that are not checked by camera.Config.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: port %d out of range", c.Port))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	switch c.Language {
	case "en", "id":
	default:
		errs = append(errs, fmt.Errorf("config: unsupported language %q", c.Language))
	}
	switch c.Camera.Backend {
	case BackendMock, BackendOpenCV:
	default:
		errs = append(errs, fmt.Errorf("config: unknown camera backend %q", c.Camera.Backend))
	}
	if c.Sessions.Max < 0 {
		errs = append(errs, errors.New("config: session max must not be negative"))
	}
	if c.Sessions.TTL < 0 {
		errs = append(errs, errors.New("config: session ttl must not be negative"))
	}
	if _, err := c.CameraConfig(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Production reports whether GO_ENV is production, which selects JSON logs.
func (c Config) Production() bool {
	return c.Env == "production"
}

// LogOptions returns the logger settings.
func (c Config) LogOptions() log.Options {
	return log.Options{Level: c.LogLevel, JSON: c.Production()}
}

// CameraConfig resolves the preset and applies overrides.
func (c Config) CameraConfig() (camera.Config, error) {
	p := camera.GetPreset(c.Camera.Preset)
	if p == nil {
		return camera.Config{}, fmt.Errorf("config: unknown camera preset %q (have %s)",
			c.Camera.Preset, strings.Join(camera.PresetNames(), ", "))
	}
	cc := *p
	cc.FrontDevice = c.Camera.FrontDevice
	cc.BackDevice = c.Camera.BackDevice
	if c.Camera.Facing != "" {
		f, err := camera.ParseFacing(c.Camera.Facing)
		if err != nil {
			return camera.Config{}, fmt.Errorf("config: %w", err)
		}
		cc.InitialFacing = f
	}
	if c.Camera.Width > 0 {
		cc.Width = c.Camera.Width
	}
	if c.Camera.Height > 0 {
		cc.Height = c.Camera.Height
	}
	if c.Camera.Quality > 0 {
		cc.Quality = c.Camera.Quality
	}
	if c.Camera.MaxPhotos > 0 {
		cc.MaxPhotos = c.Camera.MaxPhotos
	}
	if c.Camera.PreviewInterval > 0 {
		cc.PreviewInterval = c.Camera.PreviewInterval
	}
	if c.Camera.AcquireTimeout > 0 {
		cc.AcquireTimeout = c.Camera.AcquireTimeout
	}
	if errs := cc.Validate(); len(errs) > 0 {
		return camera.Config{}, fmt.Errorf("config: camera: %s", strings.Join(errs, "; "))
	}
	return cc, nil
}

// RegistryConfig returns the workspace registry bounds.
func (c Config) RegistryConfig() verification.RegistryConfig {
	return verification.RegistryConfig{MaxOpen: c.Sessions.Max, IdleTTL: c.Sessions.TTL}
}

// Verifier returns the configured inspector identity.
func (c Config) Verifier() verification.Inspector {
	return verification.Inspector{
		Name:       c.Inspector.Name,
		Role:       c.Inspector.Role,
		Location:   c.Inspector.Location,
		Department: c.Inspector.Department,
		Email:      c.Inspector.Email,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

package camera

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Manager holds the capture configuration handed to new sessions and
// lets operators change it at runtime. Open sessions keep the
// configuration they were created with.
type Manager struct {
	config Config
	mu     sync.RWMutex

	// OnConfigChange is called after a successful update.
	OnConfigChange func(cfg Config)
}

// NewManager creates a manager starting from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// Config returns the current configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and replaces the configuration.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: invalid config: %s", strings.Join(errs, "; "))
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		callback(cfg)
	}
	return nil
}

// UpdateConfig applies a partial update. A "preset" key replaces the
// base configuration before the other keys are applied; unknown keys
// and ill-typed values are rejected.
func (m *Manager) UpdateConfig(params map[string]any) error {
	cfg := m.Config()

	if v, ok := params["preset"]; ok {
		name, _ := v.(string)
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("camera: unknown preset %q", name)
		}
		// Device mapping is site wiring, not part of a preset.
		front, back := cfg.FrontDevice, cfg.BackDevice
		cfg = *preset
		cfg.FrontDevice, cfg.BackDevice = front, back
	}

	for key, value := range params {
		var ok bool
		switch key {
		case "preset":
			continue
		case "width":
			cfg.Width, ok = toInt(value)
		case "height":
			cfg.Height, ok = toInt(value)
		case "framerate":
			cfg.Framerate, ok = toInt(value)
		case "quality":
			cfg.Quality, ok = toInt(value)
		case "preview_quality":
			cfg.PreviewQuality, ok = toInt(value)
		case "preview_size":
			cfg.PreviewSize, ok = toInt(value)
		case "max_photos":
			cfg.MaxPhotos, ok = toInt(value)
		case "preview_interval":
			cfg.PreviewInterval, ok = toDuration(value)
		case "acquire_timeout":
			cfg.AcquireTimeout, ok = toDuration(value)
		case "initial_facing":
			var s string
			if s, ok = value.(string); ok {
				f, err := ParseFacing(s)
				if err != nil {
					return err
				}
				cfg.InitialFacing = f
			}
		default:
			return fmt.Errorf("camera: unknown config field %q", key)
		}
		if !ok {
			return fmt.Errorf("camera: bad value for %s: %v", key, value)
		}
	}

	return m.SetConfig(cfg)
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}

// toDuration accepts "250ms" style strings or a number of milliseconds.
func toDuration(v any) (time.Duration, bool) {
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		return d, err == nil
	}
	ms, ok := toInt(v)
	return time.Duration(ms) * time.Millisecond, ok
}

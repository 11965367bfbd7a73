package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	Preset1080p   = "1080p"
	PresetDetail  = "detail"
	PresetSelfie  = "selfie"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     LowBandwidthConfig(),
		Preset1080p:   HD1080Config(),
		PresetDetail:  DetailConfig(),
		PresetSelfie:  SelfieConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetLow,
		Preset1080p,
		PresetDetail,
		PresetSelfie,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LowBandwidthConfig returns 640x480 with a slow preview.
// For handhelds on weak warehouse Wi-Fi.
func LowBandwidthConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	cfg.Framerate = 15
	cfg.PreviewQuality = 40
	cfg.PreviewSize = 320
	cfg.PreviewInterval *= 2
	return cfg
}

// HD1080Config returns 1080p Full HD configuration.
func HD1080Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1920
	cfg.Height = 1080
	return cfg
}

// DetailConfig returns a 1080p configuration with high photo quality,
// used when labels or serial plates must stay legible.
func DetailConfig() Config {
	cfg := HD1080Config()
	cfg.Quality = 95
	return cfg
}

// SelfieConfig starts on the front camera.
func SelfieConfig() Config {
	cfg := DefaultConfig()
	cfg.InitialFacing = FacingFront
	return cfg
}

// Package camera manages exclusive access to a device camera for product
// verification: acquiring a live stream for a facing side, switching sides,
// capturing still frames and releasing the device on every exit path.
package camera

import (
	"fmt"
	"time"
)

// Config holds capture parameters shared by every session.
type Config struct {
	// === Resolution requested from the device ===
	Width     int `json:"width" yaml:"width"`         // Frame width in pixels
	Height    int `json:"height" yaml:"height"`       // Frame height in pixels
	Framerate int `json:"framerate" yaml:"framerate"` // Target FPS

	// Quality is the JPEG quality (1-100) used for captured photos.
	Quality int `json:"quality" yaml:"quality"`

	// PreviewQuality is the JPEG quality for live preview frames.
	// Lower than Quality to keep websocket traffic small.
	PreviewQuality int `json:"preview_quality" yaml:"preview_quality"`

	// PreviewSize bounds the longest side of preview frames in pixels.
	// Larger frames are downscaled; zero keeps the native size.
	PreviewSize int `json:"preview_size" yaml:"preview_size"`

	// PreviewInterval is how often a preview frame is taken from the stream.
	PreviewInterval time.Duration `json:"preview_interval" yaml:"preview_interval"`

	// AcquireTimeout bounds a single stream acquisition.
	// Zero means the caller's context alone decides.
	AcquireTimeout time.Duration `json:"acquire_timeout" yaml:"acquire_timeout"`

	// === Device mapping ===
	// FrontDevice and BackDevice are the platform device indices
	// (e.g. /dev/video0 → 0) used for each facing side.
	FrontDevice int `json:"front_device" yaml:"front_device"`
	BackDevice  int `json:"back_device" yaml:"back_device"`

	// InitialFacing is the side a new session starts with.
	InitialFacing Facing `json:"initial_facing" yaml:"initial_facing"`

	// MaxPhotos caps the photos held by one session. Zero means unlimited.
	MaxPhotos int `json:"max_photos" yaml:"max_photos"`
}

// Limits for requested stream parameters.
const (
	MaxWidth     = 4096
	MaxHeight    = 2160
	MaxFramerate = 60
)

// DefaultConfig returns the configuration used by the warehouse handhelds:
// 1280x720, back camera first.
func DefaultConfig() Config {
	return Config{
		Width:           1280,
		Height:          720,
		Framerate:       30,
		Quality:         85,
		PreviewQuality:  60,
		PreviewSize:     640,
		PreviewInterval: 200 * time.Millisecond,
		AcquireTimeout:  10 * time.Second,
		FrontDevice:     1,
		BackDevice:      0,
		InitialFacing:   FacingBack,
		MaxPhotos:       0,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}
	if c.PreviewQuality < 1 || c.PreviewQuality > 100 {
		errors = append(errors, "preview_quality must be between 1 and 100")
	}
	if c.PreviewSize < 0 {
		errors = append(errors, "preview_size must not be negative")
	}
	if c.PreviewInterval < 10*time.Millisecond {
		errors = append(errors, "preview_interval must be at least 10ms")
	}
	if c.AcquireTimeout < 0 {
		errors = append(errors, "acquire_timeout must not be negative")
	}
	if c.FrontDevice < 0 || c.BackDevice < 0 {
		errors = append(errors, "device indices must not be negative")
	}
	if !c.InitialFacing.Valid() {
		errors = append(errors, "initial_facing must be front or back")
	}
	if c.MaxPhotos < 0 {
		errors = append(errors, "max_photos must not be negative")
	}

	return errors
}

// DeviceIndex returns the platform device index for a facing side.
func (c *Config) DeviceIndex(f Facing) int {
	if f == FacingFront {
		return c.FrontDevice
	}
	return c.BackDevice
}

// Request builds the stream request for a facing side.
func (c *Config) Request(f Facing) Request {
	return Request{
		Facing:    f,
		Device:    c.DeviceIndex(f),
		Width:     c.Width,
		Height:    c.Height,
		Framerate: c.Framerate,
	}
}

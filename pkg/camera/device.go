package camera

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Facing selects which physical camera a stream is requested from.
type Facing int

const (
	// FacingBack is the environment-facing camera.
	FacingBack Facing = iota
	// FacingFront is the user-facing camera.
	FacingFront
)

// String returns "back" or "front".
func (f Facing) String() string {
	switch f {
	case FacingFront:
		return "front"
	case FacingBack:
		return "back"
	default:
		return fmt.Sprintf("facing(%d)", int(f))
	}
}

// Valid reports whether f is a known facing side.
func (f Facing) Valid() bool {
	return f == FacingBack || f == FacingFront
}

// Opposite returns the other side.
func (f Facing) Opposite() Facing {
	if f == FacingFront {
		return FacingBack
	}
	return FacingFront
}

// ParseFacing accepts "front"/"user" and "back"/"environment", the latter
// pair being the names browsers use for facingMode.
func ParseFacing(s string) (Facing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "front", "user":
		return FacingFront, nil
	case "back", "environment", "":
		return FacingBack, nil
	default:
		return FacingBack, fmt.Errorf("camera: unknown facing %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Facing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Facing) UnmarshalText(b []byte) error {
	v, err := ParseFacing(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Stream is an exclusive, releasable handle to a live camera feed.
type Stream interface {
	// Facing returns the side this stream was opened for.
	Facing() Facing

	// Size returns the stream's native resolution.
	Size() (width, height int)

	// Snapshot returns the current frame.
	Snapshot() (image.Image, error)

	// Stop releases the device. It is safe to call Stop multiple times.
	Stop() error
}

// Request describes the stream a session wants. Backends treat Width,
// Height and Framerate as a request; Stream.Size reports what was granted.
type Request struct {
	Facing    Facing
	Device    int // platform device index for Facing
	Width     int
	Height    int
	Framerate int
}

// Device is the host capability that hands out streams.
// Implementations must return ErrPermissionDenied or ErrDeviceUnavailable
// (possibly wrapped) when no stream can be opened.
type Device interface {
	// Acquire opens a stream matching req.
	Acquire(ctx context.Context, req Request) (Stream, error)

	// Name returns the backend name (e.g., "opencv", "mock").
	Name() string
}

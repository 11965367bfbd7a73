package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"time"
)

// MockDevice implements Device for testing and for running the service
// without camera hardware. It produces solid frames, green for the back
// camera and blue for the front, and tracks how many streams are open.
type MockDevice struct {
	// AcquireFunc is called when Acquire is invoked.
	// If nil, Fail is consulted and then a tracked MockStream is opened.
	AcquireFunc func(ctx context.Context, req Request) (Stream, error)

	// Fail maps a facing side to the error Acquire returns for it.
	Fail map[Facing]error

	// Width and Height are the sensor maximum. Streams get the requested
	// size clamped to it, or the maximum when the request has none.
	Width  int
	Height int

	mu      sync.Mutex
	calls   []MockCall
	open    int
	maxOpen int
	streams []*MockStream
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method  string
	Facing  Facing
	Request Request
	Time    time.Time
}

// NewMockDevice creates a mock device whose frames are at most width x height.
func NewMockDevice(width, height int) *MockDevice {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	return &MockDevice{
		Width:  width,
		Height: height,
		Fail:   map[Facing]error{},
	}
}

// Name returns "mock".
func (d *MockDevice) Name() string {
	return "mock"
}

// Acquire opens a mock stream.
func (d *MockDevice) Acquire(ctx context.Context, req Request) (Stream, error) {
	d.mu.Lock()
	d.calls = append(d.calls, MockCall{Method: "Acquire", Facing: req.Facing, Request: req, Time: time.Now()})
	fn := d.AcquireFunc
	failErr := d.Fail[req.Facing]
	d.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failErr != nil {
		return nil, failErr
	}
	return d.NewStream(req), nil
}

// SetFail makes Acquire fail for facing with err. A nil err clears it.
func (d *MockDevice) SetFail(facing Facing, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.Fail, facing)
		return
	}
	d.Fail[facing] = err
}

// NewStream opens a tracked stream without going through Acquire.
// Useful inside a custom AcquireFunc.
func (d *MockDevice) NewStream(req Request) *MockStream {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := &MockStream{
		facing: req.Facing,
		width:  grant(req.Width, d.Width),
		height: grant(req.Height, d.Height),
		onStop: d.released,
	}
	d.open++
	if d.open > d.maxOpen {
		d.maxOpen = d.open
	}
	d.streams = append(d.streams, s)
	return s
}

func grant(requested, limit int) int {
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}

func (d *MockDevice) released() {
	d.mu.Lock()
	d.open--
	d.mu.Unlock()
}

// Open returns the number of streams not yet stopped.
func (d *MockDevice) Open() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// MaxOpen returns the highest number of simultaneously open streams seen.
func (d *MockDevice) MaxOpen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxOpen
}

// Streams returns every stream opened so far.
func (d *MockDevice) Streams() []*MockStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*MockStream, len(d.streams))
	copy(out, d.streams)
	return out
}

// Calls returns all recorded calls.
func (d *MockDevice) Calls() []MockCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]MockCall, len(d.calls))
	copy(out, d.calls)
	return out
}

// MockStream is a Stream producing solid frames.
type MockStream struct {
	facing Facing
	width  int
	height int
	onStop func()

	mu        sync.Mutex
	stopped   bool
	snapshots int
}

// Facing returns the side this stream was opened for.
func (s *MockStream) Facing() Facing { return s.facing }

// Size returns the frame size.
func (s *MockStream) Size() (int, int) { return s.width, s.height }

// Snapshot returns a solid frame.
func (s *MockStream) Snapshot() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, errors.New("camera: mock stream stopped")
	}
	s.snapshots++

	fill := color.RGBA{R: 30, G: 160, B: 60, A: 255}
	if s.facing == FacingFront {
		fill = color.RGBA{R: 40, G: 80, B: 200, A: 255}
	}
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = fill.R
		img.Pix[i+1] = fill.G
		img.Pix[i+2] = fill.B
		img.Pix[i+3] = fill.A
	}
	return img, nil
}

// Stop releases the stream. It is safe to call Stop multiple times.
func (s *MockStream) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	if s.onStop != nil {
		s.onStop()
	}
	return nil
}

// Stopped reports whether Stop has been called.
func (s *MockStream) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Snapshots returns how many frames were taken.
func (s *MockStream) Snapshots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots
}

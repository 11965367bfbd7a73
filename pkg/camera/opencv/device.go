// Package opencv provides a camera.Device backed by OpenCV video capture.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/dulang/warehouse-verify/pkg/camera"
	"gocv.io/x/gocv"
)

// Device opens OpenCV captures. Device index, resolution and framerate
// come from each camera.Request.
type Device struct {
	logger *slog.Logger
}

// NewDevice creates an OpenCV device.
func NewDevice(logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.Default()
	}
	return &Device{logger: logger}
}

// Name returns "opencv".
func (d *Device) Name() string {
	return "opencv"
}

type openResult struct {
	cap *gocv.VideoCapture
	err error
}

// Acquire opens the capture device named by req. Opening can block for
// seconds on some drivers, so it runs aside and honours ctx; a capture
// that opens after ctx is done is closed straight away.
func (d *Device) Acquire(ctx context.Context, req camera.Request) (camera.Stream, error) {
	index := req.Device
	if err := checkNode(index); err != nil {
		return nil, err
	}

	done := make(chan openResult, 1)
	go func() {
		c, err := gocv.OpenVideoCapture(index)
		done <- openResult{cap: c, err: err}
	}()

	var res openResult
	select {
	case res = <-done:
	case <-ctx.Done():
		go func() {
			if r := <-done; r.cap != nil {
				r.cap.Close()
			}
		}()
		return nil, ctx.Err()
	}

	if res.err != nil {
		return nil, fmt.Errorf("%w: open device %d: %v", camera.ErrDeviceUnavailable, index, res.err)
	}
	if !res.cap.IsOpened() {
		res.cap.Close()
		return nil, fmt.Errorf("%w: device %d did not open", camera.ErrDeviceUnavailable, index)
	}

	if req.Width > 0 && req.Height > 0 {
		res.cap.Set(gocv.VideoCaptureFrameWidth, float64(req.Width))
		res.cap.Set(gocv.VideoCaptureFrameHeight, float64(req.Height))
	}
	if req.Framerate > 0 {
		res.cap.Set(gocv.VideoCaptureFPS, float64(req.Framerate))
	}

	s := &Stream{
		facing: req.Facing,
		cap:    res.cap,
		frame:  gocv.NewMat(),
		width:  int(res.cap.Get(gocv.VideoCaptureFrameWidth)),
		height: int(res.cap.Get(gocv.VideoCaptureFrameHeight)),
	}

	d.logger.Info("opencv capture opened",
		"device", index,
		"facing", req.Facing,
		"width", s.width,
		"height", s.height,
	)
	return s, nil
}

// checkNode maps the V4L2 node state to the camera error taxonomy.
// Only Linux exposes device nodes; elsewhere OpenCV decides.
func checkNode(index int) error {
	if runtime.GOOS != "linux" {
		return nil
	}
	path := fmt.Sprintf("/dev/video%d", index)
	f, err := os.Open(path)
	switch {
	case err == nil:
		f.Close()
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s not found", camera.ErrDeviceUnavailable, path)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", camera.ErrPermissionDenied, path)
	default:
		return fmt.Errorf("%w: %s: %v", camera.ErrDeviceUnavailable, path, err)
	}
}

// Stream is an open OpenCV capture.
type Stream struct {
	facing camera.Facing
	width  int
	height int

	mu      sync.Mutex
	cap     *gocv.VideoCapture
	frame   gocv.Mat
	stopped bool
}

// Facing returns the side this stream was opened for.
func (s *Stream) Facing() camera.Facing { return s.facing }

// Size returns the resolution the driver settled on.
func (s *Stream) Size() (int, int) { return s.width, s.height }

// Snapshot reads the next frame from the device.
func (s *Stream) Snapshot() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, errors.New("opencv: stream stopped")
	}
	if ok := s.cap.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, errors.New("opencv: empty frame")
	}
	img, err := s.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("opencv: convert frame: %w", err)
	}
	return img, nil
}

// Stop closes the capture. It is safe to call Stop multiple times.
func (s *Stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil
	}
	s.stopped = true
	s.frame.Close()
	return s.cap.Close()
}

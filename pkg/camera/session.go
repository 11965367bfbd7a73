package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle position of a Session.
type State int

const (
	// StateIdle means no stream is open and none is being requested.
	StateIdle State = iota
	// StateAcquiring means a stream request is in flight.
	StateAcquiring
	// StateStreaming means exactly one stream is open.
	StateStreaming
	// StateDenied means the last acquisition failed. It stays until the
	// next RequestStream or SwitchFacing.
	StateDenied
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateStreaming:
		return "streaming"
	case StateDenied:
		return "denied"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for st := StateIdle; st <= StateClosed; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("camera: unknown state %q", b)
}

// PermissionState records what the host said about camera access.
type PermissionState int

const (
	PermissionUnknown PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p PermissionState) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PermissionState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "unknown":
		*p = PermissionUnknown
	case "granted":
		*p = PermissionGranted
	case "denied":
		*p = PermissionDenied
	default:
		return fmt.Errorf("camera: unknown permission state %q", b)
	}
	return nil
}

// Status is a point-in-time view of a session.
type Status struct {
	ID         string          `json:"id"`
	State      State           `json:"state"`
	Facing     Facing          `json:"facing"`
	Permission PermissionState `json:"permission"`
	Reason     FailureReason   `json:"reason,omitempty"`
	Width      int             `json:"width,omitempty"`
	Height     int             `json:"height,omitempty"`
	Photos     int             `json:"photos"`
	Backend    string          `json:"backend"`
}

// HasStream reports whether a stream was open when the status was taken.
func (s Status) HasStream() bool {
	return s.State == StateStreaming
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEncoder overrides the photo encoder.
func WithEncoder(e *Encoder) Option {
	return func(s *Session) {
		if e != nil {
			s.encoder = e
		}
	}
}

// WithID sets the session ID used in logs and status.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// Session owns at most one stream from a Device and the photos captured
// from it. All methods are safe for concurrent use; Capture calls are
// applied in the order they obtain the session lock.
type Session struct {
	id      string
	device  Device
	cfg     Config
	logger  *slog.Logger
	encoder *Encoder
	preview *Encoder

	// acqMu serialises acquisitions so two requests can never both hold
	// a device handle. mu guards everything below and is never held
	// across Device.Acquire.
	acqMu sync.Mutex

	mu         sync.Mutex
	state      State
	facing     Facing
	permission PermissionState
	reason     FailureReason
	stream     Stream
	gen        uint64
	photos     []Photo
}

// NewSession creates an idle session over dev.
func NewSession(dev Device, cfg Config, opts ...Option) *Session {
	preview := NewEncoder(cfg.PreviewQuality)
	preview.MaxSize = cfg.PreviewSize

	s := &Session{
		id:      uuid.NewString(),
		device:  dev,
		cfg:     cfg,
		logger:  slog.Default(),
		encoder: NewEncoder(cfg.Quality),
		preview: preview,
		facing:  cfg.InitialFacing,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id, "backend", dev.Name())
	return s
}

// WithSession runs fn with a fresh session and closes it on every exit
// path, releasing the device even if fn fails or panics.
func WithSession(ctx context.Context, dev Device, cfg Config, fn func(context.Context, *Session) error, opts ...Option) (err error) {
	s := NewSession(dev, cfg, opts...)
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(ctx, s)
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Config returns the configuration the session was created with.
func (s *Session) Config() Config {
	return s.cfg
}

// RequestStream opens a stream for facing, releasing any open stream first.
// On failure the session is left without a stream and with permission denied;
// there is no retry.
func (s *Session) RequestStream(ctx context.Context, facing Facing) error {
	if !facing.Valid() {
		return fmt.Errorf("camera: invalid facing %v", facing)
	}
	s.acqMu.Lock()
	defer s.acqMu.Unlock()
	return s.acquire(ctx, facing)
}

// SwitchFacing releases the open stream and requests the opposite side.
// The two steps are not atomic: if the second fails the session ends with
// no stream and permission denied.
func (s *Session) SwitchFacing(ctx context.Context) error {
	s.acqMu.Lock()
	defer s.acqMu.Unlock()

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	next := s.facing.Opposite()
	s.mu.Unlock()

	s.logger.Info("switching camera", "to", next)
	return s.acquire(ctx, next)
}

// acquire must be called with acqMu held.
func (s *Session) acquire(ctx context.Context, facing Facing) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.releaseLocked("replaced")
	s.gen++
	gen := s.gen
	s.state = StateAcquiring
	s.facing = facing
	s.mu.Unlock()

	if s.cfg.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.AcquireTimeout)
		defer cancel()
	}

	stream, err := s.device.Acquire(ctx, s.cfg.Request(facing))
	if err == nil && stream == nil {
		err = ErrDeviceUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		// Stopped or closed while waiting; the late stream is not applied.
		if stream != nil {
			if serr := stream.Stop(); serr != nil {
				s.logger.Warn("release late stream failed", "error", serr)
			}
		}
		s.logger.Debug("acquisition superseded", "facing", facing)
		if s.state == StateClosed {
			return ErrSessionClosed
		}
		return ErrSuperseded
	}

	if err != nil {
		reason := reasonOf(err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			reason = ReasonUnavailable
		}
		s.state = StateDenied
		s.permission = PermissionDenied
		s.reason = reason
		s.logger.Warn("camera unavailable", "facing", facing, "reason", reason, "error", err)
		return &AcquireError{Facing: facing, Reason: reason, Err: err}
	}

	s.stream = stream
	s.state = StateStreaming
	s.permission = PermissionGranted
	s.reason = ReasonNone
	w, h := stream.Size()
	s.logger.Info("stream started", "facing", facing, "width", w, "height", h)
	return nil
}

// Capture snapshots the current frame, encodes it and appends it.
// Without an open stream it is a reported no-op returning ErrNoActiveStream.
func (s *Session) Capture() (Photo, error) {
	p, _, err := s.CaptureIndexed()
	return p, err
}

// CaptureIndexed is Capture that also returns the index the photo was
// appended at.
func (s *Session) CaptureIndexed() (Photo, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return Photo{}, -1, ErrSessionClosed
	}
	if s.stream == nil {
		s.logger.Warn("capture without active stream", "state", s.state)
		return Photo{}, -1, ErrNoActiveStream
	}
	if s.cfg.MaxPhotos > 0 && len(s.photos) >= s.cfg.MaxPhotos {
		return Photo{}, -1, ErrPhotoLimit
	}

	frame, err := s.stream.Snapshot()
	if err != nil {
		return Photo{}, -1, fmt.Errorf("camera: snapshot: %w", err)
	}
	photo, err := s.encoder.Encode(frame, s.stream.Facing())
	if err != nil {
		return Photo{}, -1, err
	}
	s.photos = append(s.photos, photo)
	index := len(s.photos) - 1

	s.logger.Debug("photo captured",
		"index", index,
		"bytes", photo.Size(),
		"width", photo.Width,
		"height", photo.Height,
	)
	return photo, index, nil
}

// PreviewFrame returns the current frame as a preview JPEG, downscaled to
// PreviewSize, without adding it to the photos.
func (s *Session) PreviewFrame() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil, ErrNoActiveStream
	}
	frame, err := s.stream.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("camera: snapshot: %w", err)
	}
	p, err := s.preview.Encode(frame, s.stream.Facing())
	if err != nil {
		return nil, err
	}
	return p.Data, nil
}

// Discard removes the photo at index. An out-of-range index leaves the
// photos untouched and returns ErrInvalidIndex.
func (s *Session) Discard(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.photos) {
		s.logger.Warn("discard out of range", "index", index, "photos", len(s.photos))
		return fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, index, len(s.photos))
	}
	s.photos = slices.Delete(s.photos, index, index+1)
	return nil
}

// Stop releases the open stream. It is idempotent and leaves photos alone.
// An acquisition still in flight is released when it returns.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	if s.state == StateAcquiring {
		s.gen++
		s.state = StateIdle
		return nil
	}
	if s.stream == nil {
		return nil
	}
	s.releaseLocked("stopped")
	s.state = StateIdle
	return nil
}

// Reset clears the photos; the stream is untouched.
func (s *Session) Reset() {
	s.mu.Lock()
	s.photos = nil
	s.mu.Unlock()
}

// Close releases the device and makes the session unusable.
// Photos stay readable so a draft can still be assembled.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return nil
	}
	s.gen++
	s.releaseLocked("closed")
	s.state = StateClosed
	s.logger.Debug("session closed", "photos", len(s.photos))
	return nil
}

// Photos returns a copy of the captured photos in capture order.
func (s *Session) Photos() []Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.photos)
}

// PhotoCount returns the number of captured photos.
func (s *Session) PhotoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.photos)
}

// Status returns the current session status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		ID:         s.id,
		State:      s.state,
		Facing:     s.facing,
		Permission: s.permission,
		Reason:     s.reason,
		Photos:     len(s.photos),
		Backend:    s.device.Name(),
	}
	if s.stream != nil {
		st.Width, st.Height = s.stream.Size()
	}
	return st
}

// releaseLocked stops the open stream, if any. Must hold mu.
func (s *Session) releaseLocked(why string) {
	if s.stream == nil {
		return
	}
	if err := s.stream.Stop(); err != nil {
		s.logger.Warn("stream release failed", "why", why, "error", err)
	} else {
		s.logger.Info("stream released", "why", why, "facing", s.stream.Facing())
	}
	s.stream = nil
}

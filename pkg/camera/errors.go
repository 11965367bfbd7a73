package camera

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrPermissionDenied is returned when the host declined camera access.
	ErrPermissionDenied = errors.New("camera: permission denied")

	// ErrDeviceUnavailable is returned when no device exists for the
	// requested facing or it is held by another process.
	ErrDeviceUnavailable = errors.New("camera: device unavailable")

	// ErrNoActiveStream is returned by Capture when no stream is open.
	ErrNoActiveStream = errors.New("camera: no active stream")

	// ErrInvalidIndex is returned by Discard for an out-of-range index.
	ErrInvalidIndex = errors.New("camera: photo index out of range")

	// ErrSessionClosed is returned by every operation after Close.
	ErrSessionClosed = errors.New("camera: session closed")

	// ErrSuperseded is returned when an acquisition finished after the
	// session was stopped; the late stream has already been released.
	ErrSuperseded = errors.New("camera: acquisition superseded")

	// ErrPhotoLimit is returned by Capture when MaxPhotos is reached.
	ErrPhotoLimit = errors.New("camera: photo limit reached")
)

// FailureReason tells apart the causes that leave a session denied.
type FailureReason string

const (
	ReasonNone        FailureReason = ""
	ReasonPermission  FailureReason = "permission"
	ReasonUnavailable FailureReason = "unavailable"
)

// AcquireError describes a failed stream acquisition.
type AcquireError struct {
	Facing Facing
	Reason FailureReason
	Err    error
}

// Error implements the error interface.
func (e *AcquireError) Error() string {
	return fmt.Sprintf("camera [%s]: acquire failed (%s): %v", e.Facing, e.Reason, e.Err)
}

// Unwrap returns the underlying error.
func (e *AcquireError) Unwrap() error {
	return e.Err
}

// reasonOf classifies a device error. Anything that is not an explicit
// unavailability is treated as a denial, as browsers report both the same way.
func reasonOf(err error) FailureReason {
	if errors.Is(err, ErrDeviceUnavailable) {
		return ReasonUnavailable
	}
	return ReasonPermission
}

package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable is returned when no matching capture device exists.
	ErrDeviceUnavailable = errors.New("no camera device")
	// ErrInputAttach is returned when the device exists but its stream could not be opened.
	ErrInputAttach = errors.New("camera input could not be attached")
	// ErrAlreadySetup is returned by a second Setup call.
	ErrAlreadySetup = errors.New("capture session already set up")
	// ErrSessionStopped is returned by Setup after Stop.
	ErrSessionStopped = errors.New("capture session stopped")
)

// SetupError describes why Setup failed. Kind is one of the sentinel errors
// above and Err the underlying cause, if any.
type SetupError struct {
	Kind   error
	Device string
	Err    error
}

func (e *SetupError) Error() string {
	switch {
	case e.Device != "" && e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Device, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *SetupError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Package model defines core data structures for codescan.
package model

// PermissionStatus is the camera authorization as seen by the host.
type PermissionStatus string

const (
	// PermissionUndetermined means the user has not been asked yet.
	PermissionUndetermined PermissionStatus = "undetermined"
	// PermissionGranted means camera access is allowed.
	PermissionGranted PermissionStatus = "granted"
	// PermissionDenied means camera access is refused or restricted.
	PermissionDenied PermissionStatus = "denied"
)

// String returns the string representation of the PermissionStatus.
func (p PermissionStatus) String() string {
	return string(p)
}

// Decided reports whether the status is final for the current screen visit.
func (p PermissionStatus) Decided() bool {
	return p == PermissionGranted || p == PermissionDenied
}

// Facing selects which physical camera to use.
type Facing string

const (
	// FacingBack is the rear (world-facing) camera.
	FacingBack Facing = "back"
	// FacingFront is the user-facing camera.
	FacingFront Facing = "front"
)

// SessionStatus represents the lifecycle of a capture session.
type SessionStatus string

const (
	// SessionStatusIdle indicates the session has not been set up.
	SessionStatusIdle SessionStatus = "idle"
	// SessionStatusReady indicates setup succeeded but frames are not flowing.
	SessionStatusReady SessionStatus = "ready"
	// SessionStatusRunning indicates frames are being delivered.
	SessionStatusRunning SessionStatus = "running"
	// SessionStatusStopped indicates the session has been stopped.
	SessionStatusStopped SessionStatus = "stopped"
	// SessionStatusError indicates setup failed.
	SessionStatusError SessionStatus = "error"
)

// FeedbackConfig holds the success feedback settings.
type FeedbackConfig struct {
	// Desktop enables desktop notifications via system APIs.
	Desktop bool `mapstructure:"desktop" json:"desktop"`
	// Beep plays a short tone on success.
	Beep bool `mapstructure:"beep" json:"beep"`
	// WebhookURL is the optional URL that receives scanned payloads.
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url,omitempty"`
}

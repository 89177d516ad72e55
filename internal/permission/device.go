package permission

import (
	"context"
	"os"
)

// DeviceAuthority reports Restricted when the video node exists but this
// process cannot read it, whatever the user decided. Otherwise it defers to
// the wrapped authority.
type DeviceAuthority struct {
	inner Authority
	path  string
}

// NewDeviceAuthority wraps inner with a readability check on path.
// An empty path disables the check.
func NewDeviceAuthority(inner Authority, path string) *DeviceAuthority {
	return &DeviceAuthority{inner: inner, path: path}
}

// Status checks the device node before consulting the wrapped authority.
func (a *DeviceAuthority) Status() (AuthStatus, error) {
	if a.restricted() {
		return AuthRestricted, nil
	}
	return a.inner.Status()
}

// Request prompts through the wrapped authority unless the node is unreadable.
func (a *DeviceAuthority) Request(ctx context.Context) (bool, error) {
	if a.restricted() {
		return false, nil
	}
	return a.inner.Request(ctx)
}

func (a *DeviceAuthority) restricted() bool {
	if a.path == "" {
		return false
	}
	if _, err := os.Stat(a.path); err != nil {
		// A missing node is a capture problem, reported by setup.
		return false
	}
	return !readable(a.path)
}

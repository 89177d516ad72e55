// Package permission resolves camera authorization for a scanning screen.
package permission

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/lazyvibe/codescan/internal/logger"
	"github.com/lazyvibe/codescan/internal/model"
)

// AuthStatus is the raw status reported by an Authority.
type AuthStatus int

const (
	// AuthNotDetermined means the user has never been asked.
	AuthNotDetermined AuthStatus = iota
	// AuthAuthorized means access was granted.
	AuthAuthorized
	// AuthDenied means the user refused access.
	AuthDenied
	// AuthRestricted means access is blocked by the system regardless of the user.
	AuthRestricted
)

func (s AuthStatus) String() string {
	switch s {
	case AuthNotDetermined:
		return "not_determined"
	case AuthAuthorized:
		return "authorized"
	case AuthDenied:
		return "denied"
	case AuthRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Authority is the system component that owns the camera authorization.
type Authority interface {
	// Status reads the current authorization without side effects.
	Status() (AuthStatus, error)
	// Request prompts the user and blocks until they answer or ctx ends.
	Request(ctx context.Context) (bool, error)
}

// Gate turns an Authority into the tri-state PermissionStatus. It never
// returns errors; anything it cannot interpret is Denied.
type Gate struct {
	authority Authority
	log       *logger.Logger
	group     singleflight.Group
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the gate's logger.
func WithLogger(l *logger.Logger) Option {
	return func(g *Gate) {
		g.log = l
	}
}

// NewGate creates a gate over authority.
func NewGate(authority Authority, opts ...Option) *Gate {
	g := &Gate{
		authority: authority,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// QueryStatus reads the current authorization.
func (g *Gate) QueryStatus() model.PermissionStatus {
	st, err := g.authority.Status()
	if err != nil {
		g.log.Warn(context.Background(), "permission status unavailable", "error", err)
		return model.PermissionDenied
	}
	return normalize(st)
}

// RequestAccess prompts the user if and only if no decision exists yet.
// Concurrent callers share one prompt.
func (g *Gate) RequestAccess(ctx context.Context) model.PermissionStatus {
	if current := g.QueryStatus(); current.Decided() {
		return current
	}

	v, _, _ := g.group.Do("camera", func() (any, error) {
		// A caller that queued behind a finished prompt sees its answer here.
		if current := g.QueryStatus(); current.Decided() {
			return current, nil
		}

		granted, err := g.authority.Request(ctx)
		if err != nil {
			g.log.Warn(ctx, "permission request failed", "error", err)
			return model.PermissionDenied, nil
		}
		if granted {
			g.log.Info(ctx, "camera access granted")
			return model.PermissionGranted, nil
		}
		g.log.Info(ctx, "camera access denied")
		return model.PermissionDenied, nil
	})
	return v.(model.PermissionStatus)
}

func normalize(st AuthStatus) model.PermissionStatus {
	switch st {
	case AuthNotDetermined:
		return model.PermissionUndetermined
	case AuthAuthorized:
		return model.PermissionGranted
	default:
		return model.PermissionDenied
	}
}

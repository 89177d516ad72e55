// Package device provides the capture devices that feed frames to a session.
package device

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/lazyvibe/codescan/internal/model"
)

// ErrNoDevice is returned when no registered device can serve a request.
var ErrNoDevice = errors.New("no capture device")

// Stream delivers frames from an opened device. Next returns io.EOF once the
// device has no more frames.
type Stream interface {
	Next(ctx context.Context) (model.Frame, error)
	Close() error
}

// Device is a capture source the session can open.
type Device interface {
	// Name returns the device identifier.
	Name() string
	// Facing reports which way the camera points.
	Facing() model.Facing
	// Available reports why the device cannot be used right now, or nil.
	Available() error
	// Open builds the input stream, asking the upstream recognizer for the
	// given symbologies where it supports that. ctx bounds the open only;
	// the returned stream lives until Close.
	Open(ctx context.Context, symbologies model.SymbologySet) (Stream, error)
}

// Config holds device configuration.
type Config struct {
	ZbarPath    string
	ZbarArgs    []string
	VideoDevice string
	SpoolDir    string
}

// Registry holds all available devices.
type Registry struct {
	devices map[string]Device
	config  Config
}

// NewRegistry creates a device registry with built-in devices.
func NewRegistry() *Registry {
	return NewRegistryWithConfig(Config{})
}

// NewRegistryWithConfig creates a device registry with configuration.
func NewRegistryWithConfig(cfg Config) *Registry {
	r := &Registry{
		devices: make(map[string]Device),
		config:  cfg,
	}

	r.Register(NewZbarDevice(cfg.ZbarPath, cfg.VideoDevice, cfg.ZbarArgs...))
	r.Register(NewSpoolDevice(cfg.SpoolDir))

	return r
}

// Register adds or replaces a device under its name.
func (r *Registry) Register(d Device) {
	r.devices[d.Name()] = d
}

// Get retrieves a device by name.
func (r *Registry) Get(name string) (Device, bool) {
	d, ok := r.devices[name]
	return d, ok
}

// List returns all registered devices sorted by name.
func (r *Registry) List() []Device {
	result := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

// Resolve returns the named device if it points the right way and is usable.
// All failures wrap ErrNoDevice.
func (r *Registry) Resolve(name string, facing model.Facing) (Device, error) {
	d, ok := r.devices[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown device %q", ErrNoDevice, name)
	}
	if d.Facing() != facing {
		return nil, fmt.Errorf("%w: %s faces %s, want %s", ErrNoDevice, name, d.Facing(), facing)
	}
	if err := d.Available(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoDevice, name, err)
	}
	return d, nil
}

// Package store persists permission decisions for codescan.
package store

import (
	"context"
	"time"
)

// Decision is a remembered answer to a permission prompt.
type Decision struct {
	// Resource identifies what was asked for (e.g. "camera").
	Resource string `json:"resource"`
	// Granted is the user's answer.
	Granted bool `json:"granted"`
	// DecidedAt is when the user answered.
	DecidedAt time.Time `json:"decided_at"`
}

// DecisionStore defines the interface for decision persistence.
type DecisionStore interface {
	// Get retrieves the decision for a resource.
	Get(ctx context.Context, resource string) (*Decision, error)
	// Put creates or replaces the decision for d.Resource.
	Put(ctx context.Context, d *Decision) error
	// Reset forgets the decision for a resource. Missing entries are not an error.
	Reset(ctx context.Context, resource string) error
	// List returns all decisions sorted by resource.
	List(ctx context.Context) ([]Decision, error)
	// Close releases any resources held by the store.
	Close() error
}

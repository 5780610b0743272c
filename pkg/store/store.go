// Package store provides the durable slots the storefront session persists
// its state into. Each slot is a named key/value entry that survives process
// restarts; writes happen synchronously on state change.
package store

import "context"

const (
	// SlotCart holds the serialized cart state.
	SlotCart = "cart"
	// SlotSearch holds the serialized search view (query and page).
	SlotSearch = "search"
)

// Store persists named slots. Load must treat missing or unreadable values
// as absent; callers treat Save failures as degraded durability for the
// running session, never as command failure.
type Store interface {
	// Save serializes value and writes it to the slot.
	Save(ctx context.Context, slot string, value any) error
	// Load deserializes the slot into dest. It returns false when the slot
	// is missing or its contents fail to parse.
	Load(ctx context.Context, slot string, dest any) (bool, error)
	// Delete removes the slot.
	Delete(ctx context.Context, slot string) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

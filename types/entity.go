// Package types provides common types used across custody.
package types

import "time"

// Entity carries the host-side timestamps of a stored account. Stores
// maintain them; the ledger never reads them.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity stamps both timestamps with Now.
func NewEntity() Entity {
	now := Now()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Touch advances UpdatedAt to Now.
func (e *Entity) Touch() {
	e.UpdatedAt = Now()
}

// Now returns the current UTC time at millisecond precision, the finest
// every store backend round-trips.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

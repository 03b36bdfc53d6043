// Package id defines TypeID-based identifiers for the events the custody
// ledger emits.
//
// Ledger records themselves are located by derived address, not by ID. Every
// emitted event carries an ID with a prefix naming the event kind. IDs are
// K-sortable (UUIDv7-based), globally unique, and URL-safe in the format
// "prefix_suffix".
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the event kind encoded in a TypeID.
type Prefix string

// Prefix constants for all event kinds.
const (
	PrefixInitialized Prefix = "init" // Ledger initialized
	PrefixPayment     Prefix = "pay"  // Payment received
	PrefixWithdrawal  Prefix = "wdl"  // Vault withdrawn
	PrefixOwnership   Prefix = "own"  // Authority transferred
	PrefixRejection   Prefix = "rej"  // Operation rejected
)

// ID wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier.
//
//nolint:recvcheck // pointer receiver only for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "pay_01h2xcejqtf2nbrexx3vqjhp41").
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// NewInitializedID generates an ID for an initialization event.
func NewInitializedID() ID { return New(PrefixInitialized) }

// NewPaymentID generates an ID for a payment event.
func NewPaymentID() ID { return New(PrefixPayment) }

// NewWithdrawalID generates an ID for a withdrawal event.
func NewWithdrawalID() ID { return New(PrefixWithdrawal) }

// NewOwnershipID generates an ID for an ownership transfer event.
func NewOwnershipID() ID { return New(PrefixOwnership) }

// NewRejectionID generates an ID for a rejected operation.
func NewRejectionID() ID { return New(PrefixRejection) }

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Package identity defines the public-key identities that hold balances and
// authorize operations, plus the signing and verification primitives used to
// prove control of an identity.
//
// An Identity is a raw 32-byte ed25519 public key. Its text form is base58,
// the same alphabet used for derived addresses.
package identity

import (
	"bytes"
	"crypto/ed25519"
	"database/sql/driver"
	"fmt"

	"github.com/mr-tron/base58"
)

// Size is the byte length of an Identity.
const Size = ed25519.PublicKeySize

// Identity is an ed25519 public key.
type Identity [Size]byte

// Zero is the null identity. It never controls funds and is rejected
// wherever a new authority is installed.
var Zero Identity

// FromBytes copies b into an Identity. b must be exactly Size bytes.
func FromBytes(b []byte) (Identity, error) {
	var i Identity
	if len(b) != Size {
		return i, fmt.Errorf("identity: expected %d bytes, got %d", Size, len(b))
	}
	copy(i[:], b)
	return i, nil
}

// FromPublicKey converts an ed25519 public key.
func FromPublicKey(pub ed25519.PublicKey) (Identity, error) {
	return FromBytes(pub)
}

// Parse decodes a base58 identity string.
func Parse(s string) (Identity, error) {
	if s == "" {
		return Zero, fmt.Errorf("identity: parse %q: empty string", s)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Zero, fmt.Errorf("identity: parse %q: %w", s, err)
	}
	return FromBytes(raw)
}

// MustParse is like Parse but panics on error. Use for hardcoded values.
func MustParse(s string) Identity {
	i, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

// String returns the base58 encoding.
func (i Identity) String() string {
	return base58.Encode(i[:])
}

// Bytes returns a copy of the raw key bytes.
func (i Identity) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, i[:])
	return out
}

// PublicKey returns the identity as an ed25519 public key.
func (i Identity) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(i.Bytes())
}

// IsZero reports whether i is the null identity.
func (i Identity) IsZero() bool {
	return i == Zero
}

// Equal reports whether two identities are the same key.
func (i Identity) Equal(other Identity) bool {
	return bytes.Equal(i[:], other[:])
}

// MarshalText implements encoding.TextMarshaler.
func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Identity) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Value implements driver.Valuer.
func (i Identity) Value() (driver.Value, error) {
	return i.String(), nil
}

// Scan implements sql.Scanner.
func (i *Identity) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == Size {
			copy(i[:], v)
			return nil
		}
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("identity: cannot scan %T into Identity", src)
	}
}

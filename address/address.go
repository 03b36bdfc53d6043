// Package address derives the deterministic addresses of every account the
// custody program touches.
//
// Accounts are never linked by reference. Each one is located by recomputing
// its address from a namespace tag and stable inputs, the same way on every
// process and every run:
//
//	state:   FindProgramAddress(program, "payment_state")
//	vault:   FindProgramAddress(program, "vault", state)
//	payment: FindProgramAddress(program, "payment", le64(payment_id))
//
// A derived address is guaranteed not to be a valid ed25519 public key, so no
// private key can exist for it and no external identity can sign for it.
package address

import (
	"database/sql/driver"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/xraph/custody/identity"
)

// Size is the byte length of an Address.
const Size = 32

// Address identifies an account in the record store. Derived addresses and
// identities share the same 32-byte space.
type Address [Size]byte

// Zero is the empty address.
var Zero Address

// DefaultProgramID is the program the custody accounts are derived under
// unless another one is configured.
var DefaultProgramID = MustParse("Fg6PaFpoGXkYsidMpWTK6W2BeZ7FEfcYkg476zPFsLnS")

// FromIdentity returns the balance address of an identity.
func FromIdentity(id identity.Identity) Address {
	return Address(id)
}

// FromBytes copies b into an Address. b must be exactly Size bytes.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, fmt.Errorf("address: expected %d bytes, got %d", Size, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// Parse decodes a base58 address string.
func Parse(s string) (Address, error) {
	if s == "" {
		return Zero, fmt.Errorf("address: parse %q: empty string", s)
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return Zero, fmt.Errorf("address: parse %q: %w", s, err)
	}
	return FromBytes(raw)
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the base58 encoding.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, a[:])
	return out
}

// Identity reinterprets the address as an identity.
func (a Address) Identity() identity.Identity {
	return identity.Identity(a)
}

// IsZero reports whether a is the empty address.
func (a Address) IsZero() bool {
	return a == Zero
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer. Addresses are stored in text form.
func (a Address) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	default:
		return fmt.Errorf("address: cannot scan %T into Address", src)
	}
}

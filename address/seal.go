package address

import (
	"errors"
	"fmt"
)

// ErrSealMismatch is returned when a seal is presented for an address it was
// not derived for.
var ErrSealMismatch = errors.New("address: seal does not match account")

// Seal is the signing capability of a program-derived account. A derived
// account has no private key; it authorizes debits by presenting the seeds
// and bump that reproduce its address. The zero Seal authorizes nothing.
type Seal struct {
	addr  Address
	valid bool
}

// NewSeal re-derives the address from seeds and bump and returns the
// capability for it.
func NewSeal(programID Address, bump uint8, seeds ...[]byte) (Seal, error) {
	all := make([][]byte, 0, len(seeds)+1)
	all = append(all, seeds...)
	all = append(all, []byte{bump})

	addr, err := CreateProgramAddress(programID, all...)
	if err != nil {
		return Seal{}, fmt.Errorf("address: seal: %w", err)
	}
	return Seal{addr: addr, valid: true}, nil
}

// VaultSeal builds the seal for the vault of state.
func VaultSeal(programID, state Address, bump uint8) (Seal, error) {
	return NewSeal(programID, bump, []byte(TagVault), state[:])
}

// Address returns the account the seal signs for.
func (s Seal) Address() Address { return s.addr }

// Authorizes reports nil if the seal signs for a.
func (s Seal) Authorizes(a Address) error {
	if !s.valid || s.addr != a {
		return ErrSealMismatch
	}
	return nil
}

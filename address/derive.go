package address

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"filippo.io/edwards25519"

	"github.com/xraph/custody/identity"
)

// Derivation limits.
const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

// Namespace tags.
const (
	TagState   = "payment_state"
	TagVault   = "vault"
	TagPayment = "payment"
	TagNonce   = "nonce"
)

const pdaMarker = "ProgramDerivedAddress"

var (
	// ErrMaxSeeds is returned when more than MaxSeeds seeds are supplied.
	ErrMaxSeeds = errors.New("address: too many seeds")

	// ErrMaxSeedLength is returned when a single seed exceeds MaxSeedLength.
	ErrMaxSeedLength = errors.New("address: seed too long")

	// ErrOnCurve is returned when a candidate address is a valid public key.
	ErrOnCurve = errors.New("address: derived address is on the ed25519 curve")

	// ErrDerivationFailed is returned when no bump yields an off-curve address.
	ErrDerivationFailed = errors.New("address: unable to find a viable bump")
)

// CreateProgramAddress hashes the seeds with the program ID and rejects the
// result if it is a valid ed25519 point.
func CreateProgramAddress(programID Address, seeds ...[]byte) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Zero, ErrMaxSeeds
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Zero, ErrMaxSeedLength
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var out Address
	copy(out[:], h.Sum(nil))

	if IsOnCurve(out) {
		return Zero, ErrOnCurve
	}
	return out, nil
}

// FindProgramAddress searches bumps from 255 down to 0 and returns the first
// off-curve address together with the bump that produced it.
func FindProgramAddress(programID Address, seeds ...[]byte) (Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Zero, 0, ErrMaxSeeds
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(programID, withBump...)
		switch {
		case err == nil:
			return addr, uint8(bump), nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return Zero, 0, err
		}
	}
	return Zero, 0, ErrDerivationFailed
}

// IsOnCurve reports whether a decodes as a point on edwards25519.
func IsOnCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}

// State derives the singleton ledger state address.
func State(programID Address) (Address, uint8, error) {
	return FindProgramAddress(programID, []byte(TagState))
}

// Vault derives the custody vault address for a state address.
func Vault(programID, state Address) (Address, uint8, error) {
	return FindProgramAddress(programID, []byte(TagVault), state[:])
}

// Payment derives the receipt address for a payment id.
func Payment(programID Address, paymentID uint64) (Address, uint8, error) {
	return FindProgramAddress(programID, []byte(TagPayment), PaymentSeed(paymentID))
}

// Nonce derives the replay-nonce address of a signer.
func Nonce(programID Address, signer identity.Identity) (Address, uint8, error) {
	return FindProgramAddress(programID, []byte(TagNonce), signer[:])
}

// PaymentSeed encodes a payment id as 8 little-endian bytes.
func PaymentSeed(paymentID uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], paymentID)
	return b[:]
}

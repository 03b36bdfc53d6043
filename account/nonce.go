package account

import (
	"errors"

	"github.com/xraph/custody/identity"
)

// SignerNonceSize is the encoded size of a SignerNonce record.
const SignerNonceSize = DiscriminatorSize + identity.Size + 8 + 1

// ErrNonceOverflow is returned when a signer's nonce cannot advance.
var ErrNonceOverflow = errors.New("account: signer nonce overflow")

// SignerNonce counts the operations a signer has had accepted. Signatures
// bind the current value, so each one is good for a single operation.
type SignerNonce struct {
	Signer identity.Identity `json:"signer"`
	Nonce  uint64            `json:"nonce"`
	Bump   uint8             `json:"bump"`
}

// Advance returns the record with the nonce moved past its current value.
func (n SignerNonce) Advance() (SignerNonce, error) {
	if n.Nonce == ^uint64(0) {
		return n, ErrNonceOverflow
	}
	n.Nonce++
	return n, nil
}

// MarshalBinary encodes the record with its discriminator.
func (n *SignerNonce) MarshalBinary() ([]byte, error) {
	w := &writer{buf: make([]byte, 0, SignerNonceSize)}
	w.bytes(SignerNonceDiscriminator[:])
	w.identity(n.Signer)
	w.u64(n.Nonce)
	w.u8(n.Bump)
	return w.buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (n *SignerNonce) UnmarshalBinary(data []byte) error {
	r, err := open(data, SignerNonceDiscriminator, SignerNonceSize, NameSignerNonce)
	if err != nil {
		return err
	}
	n.Signer = r.identity()
	n.Nonce = r.u64()
	n.Bump = r.u8()
	return nil
}

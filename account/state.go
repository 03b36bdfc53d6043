package account

import (
	"errors"

	"github.com/xraph/custody/identity"
)

// LedgerStateSize is the encoded size of a LedgerState record.
const LedgerStateSize = DiscriminatorSize + identity.Size + 8 + 1

// ErrCounterOverflow is returned when the payment counter cannot advance.
var ErrCounterOverflow = errors.New("account: payment counter overflow")

// LedgerState is the singleton record holding the authority and the payment
// counter.
type LedgerState struct {
	Authority    identity.Identity `json:"authority"`
	PaymentCount uint64            `json:"payment_count"`
	Bump         uint8             `json:"bump"`
}

// NextPaymentID returns the id the next payment will receive.
func (s *LedgerState) NextPaymentID() (uint64, error) {
	if s.PaymentCount == ^uint64(0) {
		return 0, ErrCounterOverflow
	}
	return s.PaymentCount + 1, nil
}

// MarshalBinary encodes the record with its discriminator.
func (s *LedgerState) MarshalBinary() ([]byte, error) {
	w := &writer{buf: make([]byte, 0, LedgerStateSize)}
	w.bytes(LedgerStateDiscriminator[:])
	w.identity(s.Authority)
	w.u64(s.PaymentCount)
	w.u8(s.Bump)
	return w.buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (s *LedgerState) UnmarshalBinary(data []byte) error {
	r, err := open(data, LedgerStateDiscriminator, LedgerStateSize, NameLedgerState)
	if err != nil {
		return err
	}
	s.Authority = r.identity()
	s.PaymentCount = r.u64()
	s.Bump = r.u8()
	return nil
}

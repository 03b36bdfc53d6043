package account

import (
	"time"

	"github.com/xraph/custody/identity"
)

// PaymentRecordSize is the encoded size of a PaymentRecord.
const PaymentRecordSize = DiscriminatorSize + 8 + identity.Size + 8 + 8 + 1

// PaymentRecord is the immutable receipt of one payment.
type PaymentRecord struct {
	PaymentID uint64            `json:"payment_id"`
	Payer     identity.Identity `json:"payer"`
	Amount    uint64            `json:"amount"`
	Timestamp int64             `json:"timestamp"`
	Bump      uint8             `json:"bump"`
}

// Time returns the receipt timestamp as a UTC time.
func (p *PaymentRecord) Time() time.Time {
	return time.Unix(p.Timestamp, 0).UTC()
}

// MarshalBinary encodes the record with its discriminator.
func (p *PaymentRecord) MarshalBinary() ([]byte, error) {
	w := &writer{buf: make([]byte, 0, PaymentRecordSize)}
	w.bytes(PaymentRecordDiscriminator[:])
	w.u64(p.PaymentID)
	w.identity(p.Payer)
	w.u64(p.Amount)
	w.i64(p.Timestamp)
	w.u8(p.Bump)
	return w.buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (p *PaymentRecord) UnmarshalBinary(data []byte) error {
	r, err := open(data, PaymentRecordDiscriminator, PaymentRecordSize, NamePaymentRecord)
	if err != nil {
		return err
	}
	p.PaymentID = r.u64()
	p.Payer = r.identity()
	p.Amount = r.u64()
	p.Timestamp = r.i64()
	p.Bump = r.u8()
	return nil
}

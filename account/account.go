// Package account defines the records the custody program persists and their
// fixed binary layout.
//
// Every record starts with an 8-byte discriminator, the first eight bytes of
// sha256("account:<Name>"), followed by little-endian fields in declaration
// order. Decoding checks the discriminator and the exact length.
package account

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/xraph/custody/identity"
)

// DiscriminatorSize is the length of the record type tag.
const DiscriminatorSize = 8

// Discriminator tags a record type.
type Discriminator [DiscriminatorSize]byte

// Record names hashed into discriminators.
const (
	NameLedgerState   = "PaymentState"
	NamePaymentRecord = "PaymentRecord"
	NameSignerNonce   = "SignerNonce"
)

var (
	// ErrDiscriminator is returned when data carries another record's tag.
	ErrDiscriminator = errors.New("account: discriminator mismatch")

	// ErrLength is returned when data has the wrong size for the record.
	ErrLength = errors.New("account: invalid data length")
)

// Discriminators for the persisted record types.
var (
	LedgerStateDiscriminator   = NewDiscriminator(NameLedgerState)
	PaymentRecordDiscriminator = NewDiscriminator(NamePaymentRecord)
	SignerNonceDiscriminator   = NewDiscriminator(NameSignerNonce)
)

// NewDiscriminator computes the tag for a record name.
func NewDiscriminator(name string) Discriminator {
	sum := sha256.Sum256([]byte("account:" + name))
	var d Discriminator
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// Kind returns the record name for data's discriminator, or "" if unknown.
func Kind(data []byte) string {
	if len(data) < DiscriminatorSize {
		return ""
	}
	var d Discriminator
	copy(d[:], data[:DiscriminatorSize])
	switch d {
	case LedgerStateDiscriminator:
		return NameLedgerState
	case PaymentRecordDiscriminator:
		return NamePaymentRecord
	case SignerNonceDiscriminator:
		return NameSignerNonce
	default:
		return ""
	}
}

// writer appends little-endian fields.
type writer struct{ buf []byte }

func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }
func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *writer) i64(v int64) { w.u64(uint64(v)) }
func (w *writer) identity(id identity.Identity) { w.bytes(id[:]) }

// reader consumes little-endian fields; callers check length up front.
type reader struct {
	buf []byte
	off int
}

func (r *reader) u8() uint8 {
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v
}

func (r *reader) i64() int64 { return int64(r.u64()) }

func (r *reader) identity() identity.Identity {
	var id identity.Identity
	copy(id[:], r.buf[r.off:r.off+identity.Size])
	r.off += identity.Size
	return id
}

func open(data []byte, want Discriminator, size int, name string) (*reader, error) {
	if len(data) != size {
		return nil, fmt.Errorf("%w: %s wants %d bytes, got %d", ErrLength, name, size, len(data))
	}
	var got Discriminator
	copy(got[:], data[:DiscriminatorSize])
	if got != want {
		return nil, fmt.Errorf("%w: expected %s", ErrDiscriminator, name)
	}
	return &reader{buf: data, off: DiscriminatorSize}, nil
}

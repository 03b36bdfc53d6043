package account_test

import (
	"errors"
	"math"
	"testing"

	"github.com/xraph/custody/account"
	"github.com/xraph/custody/identity"
)

func TestLayoutSizes(t *testing.T) {
	if account.LedgerStateSize != 49 {
		t.Errorf("LedgerStateSize = %d, want 49", account.LedgerStateSize)
	}
	if account.PaymentRecordSize != 65 {
		t.Errorf("PaymentRecordSize = %d, want 65", account.PaymentRecordSize)
	}
}

func TestLedgerStateEncoding(t *testing.T) {
	kp, _ := identity.GenerateKeyPair()
	in := account.LedgerState{Authority: kp.Identity(), PaymentCount: 42, Bump: 254}

	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != account.LedgerStateSize {
		t.Fatalf("encoded %d bytes", len(data))
	}
	if kind := account.Kind(data); kind != account.NameLedgerState {
		t.Errorf("Kind = %q", kind)
	}
	// payment_count sits right after the authority, little-endian.
	if data[8+32] != 42 {
		t.Errorf("payment_count byte = %d, want 42", data[8+32])
	}

	var out account.LedgerState
	if err := out.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("decoded %+v, want %+v", out, in)
	}
}

func TestPaymentRecordRejectsForeignData(t *testing.T) {
	state := account.LedgerState{PaymentCount: 1}
	stateData, _ := state.MarshalBinary()

	rec := account.PaymentRecord{PaymentID: 1, Amount: 100, Timestamp: -5}
	recData, _ := rec.MarshalBinary()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"state bytes", stateData, account.ErrLength},
		{"truncated", recData[:20], account.ErrLength},
		{"wrong tag", append(append([]byte{}, make([]byte, 8)...), recData[8:]...), account.ErrDiscriminator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p account.PaymentRecord
			if err := p.UnmarshalBinary(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	var p account.PaymentRecord
	if err := p.UnmarshalBinary(recData); err != nil {
		t.Fatal(err)
	}
	if p.Timestamp != -5 {
		t.Errorf("signed timestamp lost: %d", p.Timestamp)
	}
}

func TestNextPaymentID(t *testing.T) {
	s := account.LedgerState{PaymentCount: 9}
	next, err := s.NextPaymentID()
	if err != nil || next != 10 {
		t.Errorf("NextPaymentID = %d, %v", next, err)
	}

	s.PaymentCount = math.MaxUint64
	if _, err := s.NextPaymentID(); !errors.Is(err, account.ErrCounterOverflow) {
		t.Errorf("expected ErrCounterOverflow, got %v", err)
	}
}

func TestDiscriminatorsDiffer(t *testing.T) {
	if account.LedgerStateDiscriminator == account.PaymentRecordDiscriminator {
		t.Fatal("record discriminators collide")
	}
	if account.Kind([]byte{1, 2}) != "" {
		t.Error("short data must have no kind")
	}
}

func TestSignerNonceEncoding(t *testing.T) {
	kp, _ := identity.GenerateKeyPair()
	in := account.SignerNonce{Signer: kp.Identity(), Nonce: 3, Bump: 251}
	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	if kind := account.Kind(data); kind != account.NameSignerNonce {
		t.Errorf("Kind = %q", kind)
	}

	// Same size as a ledger state, told apart by the tag.
	var st account.LedgerState
	if err := st.UnmarshalBinary(data); !errors.Is(err, account.ErrDiscriminator) {
		t.Errorf("state decode of nonce bytes: %v", err)
	}

	var out account.SignerNonce
	if err := out.UnmarshalBinary(data); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("decoded %+v, want %+v", out, in)
	}
}

func TestSignerNonceAdvance(t *testing.T) {
	n, err := account.SignerNonce{Nonce: 4}.Advance()
	if err != nil || n.Nonce != 5 {
		t.Errorf("Advance = %d, %v", n.Nonce, err)
	}

	if _, err := (account.SignerNonce{Nonce: math.MaxUint64}).Advance(); !errors.Is(err, account.ErrNonceOverflow) {
		t.Errorf("expected ErrNonceOverflow, got %v", err)
	}
}

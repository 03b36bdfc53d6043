package identity_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/xraph/custody/identity"
)

func TestParseRoundTrip(t *testing.T) {
	kp, err := identity.GenerateKeyPair()
	if err != nil {
		t.Fatal(err)
	}

	s := kp.Identity().String()
	parsed, err := identity.Parse(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	if parsed != kp.Identity() {
		t.Errorf("round-trip mismatch: %s != %s", parsed, kp.Identity())
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base58", "0OIl"},
		{"too short", "3yZe7d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := identity.Parse(tt.input); err == nil {
				t.Errorf("expected error for %q", tt.input)
			}
		})
	}
}

func TestZero(t *testing.T) {
	if !identity.Zero.IsZero() {
		t.Error("Zero must report IsZero")
	}
	if got := identity.Zero.String(); got != "11111111111111111111111111111111" {
		t.Errorf("Zero.String() = %q", got)
	}

	kp, _ := identity.GenerateKeyPair()
	if kp.Identity().IsZero() {
		t.Error("generated identity must not be zero")
	}
}

func TestSeedRebuildsSameIdentity(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)

	a, err := identity.KeyPairFromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	b, err := identity.KeyPairFromSeed(a.Seed())
	if err != nil {
		t.Fatal(err)
	}
	if a.Identity() != b.Identity() {
		t.Error("same seed produced different identities")
	}

	if _, err := identity.KeyPairFromSeed(seed[:10]); err == nil {
		t.Error("expected error for short seed")
	}
}

func TestEd25519Verifier(t *testing.T) {
	kp, _ := identity.GenerateKeyPair()
	other, _ := identity.GenerateKeyPair()
	msg := []byte("receive_payment")
	sig := kp.Sign(msg)

	tests := []struct {
		name string
		id   identity.Identity
		msg  []byte
		sig  []byte
		want bool
	}{
		{"valid", kp.Identity(), msg, sig, true},
		{"wrong signer", other.Identity(), msg, sig, false},
		{"tampered message", kp.Identity(), []byte("withdraw"), sig, false},
		{"truncated signature", kp.Identity(), msg, sig[:10], false},
		{"no signature", kp.Identity(), msg, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := identity.Ed25519.Verify(tt.id, tt.msg, tt.sig); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	kp, _ := identity.GenerateKeyPair()
	in := struct {
		Owner identity.Identity `json:"owner"`
	}{Owner: kp.Identity()}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}

	var out struct {
		Owner identity.Identity `json:"owner"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.Owner != in.Owner {
		t.Errorf("json round-trip mismatch")
	}
}

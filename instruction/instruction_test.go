package instruction_test

import (
	"bytes"
	"testing"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/identity"
	"github.com/xraph/custody/instruction"
)

func TestMessagesDifferPerOperation(t *testing.T) {
	program := address.DefaultProgramID
	kp, _ := identity.GenerateKeyPair()

	instructions := []instruction.Instruction{
		instruction.Initialize(kp.Identity()),
		instruction.ReceivePayment(100),
		instruction.Withdraw(),
		instruction.TransferOwnership(kp.Identity()),
	}

	seen := make(map[string]instruction.Op)
	for _, in := range instructions {
		msg, err := in.Message(program)
		if err != nil {
			t.Fatalf("%s: %v", in.Op, err)
		}
		if prev, ok := seen[string(msg)]; ok {
			t.Errorf("%s and %s produce the same message", in.Op, prev)
		}
		seen[string(msg)] = in.Op
	}
}

func TestMessageBindsArguments(t *testing.T) {
	program := address.DefaultProgramID

	tests := []struct {
		name string
		a, b instruction.Instruction
	}{
		{"amount", instruction.ReceivePayment(100), instruction.ReceivePayment(101)},
		{"nonce", instruction.Withdraw().WithNonce(1), instruction.Withdraw().WithNonce(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ma, _ := tt.a.Message(program)
			mb, _ := tt.b.Message(program)
			if bytes.Equal(ma, mb) {
				t.Error("messages must differ")
			}
		})
	}

	other := address.Address(bytes.Repeat([]byte{9}, 32))
	m1, _ := instruction.Withdraw().Message(program)
	m2, _ := instruction.Withdraw().Message(other)
	if bytes.Equal(m1, m2) {
		t.Error("message must bind the program id")
	}
}

func TestUnknownOp(t *testing.T) {
	in := instruction.Instruction{Op: "mint"}
	if _, err := in.Message(address.DefaultProgramID); err == nil {
		t.Error("expected error for unknown op")
	}
}

// Package instruction encodes the operations a caller can invoke into the
// exact byte message the caller signs.
//
// A message is
//
//	program_id(32) ‖ discriminator(8) ‖ args ‖ nonce(8, le)
//
// where the discriminator is the first eight bytes of sha256("global:<op>")
// and the nonce is the signer's count of accepted operations at signing time.
// Binding the nonce means a signature is accepted at most once.
package instruction

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/identity"
)

// Op names an operation.
type Op string

// Operations.
const (
	OpInitialize        Op = "initialize"
	OpReceivePayment    Op = "receive_payment"
	OpWithdraw          Op = "withdraw"
	OpTransferOwnership Op = "transfer_ownership"
)

// Valid reports whether op is a known operation.
func (op Op) Valid() bool {
	switch op {
	case OpInitialize, OpReceivePayment, OpWithdraw, OpTransferOwnership:
		return true
	}
	return false
}

// Discriminator returns the 8-byte operation tag.
func (op Op) Discriminator() [8]byte {
	sum := sha256.Sum256([]byte("global:" + string(op)))
	var d [8]byte
	copy(d[:], sum[:8])
	return d
}

// Instruction is one invocation with its arguments.
type Instruction struct {
	Op       Op                `json:"op"`
	Amount   uint64            `json:"amount,omitempty"`
	Identity identity.Identity `json:"identity,omitempty"`
	Nonce    uint64            `json:"nonce"`
}

// Initialize installs authority.
func Initialize(authority identity.Identity) Instruction {
	return Instruction{Op: OpInitialize, Identity: authority}
}

// ReceivePayment pays amount into the vault.
func ReceivePayment(amount uint64) Instruction {
	return Instruction{Op: OpReceivePayment, Amount: amount}
}

// Withdraw drains the vault to the authority.
func Withdraw() Instruction {
	return Instruction{Op: OpWithdraw}
}

// TransferOwnership hands authority to next.
func TransferOwnership(next identity.Identity) Instruction {
	return Instruction{Op: OpTransferOwnership, Identity: next}
}

// WithNonce returns a copy bound to the signer's nonce.
func (in Instruction) WithNonce(n uint64) Instruction {
	in.Nonce = n
	return in
}

// Message returns the bytes a caller signs for this instruction under
// programID.
func (in Instruction) Message(programID address.Address) ([]byte, error) {
	if !in.Op.Valid() {
		return nil, fmt.Errorf("instruction: unknown op %q", in.Op)
	}

	d := in.Op.Discriminator()
	buf := make([]byte, 0, address.Size+8+identity.Size+8)
	buf = append(buf, programID[:]...)
	buf = append(buf, d[:]...)

	switch in.Op {
	case OpInitialize, OpTransferOwnership:
		buf = append(buf, in.Identity[:]...)
	case OpReceivePayment:
		buf = binary.LittleEndian.AppendUint64(buf, in.Amount)
	}

	buf = binary.LittleEndian.AppendUint64(buf, in.Nonce)
	return buf, nil
}

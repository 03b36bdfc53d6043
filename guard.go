package custody

import (
	"context"
	"errors"

	"github.com/xraph/custody/account"
	"github.com/xraph/custody/address"
	"github.com/xraph/custody/identity"
	"github.com/xraph/custody/instruction"
	"github.com/xraph/custody/store"
)

// Caller is the signer invoking an operation: an identity and its signature
// over the instruction message.
type Caller struct {
	Identity  identity.Identity `json:"identity"`
	Signature []byte            `json:"signature"`
}

// Sign binds in to the signer's current nonce and signs it with kp. The
// signature is good for one accepted operation by that signer.
func (l *Ledger) Sign(ctx context.Context, kp *identity.KeyPair, in instruction.Instruction) (Caller, error) {
	n, err := l.Nonce(ctx, kp.Identity())
	if err != nil {
		return Caller{}, err
	}
	msg, err := in.WithNonce(n).Message(l.programID)
	if err != nil {
		return Caller{}, err
	}
	return Caller{Identity: kp.Identity(), Signature: kp.Sign(msg)}, nil
}

// Nonce returns the committed nonce of signer, zero before its first
// accepted operation.
func (l *Ledger) Nonce(ctx context.Context, signer identity.Identity) (uint64, error) {
	addr, _, err := l.nonceAddress(signer)
	if err != nil {
		return 0, err
	}
	acct, err := l.store.Account(ctx, addr)
	if errors.Is(err, store.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	rec, err := decodeNonce(acct)
	if err != nil {
		return 0, err
	}
	return rec.Nonce, nil
}

func (l *Ledger) nonceAddress(signer identity.Identity) (address.Address, uint8, error) {
	addr, bump, err := address.Nonce(l.programID, signer)
	if err != nil {
		return address.Zero, 0, ErrAddressDerivationFailed
	}
	return addr, bump, nil
}

// signerNonce is a nonce record read inside a transition.
type signerNonce struct {
	addr   address.Address
	rec    account.SignerNonce
	exists bool
}

// loadNonce reads the caller's nonce inside tx.
func (l *Ledger) loadNonce(ctx context.Context, tx store.Tx, signer identity.Identity) (*signerNonce, error) {
	addr, bump, err := l.nonceAddress(signer)
	if err != nil {
		return nil, err
	}
	n := &signerNonce{addr: addr, rec: account.SignerNonce{Signer: signer, Bump: bump}}

	acct, err := tx.Account(ctx, addr)
	if errors.Is(err, store.ErrAccountNotFound) {
		return n, nil
	}
	if err != nil {
		return nil, err
	}
	if len(acct.Data) == 0 {
		return n, nil
	}
	rec, err := decodeNonce(acct)
	if err != nil {
		return nil, err
	}
	n.rec = *rec
	n.exists = true
	return n, nil
}

// advanceNonce consumes the nonce the caller signed over.
func (l *Ledger) advanceNonce(ctx context.Context, tx store.Tx, n *signerNonce) error {
	next, err := n.rec.Advance()
	if err != nil {
		return err
	}
	data, err := next.MarshalBinary()
	if err != nil {
		return err
	}
	if n.exists {
		return tx.UpdateAccount(ctx, n.addr, data)
	}
	return tx.CreateAccount(ctx, n.addr, data)
}

func decodeNonce(acct *store.Account) (*account.SignerNonce, error) {
	rec := new(account.SignerNonce)
	if err := rec.UnmarshalBinary(acct.Data); err != nil {
		return nil, errors.Join(ErrCorruptRecord, err)
	}
	return rec, nil
}

// loadState reads the ledger state inside tx. It returns nil without error
// when the ledger is not initialized.
func (l *Ledger) loadState(ctx context.Context, tx store.Tx, addrs Addresses) (*account.LedgerState, error) {
	acct, err := tx.Account(ctx, addrs.State)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(acct.Data) == 0 {
		return nil, nil
	}
	st := new(account.LedgerState)
	if err := st.UnmarshalBinary(acct.Data); err != nil {
		return nil, errors.Join(ErrCorruptRecord, err)
	}
	return st, nil
}

// verifySignature checks the caller's signature over in, bound to the
// caller's nonce.
func (l *Ledger) verifySignature(in instruction.Instruction, caller Caller, n *signerNonce) error {
	msg, err := in.WithNonce(n.rec.Nonce).Message(l.programID)
	if err != nil {
		return err
	}
	if caller.Identity.IsZero() || !l.verifier.Verify(caller.Identity, msg, caller.Signature) {
		return ErrUnauthorized
	}
	return nil
}

// requireAuthority checks that caller holds the authority recorded in st.
func requireAuthority(caller Caller, st *account.LedgerState) error {
	if !caller.Identity.Equal(st.Authority) {
		return ErrUnauthorized
	}
	return nil
}

package custody

import (
	"context"

	"github.com/xraph/custody/address"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/instruction"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/types"
)

// Withdraw moves the entire vault balance to the current authority.
func (l *Ledger) Withdraw(ctx context.Context, caller Caller) (*event.Withdrawn, error) {
	ev, err := l.execute(ctx, instruction.Withdraw(), caller, l.handleWithdraw)
	if err != nil {
		return nil, err
	}
	return ev.(*event.Withdrawn), nil
}

func (l *Ledger) handleWithdraw(ctx context.Context, tx store.Tx, op *operation) (event.Event, error) {
	st := op.state
	if st == nil {
		return nil, ErrNotInitialized
	}
	if err := requireAuthority(op.caller, st); err != nil {
		return nil, err
	}

	balance, err := tx.Balance(ctx, op.addrs.Vault)
	if err != nil {
		return nil, err
	}
	if balance == 0 {
		return nil, ErrNoFundsToWithdraw
	}

	seal, err := l.vaultSeal(op.addrs)
	if err != nil {
		return nil, err
	}
	if err := debit(ctx, tx, seal, op.addrs.Vault, address.FromIdentity(st.Authority), balance); err != nil {
		return nil, err
	}

	return &event.Withdrawn{
		Header:    event.NewHeader(event.KindWithdrawn, l.programID, op.now),
		Authority: st.Authority,
		Amount:    types.Amount(balance),
		Vault:     op.addrs.Vault,
	}, nil
}

// debit moves amount out of from, which must be the derived account seal
// signs for.
func debit(ctx context.Context, tx store.Tx, seal address.Seal, from, to address.Address, amount uint64) error {
	if err := seal.Authorizes(from); err != nil {
		return ErrUnauthorized
	}
	return storeError(tx.Transfer(ctx, from, to, amount))
}

package custody

import (
	"context"

	"github.com/xraph/custody/event"
	"github.com/xraph/custody/identity"
	"github.com/xraph/custody/instruction"
	"github.com/xraph/custody/store"
)

// TransferOwnership replaces the authority with next. The counter and vault
// are untouched.
func (l *Ledger) TransferOwnership(ctx context.Context, caller Caller, next identity.Identity) (*event.OwnershipTransferred, error) {
	ev, err := l.execute(ctx, instruction.TransferOwnership(next), caller, l.handleTransferOwnership)
	if err != nil {
		return nil, err
	}
	return ev.(*event.OwnershipTransferred), nil
}

func (l *Ledger) handleTransferOwnership(ctx context.Context, tx store.Tx, op *operation) (event.Event, error) {
	st := op.state
	if st == nil {
		return nil, ErrNotInitialized
	}
	if err := requireAuthority(op.caller, st); err != nil {
		return nil, err
	}

	next := op.in.Identity
	if next.IsZero() {
		return nil, ErrInvalidNewOwner
	}

	previous := st.Authority
	st.Authority = next
	data, err := st.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := tx.UpdateAccount(ctx, op.addrs.State, data); err != nil {
		return nil, err
	}

	return &event.OwnershipTransferred{
		Header:   event.NewHeader(event.KindOwnershipTransferred, l.programID, op.now),
		Previous: previous,
		Next:     next,
	}, nil
}

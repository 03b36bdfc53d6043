package custody

import (
	"context"
	"errors"

	"github.com/xraph/custody/account"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/identity"
	"github.com/xraph/custody/instruction"
	"github.com/xraph/custody/store"
)

// Initialize creates the ledger state with authority installed and a zero
// payment counter. It succeeds at most once per program.
func (l *Ledger) Initialize(ctx context.Context, caller Caller, authority identity.Identity) (*event.Initialized, error) {
	ev, err := l.execute(ctx, instruction.Initialize(authority), caller, l.handleInitialize)
	if err != nil {
		return nil, err
	}
	return ev.(*event.Initialized), nil
}

func (l *Ledger) handleInitialize(ctx context.Context, tx store.Tx, op *operation) (event.Event, error) {
	if op.state != nil {
		return nil, ErrAlreadyInitialized
	}

	// The vault holds no data; re-deriving its seal verifies its address.
	if _, err := l.vaultSeal(op.addrs); err != nil {
		return nil, err
	}

	st := &account.LedgerState{
		Authority:    op.in.Identity,
		PaymentCount: 0,
		Bump:         op.addrs.StateBump,
	}
	data, err := st.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := tx.CreateAccount(ctx, op.addrs.State, data); err != nil {
		if errors.Is(err, store.ErrAccountExists) {
			return nil, ErrAlreadyInitialized
		}
		return nil, err
	}

	return &event.Initialized{
		Header:    event.NewHeader(event.KindInitialized, l.programID, op.now),
		Authority: st.Authority,
		Payer:     op.caller.Identity,
		State:     op.addrs.State,
		StateBump: op.addrs.StateBump,
		Vault:     op.addrs.Vault,
		VaultBump: op.addrs.VaultBump,
	}, nil
}

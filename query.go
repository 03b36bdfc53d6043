package custody

import (
	"context"
	"errors"

	"github.com/xraph/custody/account"
	"github.com/xraph/custody/address"
	"github.com/xraph/custody/identity"
	"github.com/xraph/custody/store"
)

// ──────────────────────────────────────────────────
// Read-only queries
// ──────────────────────────────────────────────────

// VaultInfo describes the custody vault.
type VaultInfo struct {
	Address address.Address `json:"address"`
	Bump    uint8           `json:"bump"`
	Balance uint64          `json:"balance"`
}

// State returns the committed ledger state.
func (l *Ledger) State(ctx context.Context) (*account.LedgerState, error) {
	addrs, err := l.Addresses()
	if err != nil {
		return nil, err
	}

	acct, err := l.store.Account(ctx, addrs.State)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	if len(acct.Data) == 0 {
		return nil, ErrNotInitialized
	}

	st := new(account.LedgerState)
	if err := st.UnmarshalBinary(acct.Data); err != nil {
		return nil, errors.Join(ErrCorruptRecord, err)
	}
	return st, nil
}

// Vault returns the vault address and committed balance.
func (l *Ledger) Vault(ctx context.Context) (*VaultInfo, error) {
	addrs, err := l.Addresses()
	if err != nil {
		return nil, err
	}

	balance, err := l.store.Balance(ctx, addrs.Vault)
	if err != nil {
		return nil, err
	}
	return &VaultInfo{Address: addrs.Vault, Bump: addrs.VaultBump, Balance: balance}, nil
}

// Payment returns the receipt for paymentID.
func (l *Ledger) Payment(ctx context.Context, paymentID uint64) (*account.PaymentRecord, error) {
	addr, _, err := l.PaymentAddress(paymentID)
	if err != nil {
		return nil, err
	}

	acct, err := l.store.Account(ctx, addr)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	rec := new(account.PaymentRecord)
	if err := rec.UnmarshalBinary(acct.Data); err != nil {
		return nil, errors.Join(ErrCorruptRecord, err)
	}
	return rec, nil
}

// Payments returns up to limit receipts starting at payment id from. Ids
// run from 1 to the state's payment count; receipts are located by
// re-deriving their addresses.
func (l *Ledger) Payments(ctx context.Context, from uint64, limit int) ([]*account.PaymentRecord, error) {
	st, err := l.State(ctx)
	if err != nil {
		return nil, err
	}
	if from == 0 {
		from = 1
	}

	var out []*account.PaymentRecord
	for pid := from; pid <= st.PaymentCount && (limit <= 0 || len(out) < limit); pid++ {
		rec, err := l.Payment(ctx, pid)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
		if pid == ^uint64(0) {
			break
		}
	}
	return out, nil
}

// Balance returns the committed balance of an identity's account.
func (l *Ledger) Balance(ctx context.Context, who identity.Identity) (uint64, error) {
	return l.store.Balance(ctx, address.FromIdentity(who))
}

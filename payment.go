package custody

import (
	"context"
	"errors"

	"github.com/xraph/custody/account"
	"github.com/xraph/custody/address"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/instruction"
	"github.com/xraph/custody/store"
	"github.com/xraph/custody/types"
)

// ReceivePayment moves amount from the caller into the vault and records a
// receipt under the next payment id.
func (l *Ledger) ReceivePayment(ctx context.Context, caller Caller, amount uint64) (*event.PaymentReceived, error) {
	ev, err := l.execute(ctx, instruction.ReceivePayment(amount), caller, l.handleReceivePayment)
	if err != nil {
		return nil, err
	}
	return ev.(*event.PaymentReceived), nil
}

func (l *Ledger) handleReceivePayment(ctx context.Context, tx store.Tx, op *operation) (event.Event, error) {
	st := op.state
	if st == nil {
		return nil, ErrNotInitialized
	}

	amount := op.in.Amount
	if amount == 0 && l.zeroAmount == RejectZeroAmount {
		return nil, ErrInvalidAmount
	}
	if amount > store.MaxBalance {
		return nil, ErrBalanceOverflow
	}

	paymentID, err := st.NextPaymentID()
	if err != nil {
		return nil, ErrCounterOverflow
	}
	st.PaymentCount = paymentID

	recordAddr, bump, err := l.PaymentAddress(paymentID)
	if err != nil {
		return nil, err
	}

	payer := op.caller.Identity
	record := &account.PaymentRecord{
		PaymentID: paymentID,
		Payer:     payer,
		Amount:    amount,
		Timestamp: op.now.Unix(),
		Bump:      bump,
	}
	recordData, err := record.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := tx.CreateAccount(ctx, recordAddr, recordData); err != nil {
		if errors.Is(err, store.ErrAccountExists) {
			return nil, errors.Join(ErrCorruptRecord, err)
		}
		return nil, err
	}

	stateData, err := st.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := tx.UpdateAccount(ctx, op.addrs.State, stateData); err != nil {
		return nil, err
	}

	if amount > 0 {
		if err := l.collect(ctx, tx, address.FromIdentity(payer), op.addrs.Vault, amount); err != nil {
			return nil, err
		}
	}

	vaultBalance, err := tx.Balance(ctx, op.addrs.Vault)
	if err != nil {
		return nil, err
	}

	return &event.PaymentReceived{
		Header:       event.NewHeader(event.KindPaymentReceived, l.programID, op.now),
		PaymentID:    paymentID,
		Payer:        payer,
		Amount:       types.Amount(amount),
		Timestamp:    record.Timestamp,
		Record:       recordAddr,
		VaultBalance: types.Amount(vaultBalance),
	}, nil
}

// collect moves amount from payer to vault, keeping the payer at or above
// the minimum balance.
func (l *Ledger) collect(ctx context.Context, tx store.Tx, payer, vault address.Address, amount uint64) error {
	balance, err := tx.Balance(ctx, payer)
	if err != nil {
		return err
	}
	if balance < amount || balance-amount < l.minimumBalance {
		return ErrInsufficientFunds
	}
	return storeError(tx.Transfer(ctx, payer, vault, amount))
}

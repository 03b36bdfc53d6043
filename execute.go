package custody

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/custody/account"
	"github.com/xraph/custody/event"
	"github.com/xraph/custody/instruction"
	"github.com/xraph/custody/store"
)

// operation is the context a handler runs in. State is nil before
// initialization.
type operation struct {
	in     instruction.Instruction
	caller Caller
	addrs  Addresses
	state  *account.LedgerState
	now    time.Time
}

type handler func(ctx context.Context, tx store.Tx, op *operation) (event.Event, error)

// Execute runs any instruction. The typed methods Initialize, ReceivePayment,
// Withdraw and TransferOwnership are shorthands for it.
func (l *Ledger) Execute(ctx context.Context, in instruction.Instruction, caller Caller) (event.Event, error) {
	switch in.Op {
	case instruction.OpInitialize:
		return l.execute(ctx, in, caller, l.handleInitialize)
	case instruction.OpReceivePayment:
		return l.execute(ctx, in, caller, l.handleReceivePayment)
	case instruction.OpWithdraw:
		return l.execute(ctx, in, caller, l.handleWithdraw)
	case instruction.OpTransferOwnership:
		return l.execute(ctx, in, caller, l.handleTransferOwnership)
	default:
		return nil, &OperationError{Op: string(in.Op), Err: fmt.Errorf("unknown operation %q", in.Op)}
	}
}

// execute takes the state lock, runs guard, handler and nonce advance in one
// store transaction, and dispatches the resulting event after commit while
// still holding the lock.
func (l *Ledger) execute(ctx context.Context, in instruction.Instruction, caller Caller, h handler) (event.Event, error) {
	ctx, span := l.tracer.Start(ctx, "custody."+string(in.Op),
		trace.WithAttributes(
			attribute.String("custody.op", string(in.Op)),
			attribute.String("custody.caller", caller.Identity.String()),
		),
	)
	defer span.End()

	addrs, err := l.Addresses()
	if err != nil {
		return nil, l.reject(ctx, span, in, caller, err)
	}

	var ev event.Event
	err = l.locker.WithLock(ctx, addrs.State.String(), func(ctx context.Context) error {
		err := l.store.Atomic(ctx, func(ctx context.Context, tx store.Tx) error {
			st, err := l.loadState(ctx, tx, addrs)
			if err != nil {
				return err
			}
			nonce, err := l.loadNonce(ctx, tx, caller.Identity)
			if err != nil {
				return err
			}
			if err := l.verifySignature(in, caller, nonce); err != nil {
				return err
			}

			op := &operation{
				in:     in,
				caller: caller,
				addrs:  addrs,
				state:  st,
				now:    l.clock().UTC(),
			}
			if ev, err = h(ctx, tx, op); err != nil {
				return err
			}
			return l.advanceNonce(ctx, tx, nonce)
		})
		if err != nil {
			return err
		}

		// Dispatch under the state lock so events leave in commit order.
		span.SetAttributes(attribute.String("custody.event_id", ev.EventHeader().ID.String()))
		l.dispatch(ctx, ev)
		return nil
	})
	if err != nil {
		return nil, l.reject(ctx, span, in, caller, err)
	}
	return ev, nil
}

// reject wraps err, records it on the span and notifies plugins.
func (l *Ledger) reject(ctx context.Context, span trace.Span, in instruction.Instruction, caller Caller, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	l.logger.Warn("operation rejected",
		"op", string(in.Op),
		"caller", caller.Identity.String(),
		"error", err,
	)

	l.plugins.EmitOperationRejected(ctx, &event.Rejected{
		Header: event.NewHeader(event.KindRejected, l.programID, l.clock()),
		Op:     string(in.Op),
		Caller: caller.Identity,
		Reason: err.Error(),
		Err:    err,
	})

	var opErr *OperationError
	if errors.As(err, &opErr) {
		return err
	}
	return &OperationError{Op: string(in.Op), Err: err}
}

// dispatch logs a committed event and fans it out to plugins.
func (l *Ledger) dispatch(ctx context.Context, ev event.Event) {
	switch e := ev.(type) {
	case *event.Initialized:
		l.logger.Info("ledger initialized",
			"authority", e.Authority.String(),
			"state", e.State.String(),
			"vault", e.Vault.String(),
		)
		l.plugins.EmitInitialized(ctx, e)
	case *event.PaymentReceived:
		l.logger.Info("payment received",
			"payment_id", e.PaymentID,
			"payer", e.Payer.String(),
			"amount", uint64(e.Amount),
			"record", e.Record.String(),
		)
		l.plugins.EmitPaymentReceived(ctx, e)
	case *event.Withdrawn:
		l.logger.Info("vault withdrawn",
			"authority", e.Authority.String(),
			"amount", uint64(e.Amount),
		)
		l.plugins.EmitWithdrawn(ctx, e)
	case *event.OwnershipTransferred:
		l.logger.Info("ownership transferred",
			"previous", e.Previous.String(),
			"next", e.Next.String(),
		)
		l.plugins.EmitOwnershipTransferred(ctx, e)
	}
}

// storeError maps store sentinels onto custody sentinels.
func storeError(err error) error {
	switch {
	case errors.Is(err, store.ErrInsufficientFunds):
		return ErrInsufficientFunds
	case errors.Is(err, store.ErrBalanceOverflow):
		return ErrBalanceOverflow
	default:
		return err
	}
}

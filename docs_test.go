package custody_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/xraph/custody"
	"github.com/xraph/custody/address"
	"github.com/xraph/custody/instruction"
	"github.com/xraph/custody/store/memory"
	"github.com/xraph/custody/types"
)

// TestDocumentationExamples verifies that the package documentation examples work.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		l := custody.New(store, custody.WithLogger(slog.New(slog.DiscardHandler)))

		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		owner, err := custody.GenerateKeyPair()
		if err != nil {
			t.Fatal(err)
		}
		caller, err := l.Sign(ctx, owner, instruction.Initialize(owner.Identity()))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := l.Initialize(ctx, caller, owner.Identity()); err != nil {
			t.Fatal(err)
		}

		// Fund a payer outside the ledger, then pay 2.5 units into the vault.
		payer, _ := custody.GenerateKeyPair()
		if err := store.Credit(ctx, address.FromIdentity(payer.Identity()), 10_000_000_000); err != nil {
			t.Fatal(err)
		}

		amount, _ := custody.ParseAmount("2.5")
		caller, _ = l.Sign(ctx, payer, instruction.ReceivePayment(uint64(amount)))
		receipt, err := l.ReceivePayment(ctx, caller, uint64(amount))
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Payment %d recorded at %s\n", receipt.PaymentID, receipt.Record)

		// Only the authority can drain the vault.
		caller, _ = l.Sign(ctx, owner, instruction.Withdraw())
		withdrawn, err := l.Withdraw(ctx, caller)
		if err != nil {
			t.Fatal(err)
		}
		if withdrawn.Amount != amount {
			t.Errorf("withdrew %s, want %s", withdrawn.Amount, amount)
		}
	})

	t.Run("AmountExamples", func(t *testing.T) {
		a, err := types.ParseAmount("1.5")
		if err != nil {
			t.Fatal(err)
		}
		if uint64(a) != 1_500_000_000 {
			t.Errorf("base units = %d", uint64(a))
		}

		sum, ok := a.Add(types.Amount(500_000_000))
		if !ok || sum.String() != "2" {
			t.Errorf("sum = %s, %v", sum, ok)
		}

		if _, ok := types.Amount(0).Sub(1); ok {
			t.Error("underflow must be reported")
		}
	})
}

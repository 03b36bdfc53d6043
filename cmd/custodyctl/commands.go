package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/custody"
	"github.com/xraph/custody/address"
	"github.com/xraph/custody/identity"
	"github.com/xraph/custody/instruction"
	"github.com/xraph/custody/store/memory"
	"github.com/xraph/custody/types"
)

func newKeygenCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signer key file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := readKeyFile(opts.keyPath); err == nil {
					return fmt.Errorf("%s already exists; pass --force to overwrite", opts.keyPath)
				}
			}
			kp, err := identity.GenerateKeyPair()
			if err != nil {
				return err
			}
			if err := writeKeyFile(opts.keyPath, kp); err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{
				"identity": kp.Identity().String(),
				"key_file": opts.keyPath,
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing key file")
	return cmd
}

func newInitCmd(opts *rootOptions) *cobra.Command {
	var authority string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the ledger state and vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kp, err := readKeyFile(opts.keyPath)
			if err != nil {
				return err
			}
			auth := kp.Identity()
			if authority != "" {
				if auth, err = identity.Parse(authority); err != nil {
					return err
				}
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				caller, err := a.ledger.Sign(cmd.Context(), kp, instruction.Initialize(auth))
				if err != nil {
					return err
				}
				ev, err := a.ledger.Initialize(cmd.Context(), caller, auth)
				if err != nil {
					return err
				}
				return printJSON(cmd, ev)
			})
		},
	}
	cmd.Flags().StringVar(&authority, "authority", "", "authority identity (default: the signer)")
	return cmd
}

func newPayCmd(opts *rootOptions) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Pay into the vault from the signer's balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := types.ParseAmount(amount)
			if err != nil {
				return err
			}
			kp, err := readKeyFile(opts.keyPath)
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				caller, err := a.ledger.Sign(cmd.Context(), kp, instruction.ReceivePayment(uint64(amt)))
				if err != nil {
					return err
				}
				ev, err := a.ledger.ReceivePayment(cmd.Context(), caller, uint64(amt))
				if err != nil {
					return err
				}
				return printJSON(cmd, ev)
			})
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "amount to pay, in whole units (e.g. 1.5)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newWithdrawCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw",
		Short: "Drain the vault to the authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kp, err := readKeyFile(opts.keyPath)
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				caller, err := a.ledger.Sign(cmd.Context(), kp, instruction.Withdraw())
				if err != nil {
					return err
				}
				ev, err := a.ledger.Withdraw(cmd.Context(), caller)
				if err != nil {
					return err
				}
				return printJSON(cmd, ev)
			})
		},
	}
}

func newTransferCmd(opts *rootOptions) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Hand the authority to another identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			next, err := identity.Parse(to)
			if err != nil {
				return err
			}
			kp, err := readKeyFile(opts.keyPath)
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				caller, err := a.ledger.Sign(cmd.Context(), kp, instruction.TransferOwnership(next))
				if err != nil {
					return err
				}
				ev, err := a.ledger.TransferOwnership(cmd.Context(), caller, next)
				if err != nil {
					return err
				}
				return printJSON(cmd, ev)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "new authority identity")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newFundCmd(opts *rootOptions) *cobra.Command {
	var (
		target string
		amount string
	)
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Credit an address outside the ledger (development faucet)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			amt, err := types.ParseAmount(amount)
			if err != nil {
				return err
			}
			var addr address.Address
			if target == "" {
				kp, err := readKeyFile(opts.keyPath)
				if err != nil {
					return err
				}
				addr = address.FromIdentity(kp.Identity())
			} else if addr, err = address.Parse(target); err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				if err := a.ledger.Store().Credit(cmd.Context(), addr, uint64(amt)); err != nil {
					return err
				}
				bal, err := a.ledger.Store().Balance(cmd.Context(), addr)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]any{
					"address": addr,
					"balance": types.Amount(bal),
				})
			})
		},
	}
	cmd.Flags().StringVar(&target, "address", "", "address to credit (default: the signer)")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to credit, in whole units")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newStateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the ledger state and vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				addrs, err := a.ledger.Addresses()
				if err != nil {
					return err
				}
				out := map[string]any{"addresses": addrs, "initialized": false}

				st, err := a.ledger.State(cmd.Context())
				switch {
				case errors.Is(err, custody.ErrNotInitialized):
				case err != nil:
					return err
				default:
					out["initialized"] = true
					out["state"] = st
				}

				vault, err := a.ledger.Vault(cmd.Context())
				if err != nil {
					return err
				}
				out["vault_balance"] = types.Amount(vault.Balance)
				return printJSON(cmd, out)
			})
		},
	}
}

func newPaymentsCmd(opts *rootOptions) *cobra.Command {
	var (
		from  uint64
		limit int
	)
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List payment receipts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				records, err := a.ledger.Payments(cmd.Context(), from, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, records)
			})
		},
	}
	cmd.Flags().Uint64Var(&from, "from", 1, "first payment id")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of receipts")
	return cmd
}

func newDeriveCmd(opts *rootOptions) *cobra.Command {
	var payment uint64
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Print the derived state, vault and payment addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			programID, err := opts.cfg.ProgramAddress()
			if err != nil {
				return err
			}
			l := custody.New(memory.New(), custody.WithProgramID(programID), custody.WithLogger(opts.logger))
			addrs, err := l.Addresses()
			if err != nil {
				return err
			}
			out := map[string]any{"addresses": addrs}
			if cmd.Flags().Changed("payment") {
				addr, bump, err := l.PaymentAddress(payment)
				if err != nil {
					return err
				}
				out["payment"] = map[string]any{"id": payment, "address": addr, "bump": bump}
			}
			return printJSON(cmd, out)
		},
	}
	cmd.Flags().Uint64Var(&payment, "payment", 0, "also derive the receipt address for this payment id")
	return cmd
}

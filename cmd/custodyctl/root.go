package main

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xraph/custody/config"
)

type rootOptions struct {
	configPath string
	keyPath    string

	cfg    config.Config
	logger *slog.Logger
	sync   func()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "custodyctl",
		Short:         "Operate a custodial payment ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger, sync, err := newLogger(cfg.Log.Level, cfg.Log.Development)
			if err != nil {
				return err
			}
			opts.cfg, opts.logger, opts.sync = cfg, logger, sync
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.sync != nil {
				opts.sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.keyPath, "key", "k", "custody-key.json", "signer key file")

	cmd.AddCommand(
		newKeygenCmd(opts),
		newInitCmd(opts),
		newPayCmd(opts),
		newWithdrawCmd(opts),
		newTransferCmd(opts),
		newFundCmd(opts),
		newStateCmd(opts),
		newPaymentsCmd(opts),
		newDeriveCmd(opts),
	)
	return cmd
}

// withApp opens the configured ledger for the duration of fn.
func (o *rootOptions) withApp(ctx context.Context, fn func(a *app) error) (err error) {
	a, err := openApp(ctx, o.cfg, o.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/defistate/barrel-client-go/cmd/client/app"
	"github.com/defistate/barrel-client-go/cmd/client/config"
	"github.com/defistate/barrel-client-go/factory"
	"github.com/defistate/barrel-client-go/form"
	"github.com/defistate/barrel-client-go/pkg/chains"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const waitTimeout = 3 * time.Minute

type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:          "barrelctl",
		Short:        "Create and inspect barrels from the command line",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "config.yaml", "Path to the configuration file")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(
		newTokensCmd(flags),
		newCreateCmd(flags),
	)
	return cmd
}

func (f *rootFlags) logger(w io.Writer) *slog.Logger {
	if !f.verbose {
		w = io.Discard
	}
	return slog.New(slog.NewJSONHandler(w, nil))
}

func (f *rootFlags) connect(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return app.New(ctx, cfg, f.logger(cmd.ErrOrStderr()), prometheus.NewRegistry(), app.Options{})
}

func newTokensCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens",
		Short: "List the tokens supported on the connected network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.connect(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			networkID := client.Wallet.NetworkID()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "network %s (%d)\n", chains.Name(networkID), networkID)

			w := tabwriter.NewWriter(out, 0, 0, 4, ' ', 0)
			fmt.Fprintln(w, "#\tSYMBOL\tDECIMALS\tADDRESS\t")
			for i, t := range client.Tokens.Tokens(networkID) {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\t\n", i, t.Symbol, t.Decimals, t.Address.Hex())
			}
			return w.Flush()
		},
	}
}

type createFlags struct {
	values map[form.Field]*string
	dryRun bool
	wait   bool
}

func newCreateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Brew a new barrel through the factory",
		Long: `Brew a new barrel through the factory.

Unset flags keep the dialog defaults: first token, expiry in one year,
30 day locking window, 20% penalty, 20% fee, N = 1, no bonus token and
the signing account as fee recipient.

Examples:
  barrelctl create --token DAI --expiry 2027-06-30 --locking-days 14
  barrelctl create --token 0 --bonus-token USDC --fee 10 --dry-run`,
		Args: cobra.NoArgs,
	}

	cf := bindCreateFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		client, err := flags.connect(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer client.Close()

		c, err := client.NewController()
		if err != nil {
			return err
		}
		return runCreate(cmd, c, cf, client.Factory, client.Wallet)
	}
	return cmd
}

var fieldUsage = map[form.Field]string{
	form.FieldToken:             "Token to stake: list index, symbol or address",
	form.FieldBonusToken:        "Bonus token: index among candidates, symbol, address or none",
	form.FieldExpiry:            "Expiry as YYYY-MM-DD (08:00 UTC) or unix seconds",
	form.FieldLockingPeriodDays: "Days before expiry during which deposits are refused",
	form.FieldFeeRecipient:      "Fee recipient address",
	form.FieldPenaltyPercent:    "Early-exit penalty in percent",
	form.FieldFeePercent:        "Fee taken from the penalty in percent",
	form.FieldShareCoefficient:  "Share decreasing coefficient N",
}

// bindCreateFlags registers one string flag per draft field.
func bindCreateFlags(cmd *cobra.Command) *createFlags {
	cf := &createFlags{values: make(map[form.Field]*string, len(form.Fields))}
	for _, f := range form.Fields {
		cf.values[f] = cmd.Flags().String(string(f), "", fieldUsage[f])
	}
	cmd.Flags().BoolVar(&cf.dryRun, "dry-run", false, "Print the derived create arguments without sending")
	cmd.Flags().BoolVar(&cf.wait, "wait", false, "Wait for the transaction receipt")
	return cf
}

// receiptWaiter waits for a sent transaction.
type receiptWaiter interface {
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// calldataPacker encodes create arguments for a dry run.
type calldataPacker interface {
	Pack(args factory.CreateArgs) ([]byte, error)
}

func runCreate(cmd *cobra.Command, c *form.Controller, cf *createFlags, packer calldataPacker, waiter receiptWaiter) error {
	for _, f := range form.Fields {
		if !cmd.Flags().Changed(string(f)) {
			continue
		}
		if err := c.SetField(f, *cf.values[f]); err != nil {
			return fmt.Errorf("--%s: %w", f, err)
		}
	}

	v := c.View()
	out := cmd.OutOrStdout()
	if v.Err != nil {
		return v.Err
	}

	if cf.dryRun {
		args := form.DeriveArgs(v.Draft)
		data, err := packer.Pack(args)
		if err != nil {
			return err
		}
		names := []string{"token", "penalty", "lockingPeriod", "expiry", "fee", "n", "feeRecipient", "bonusToken"}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for i, s := range args.Strings() {
			fmt.Fprintf(w, "%s\t%s\n", names[i], s)
		}
		fmt.Fprintf(w, "calldata\t%s\n", hexutil.Encode(data))
		return w.Flush()
	}

	tx, err := c.Submit(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "sent %s\n", tx.Hash().Hex())

	if !cf.wait {
		return nil
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), waitTimeout)
	defer cancel()
	receipt, err := waiter.WaitMined(ctx, tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted in block %s", tx.Hash().Hex(), receipt.BlockNumber)
	}
	fmt.Fprintf(out, "mined in block %s\n", receipt.BlockNumber)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/internal/services"
	"fidolity-token-api/pkg/display"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

// Variables read when --keypair or --program-keypair are not given
const (
	EnvKeypair        = "FIDOLITY_KEYPAIR"
	EnvProgramKeypair = "FIDOLITY_PROGRAM_KEYPAIR"
)

func newBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <wallet>",
		Short: "Print a wallet's SOL balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet := args[0]
			if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
				return fmt.Errorf("invalid wallet address %q: %w", wallet, err)
			}

			balance, err := a.chain().GetBalance(cmd.Context(), wallet)
			if err != nil {
				return fmt.Errorf("get balance: %w", err)
			}
			printField(cmd, "Wallet", display.ShortAddress(wallet))
			printField(cmd, "Balance", display.FormatTokenAmount(balance, 9)+" SOL")
			return nil
		},
	}
}

// newStakeCmd builds the stake command, or unstake when stake is false
func newStakeCmd(a *app, stake bool) *cobra.Command {
	var keypair, programKeypair string

	use, short := "unstake <amount>", "Withdraw tokens from the staking program"
	if stake {
		use, short = "stake <amount>", "Stake tokens with the staking program"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

Placeholder token or program addresses select the simulated path, which records
the operation in the ledger under a simulated signature without touching the chain.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("invalid amount %q", args[0])
			}

			if keypair == "" {
				keypair = os.Getenv(EnvKeypair)
			}
			if keypair == "" {
				return fmt.Errorf("no wallet: pass --keypair or set %s: %w", EnvKeypair, models.ErrWalletNotConnected)
			}
			if programKeypair == "" {
				programKeypair = os.Getenv(EnvProgramKeypair)
			}
			var coSigners []string
			if programKeypair != "" {
				coSigners = append(coSigners, programKeypair)
			}
			wallet, err := services.LoadKeypairWallet(keypair, coSigners...)
			if err != nil {
				return err
			}

			svc := services.NewStakingService(a.chain(), a.api(), services.StakingOptions{
				TokenSymbol:   a.cfg.Token.Symbol,
				SimulateDelay: a.cfg.Staking.SimulateDelay,
			})
			defer svc.Stop()

			run := svc.UnstakeTokens
			if stake {
				run = svc.StakeTokens
			}
			signature, err := run(cmd.Context(), wallet, a.cfg.Staking.TokenAddress, amount, a.cfg.Staking.ProgramAddress)

			var ledgerErr *services.LedgerError
			if errors.As(err, &ledgerErr) {
				notice.Fprintf(cmd.OutOrStdout(), "! Transfer %s landed but the ledger was not updated\n", ledgerErr.Signature)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			env := models.ResolveEnvironment(a.cfg.Staking.TokenAddress, a.cfg.Staking.ProgramAddress)
			success.Fprintf(out, "✓ %s of %s %s completed (%s)\n",
				strings.Fields(use)[0], display.FormatTokenAmount(amount, a.cfg.Token.Decimals), a.cfg.Token.Symbol, env)
			printField(cmd, "Wallet", display.ShortAddress(wallet.PublicKey().String()))
			printField(cmd, "Signature", signature)
			return nil
		},
	}

	cmd.Flags().StringVar(&keypair, "keypair", "", "Wallet private key (base58) or solana-keygen file (default $"+EnvKeypair+")")
	if !stake {
		cmd.Flags().StringVar(&programKeypair, "program-keypair", "", "Staking program key that co-signs the withdrawal (default $"+EnvProgramKeypair+")")
	}
	return cmd
}

func newTVLCmd(a *app) *cobra.Command {
	var symbol string

	cmd := &cobra.Command{
		Use:   "tvl",
		Short: "Print the total value locked across active stakes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := services.NewStakingService(a.chain(), a.api(), services.StakingOptions{TokenSymbol: symbol})
			defer svc.Stop()

			tvl := svc.GetTotalValueLocked(cmd.Context(), symbol)
			printField(cmd, "Token", symbol)
			printField(cmd, "Total Value Locked", display.FormatTokenAmount(tvl, a.cfg.Token.Decimals))
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", a.cfg.Token.Symbol, "Token symbol")
	return cmd
}

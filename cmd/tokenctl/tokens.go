package main

import (
	"fmt"
	"strconv"
	"strings"

	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/display"
	"fidolity-token-api/pkg/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCheckTokensCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-tokens",
		Short: "List every row of the token_info table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Checking token_info table...")

			tokens, err := s.ListTokenInfo(ctx, nil)
			if err != nil {
				return fmt.Errorf("list tokens: %w", err)
			}
			if len(tokens) == 0 {
				notice.Fprintln(out, "No tokens found in database. The table might be empty or not created yet.")
				return nil
			}

			success.Fprintf(out, "Found %d token(s):\n", len(tokens))
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"Symbol", "Name", "Contract Address", "Blockchain", "Is Active", "Explorer"})
			table.SetAutoWrapText(false)
			for _, t := range tokens {
				contract := t.Contract()
				explorer := ""
				if addr, live := contract.Address(); live {
					explorer = display.ExplorerURL(t.Blockchain, addr)
				}
				table.Append([]string{
					t.TokenSymbol,
					t.TokenName,
					contract.String(),
					t.Blockchain,
					strconv.FormatBool(t.IsActive),
					explorer,
				})
			}
			table.Render()
			return nil
		},
	}
}

func newSetContractAddressCmd(a *app) *cobra.Command {
	var symbol, name string

	cmd := &cobra.Command{
		Use:   "set-contract-address [address]",
		Short: `Set the token's contract address ("soon" when omitted)`,
		Long: `Upserts the token_info row for --symbol with the given contract address,
falling back to a plain update of contract_address when the upsert fails.
Omitting the address marks the token as not launched yet.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := models.UnlaunchedSentinel
			if len(args) == 1 {
				raw = args[0]
			}
			contract := models.ParseContractAddress(raw)
			if addr, live := contract.Address(); live {
				if _, err := solana.PublicKeyFromBase58(addr); err != nil {
					return fmt.Errorf("invalid contract address %q: %w", addr, err)
				}
			}

			ctx := cmd.Context()
			s, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updating contract address of %s to %q\n", symbol, contract.String())

			now := models.Now()
			row, err := s.UpsertTokenInfo(ctx, &models.TokenInfo{
				TokenSymbol:     symbol,
				TokenName:       name,
				ContractAddress: contract.String(),
				Blockchain:      a.cfg.Token.Blockchain,
				IsActive:        true,
				UpdatedAt:       now,
			})
			if err != nil {
				logger.GetLogger().Warn("Upsert failed, trying plain update", zap.String("symbol", symbol), zap.Error(err))
				notice.Fprintf(out, "Upsert failed (%v), trying plain update...\n", err)

				addr := contract.String()
				row, err = s.UpdateTokenInfo(ctx, symbol, models.TokenInfoUpdate{ContractAddress: &addr})
				if err != nil {
					return fmt.Errorf("update contract address: %w", err)
				}
			}

			success.Fprintln(out, "Successfully updated!")
			printField(cmd, "Token Symbol", row.TokenSymbol)
			printField(cmd, "Token Name", row.TokenName)
			printField(cmd, "Contract Address", row.ContractAddress)
			printField(cmd, "Blockchain", row.Blockchain)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", strings.ToUpper(a.cfg.Token.Symbol), "Token symbol to update")
	cmd.Flags().StringVar(&name, "name", a.cfg.Token.Name, "Token name written on insert")
	return cmd
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fidolity-token-api/internal/appconfig"
	"fidolity-token-api/internal/models"
	"fidolity-token-api/pkg/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

func newGenerateConfigCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "generate-config",
		Short: "Write config.json from the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := a.cfg.AppConfig()
			if err := writeJSON(out, doc); err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "✓ Generated %s\n", out)
			printField(cmd, "Contract Address", doc.Token.ContractAddress.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", filepath.Join("public", "config.json"), "Output path")
	return cmd
}

func newUpdateConfigCmd(a *app) *cobra.Command {
	var dist string

	cmd := &cobra.Command{
		Use:   "update-config [address]",
		Short: "Set token.contractAddress in a built config.json",
		Long: `Rewrites token.contractAddress in <dist>/config.json, keeping every other field.
The address comes from the argument or CONTRACT_ADDRESS. With neither, nothing changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(dist); err != nil {
				return fmt.Errorf("build directory %s not found, build the frontend first", dist)
			}

			address := os.Getenv("CONTRACT_ADDRESS")
			if len(args) == 1 {
				address = args[0]
			}
			if address == "" {
				notice.Fprintln(cmd.OutOrStdout(), "No CONTRACT_ADDRESS set, config.json left unchanged")
				return nil
			}

			path := filepath.Join(dist, "config.json")
			if err := updateContractAddress(path, address); err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "✓ Updated %s\n", path)
			printField(cmd, "Contract Address", address)
			return nil
		},
	}

	cmd.Flags().StringVar(&dist, "dist", "dist", "Frontend build directory")
	return cmd
}

// updateContractAddress rewrites one field of the document at path. Unknown fields survive
// because the document is edited as a generic map.
func updateContractAddress(path, address string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	token, _ := doc["token"].(map[string]interface{})
	if token == nil {
		token = map[string]interface{}{}
		doc["token"] = token
	}
	token["contractAddress"] = address

	return writeJSON(path, doc)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective config and the local contract address override",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the config as the client sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader := appconfig.NewLoader(a.cfg.Client.ConfigURL, a.httpClient, a.overrides(), logger.GetLogger())
			doc := loader.Get(cmd.Context())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}

	override := &cobra.Command{
		Use:   "override",
		Short: "Manage the contract address override stored in the local profile",
	}

	setCmd := &cobra.Command{
		Use:   "set <address>",
		Short: "Override the token contract address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contract := models.ParseContractAddress(args[0])
			addr, live := contract.Address()
			if !live {
				return errors.New("override must be a live contract address; use 'config override clear' to remove it")
			}
			if _, err := solana.PublicKeyFromBase58(addr); err != nil {
				return fmt.Errorf("invalid contract address %q: %w", addr, err)
			}
			if err := a.overrides().SetContractAddressOverride(addr); err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "✓ Contract address override set to %s\n", addr)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the contract address override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.overrides().ClearContractAddressOverride(); err != nil {
				return err
			}
			success.Fprintln(cmd.OutOrStdout(), "✓ Contract address override cleared")
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print the current override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, ok, err := a.overrides().ContractAddressOverride()
			if err != nil {
				return err
			}
			if !ok {
				notice.Fprintln(cmd.OutOrStdout(), "No override set")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}

	override.AddCommand(setCmd, clearCmd, getCmd)
	cmd.AddCommand(show, override)
	return cmd
}

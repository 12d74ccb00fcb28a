package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/docvault/pkg/internal/vault"
)

var (
	vaultCmd = &cobra.Command{
		Use:   "vault",
		Short: "Credential encryption helpers",
	}

	vaultGenKeyCmd = &cobra.Command{
		Use:   "genkey",
		Short: "generate a random encryption key for vault.encryption_key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := vault.GenerateKey()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), key)

			return nil
		},
	}
)

func registerVaultCommands() {
	rootCmd.AddCommand(vaultCmd)
	vaultCmd.AddCommand(vaultGenKeyCmd)
}

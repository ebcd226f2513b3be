package main

import (
	"fmt"

	"github.com/spf13/cobra"

	sec "github.com/dropDatabas3/tgsession/internal/security/secretbox"
)

func newEncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enc <value>",
		Short: "Cifra un secreto para usar en el YAML (requiere SECRETBOX_MASTER_KEY)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := sec.Encrypt(args[0])
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			fmt.Println(enc)
			return nil
		},
	}
}

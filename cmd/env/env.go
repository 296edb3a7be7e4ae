package env

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/hw-bridge/internal/config"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the env",
		Long: `Prints the currently applied env

Secrets (management secret, device mnemonic and passphrase) are omitted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnv(cmd)
		},
	}
}

func runEnv(cmd *cobra.Command) error {
	cfg := config.DefaultServiceConfigFromEnv()

	c, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal the env")
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(c))
	return err
}

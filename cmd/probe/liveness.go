package probe

import (
	"net/url"

	"github.com/spf13/cobra"
	"github/chapool/hw-bridge/internal/config"
)

func newLiveness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liveness",
		Short: "Runs liveness probes",
		Long: `Runs liveness probes

Queries the management health endpoint of a running bridge, which reports every
keyring type with its initialization and device state.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultServiceConfigFromEnv()
			return runProbe(cmd, "/-/healthy", url.Values{"mgmt-secret": []string{cfg.Management.Secret}})
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

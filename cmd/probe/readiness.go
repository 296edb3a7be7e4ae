package probe

import (
	"github.com/spf13/cobra"
)

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Runs readiness probes",
		Long: `Runs readiness probes

Fails unless a running bridge answers its ready endpoint.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProbe(cmd, "/-/ready", nil)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

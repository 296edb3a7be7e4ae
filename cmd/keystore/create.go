package keystore

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/hw-bridge/internal/config"
	"github/chapool/hw-bridge/internal/device/keystore"
	"github/chapool/hw-bridge/internal/util/command"
)

func newCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Seals the device mnemonic into a keystore file",
		Long: `Seals the device mnemonic into a keystore file

The mnemonic is read from BRIDGE_DEVICE_MNEMONIC, the passphrase from the terminal.
Point BRIDGE_DEVICE_KEYSTORE_FILE at the result and drop the mnemonic from the env.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(fileFlag)
			if err != nil {
				return err
			}
			light, err := cmd.Flags().GetBool(lightFlag)
			if err != nil {
				return err
			}

			return runCreate(cmd, path, light)
		},
	}

	cmd.Flags().StringP(fileFlag, "f", "devices.keystore.json", "Keystore file to create")
	cmd.Flags().Bool(lightFlag, false, "Use light scrypt parameters (development only)")

	return cmd
}

func runCreate(cmd *cobra.Command, path string, light bool) error {
	cfg := config.DefaultServiceConfigFromEnv()

	passphrase, err := command.PromptPassphrase("Keystore passphrase: ")
	if err != nil {
		return err
	}
	confirm, err := command.PromptPassphrase("Repeat passphrase: ")
	if err != nil {
		return err
	}
	if passphrase != confirm {
		return errors.New("passphrases do not match")
	}

	params := keystore.StandardScryptParams()
	if light {
		params = keystore.LightScryptParams()
	}

	f, err := keystore.Encrypt(cfg.Bridge.Mnemonic, passphrase, params)
	if err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Keystore %s written to %s\n", f.ID, path)
	return err
}

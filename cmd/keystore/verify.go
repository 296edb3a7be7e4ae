package keystore

import (
	"fmt"

	"github.com/spf13/cobra"
	"github/chapool/hw-bridge/internal/device/hd"
	"github/chapool/hw-bridge/internal/device/keystore"
	"github/chapool/hw-bridge/internal/device/seed"
	"github/chapool/hw-bridge/internal/util/command"
)

func newVerify() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Unlocks a keystore file and prints its first account",
		Long: `Unlocks a keystore file and prints its first account

Compare the printed address with the one the simulated devices reported before
to confirm the passphrase.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString(fileFlag)
			if err != nil {
				return err
			}

			passphrase, err := command.PromptPassphrase("Keystore passphrase: ")
			if err != nil {
				return err
			}

			address, err := FirstAccount(path, passphrase)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), address)
			return err
		},
	}

	cmd.Flags().StringP(fileFlag, "f", "devices.keystore.json", "Keystore file to verify")

	return cmd
}

// FirstAccount unlocks the keystore at path and derives the address at index 0 of the default path.
func FirstAccount(path string, passphrase string) (string, error) {
	f, err := keystore.Load(path)
	if err != nil {
		return "", err
	}

	mnemonic, err := f.Decrypt(passphrase)
	if err != nil {
		return "", err
	}

	seeds, err := seed.NewManagerFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return "", err
	}
	defer seeds.Clear()

	account, err := hd.Derive(seeds.Seed(), hd.AccountPath(hd.DefaultBasePath, 0))
	if err != nil {
		return "", err
	}

	return account.Address.Hex(), nil
}

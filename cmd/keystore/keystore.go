package keystore

import (
	"github.com/spf13/cobra"
	"github/chapool/hw-bridge/internal/util/command"
)

const (
	fileFlag  string = "file"
	lightFlag string = "light"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newCreate(),
		newVerify(),
	)
}

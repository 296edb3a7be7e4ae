package command

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// PromptPassphrase prompts for a passphrase on the terminal (hides input)
//
//nolint:forbidigo // Passphrase input requires direct terminal I/O
func PromptPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("passphrase prompt requires an interactive terminal")
	}

	fmt.Print(prompt)

	passphraseBytes, err := term.ReadPassword(fd)
	if err != nil {
		return "", errors.Wrap(err, "failed to read passphrase from terminal")
	}

	fmt.Println() // New line after passphrase input

	return string(passphraseBytes), nil
}

package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/api/router"
	"github/chapool/hw-bridge/internal/config"
	"github/chapool/hw-bridge/internal/util/command"
)

const (
	promptPassphraseFlag = "prompt-passphrase"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the bridge server",
		Long: `Starts the bridge server

Simulated devices are built from the configured roster and seeded from the configured mnemonic.
With --prompt-passphrase the BIP39 passphrase is read from the terminal instead of the env.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prompt, err := cmd.Flags().GetBool(promptPassphraseFlag)
			if err != nil {
				return err
			}

			return runServer(cmd.Context(), prompt)
		},
	}

	cmd.Flags().Bool(promptPassphraseFlag, false, "Read the device seed passphrase from the terminal")

	return cmd
}

func runServer(ctx context.Context, prompt bool) error {
	cfg := config.DefaultServiceConfigFromEnv()

	if prompt || cfg.Bridge.PromptPassphrase {
		passphrase, err := command.PromptPassphrase("Device seed passphrase: ")
		if err != nil {
			return err
		}
		cfg.Bridge.Passphrase = passphrase
	}

	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		if err := router.Init(s); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("listen_address", s.Config.Echo.ListenAddress).Msg("Starting server")
			if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err, ok := <-errCh:
			if ok {
				log.Error().Err(err).Msg("Failed to start server")
				return err
			}
			return nil
		case <-ctx.Done():
			log.Info().Msg("Received shutdown signal")
			return nil
		}
	})
}

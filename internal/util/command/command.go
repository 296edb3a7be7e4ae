package command

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/hw-bridge/internal/api"
	"github/chapool/hw-bridge/internal/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// NewSubcommandGroup returns a command that only groups subcommands and prints its help when run directly.
func NewSubcommandGroup(use string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: use + " subcommands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(subcommands...)

	return cmd
}

// ConfigureLogger applies the logger section of config to the global zerolog logger.
func ConfigureLogger(config config.Server) {
	zerolog.SetGlobalLevel(config.Logger.Level)
	if config.Logger.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.TimeFormat = "15:04:05"
		}))
	}
}

// WithServer initializes a server from config, runs f and shuts the server down afterwards.
// The error of f is returned, shutdown errors are logged.
func WithServer(ctx context.Context, config config.Server, f func(ctx context.Context, s *api.Server) error) error {
	ConfigureLogger(config)

	s, err := api.InitNewServer(config)
	if err != nil {
		return errors.Wrap(err, "failed to initialize server")
	}

	resultErr := f(ctx, s)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
		log.Error().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down server")
	}

	return resultErr
}

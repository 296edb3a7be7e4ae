package call

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/hw-bridge/internal/bridge/bus"
	"github/chapool/hw-bridge/internal/bridge/keyring"
	"github/chapool/hw-bridge/internal/bridge/port"
	"github/chapool/hw-bridge/internal/config"
	"github/chapool/hw-bridge/internal/util/command"
)

const (
	argsFlag      = "args"
	prevStateFlag = "prev-state"
	urlFlag       = "url"
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <type> <method>",
		Short: "Sends one call envelope to a running bridge",
		Long: `Sends one call envelope to a running bridge and prints the result envelope

The envelope travels over the bridge port (websocket) and is subject to the
configured boundary timeout. Arguments and previous state are passed as JSON.

Example:
  app call ledger makeApp
  app call ledger unlock --args '["m/44'"'"'/60'"'"'/0'"'"'/0/0"]' --prev-state '{"hdPath":"m/44'"'"'/60'"'"'/0'"'"'/0","accounts":[]}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, keyring.Type(args[0]), args[1])
		},
	}

	cmd.Flags().String(argsFlag, "[]", "JSON array of positional method arguments")
	cmd.Flags().String(prevStateFlag, "", "JSON keyring state returned by the previous call")
	cmd.Flags().String(urlFlag, "", "Port URL, defaults to the configured base URL")

	return cmd
}

func runCall(cmd *cobra.Command, t keyring.Type, method string) error {
	cfg := config.DefaultServiceConfigFromEnv()
	command.ConfigureLogger(cfg)

	rawArgs, err := cmd.Flags().GetString(argsFlag)
	if err != nil {
		return err
	}
	rawState, err := cmd.Flags().GetString(prevStateFlag)
	if err != nil {
		return err
	}
	portURL, err := cmd.Flags().GetString(urlFlag)
	if err != nil {
		return err
	}

	var args []any
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return errors.Wrap(err, "--args must be a JSON array")
	}

	var prevState keyring.State
	if rawState != "" {
		if !json.Valid([]byte(rawState)) {
			return errors.New("--prev-state must be valid JSON")
		}
		prevState = keyring.State(rawState)
	}

	if portURL == "" {
		portURL, err = PortURL(cfg.Echo.BaseURL)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := Call(ctx, portURL, cfg.Bridge.BoundaryTimeout, t, method, args, prevState)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal result envelope")
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// PortURL derives the websocket port URL from the HTTP base URL of the bridge.
func PortURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return "", errors.Wrap(err, "invalid base URL")
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.Errorf("unsupported base URL scheme %q", u.Scheme)
	}

	u.Path += "/api/v1/bridge/port"
	return u.String(), nil
}

// Call dials the port at portURL, issues one call and waits for its result.
func Call(ctx context.Context, portURL string, timeout time.Duration, t keyring.Type, method string, args []any, prevState keyring.State) (bus.ResultEnvelope, error) {
	p, err := port.Dial(ctx, portURL, nil, log.Logger)
	if err != nil {
		return bus.ResultEnvelope{}, err
	}
	defer p.Close()

	client := bus.NewClient(p, timeout, log.Logger)

	go func() {
		if err := p.Receive(ctx, client); err != nil {
			log.Debug().Err(err).Msg("Port receive loop ended")
		}
	}()

	return client.Call(ctx, t, method, args, prevState)
}

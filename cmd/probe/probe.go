package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/hw-bridge/internal/config"
	"github/chapool/hw-bridge/internal/util/command"
)

const (
	verboseFlag string = "verbose"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("probe",
		newLiveness(),
		newReadiness(),
	)
}

// probe issues a GET against path on the configured base URL and fails unless it answers 200.
func probe(ctx context.Context, cfg config.Server, path string, query url.Values) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Management.ProbeReadinessTimeout)
	defer cancel()

	u, err := url.Parse(strings.TrimSuffix(cfg.Echo.BaseURL, "/") + path)
	if err != nil {
		return "", errors.Wrap(err, "invalid base URL")
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build probe request")
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "failed to reach %s", path)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read probe response")
	}

	if res.StatusCode != http.StatusOK {
		return string(body), errors.Errorf("%s returned %d", path, res.StatusCode)
	}

	return string(body), nil
}

func runProbe(cmd *cobra.Command, path string, query url.Values) error {
	verbose, err := cmd.Flags().GetBool(verboseFlag)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := probe(ctx, config.DefaultServiceConfigFromEnv(), path, query)
	if verbose && body != "" {
		fmt.Fprint(cmd.OutOrStdout(), body)
	}

	return err
}

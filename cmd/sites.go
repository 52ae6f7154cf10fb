package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/brogergvhs/ranobed/internal/config"
	"github.com/brogergvhs/ranobed/internal/providers"
	"github.com/brogergvhs/ranobed/internal/providers/jaomix"
	"github.com/brogergvhs/ranobed/internal/providers/ranobehub"
	"github.com/brogergvhs/ranobed/internal/providers/ranoberf"
	"github.com/brogergvhs/ranobed/internal/providers/ranobes"
	"github.com/brogergvhs/ranobed/internal/providers/rulate"
	"github.com/brogergvhs/ranobed/internal/ui"
	"github.com/brogergvhs/ranobed/internal/util"

	"github.com/spf13/cobra"
)

const requestTimeout = 60 * time.Second

// newRegistry wires every supported site to one fetcher.
func newRegistry(f *util.Fetcher, workers int) *providers.Registry {
	jm := jaomix.New(f)
	jm.Workers = workers
	return providers.NewRegistry(
		ranobes.New(f),
		rulate.New(f),
		jm,
		ranoberf.New(f),
		ranobehub.New(f),
	)
}

// newFetcher builds the HTTP stack from the effective config.
func newFetcher(cfg *config.Config, log *ui.Logger) (*util.Fetcher, error) {
	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          requestTimeout,
		UserAgent:        util.PickUserAgent(envDefault(cfg.UserAgent, "RANOBED_USER_AGENT")),
		Cookie:           envDefault(cfg.Cookie, "RANOBED_COOKIE"),
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		RateLimit:        cfg.RateLimit,
		DebugLogger:      log,
	})
	if err != nil {
		return nil, err
	}
	return util.NewFetcher(client, cfg.Retries), nil
}

var sitesCmd = &cobra.Command{
	Use:   "sites [url]",
	Short: "List supported sites or check which one handles a URL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry(util.NewFetcher(nil, 1), 1)
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			for _, ex := range reg.All() {
				fmt.Fprintln(out, ex.Name())
			}
			return nil
		}

		ex, err := reg.Select(args[0])
		if errors.Is(err, providers.ErrUnsupported) {
			fmt.Fprintf(out, "%s is not supported\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s is handled by %s\n", args[0], ex.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

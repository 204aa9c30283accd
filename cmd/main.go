// Command datacache inspects and serves the parish site content through
// the data cache.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/krisalay/datacache/config"
	"github.com/krisalay/datacache/engine"
	"github.com/krisalay/datacache/logging"
	"github.com/krisalay/datacache/parish"
	"github.com/krisalay/datacache/types"
)

// app carries what PersistentPreRunE prepared for the subcommands.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "datacache",
		Short:        "Parish content cache",
		Long:         "datacache reads the parish site's flat-file content through a fetch-once cache.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			if dir, _ := cmd.Flags().GetString("content"); dir != "" {
				cfg.Content.Dir = dir
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Logging.Level = "debug"
				cfg.Logging.Format = logging.FormatConsole
			}

			lc := cfg.Logging.ToLoggingConfig()
			lc.Out = cmd.ErrOrStderr()
			a.cfg = cfg
			a.logger = logging.New(lc)
			a.logger.Debug().Str("command", cmd.Name()).Msg("command started")
			return nil
		},
	}

	cmd.PersistentFlags().String("config", "", "path to a YAML config file")
	cmd.PersistentFlags().String("content", "", "content directory (overrides config)")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	cmd.AddCommand(newShowCmd(a), newDemoCmd(a), newServeCmd(a))
	return cmd
}

// newSite builds the site stores from the loaded configuration.
func (a *app) newSite(metrics types.Metrics) (*parish.Site, error) {
	src, err := parish.NewSource(a.cfg.Content.Dir)
	if err != nil {
		return nil, fmt.Errorf("open content: %w", err)
	}

	e := engine.NewCacheEngine(
		metrics,
		logging.Component(a.logger, "cache"),
		a.cfg.Cache.Coalesce,
		a.cfg.Cache.FetchTimeout,
	)
	return parish.NewSite(src, a.cfg.Cache.Shards, e), nil
}

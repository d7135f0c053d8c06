// Package main is the entry point for the venue-search service and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/venue-discovery/internal/config"
	"github.com/couchcryptid/venue-discovery/internal/observability"
)

// version is set at build time via ldflags.
var version = "dev"

// annotationProvider pins a subcommand to one venue backend regardless of
// VENUE_PROVIDER.
const annotationProvider = "venue-provider"

// env is populated by the root command before any subcommand runs.
var env *app

var rootCmd = &cobra.Command{
	Use:   "venue-search",
	Short: "Find sports venues near a reference point",
	Long: `venue-search queries a venue provider (the Places web service or an
Elasticsearch index), resolves each candidate to a coordinate and ranks the
results by distance from a reference point.

Configuration comes from environment variables and, optionally, a YAML or
JSON file passed with --config. Environment variables win over the file.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("config")
		var opts []config.Option
		if p := cmd.Annotations[annotationProvider]; p != "" {
			opts = append(opts, config.WithProvider(p))
		}
		cfg, err := config.LoadFile(path, opts...)
		if err != nil {
			return err
		}
		env = &app{
			cfg:     cfg,
			logger:  observability.NewLogger(cfg.LogLevel, cfg.LogFormat),
			metrics: observability.NewMetrics(),
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (YAML, JSON or TOML); keys are lower-cased env var names")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

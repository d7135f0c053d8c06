package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/venue-discovery/internal/adapter/elastic"
	"github.com/couchcryptid/venue-discovery/internal/config"
)

var indexCmd = &cobra.Command{
	Use:   "index FILE",
	Short: "Bulk-load a TSV venue file into Elasticsearch",
	Long: `Index creates the venue index (if missing) and loads venues from a
tab-separated file with the header: id, name, address, category, lat, lon.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationProvider: config.ProviderElastic},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open venue file: %w", err)
		}
		defer f.Close()

		venues, err := elastic.ReadVenuesTSV(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		index, err := env.elasticIndex()
		if err != nil {
			return err
		}
		if err := index.CreateIndex(ctx); err != nil {
			return err
		}
		n, err := index.LoadVenues(ctx, venues)
		if err != nil {
			return err
		}
		env.logger.Info("venues indexed", "file", args[0], "read", len(venues), "indexed", n)
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d venues into %s\n", n, len(venues), env.cfg.ElasticIndex)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

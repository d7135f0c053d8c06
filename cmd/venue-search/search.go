package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Run one venue search and print the ranked results",
	Long: `Search runs a single text search, resolves every candidate to a
coordinate and prints the results nearest first. Candidates that could not be
resolved are listed last without a distance.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ref, err := env.reference(ctx, floatFlag(cmd, "lat"), floatFlag(cmd, "lon"))
		if err != nil {
			return err
		}
		radius, _ := cmd.Flags().GetInt("radius")
		if radius <= 0 {
			radius = env.cfg.CityRadiusMeters
		}
		mode, _ := cmd.Flags().GetString("mode")

		engine, err := env.engine()
		if err != nil {
			return err
		}
		results, err := engine.Search(ctx, search.Request{
			Query:        strings.Join(args, " "),
			Reference:    ref,
			RadiusMeters: radius,
			Mode:         domain.ParseSearchMode(mode),
		})
		if err != nil {
			return err
		}
		return printResults(cmd, results)
	},
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List sports venues around the reference point",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		ref, err := env.reference(ctx, floatFlag(cmd, "lat"), floatFlag(cmd, "lon"))
		if err != nil {
			return err
		}
		if ref == nil {
			return fmt.Errorf("nearby needs a reference: pass --lat/--lon or set REFERENCE_LAT/REFERENCE_LON or REFERENCE_PLACE")
		}
		radius, _ := cmd.Flags().GetInt("radius")
		if radius <= 0 {
			radius = env.cfg.WideRadiusMeters
		}

		engine, err := env.engine()
		if err != nil {
			return err
		}
		results, err := engine.Nearby(ctx, *ref, radius)
		if err != nil {
			return err
		}
		return printResults(cmd, results)
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, nearbyCmd} {
		c.Flags().Float64("lat", 0, "reference latitude")
		c.Flags().Float64("lon", 0, "reference longitude")
		c.Flags().Int("radius", 0, "search radius in meters (default from config)")
		c.Flags().Bool("json", false, "output results as JSON")
		rootCmd.AddCommand(c)
	}
	searchCmd.Flags().String("mode", string(domain.ModeText), "provider endpoint: autocomplete or text")
}

// floatFlag returns nil for flags the user did not set.
func floatFlag(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

func printResults(cmd *cobra.Command, results []domain.VenueResult) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return writeTable(cmd.OutOrStdout(), results)
}

func writeTable(w io.Writer, results []domain.VenueResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "no venues found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tDISTANCE\tADDRESS\tID")
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, r.Name, formatDistance(r), r.Address, r.ProviderID)
	}
	return tw.Flush()
}

func formatDistance(r domain.VenueResult) string {
	if !r.HasDistance() {
		return "-"
	}
	d := *r.DistanceMeters
	if d < 1000 {
		return fmt.Sprintf("%.0f m", d)
	}
	return fmt.Sprintf("%.1f km", d/1000)
}

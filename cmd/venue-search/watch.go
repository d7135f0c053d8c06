package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/venue-discovery/internal/domain"
	"github.com/couchcryptid/venue-discovery/internal/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Treat stdin lines as search-field edits and print settled results",
	Long: `Watch feeds each line read from stdin into a search field as its full
current text, so typing "b", "ba", "bad" on successive lines behaves like
keystrokes. Searches are debounced and every settled state is printed.

Lines starting with a colon are commands:
  :retry            search the current text again
  :refresh          re-read the reference location and print its place
  :at LAT,LON       move the reference point
  :select ID        print one result, resolving its coordinate if needed`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := env.cfg

		engine, err := env.engine()
		if err != nil {
			return err
		}
		loc := env.location(ctx, env.geocoder())
		recorder, closeRecorder := env.recorder()
		defer closeRecorder()

		opts := []pipeline.Option{
			pipeline.WithDebounce(cfg.SearchDebounce),
			pipeline.WithRadius(cfg.CityRadiusMeters),
			pipeline.WithLocation(loc),
			pipeline.WithLogger(env.logger),
			pipeline.WithMetrics(env.metrics),
		}
		if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
			opts = append(opts, pipeline.WithMode(domain.ParseSearchMode(mode)))
		}
		if recorder != nil {
			opts = append(opts, pipeline.WithRecorder(recorder))
		}
		d := pipeline.New(engine, opts...)

		out := cmd.OutOrStdout()
		w := &watcher{d: d, loc: loc, out: out}
		w.refresh(ctx)

		states, unsubscribe := d.Subscribe()
		defer unsubscribe()
		printed := make(chan struct{})
		go func() {
			defer close(printed)
			for st := range states {
				if st.Phase == domain.PhaseSettled {
					printState(out, st)
				}
			}
		}()

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			w.handle(ctx, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			d.Close()
			return fmt.Errorf("read stdin: %w", err)
		}

		waitQuiet(ctx, d, cfg.SearchDebounce+cfg.DetailTimeout+cfg.PlacesTimeout)
		d.Close()
		<-printed
		return nil
	},
}

func init() {
	watchCmd.Flags().String("mode", string(domain.ModeAutocomplete), "provider endpoint: autocomplete or text")
	rootCmd.AddCommand(watchCmd)
}

// movableLocation is a location capability whose fix can be moved.
// *location.Fixed implements it.
type movableLocation interface {
	domain.LocationAcquisition
	Set(c domain.Coordinate)
}

type watcher struct {
	d   *pipeline.Dispatcher
	loc movableLocation
	out io.Writer
}

func (w *watcher) handle(ctx context.Context, line string) {
	if !strings.HasPrefix(line, ":") {
		w.d.OnQueryChanged(line)
		return
	}

	verb, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch verb {
	case "retry":
		if !w.d.Retry() {
			fmt.Fprintln(w.out, "nothing to retry")
		}
	case "refresh":
		w.refresh(ctx)
	case "at":
		c, err := parseLatLon(arg)
		if err != nil {
			fmt.Fprintln(w.out, "bad reference:", err)
			return
		}
		w.loc.Set(c)
		w.refresh(ctx)
	case "select":
		r, found := w.d.SelectResult(ctx, arg)
		if !found {
			fmt.Fprintf(w.out, "no result %q\n", arg)
			return
		}
		_ = writeTable(w.out, []domain.VenueResult{r})
	default:
		fmt.Fprintf(w.out, "unknown command %q\n", verb)
	}
}

// refresh re-reads the location and prints where the reference now is.
func (w *watcher) refresh(ctx context.Context) {
	if !w.d.RefreshLocation(ctx) {
		fmt.Fprintln(w.out, "location unavailable")
		return
	}
	ref := w.d.State().ReferenceCoordinate
	if addr, ok := w.d.ReferenceAddress(); ok {
		fmt.Fprintf(w.out, "reference %s (%s)\n", ref, formatAddress(addr))
		return
	}
	fmt.Fprintf(w.out, "reference %s\n", ref)
}

func formatAddress(a domain.Address) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.City, a.State, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func parseLatLon(s string) (domain.Coordinate, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("want LAT,LON, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	c := domain.Coordinate{Latitude: lat, Longitude: lon}
	return c, c.Validate()
}

func printState(w io.Writer, st domain.SearchState) {
	if st.ErrorMessage != "" {
		fmt.Fprintf(w, "%q: error: %s\n", st.QueryText, st.ErrorMessage)
		return
	}
	fmt.Fprintf(w, "%q: %d results\n", st.QueryText, len(st.Results))
	_ = writeTable(w, st.Results)
}

// waitQuiet polls until no search is pending or running, or until limit.
func waitQuiet(ctx context.Context, d *pipeline.Dispatcher, limit time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		st := d.State()
		if !st.IsLoading && (st.Phase == domain.PhaseSettled || st.Phase == domain.PhaseIdle) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

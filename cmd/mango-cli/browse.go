package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vrsandeep/mango-tracker/internal/browse"
	"github.com/vrsandeep/mango-tracker/internal/catalog"
	"github.com/vrsandeep/mango-tracker/internal/config"
)

type browseParams struct {
	Title  string
	Genres []string
	Sort   []string
	Pages  int
	JSON   bool
}

var browseFlags browseParams

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Search the catalog",
	Long: `Search the catalog by title and facets.

The first page is printed once it arrives; --pages loads more pages the way
scrolling to the bottom of the list does.`,
	Example: `  mango-cli browse --title solo
  mango-cli browse --genre Action --genre Fantasy --sort rating --pages 3
  mango-cli browse --sort updated --sort manhwa`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if browseFlags.Title == "" && len(browseFlags.Genres) == 0 && len(browseFlags.Sort) == 0 {
			return errors.New("nothing to search: pass --title, --genre or --sort")
		}
		if err := validateSort(browseFlags.Sort); err != nil {
			return err
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		config.SetupLogging(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runBrowse(ctx, catalog.NewFromConfig(cfg), browse.OptionsFromConfig(cfg), browseFlags, cmd.OutOrStdout())
	},
}

func validateSort(values []string) error {
	for _, v := range values {
		if !catalog.IsSortFacet(strings.TrimSpace(v)) {
			return fmt.Errorf("unknown sort facet %q: want one of %s", v, strings.Join(catalog.SortFacets, ", "))
		}
	}
	return nil
}

func init() {
	browseCmd.Flags().StringVarP(&browseFlags.Title, "title", "t", "", "search term")
	browseCmd.Flags().StringSliceVarP(&browseFlags.Genres, "genre", "g", nil, "genre filter, repeatable")
	browseCmd.Flags().StringSliceVarP(&browseFlags.Sort, "sort", "s", nil, "sort or type facet, repeatable ("+strings.Join(catalog.SortFacets, ", ")+")")
	browseCmd.Flags().IntVarP(&browseFlags.Pages, "pages", "p", 1, "number of pages to load")
	browseCmd.Flags().BoolVar(&browseFlags.JSON, "json", false, "print the final state as JSON")
}

// runBrowse drives one browse session to completion and prints its results.
func runBrowse(ctx context.Context, fetcher browse.Fetcher, opts browse.Options, p browseParams, out io.Writer) error {
	changed := make(chan struct{}, 1)
	opts.OnChange = func(browse.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	s := browse.NewSession(fetcher, opts)
	defer s.Close()

	if p.Title != "" {
		s.SetSearchTerm(p.Title)
	}
	if len(p.Genres) > 0 {
		s.SetGenres(p.Genres)
	}
	if len(p.Sort) > 0 {
		s.SetSortFacets(p.Sort)
	}

	snap, err := waitSettled(ctx, s, changed)
	if err != nil {
		return err
	}
	printed := 0
	if !p.JSON {
		printed = printItems(out, snap, printed)
	}
	for page := 1; page < p.Pages && snap.HasMore; page++ {
		s.SetSentinelVisible(false)
		if !s.SetSentinelVisible(true) {
			break
		}
		if snap, err = waitSettled(ctx, s, changed); err != nil {
			return err
		}
		if !p.JSON {
			printed = printItems(out, snap, printed)
		}
	}

	if p.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return err
		}
	} else if snap.Notice != "" {
		fmt.Fprintln(out, snap.Notice)
	}
	if snap.View == browse.ViewError {
		return errors.New(snap.Fetch.Message)
	}
	return nil
}

// waitSettled blocks until no submission is pending and no fetch is running.
func waitSettled(ctx context.Context, s *browse.Session, changed <-chan struct{}) (browse.Snapshot, error) {
	for {
		snap := s.Snapshot()
		if !snap.Pending && snap.Fetch.Status != browse.FetchFetching {
			return snap, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// printItems writes the items after the first `from` and returns the new count.
func printItems(out io.Writer, snap browse.Snapshot, from int) int {
	for i := from; i < len(snap.Items); i++ {
		b := snap.Items[i]
		line := fmt.Sprintf("%3d. %s", i+1, b.Title)
		if b.NewestChapter != "" {
			line += " (ch. " + b.NewestChapter + ")"
		}
		if len(b.Genres) > 0 {
			line += " [" + strings.Join(b.Genres, ", ") + "]"
		}
		fmt.Fprintln(out, line)
	}
	if len(snap.Items) > from {
		fmt.Fprintf(out, "-- %d of %d --\n", len(snap.Items), snap.TotalCount)
	}
	return len(snap.Items)
}

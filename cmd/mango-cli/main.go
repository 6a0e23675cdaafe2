package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mango-cli",
	Short: "Browse the reading-tracker catalog from the terminal",
	Long: `mango-cli runs the same browse flow as the web gateway without a browser.

Available subcommands:
  browse - search and filter the catalog, paging through results
  genres - list the genre filter options`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(browseCmd, genresCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

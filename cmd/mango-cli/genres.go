package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vrsandeep/mango-tracker/internal/core"
)

var refreshGenres bool

var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List the genre filter options",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := core.New()
		if err != nil {
			return err
		}
		defer app.Close()

		var list []string
		if refreshGenres {
			list, err = app.Genres().Refresh(cmd.Context())
		} else {
			list, err = app.Genres().List(cmd.Context())
		}
		if err != nil {
			return err
		}
		for _, g := range list {
			fmt.Fprintln(cmd.OutOrStdout(), g)
		}
		return nil
	},
}

func init() {
	genresCmd.Flags().BoolVar(&refreshGenres, "refresh", false, "bypass the local cache")
}

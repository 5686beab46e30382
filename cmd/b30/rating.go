package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/b30/internal/app"
)

// NewRatingCmd creates the command that looks up one beer.
func NewRatingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rating <beer name...>",
		Short: "Look up the rating for a single beer",
		Long: `Search the rating site for the given name and print the top result as a
link, or N/A when nothing usable was found. The cache is not opened, so
cache flags such as --cache-clear have no effect here.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			// Single lookups bypass the cache, so cache flags do not apply here.
			cfg.CacheBackend = app.CacheBackendNone
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}
			defer a.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Rating for '%s': %s\n", name, a.Rating(cmd.Context(), name))
			return nil
		},
	}
}

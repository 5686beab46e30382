package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/b30/internal/app"
	"github.com/hyperifyio/b30/internal/cache"
)

// NewCacheCmd groups rating cache maintenance commands.
func NewCacheCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the rating cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.CacheBackend == app.CacheBackendNone {
				return fmt.Errorf("cache backend is %q", cfg.CacheBackend)
			}
			store, err := cache.Open(cfg.CacheBackend, cfg.CacheDir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()
			n, err := store.PurgeExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", n)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cache entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			dir := cfg.CacheDir
			if dir == "" {
				dir = cache.DefaultDir()
			}
			if err := cache.ClearDir(dir); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", dir)
			return nil
		},
	})
	return cmd
}

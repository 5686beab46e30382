package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperifyio/b30/internal/app"
)

// options holds raw flag values shared by every subcommand.
type options struct {
	configPath string
	envFiles   []string
	flags      app.Config
}

// NewRootCmd creates the root command. Without a subcommand it renders the board.
func NewRootCmd() *cobra.Command {
	opts := &options{flags: app.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "b30",
		Short: "Render the tap list with beer ratings",
		Long: `b30 fetches the current tap list, looks up a rating for every beer and
renders the result as an HTML, Markdown, text or PDF table.

Settings are read from --config (YAML or JSON), then B30_* environment
variables (optionally from --env-file), then flags. Later sources win.`,
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.PersistentFlags()
	c := &opts.flags
	f.StringVar(&opts.configPath, "config", "", "Path to YAML or JSON config file")
	f.StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "Dotenv files to load before reading B30_* variables")
	f.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Verbose logging")
	f.StringVarP(&c.OutputPath, "output", "o", c.OutputPath, "Write the board to this file instead of stdout")
	f.StringVarP(&c.Format, "format", "f", c.Format, "Output format: html, markdown, text or pdf")
	f.StringVar(&c.MenuBaseURL, "menu-url", c.MenuBaseURL, "Menu site base URL")
	f.StringVar(&c.LocationID, "location", c.LocationID, "Menu location id")
	f.StringVar(&c.RatingBaseURL, "rating-url", c.RatingBaseURL, "Rating site base URL")
	f.StringVar(&c.UserAgent, "user-agent", c.UserAgent, "User-Agent for outgoing requests")
	f.IntVar(&c.Concurrency, "concurrency", c.Concurrency, "Maximum parallel rating lookups")
	f.DurationVar(&c.RequestTimeout, "timeout", c.RequestTimeout, "Per-request timeout")
	f.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "Attempts per request including the first")
	f.StringVar(&c.CacheBackend, "cache-backend", c.CacheBackend, "Rating cache backend: file, sqlite or none")
	f.StringVar(&c.CacheDir, "cache-dir", c.CacheDir, "Rating cache directory")
	f.DurationVar(&c.CacheTTL, "cache-ttl", c.CacheTTL, "How long cached ratings stay valid")
	f.BoolVar(&c.CacheClear, "cache-clear", c.CacheClear, "Clear the cache before running")
	f.BoolVar(&c.CachePurge, "cache-purge", c.CachePurge, "Drop expired cache entries before running")
	f.BoolVar(&c.StrictTagBoundary, "strict-tags", c.StrictTagBoundary, "Require a tag name boundary when matching opening tags")

	cmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if opts.flags.Verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	}

	cmd.AddCommand(NewRatingCmd(opts))
	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewCacheCmd(opts))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// flagSetters copies a flag's value from src into dst. Keyed by flag name.
var flagSetters = map[string]func(dst *app.Config, src app.Config){
	"verbose":       func(d *app.Config, s app.Config) { d.Verbose = s.Verbose },
	"output":        func(d *app.Config, s app.Config) { d.OutputPath = s.OutputPath },
	"format":        func(d *app.Config, s app.Config) { d.Format = s.Format },
	"menu-url":      func(d *app.Config, s app.Config) { d.MenuBaseURL = s.MenuBaseURL },
	"location":      func(d *app.Config, s app.Config) { d.LocationID = s.LocationID },
	"rating-url":    func(d *app.Config, s app.Config) { d.RatingBaseURL = s.RatingBaseURL },
	"user-agent":    func(d *app.Config, s app.Config) { d.UserAgent = s.UserAgent },
	"concurrency":   func(d *app.Config, s app.Config) { d.Concurrency = s.Concurrency },
	"timeout":       func(d *app.Config, s app.Config) { d.RequestTimeout = s.RequestTimeout },
	"max-attempts":  func(d *app.Config, s app.Config) { d.MaxAttempts = s.MaxAttempts },
	"cache-backend": func(d *app.Config, s app.Config) { d.CacheBackend = s.CacheBackend },
	"cache-dir":     func(d *app.Config, s app.Config) { d.CacheDir = s.CacheDir },
	"cache-ttl":     func(d *app.Config, s app.Config) { d.CacheTTL = s.CacheTTL },
	"cache-clear":   func(d *app.Config, s app.Config) { d.CacheClear = s.CacheClear },
	"cache-purge":   func(d *app.Config, s app.Config) { d.CachePurge = s.CachePurge },
	"strict-tags":   func(d *app.Config, s app.Config) { d.StrictTagBoundary = s.StrictTagBoundary },
	"listen":        func(d *app.Config, s app.Config) { d.ListenAddr = s.ListenAddr },
}

// resolve layers defaults, the config file, env and explicitly set flags.
func (o *options) resolve(fs *pflag.FlagSet) (app.Config, error) {
	cfg := app.DefaultConfig()
	if o.configPath != "" {
		fc, err := app.LoadConfigFile(o.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if n, err := app.LoadDotEnv(o.envFiles...); err != nil {
		return cfg, err
	} else if n > 0 {
		log.Debug().Int("vars", n).Strs("files", o.envFiles).Msg("loaded dotenv")
	}
	app.ApplyEnvOverrides(&cfg)
	fs.Visit(func(fl *pflag.Flag) {
		if set, ok := flagSetters[fl.Name]; ok {
			set(&cfg, o.flags)
		}
	})
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return cfg, nil
}

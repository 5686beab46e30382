// Command b30 renders the current tap list with beer ratings.
//
// Usage:
//
//	b30 [--format html|markdown|text|pdf] [--output FILE]
//	b30 rating <beer name...>
//	b30 serve --listen :8080
//	b30 cache purge|clear
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/b30/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("run failed")
		// An empty menu is reported separately so schedulers can tell it from a crash.
		if errors.Is(err, app.ErrEmptyMenu) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run renders the board once with cfg.
func run(ctx context.Context, cfg app.Config) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}

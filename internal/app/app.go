package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/b30/internal/board"
	"github.com/hyperifyio/b30/internal/cache"
	"github.com/hyperifyio/b30/internal/fetch"
	"github.com/hyperifyio/b30/internal/menu"
	"github.com/hyperifyio/b30/internal/rating"
	"github.com/hyperifyio/b30/internal/render"
	"github.com/hyperifyio/b30/internal/scrape"
)

// ErrEmptyMenu is returned when the feed decodes to zero entries.
var ErrEmptyMenu = errors.New("menu has no entries")

// App wires the menu source, rating client and cache together.
type App struct {
	cfg     Config
	store   cache.Store
	menu    *menu.Source
	ratings *rating.Client
}

// New validates cfg and prepares the cache and HTTP clients.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store

	httpClient := newPooledHTTPClient(cfg.Concurrency)
	pages := &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.MaxAttempts,
		PerRequestTimeout: cfg.RequestTimeout,
		RedirectMaxHops:   5,
		MaxConcurrent:     cfg.Concurrency,
	}
	feed := &fetch.Client{
		HTTPClient:          httpClient,
		UserAgent:           cfg.UserAgent,
		MaxAttempts:         cfg.MaxAttempts,
		PerRequestTimeout:   cfg.RequestTimeout,
		RedirectMaxHops:     5,
		AllowedContentTypes: fetch.JSONContentTypes,
	}

	a.menu = &menu.Source{
		Page:       pages,
		Feed:       feed,
		BaseURL:    cfg.MenuBaseURL,
		LocationID: cfg.LocationID,
	}
	a.ratings = &rating.Client{
		Fetcher:     pages,
		BaseURL:     cfg.RatingBaseURL,
		Scanner:     scrape.New(scrape.Options{StrictTagBoundary: cfg.StrictTagBoundary}),
		Cache:       store,
		TTL:         cfg.CacheTTL,
		Concurrency: cfg.Concurrency,
	}
	return a, nil
}

func openStore(ctx context.Context, cfg Config) (cache.Store, error) {
	if cfg.CacheBackend == CacheBackendNone {
		return nil, nil
	}
	dir := cfg.CacheDir
	if dir == "" {
		dir = cache.DefaultDir()
	}
	if cfg.CacheClear {
		if err := cache.ClearDir(dir); err != nil {
			return nil, fmt.Errorf("clear cache: %w", err)
		}
		log.Info().Str("dir", dir).Msg("cache cleared")
	}
	store, err := cache.Open(cfg.CacheBackend, dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if cfg.CachePurge {
		n, err := store.PurgeExpired(ctx)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("purge cache: %w", err)
		}
		log.Info().Int("removed", n).Str("dir", dir).Msg("expired cache entries purged")
	}
	return store, nil
}

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

// Board loads the menu, resolves every rating and returns the sorted table.
func (a *App) Board(ctx context.Context) (board.Board, error) {
	entries, err := a.menu.Load(ctx)
	if err != nil {
		return board.Board{}, fmt.Errorf("load menu: %w", err)
	}
	if len(entries) == 0 {
		return board.Board{}, ErrEmptyMenu
	}
	queries := make([]rating.Query, len(entries))
	for i, e := range entries {
		queries[i] = rating.Query{Brewery: e.Brewery, Name: e.Name}
	}
	ratings, err := a.ratings.ForEntries(ctx, queries)
	if err != nil {
		return board.Board{}, fmt.Errorf("ratings: %w", err)
	}
	log.Debug().Int("entries", len(entries)).Msg("ratings resolved")
	return board.Build(entries, ratings)
}

// Rating looks up a single beer by free-text name, bypassing the cache.
// It returns a rating link or rating.NotAvailable.
func (a *App) Rating(ctx context.Context, name string) string {
	return a.ratings.Describe(ctx, strings.TrimSpace(name))
}

// Render builds the board and writes it to w in format f.
func (a *App) Render(ctx context.Context, w io.Writer, f render.Format) error {
	b, err := a.Board(ctx)
	if err != nil {
		return err
	}
	return render.Write(w, f, b)
}

// Run renders the board in the configured format to the configured output.
func (a *App) Run(ctx context.Context) error {
	f, err := render.ParseFormat(a.cfg.Format)
	if err != nil {
		return err
	}
	if a.cfg.OutputPath == "" || a.cfg.OutputPath == "-" {
		bw := bufio.NewWriter(os.Stdout)
		if err := a.Render(ctx, bw, f); err != nil {
			return err
		}
		return bw.Flush()
	}
	// Render before creating the file so a failed run leaves no partial output.
	var sb strings.Builder
	if err := a.Render(ctx, &sb, f); err != nil {
		return err
	}
	if err := os.WriteFile(a.cfg.OutputPath, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("path", a.cfg.OutputPath).Str("format", string(f)).Msg("board written")
	return nil
}

// Close releases the cache.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

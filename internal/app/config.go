package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hyperifyio/b30/internal/cache"
	"github.com/hyperifyio/b30/internal/fetch"
	"github.com/hyperifyio/b30/internal/menu"
	"github.com/hyperifyio/b30/internal/rating"
)

// CacheBackendNone disables the rating cache.
const CacheBackendNone = "none"

// Config holds runtime settings for the board, rating and serve commands.
type Config struct {
	// OutputPath receives the rendered board. Empty or "-" means stdout.
	OutputPath string
	Format     string `validate:"oneof=html markdown md text txt pdf"`

	MenuBaseURL   string `validate:"required,url"`
	LocationID    string `validate:"required"`
	RatingBaseURL string `validate:"required,url"`
	UserAgent     string `validate:"required"`

	// Concurrency bounds parallel rating lookups.
	Concurrency    int           `validate:"min=1,max=64"`
	RequestTimeout time.Duration `validate:"gte=0"`
	MaxAttempts    int           `validate:"min=1,max=10"`

	CacheBackend string `validate:"oneof=file sqlite none"`
	CacheDir     string
	CacheTTL     time.Duration `validate:"gte=0"`
	// CacheClear empties the cache directory before use.
	CacheClear bool
	// CachePurge drops expired entries before use.
	CachePurge bool

	// StrictTagBoundary stops `<div` from matching `<divider>` when scanning pages.
	StrictTagBoundary bool

	ListenAddr string `validate:"omitempty,hostname_port"`
	Verbose    bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		OutputPath:     "",
		Format:         "html",
		MenuBaseURL:    menu.DefaultBaseURL,
		LocationID:     menu.DefaultLocationID,
		RatingBaseURL:  rating.DefaultBaseURL,
		UserAgent:      fetch.DefaultUserAgent,
		Concurrency:    rating.DefaultConcurrency,
		RequestTimeout: 15 * time.Second,
		MaxAttempts:    2,
		CacheBackend:   cache.BackendFile,
		CacheDir:       cache.DefaultDir(),
		CacheTTL:       cache.DefaultTTL,
		ListenAddr:     ":8080",
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid fields in a single error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

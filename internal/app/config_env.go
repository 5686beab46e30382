package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ApplyEnvOverrides sets cfg fields from B30_* environment variables when
// present. Env wins over file values; flags are applied after this.
// Unparseable values are logged and ignored.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	str := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(dst *int, key string) {
		s := strings.TrimSpace(os.Getenv(key))
		if s == "" {
			return
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			log.Warn().Str("env", key).Str("value", s).Msg("ignoring invalid integer")
			return
		}
		*dst = n
	}
	dur := func(dst *time.Duration, key string) {
		s := strings.TrimSpace(os.Getenv(key))
		if s == "" {
			return
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			log.Warn().Str("env", key).Str("value", s).Msg("ignoring invalid duration")
			return
		}
		*dst = d
	}
	flag := func(dst *bool, key string) {
		s := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch s {
		case "":
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		default:
			log.Warn().Str("env", key).Str("value", s).Msg("ignoring invalid boolean")
		}
	}

	str(&cfg.OutputPath, "B30_OUTPUT")
	str(&cfg.Format, "B30_FORMAT")
	str(&cfg.MenuBaseURL, "B30_MENU_URL")
	str(&cfg.LocationID, "B30_LOCATION")
	str(&cfg.RatingBaseURL, "B30_RATING_URL")
	str(&cfg.UserAgent, "B30_USER_AGENT")
	num(&cfg.Concurrency, "B30_CONCURRENCY")
	dur(&cfg.RequestTimeout, "B30_TIMEOUT")
	num(&cfg.MaxAttempts, "B30_MAX_ATTEMPTS")
	str(&cfg.CacheBackend, "B30_CACHE_BACKEND")
	str(&cfg.CacheDir, "B30_CACHE_DIR")
	dur(&cfg.CacheTTL, "B30_CACHE_TTL")
	flag(&cfg.CacheClear, "B30_CACHE_CLEAR")
	flag(&cfg.CachePurge, "B30_CACHE_PURGE")
	flag(&cfg.StrictTagBoundary, "B30_STRICT_TAGS")
	str(&cfg.ListenAddr, "B30_LISTEN")
	flag(&cfg.Verbose, "B30_VERBOSE")
}

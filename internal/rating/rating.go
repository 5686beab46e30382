// Package rating looks beers up on Untappd's search page and extracts the
// top result's link and score.
package rating

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hyperifyio/b30/internal/cache"
	"github.com/hyperifyio/b30/internal/scrape"
)

const (
	// DefaultBaseURL is the rating site root; result hrefs are relative to it.
	DefaultBaseURL = "https://untappd.com"
	// NotAvailable is shown when a lookup fails for any reason.
	NotAvailable = "N/A"
	// DefaultConcurrency bounds simultaneous searches in ForEntries.
	DefaultConcurrency = 5
)

// Extraction failures. Callers usually collapse these to NotAvailable.
var (
	ErrNoBeerItem = errors.New("HTML parsing: could not find beer-item div")
	ErrNoAnchor   = errors.New("HTML parsing: could not find anchor tag")
	ErrNoHref     = errors.New("HTML parsing: could not find href attribute")
	ErrNoCaps     = errors.New("HTML parsing: could not find caps div")
	ErrNoRating   = errors.New("HTML parsing: could not find data-rating attribute")
)

// Getter fetches a URL and returns its body and content type.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Rating is the first search hit: its absolute URL and score text.
type Rating struct {
	URL   string
	Score string
}

// Link renders the rating as an anchor whose text is the score. Both values
// come from the scraped page and are escaped.
func (r Rating) Link() string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(r.URL), html.EscapeString(r.Score))
}

// Parse extracts the first result from a search results page. The score is
// taken from the first "caps" element inside the first "beer-item" element and
// the link from the first anchor inside it.
func Parse(s *scrape.Scanner, page string, baseURL string) (Rating, error) {
	items := s.ElementsByClass(page, "beer-item")
	if len(items) == 0 {
		return Rating{}, ErrNoBeerItem
	}
	item := items[0]
	anchor, ok := s.FirstAnchor(item.Content())
	if !ok {
		return Rating{}, ErrNoAnchor
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return Rating{}, ErrNoHref
	}
	caps := s.ElementsByClass(item.Content(), "caps")
	if len(caps) == 0 {
		return Rating{}, ErrNoCaps
	}
	score, ok := caps[0].Attr("data-rating")
	if !ok {
		return Rating{}, ErrNoRating
	}
	return Rating{URL: strings.TrimRight(baseURL, "/") + href, Score: score}, nil
}

// Query names one beer to look up.
type Query struct {
	Brewery string
	Name    string
}

// String is the search text sent to the site.
func (q Query) String() string {
	return strings.TrimSpace(q.Brewery + " " + q.Name)
}

// CacheKey identifies a brewery/name pair case-insensitively.
func CacheKey(brewery, name string) string {
	lower := cases.Lower(language.Und)
	return "rating:" + lower.String(brewery) + ":" + lower.String(name)
}

// Client performs rating lookups, optionally through a cache.
type Client struct {
	Fetcher Getter
	BaseURL string
	// Scanner controls tag matching; nil means default options.
	Scanner *scrape.Scanner
	// Cache memoizes ForEntries results, including NotAvailable. Nil disables caching.
	Cache cache.Store
	// TTL for cached results; zero means cache.DefaultTTL.
	TTL time.Duration
	// Concurrency bounds ForEntries; zero means DefaultConcurrency.
	Concurrency int
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *Client) scanner() *scrape.Scanner {
	if c.Scanner == nil {
		return scrape.New(scrape.Options{})
	}
	return c.Scanner
}

// SearchURL returns the search page URL for query.
func (c *Client) SearchURL(query string) (string, error) {
	u, err := url.Parse(c.baseURL() + "/search")
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	v := url.Values{}
	v.Set("q", query)
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// Lookup searches for query and returns the top result.
func (c *Client) Lookup(ctx context.Context, query string) (Rating, error) {
	searchURL, err := c.SearchURL(query)
	if err != nil {
		return Rating{}, err
	}
	body, _, err := c.Fetcher.Get(ctx, searchURL)
	if err != nil {
		return Rating{}, fmt.Errorf("search %q: %w", query, err)
	}
	return Parse(c.scanner(), string(body), c.baseURL())
}

// Describe returns the rating link for query, or NotAvailable when the lookup
// fails. Failures are logged.
func (c *Client) Describe(ctx context.Context, query string) string {
	r, err := c.Lookup(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("rating lookup failed")
		return NotAvailable
	}
	return r.Link()
}

// ForEntries resolves every query, serving cache hits directly and searching
// the rest with bounded concurrency. The result has one value per query in
// input order. Cache errors are logged and otherwise ignored; only context
// cancellation is returned as an error.
func (c *Client) ForEntries(ctx context.Context, queries []Query) ([]string, error) {
	out := make([]string, len(queries))
	limit := c.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = c.resolve(ctx, q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) resolve(ctx context.Context, q Query) string {
	key := CacheKey(q.Brewery, q.Name)
	if c.Cache != nil {
		v, ok, err := c.Cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		} else if ok {
			return v
		}
	}
	v := c.Describe(ctx, q.String())
	if c.Cache != nil && ctx.Err() == nil {
		if err := c.Cache.Put(ctx, key, v, c.TTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to cache rating")
		}
	}
	return v
}

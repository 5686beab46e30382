// Package menu reads the TapHunter big-screen menu: it discovers the JSON feed
// behind the public page and turns each tap into a cleaned Entry.
package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the TapHunter big-screen root.
	DefaultBaseURL = "http://www.taphunter.com/bigscreen"
	// DefaultLocationID is the Beer 30 location on TapHunter.
	DefaultLocationID = "5469327503392768"
)

// ErrJSONURLNotFound is returned when the menu page has no getJSON call.
var ErrJSONURLNotFound = errors.New("could not find getJSON URL")

var jsonPathRe = regexp.MustCompile(`getJSON\(['"](\./)?json/([^'"]+)['"]`)

// Getter fetches a URL and returns its body and content type.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Entry is one tap on the menu after cleaning.
type Entry struct {
	Tap      int
	Brewery  string
	Name     string
	ABV      string
	Category string
	Origin   string
	Style    string
	Added    time.Time
	// AgeDays is only meaningful when HasAge is true.
	AgeDays int
	HasAge  bool
}

// FindJSONURL extracts the feed location from the menu page markup.
func FindJSONURL(page string, baseURL string) (string, error) {
	m := jsonPathRe.FindStringSubmatch(page)
	if m == nil {
		return "", ErrJSONURLNotFound
	}
	return strings.TrimRight(baseURL, "/") + "/json/" + m[2], nil
}

// Source loads the menu for one location.
type Source struct {
	// Page fetches the HTML menu page.
	Page Getter
	// Feed fetches the JSON feed. Nil means Page.
	Feed       Getter
	BaseURL    string
	LocationID string
	// Now is used for entry ages; nil means time.Now.
	Now func() time.Time
}

func (s *Source) baseURL() string {
	if s.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(s.BaseURL, "/")
}

func (s *Source) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// JSONURL fetches the menu page and returns the feed URL it references.
func (s *Source) JSONURL(ctx context.Context) (string, error) {
	loc := s.LocationID
	if loc == "" {
		loc = DefaultLocationID
	}
	body, _, err := s.Page.Get(ctx, s.baseURL()+"/"+loc)
	if err != nil {
		return "", fmt.Errorf("fetch menu page: %w", err)
	}
	return FindJSONURL(string(body), s.baseURL())
}

// Entries fetches and decodes the JSON feed at feedURL.
func (s *Source) Entries(ctx context.Context, feedURL string) ([]Entry, error) {
	feed := s.Feed
	if feed == nil {
		feed = s.Page
	}
	body, _, err := feed.Get(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch menu feed: %w", err)
	}
	return Decode(body, s.now())
}

// Load discovers the feed and returns its entries.
func (s *Source) Load(ctx context.Context) ([]Entry, error) {
	feedURL, err := s.JSONURL(ctx)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("url", feedURL).Msg("menu feed located")
	return s.Entries(ctx, feedURL)
}

// rawItem mirrors the subset of the feed used here.
type rawItem struct {
	DateAdded   flexString `json:"date_added"`
	ServingInfo struct {
		TapNumber flexInt `json:"tap_number"`
	} `json:"serving_info"`
	Brewery struct {
		CommonName flexString `json:"common_name"`
		Origin     flexString `json:"origin"`
	} `json:"brewery"`
	Beer struct {
		BeerName      flexString `json:"beer_name"`
		ABV           flexString `json:"abv"`
		StyleCategory flexString `json:"style_category"`
		Style         flexString `json:"style"`
	} `json:"beer"`
}

// Decode parses a feed body. now anchors the age computation.
func Decode(body []byte, now time.Time) ([]Entry, error) {
	var items []rawItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode menu feed: %w", err)
	}
	entries := make([]Entry, 0, len(items))
	for _, it := range items {
		e := Entry{
			Tap:      int(it.ServingInfo.TapNumber),
			Brewery:  CleanText(string(it.Brewery.CommonName)),
			Name:     CleanText(string(it.Beer.BeerName)),
			ABV:      CleanText(string(it.Beer.ABV)),
			Category: CleanText(string(it.Beer.StyleCategory)),
			Origin:   CleanText(string(it.Brewery.Origin)),
			Style:    CleanText(string(it.Beer.Style)),
		}
		if e.ABV == "" {
			e.ABV = "0.0"
		}
		e.Brewery, e.Name = stripNitro(e.Brewery, e.Name)

		date := strings.TrimSpace(string(it.DateAdded))
		if added, days, err := DaysOld(date, now); err != nil {
			log.Warn().Err(err).Str("brewery", e.Brewery).Str("name", e.Name).Str("date_added", date).Msg("unparseable date_added")
		} else {
			e.Added, e.AgeDays, e.HasAge = added, days, true
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// stripNitro removes nitro markers the menu uses on brewery and beer names,
// then drops a repeated brewery name from the beer name.
func stripNitro(brewery, name string) (string, string) {
	brewery = strings.TrimSpace(strings.ReplaceAll(brewery, "**Nitro**", ""))
	for _, marker := range []string{"**NITRO**", "**Nitro**", "NITRO", "Nitro"} {
		name = strings.ReplaceAll(name, marker, "")
	}
	name = strings.TrimSpace(name)
	if brewery != "" {
		name = strings.TrimSpace(strings.ReplaceAll(name, brewery, ""))
	}
	return brewery, name
}

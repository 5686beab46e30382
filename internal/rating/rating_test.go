package rating

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hyperifyio/b30/internal/cache"
	"github.com/hyperifyio/b30/internal/fetch"
	"github.com/hyperifyio/b30/internal/scrape"
)

const resultsPage = `<html><body>
<div class="results-container">
  <div class="beer-item">
    <a class="label" href="/b/sierra-nevada-brewing-co-pale-ale/6284"><img src="/x.png"></a>
    <div class="beer-details">
      <p class="name"><a href="/b/sierra-nevada-brewing-co-pale-ale/6284">Pale Ale</a></p>
      <div class="rating-serving">
        <div class="caps small" data-rating="3.716"><div class="cap cap-100"></div></div>
      </div>
    </div>
  </div>
  <div class="beer-item">
    <a href="/b/other/1">Other</a>
    <div class="caps" data-rating="2.1"></div>
  </div>
</div>
</body></html>`

func TestParse_LinkEscapesScrapedValues(t *testing.T) {
	page := `<div class="beer-item"><a href="/b/x/1?a=1&b=2">x</a>` +
		`<div class="caps" data-rating='<img src=x onerror=alert(1)'></div></div>`
	got, err := Parse(scrape.New(scrape.Options{}), page, "https://untappd.com")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := `<a href="https://untappd.com/b/x/1?a=1&amp;b=2">&lt;img src=x onerror=alert(1)</a>`
	if link := got.Link(); link != want {
		t.Fatalf("got %q want %q", link, want)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse(scrape.New(scrape.Options{}), resultsPage, "https://untappd.com/")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Rating{URL: "https://untappd.com/b/sierra-nevada-brewing-co-pale-ale/6284", Score: "3.716"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected rating (-want +got):\n%s", diff)
	}
	if link := got.Link(); link != `<a href="https://untappd.com/b/sierra-nevada-brewing-co-pale-ale/6284">3.716</a>` {
		t.Fatalf("unexpected link %q", link)
	}
}

func TestParse_Errors(t *testing.T) {
	s := scrape.New(scrape.Options{})
	cases := []struct {
		name string
		page string
		want error
	}{
		{"no results", `<div class="results-container"></div>`, ErrNoBeerItem},
		{"no anchor", `<div class="beer-item"><div class="caps" data-rating="1"></div></div>`, ErrNoAnchor},
		{"no href", `<div class="beer-item"><a name="x">x</a><div class="caps" data-rating="1"></div></div>`, ErrNoHref},
		{"no caps", `<div class="beer-item"><a href="/b/1">x</a></div>`, ErrNoCaps},
		{"no rating", `<div class="beer-item"><a href="/b/1">x</a><div class="caps"></div></div>`, ErrNoRating},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(s, tc.page, DefaultBaseURL); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("Sierra Nevada", "Pale ALE"); got != "rating:sierra nevada:pale ale" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestSearchURL(t *testing.T) {
	c := &Client{BaseURL: "https://untappd.example/"}
	got, err := c.SearchURL("Left Hand Milk Stout & Co")
	if err != nil {
		t.Fatalf("search url: %v", err)
	}
	if got != "https://untappd.example/search?q=Left+Hand+Milk+Stout+%26+Co" {
		t.Fatalf("unexpected url %q", got)
	}
}

func newSearchServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		q := r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if strings.Contains(q, "Missing") {
			_, _ = w.Write([]byte(`<div class="results-container">No results</div>`))
			return
		}
		slug := strings.ReplaceAll(strings.ToLower(q), " ", "-")
		fmt.Fprintf(w, `<div class="beer-item"><a href="/b/%s/1">%s</a><div class="caps" data-rating="%d.5"></div></div>`, slug, q, len(q)%5)
	}))
}

func TestClient_Describe(t *testing.T) {
	var calls int32
	srv := newSearchServer(t, &calls)
	defer srv.Close()

	c := &Client{Fetcher: &fetch.Client{MaxAttempts: 1, PerRequestTimeout: 2 * time.Second}, BaseURL: srv.URL}
	got := c.Describe(context.Background(), "Deschutes Porter")
	want := fmt.Sprintf(`<a href="%s/b/deschutes-porter/1">1.5</a>`, srv.URL)
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	if got := c.Describe(context.Background(), "Missing Beer"); got != NotAvailable {
		t.Fatalf("expected N/A, got %q", got)
	}
}

func TestClient_ForEntries_OrderAndCache(t *testing.T) {
	var calls int32
	srv := newSearchServer(t, &calls)
	defer srv.Close()

	store := &cache.FileStore{Dir: t.TempDir()}
	c := &Client{
		Fetcher:     &fetch.Client{MaxAttempts: 1, PerRequestTimeout: 2 * time.Second},
		BaseURL:     srv.URL,
		Cache:       store,
		TTL:         time.Hour,
		Concurrency: 2,
	}
	queries := []Query{
		{Brewery: "A", Name: "One"},
		{Brewery: "B", Name: "Missing"},
		{Brewery: "C", Name: "Three"},
		{Brewery: "D", Name: "Four"},
	}
	first, err := c.ForEntries(context.Background(), queries)
	if err != nil {
		t.Fatalf("for entries: %v", err)
	}
	if len(first) != len(queries) {
		t.Fatalf("expected %d results, got %d", len(queries), len(first))
	}
	for i, q := range queries {
		if q.Name == "Missing" {
			if first[i] != NotAvailable {
				t.Fatalf("expected N/A at %d, got %q", i, first[i])
			}
			continue
		}
		slug := strings.ToLower(q.Brewery + "-" + q.Name)
		if !strings.Contains(first[i], "/b/"+slug+"/1") {
			t.Fatalf("result %d out of order: %q", i, first[i])
		}
	}
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("expected 4 searches, got %d", n)
	}

	// Second pass is served entirely from cache, N/A included.
	second, err := c.ForEntries(context.Background(), queries)
	if err != nil {
		t.Fatalf("for entries (cached): %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("cached results differ (-first +second):\n%s", diff)
	}
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("expected no new searches, got %d total", n)
	}
	if v, ok, _ := store.Get(context.Background(), CacheKey("B", "Missing")); !ok || v != NotAvailable {
		t.Fatalf("expected N/A cached, got %q ok=%v", v, ok)
	}
}

func TestClient_ForEntries_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &Client{Fetcher: &fetch.Client{MaxAttempts: 1}, BaseURL: "http://127.0.0.1:1"}
	if _, err := c.ForEntries(ctx, []Query{{Brewery: "A", Name: "B"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

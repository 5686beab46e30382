// Package render writes a board as an HTML page, Markdown, a terminal table
// or a PDF.
package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperifyio/b30/internal/board"
	"github.com/hyperifyio/b30/internal/scrape"
)

// Format selects an output renderer.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatPDF      Format = "pdf"
)

// ParseFormat accepts a format name, case-insensitively. "md" is an alias for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown format: %q", s)
}

// Write renders b to w in format f.
func Write(w io.Writer, f Format, b board.Board) error {
	switch f {
	case FormatHTML:
		return HTML(w, b)
	case FormatMarkdown:
		return Markdown(w, b)
	case FormatText:
		return Text(w, b)
	case FormatPDF:
		return PDF(w, b)
	}
	return fmt.Errorf("unknown format: %q", f)
}

// ratingParts splits a rating link into its unescaped score and target.
// Values that are not links, such as "N/A", come back as the score with an
// empty target. Markup inside the anchor is returned as plain text.
func ratingParts(rating string) (score, href string) {
	a, ok := scrape.FindFirstAnchor(rating)
	if !ok {
		return html.UnescapeString(rating), ""
	}
	href, _ = a.Attr("href")
	return html.UnescapeString(a.Content()), html.UnescapeString(href)
}

// abvClass buckets an ABV value for colouring.
func abvClass(abv string) string {
	switch v := board.ABVValue(abv); {
	case v < 6.0:
		return "abv-low"
	case v < 6.5:
		return "abv-medium-low"
	case v < 7.0:
		return "abv-medium"
	default:
		return "abv-high"
	}
}

func displayCategory(c string) string {
	return strings.TrimSpace(c)
}

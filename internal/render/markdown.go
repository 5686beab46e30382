package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/hyperifyio/b30/internal/board"
)

// Markdown writes the board as a GitHub-flavoured table. Ratings become
// Markdown links.
func Markdown(w io.Writer, b board.Board) error {
	md := markdown.NewMarkdown(w)
	md.H1("Beer 30 taps")
	md.PlainText("")

	rows := make([][]string, 0, len(b.Rows))
	for _, r := range b.Rows {
		score, href := ratingParts(r.Rating)
		rating := score
		if href != "" {
			rating = fmt.Sprintf("[%s](%s)", score, href)
		}
		rows = append(rows, []string{
			mdEscape(displayCategory(r.Category)),
			strconv.Itoa(r.Tap),
			mdEscape(r.Brewery),
			mdEscape(r.Name),
			r.ABV,
			mdEscape(r.Origin),
			mdEscape(r.Style),
			r.AgeText(),
			rating,
		})
	}
	md.Table(markdown.TableSet{Header: board.Columns, Rows: rows})
	return md.Build()
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

package render

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hyperifyio/b30/internal/board"
)

// Text writes the board as a terminal table. Ratings show the score only.
func Text(w io.Writer, b board.Board) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := make(table.Row, len(board.Columns))
	for i, c := range board.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, r := range b.Rows {
		score, _ := ratingParts(r.Rating)
		t.AppendRow(table.Row{displayCategory(r.Category), r.Tap, r.Brewery, r.Name, r.ABV, r.Origin, r.Style, r.AgeText(), score})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

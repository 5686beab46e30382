package render

import (
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/b30/internal/board"
)

// column widths in mm for landscape A4, in board.Columns order
var pdfWidths = []float64{38, 12, 45, 60, 14, 36, 45, 12, 15}

// abvFill mirrors the HTML ABV colours.
var abvFill = map[string][3]int{
	"abv-low":        {0x1a, 0x98, 0x50},
	"abv-medium-low": {0x91, 0xcf, 0x60},
	"abv-medium":     {0xfe, 0xe0, 0x8b},
	"abv-high":       {0xfc, 0x8d, 0x59},
}

// PDF writes the board as a single landscape table. Rating cells link to the
// rating page.
func PDF(w io.Writer, b board.Board) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.AddPage()

	const h = 6.0
	pdf.SetFillColor(0xf2, 0xf2, 0xf2)
	for i, name := range board.Columns {
		pdf.CellFormat(pdfWidths[i], h, name, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, run := range b.CategoryRuns() {
		for i := run[0]; i < run[1]; i++ {
			r := b.Rows[i]
			category := ""
			if i == run[0] {
				category = displayCategory(r.Category)
			}
			score, href := ratingParts(r.Rating)
			cells := []string{category, strconv.Itoa(r.Tap), r.Brewery, r.Name, r.ABV, r.Origin, r.Style, r.AgeText(), score}
			for c, text := range cells {
				align, fill, link := "L", false, ""
				switch board.Columns[c] {
				case "tap", "age", "rating":
					align = "R"
				case "abv":
					align, fill = "R", true
					rgb := abvFill[abvClass(r.ABV)]
					pdf.SetFillColor(rgb[0], rgb[1], rgb[2])
				}
				if board.Columns[c] == "rating" {
					link = href
				}
				pdf.CellFormat(pdfWidths[c], h, tr(text), "1", 0, align, fill, 0, link)
			}
			pdf.Ln(-1)
		}
	}
	return pdf.Output(w)
}

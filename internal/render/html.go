package render

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hyperifyio/b30/internal/board"
)

const pageStyle = `
    table {
        border-collapse: collapse;
        width: 100%;
        margin: 20px 0;
        font-family: Arial, sans-serif;
    }
    th, td {
        border: 1px solid #ddd;
        padding: 8px;
        text-align: left;
        vertical-align: middle;
    }
    th {
        background-color: #f2f2f2;
        font-weight: bold;
        text-align: center !important;
    }
    tr:nth-child(even) td:not(.category-cell) { background-color: #f9f9f9; }
    tr:nth-child(odd) td:not(.category-cell) { background-color: #ffffff; }
    tr:hover td:not(.category-cell) { background-color: #f5f5f5; }
    .category-cell { font-weight: bold; text-align: center; }
    .category-cell-even { background-color: #f0f6fc; }
    .category-cell-odd { background-color: #ffffff; }
    .numeric { text-align: right; }
    .abv-low { background-color: #1a9850 !important; color: black; }
    .abv-medium-low { background-color: #91cf60 !important; color: black; }
    .abv-medium { background-color: #fee08b !important; color: black; }
    .abv-high { background-color: #fc8d59 !important; color: black; }
`

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func textCell(text string, attrs ...html.Attribute) *html.Node {
	td := element(atom.Td, attrs...)
	if text != "" {
		td.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	return td
}

func class(v string) html.Attribute { return html.Attribute{Key: "class", Val: v} }

// HTML writes a standalone page with the board as a table. Each category cell
// spans its run of rows and alternates shading; the rating cell keeps its link.
func HTML(w io.Writer, b board.Board) error {
	doc := element(atom.Html)
	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	title := element(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: "Beer 30 taps"})
	head.AppendChild(title)
	style := element(atom.Style)
	style.AppendChild(&html.Node{Type: html.TextNode, Data: pageStyle})
	head.AppendChild(style)
	doc.AppendChild(head)

	body := element(atom.Body)
	tbl := element(atom.Table)
	thead := element(atom.Thead)
	hr := element(atom.Tr)
	for _, name := range board.Columns {
		th := element(atom.Th)
		th.AppendChild(&html.Node{Type: html.TextNode, Data: name})
		hr.AppendChild(th)
	}
	thead.AppendChild(hr)
	tbl.AppendChild(thead)

	tbody := element(atom.Tbody)
	for n, run := range b.CategoryRuns() {
		shade := "category-cell category-cell-even"
		if n%2 == 1 {
			shade = "category-cell category-cell-odd"
		}
		for i := run[0]; i < run[1]; i++ {
			row := b.Rows[i]
			tr := element(atom.Tr)
			if i == run[0] {
				tr.AppendChild(textCell(displayCategory(row.Category), class(shade),
					html.Attribute{Key: "rowspan", Val: strconv.Itoa(run[1] - run[0])}))
			}
			tr.AppendChild(textCell(strconv.Itoa(row.Tap), class("numeric")))
			tr.AppendChild(textCell(row.Brewery))
			tr.AppendChild(textCell(row.Name))
			tr.AppendChild(textCell(row.ABV, class(abvClass(row.ABV)+" numeric")))
			tr.AppendChild(textCell(row.Origin))
			tr.AppendChild(textCell(row.Style))
			tr.AppendChild(textCell(row.AgeText(), class("numeric")))
			tr.AppendChild(ratingCell(row.Rating))
			tbody.AppendChild(tr)
		}
	}
	tbl.AppendChild(tbody)
	body.AppendChild(tbl)
	doc.AppendChild(body)

	if err := html.Render(w, &html.Node{Type: html.DoctypeNode, Data: "html"}); err != nil {
		return err
	}
	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ratingCell builds the rating cell from the link's parts. Any markup in the
// stored rating ends up as text, never as elements.
func ratingCell(rating string) *html.Node {
	score, href := ratingParts(rating)
	if href == "" {
		return textCell(score, class("numeric"))
	}
	td := element(atom.Td, class("numeric"))
	link := element(atom.A, html.Attribute{Key: "href", Val: href})
	link.AppendChild(&html.Node{Type: html.TextNode, Data: score})
	td.AppendChild(link)
	return td
}

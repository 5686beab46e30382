// Package board joins menu entries with their ratings into the sorted table
// that every renderer consumes.
package board

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperifyio/b30/internal/menu"
)

// Columns lists the table columns in display order.
var Columns = []string{"category", "tap", "brewery", "name", "abv", "origin", "style", "age", "rating"}

// Row is one tap with its rating.
type Row struct {
	Category string
	Tap      int
	Brewery  string
	Name     string
	ABV      string
	Origin   string
	Style    string
	Age      int
	HasAge   bool
	// Rating holds either a rating link or "N/A".
	Rating string
}

// Board is the ordered table.
type Board struct {
	Rows []Row
}

// Build pairs entries with ratings by index and sorts the result.
func Build(entries []menu.Entry, ratings []string) (Board, error) {
	if len(entries) != len(ratings) {
		return Board{}, fmt.Errorf("have %d entries but %d ratings", len(entries), len(ratings))
	}
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{
			Category: e.Category,
			Tap:      e.Tap,
			Brewery:  e.Brewery,
			Name:     e.Name,
			ABV:      e.ABV,
			Origin:   e.Origin,
			Style:    e.Style,
			Age:      e.AgeDays,
			HasAge:   e.HasAge,
			Rating:   ratings[i],
		}
	}
	b := Board{Rows: rows}
	b.Sort()
	return b, nil
}

// Sort orders rows by category then ABV, both ascending. Ties keep menu order.
func (b *Board) Sort() {
	sort.SliceStable(b.Rows, func(i, j int) bool {
		ri, rj := b.Rows[i], b.Rows[j]
		if ri.Category != rj.Category {
			return ri.Category < rj.Category
		}
		return ABVValue(ri.ABV) < ABVValue(rj.ABV)
	})
}

// ABVValue parses an ABV cell such as "6.8" or "6.8%". Unparseable values are 0.
func ABVValue(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, "%", "")), 64)
	if err != nil {
		return 0
	}
	return v
}

// AgeText is the age cell text; blank when the added date was unknown.
func (r Row) AgeText() string {
	if !r.HasAge {
		return ""
	}
	return strconv.Itoa(r.Age)
}

// Cells returns the row's values in Columns order. Rating is returned as stored.
func (r Row) Cells() []string {
	return []string{r.Category, strconv.Itoa(r.Tap), r.Brewery, r.Name, r.ABV, r.Origin, r.Style, r.AgeText(), r.Rating}
}

// CategoryRuns groups consecutive rows that share a category. Blank categories
// group together. Each run is [start, end) into Rows.
func (b Board) CategoryRuns() [][2]int {
	var runs [][2]int
	for i := 0; i < len(b.Rows); {
		j := i + 1
		for j < len(b.Rows) && normalizeCategory(b.Rows[j].Category) == normalizeCategory(b.Rows[i].Category) {
			j++
		}
		runs = append(runs, [2]int{i, j})
		i = j
	}
	return runs
}

func normalizeCategory(c string) string {
	return strings.TrimSpace(c)
}

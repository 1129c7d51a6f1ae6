// Package layout packs rendered cards into fixed-capacity grid pages and
// owns the millimetre geometry that places each slot on a physical sheet.
package layout

import (
	"fmt"
	"image"

	"github.com/printdex/printdex/internal/config"
)

// Grid describes the card grid on a sheet. All lengths are millimetres.
type Grid struct {
	PageWidthMM  float64
	PageHeightMM float64
	MarginMM     float64
	SpacingMM    float64
	Columns      int
	Rows         int
	CardWidthMM  float64
	CardHeightMM float64
}

// NewGrid builds the grid from page and card settings.
func NewGrid(page config.PageSettings, card config.CardSettings) Grid {
	return Grid{
		PageWidthMM:  page.WidthMM,
		PageHeightMM: page.HeightMM,
		MarginMM:     page.MarginMM,
		SpacingMM:    page.SpacingMM,
		Columns:      page.Columns,
		Rows:         page.Rows,
		CardWidthMM:  card.WidthMM,
		CardHeightMM: card.HeightMM,
	}
}

// Capacity is the number of card slots per page.
func (g Grid) Capacity() int {
	return g.Columns * g.Rows
}

// Validate checks that the grid plus margins fits the physical page. It is
// a startup check; Paginate and SlotRect assume it has passed.
func (g Grid) Validate() error {
	if g.Columns < 1 || g.Rows < 1 {
		return fmt.Errorf("grid must have at least one column and row")
	}
	w := 2*g.MarginMM + float64(g.Columns)*g.CardWidthMM + float64(g.Columns-1)*g.SpacingMM
	if w > g.PageWidthMM {
		return fmt.Errorf("grid width %.1fmm exceeds page width %.1fmm", w, g.PageWidthMM)
	}
	h := 2*g.MarginMM + float64(g.Rows)*g.CardHeightMM + float64(g.Rows-1)*g.SpacingMM
	if h > g.PageHeightMM {
		return fmt.Errorf("grid height %.1fmm exceeds page height %.1fmm", h, g.PageHeightMM)
	}
	return nil
}

// RectMM is a placement rectangle in millimetres.
type RectMM struct {
	X, Y, W, H float64
}

// SlotRect returns the sheet position of slot i, row-major from the top
// left.
func (g Grid) SlotRect(i int) RectMM {
	col := i % g.Columns
	row := i / g.Columns
	return RectMM{
		X: g.MarginMM + float64(col)*(g.CardWidthMM+g.SpacingMM),
		Y: g.MarginMM + float64(row)*(g.CardHeightMM+g.SpacingMM),
		W: g.CardWidthMM,
		H: g.CardHeightMM,
	}
}

// Slot is one grid position on a page. A nil Card is a blank slot.
type Slot struct {
	Index int
	Card  *image.RGBA
}

// Page is one filled sheet: exactly Capacity slots, trailing ones possibly
// blank. Pages are immutable once built.
type Page struct {
	Number int // 1-based
	Slots  []Slot
}

// Filled counts non-blank slots.
func (p Page) Filled() int {
	n := 0
	for _, s := range p.Slots {
		if s.Card != nil {
			n++
		}
	}
	return n
}

// Document is the paginated output of one run.
type Document struct {
	Grid  Grid
	DPI   int
	Pages []Page
}

// CardCount sums the filled slots across all pages.
func (d *Document) CardCount() int {
	n := 0
	for _, p := range d.Pages {
		n += p.Filled()
	}
	return n
}

// Paginate packs cards into pages row-major in input order, padding the
// final partial page with blank slots. The same input always produces the
// same page count and slot assignment.
func Paginate(grid Grid, dpi int, cards []*image.RGBA) *Document {
	doc := &Document{Grid: grid, DPI: dpi}
	perPage := grid.Capacity()
	for start := 0; start < len(cards); start += perPage {
		page := Page{Number: len(doc.Pages) + 1, Slots: make([]Slot, perPage)}
		for i := 0; i < perPage; i++ {
			page.Slots[i] = Slot{Index: i}
			if start+i < len(cards) {
				page.Slots[i].Card = cards[start+i]
			}
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc
}

package layout

import (
	"image"
	"testing"

	"github.com/printdex/printdex/internal/config"
)

func defaultGrid() Grid {
	cfg := config.Defaults()
	return NewGrid(cfg.Page, cfg.Card)
}

func makeCards(n int) []*image.RGBA {
	cards := make([]*image.RGBA, n)
	for i := range cards {
		cards[i] = image.NewRGBA(image.Rect(0, 0, 10, 10))
	}
	return cards
}

func TestGridCapacityAndValidate(t *testing.T) {
	grid := defaultGrid()
	if got := grid.Capacity(); got != 9 {
		t.Errorf("Capacity() = %d, want 9", got)
	}
	if err := grid.Validate(); err != nil {
		t.Errorf("Validate() returned error for A4 defaults: %v", err)
	}
}

func TestValidateRejectsOversizedGrid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Grid)
	}{
		{"too many columns", func(g *Grid) { g.Columns = 4 }},
		{"too many rows", func(g *Grid) { g.Rows = 4 }},
		{"oversized card", func(g *Grid) { g.CardWidthMM = 100 }},
		{"huge margin", func(g *Grid) { g.MarginMM = 40 }},
		{"zero columns", func(g *Grid) { g.Columns = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := defaultGrid()
			tt.mutate(&grid)
			if err := grid.Validate(); err == nil {
				t.Error("Validate() did not reject oversized grid")
			}
		})
	}
}

func TestSlotRect(t *testing.T) {
	grid := defaultGrid()
	tests := []struct {
		slot int
		x, y float64
	}{
		{0, 5, 5},
		{1, 70, 5},
		{2, 135, 5},
		{3, 5, 95},
		{4, 70, 95},
		{8, 135, 185},
	}
	for _, tt := range tests {
		r := grid.SlotRect(tt.slot)
		if r.X != tt.x || r.Y != tt.y {
			t.Errorf("SlotRect(%d) = (%.1f, %.1f), want (%.1f, %.1f)", tt.slot, r.X, r.Y, tt.x, tt.y)
		}
		if r.W != grid.CardWidthMM || r.H != grid.CardHeightMM {
			t.Errorf("SlotRect(%d) size = %.1fx%.1f, want card size", tt.slot, r.W, r.H)
		}
	}
}

func TestPaginate(t *testing.T) {
	grid := defaultGrid()
	doc := Paginate(grid, 300, makeCards(10))

	if len(doc.Pages) != 2 {
		t.Fatalf("Paginate(10 cards) produced %d pages, want 2", len(doc.Pages))
	}
	if doc.Pages[0].Number != 1 || doc.Pages[1].Number != 2 {
		t.Errorf("page numbers = %d, %d, want 1, 2", doc.Pages[0].Number, doc.Pages[1].Number)
	}
	if got := doc.Pages[0].Filled(); got != 9 {
		t.Errorf("page 1 filled = %d, want 9", got)
	}
	if got := doc.Pages[1].Filled(); got != 1 {
		t.Errorf("page 2 filled = %d, want 1", got)
	}
	for _, page := range doc.Pages {
		if len(page.Slots) != 9 {
			t.Errorf("page %d has %d slots, want 9", page.Number, len(page.Slots))
		}
	}
	if doc.Pages[1].Slots[0].Card == nil {
		t.Error("page 2 slot 0 is blank, want the tenth card")
	}
	for i := 1; i < 9; i++ {
		if doc.Pages[1].Slots[i].Card != nil {
			t.Errorf("page 2 slot %d is filled, want blank", i)
		}
	}
	if got := doc.CardCount(); got != 10 {
		t.Errorf("CardCount() = %d, want 10", got)
	}
}

func TestPaginateExactPage(t *testing.T) {
	doc := Paginate(defaultGrid(), 300, makeCards(9))
	if len(doc.Pages) != 1 {
		t.Fatalf("Paginate(9 cards) produced %d pages, want 1", len(doc.Pages))
	}
	if got := doc.Pages[0].Filled(); got != 9 {
		t.Errorf("filled = %d, want 9", got)
	}
}

func TestPaginateEmpty(t *testing.T) {
	doc := Paginate(defaultGrid(), 300, nil)
	if len(doc.Pages) != 0 {
		t.Errorf("Paginate(no cards) produced %d pages, want 0", len(doc.Pages))
	}
}

func TestPaginatePreservesOrder(t *testing.T) {
	cards := makeCards(12)
	doc := Paginate(defaultGrid(), 300, cards)

	i := 0
	for _, page := range doc.Pages {
		for _, slot := range page.Slots {
			if slot.Card == nil {
				continue
			}
			if slot.Card != cards[i] {
				t.Fatalf("page %d slot %d holds card out of order", page.Number, slot.Index)
			}
			i++
		}
	}
	if i != len(cards) {
		t.Errorf("placed %d cards, want %d", i, len(cards))
	}
}

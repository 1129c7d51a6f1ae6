// Package pdfout turns a paginated card document into a print-ready PDF.
package pdfout

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"github.com/printdex/printdex/internal/layout"
)

// ErrNoPages is returned when the document holds nothing to print.
var ErrNoPages = errors.New("no pages to emit")

// Emitter writes layout documents as PDF files.
type Emitter struct {
	// CutMarks draws trim ticks around each card for scissor guidance.
	CutMarks bool
}

// Emitted summarizes a written PDF.
type Emitted struct {
	Path  string
	Pages int
	Cards int
	Bytes int64
}

// Emit renders the document to path. The file appears atomically: output
// goes to a temp file first and is renamed into place only when complete.
func (e *Emitter) Emit(doc *layout.Document, path string) (*Emitted, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, ErrNoPages
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: doc.Grid.PageWidthMM, Ht: doc.Grid.PageHeightMM},
	})
	pdf.SetTitle("Pokédex card sheets", true)
	pdf.SetCreator(fmt.Sprintf("printdex (%d dpi)", doc.DPI), true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, slot := range page.Slots {
			if slot.Card == nil {
				continue
			}
			var buf bytes.Buffer
			if err := png.Encode(&buf, slot.Card); err != nil {
				return nil, fmt.Errorf("failed to encode card for page %d slot %d: %w", page.Number, slot.Index, err)
			}
			name := fmt.Sprintf("page%d-slot%d", page.Number, slot.Index)
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, opts, &buf)
			r := doc.Grid.SlotRect(slot.Index)
			pdf.ImageOptions(name, r.X, r.Y, r.W, r.H, false, opts, 0, "")
		}
		if e.CutMarks {
			drawCutMarks(pdf, doc.Grid, page)
		}
	}
	if pdf.Err() {
		return nil, fmt.Errorf("failed to build pdf: %w", pdf.Error())
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := pdf.OutputFileAndClose(tmp); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to move pdf into place: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}

	return &Emitted{
		Path:  path,
		Pages: len(doc.Pages),
		Cards: doc.CardCount(),
		Bytes: info.Size(),
	}, nil
}

// drawCutMarks draws short ticks extending outward from each corner of
// every filled slot. Tick length stays under half the inter-card spacing
// so marks from neighboring cards never cross into the card area.
func drawCutMarks(pdf *fpdf.Fpdf, grid layout.Grid, page layout.Page) {
	const tick = 1.5
	pdf.SetDrawColor(120, 120, 120)
	pdf.SetLineWidth(0.2)
	for _, slot := range page.Slots {
		if slot.Card == nil {
			continue
		}
		r := grid.SlotRect(slot.Index)
		x0, y0 := r.X, r.Y
		x1, y1 := r.X+r.W, r.Y+r.H

		pdf.Line(x0-tick, y0, x0, y0)
		pdf.Line(x0, y0-tick, x0, y0)
		pdf.Line(x1, y0, x1+tick, y0)
		pdf.Line(x1, y0-tick, x1, y0)
		pdf.Line(x0-tick, y1, x0, y1)
		pdf.Line(x0, y1, x0, y1+tick)
		pdf.Line(x1, y1, x1+tick, y1)
		pdf.Line(x1, y1, x1, y1+tick)
	}
}

// Package pipeline drives a full run: fetch data and artwork for every
// requested entity, render cards, pack pages, and emit the PDF. Entities
// fail independently; one bad fetch never sinks the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/printdex/printdex/internal/card"
	"github.com/printdex/printdex/internal/imagecache"
	"github.com/printdex/printdex/internal/layout"
	"github.com/printdex/printdex/internal/pdfout"
	"github.com/printdex/printdex/internal/pokeapi"
	"github.com/printdex/printdex/internal/pokedex"
)

// Status classifies the outcome of one entity.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped" // no artwork upstream
	StatusFailed  Status = "failed"
)

// Request describes one generation run.
type Request struct {
	IDs        []int
	Languages  []pokedex.Language
	Style      pokedex.ArtStyle
	OutputPath string
}

// EntityResult is the outcome for a single entity, in request order.
type EntityResult struct {
	ID     int
	Name   string
	Status Status
	Err    error
	Card   *image.RGBA
}

// Report summarizes a completed run.
type Report struct {
	Results    []EntityResult
	Succeeded  int
	Skipped    int
	Failed     int
	Pages      int
	Cards      int
	OutputPath string
	Bytes      int64
	Duration   time.Duration
}

// Pipeline wires the fetch, render, and emit stages together.
type Pipeline struct {
	Client      *pokeapi.Client
	Images      *imagecache.Cache
	Renderer    *card.Renderer
	Grid        layout.Grid
	Emitter     *pdfout.Emitter
	DPI         int
	Concurrency int
}

// Run executes the request and writes the PDF. The returned report is
// populated even when Run fails, so callers can show per-entity outcomes
// alongside the error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	if len(req.IDs) == 0 {
		return nil, fmt.Errorf("nothing to generate: empty entity list")
	}
	if len(req.Languages) == 0 {
		return nil, fmt.Errorf("nothing to generate: no languages requested")
	}
	if req.OutputPath == "" {
		return nil, fmt.Errorf("no output path given")
	}

	started := time.Now()
	concurrency := p.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	slog.Info("Starting card run",
		"entities", len(req.IDs),
		"languages", len(req.Languages),
		"style", req.Style,
		"concurrency", concurrency)

	// Process entities with concurrency control. Results are written into
	// a pre-indexed slice so card order always follows request order.
	results := make([]EntityResult, len(req.IDs))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, id := range req.IDs {
		wg.Add(1)
		go func(idx, id int) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			results[idx] = p.buildCard(ctx, id, req)
		}(i, id)
	}
	wg.Wait()

	report := &Report{Results: results, OutputPath: req.OutputPath}
	var cards []*image.RGBA
	for _, res := range results {
		switch res.Status {
		case StatusOK:
			report.Succeeded++
			cards = append(cards, res.Card)
		case StatusSkipped:
			report.Skipped++
			slog.Warn("Skipping entity", "id", res.ID, "reason", res.Err)
		default:
			report.Failed++
			slog.Warn("Entity failed", "id", res.ID, "error", res.Err)
		}
	}

	if err := ctx.Err(); err != nil {
		report.Duration = time.Since(started)
		return report, fmt.Errorf("run canceled: %w", err)
	}
	if len(cards) == 0 {
		report.Duration = time.Since(started)
		return report, fmt.Errorf("no cards produced: %d failed, %d skipped", report.Failed, report.Skipped)
	}

	doc := layout.Paginate(p.Grid, p.DPI, cards)
	emitted, err := p.Emitter.Emit(doc, req.OutputPath)
	if err != nil {
		report.Duration = time.Since(started)
		return report, fmt.Errorf("failed to emit pdf: %w", err)
	}

	report.Pages = emitted.Pages
	report.Cards = emitted.Cards
	report.Bytes = emitted.Bytes
	report.Duration = time.Since(started)

	slog.Info("Run complete",
		"cards", report.Cards,
		"pages", report.Pages,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"output", report.OutputPath,
		"duration", report.Duration.Round(time.Millisecond))
	return report, nil
}

// buildCard produces one entity's card. Missing artwork skips the entity;
// missing species or pokemon data degrades to fallback text so the card
// still prints.
func (p *Pipeline) buildCard(ctx context.Context, id int, req Request) EntityResult {
	res := EntityResult{ID: id}

	asset, err := p.Images.Get(ctx, id, req.Style)
	if err != nil {
		if isNotFound(err) {
			res.Status = StatusSkipped
			res.Err = fmt.Errorf("no %s artwork", req.Style)
			return res
		}
		res.Status = StatusFailed
		res.Err = fmt.Errorf("failed to fetch artwork: %w", err)
		return res
	}

	names := make(map[string]string, len(req.Languages))
	species, err := p.Client.Species(ctx, id)
	switch {
	case err == nil:
		res.Name = pokeapi.Capitalize(species.Name)
		for _, lang := range req.Languages {
			names[lang.Code] = species.LocalizedName(lang)
		}
	case isNotFound(err):
		// No species record upstream. Label the card with its number.
		slog.Warn("No species data, using fallback name", "id", id)
		for _, lang := range req.Languages {
			names[lang.Code] = fmt.Sprintf("#%03d", id)
		}
	default:
		res.Status = StatusFailed
		res.Err = fmt.Errorf("failed to fetch species: %w", err)
		return res
	}

	var types []string
	pk, err := p.Client.Pokemon(ctx, id)
	switch {
	case err == nil:
		types = pk.TypeNames()
		if res.Name == "" {
			res.Name = pokeapi.Capitalize(pk.Name)
		}
	case isNotFound(err):
		slog.Warn("No pokemon data, omitting type badges", "id", id)
	default:
		res.Status = StatusFailed
		res.Err = fmt.Errorf("failed to fetch pokemon: %w", err)
		return res
	}

	img, err := p.Renderer.Render(card.Spec{
		ID:        id,
		Languages: req.Languages,
		Names:     names,
		Types:     types,
		Artwork:   asset.Data,
	})
	if err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("failed to render card: %w", err)
		return res
	}

	slog.Debug("Rendered card", "id", id, "name", res.Name)
	res.Status = StatusOK
	res.Card = img
	return res
}

func isNotFound(err error) bool {
	return errors.Is(err, pokeapi.ErrNotFound) || errors.Is(err, imagecache.ErrNotFound)
}

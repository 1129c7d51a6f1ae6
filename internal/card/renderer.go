// Package card composes one trading-card bitmap per entity: bordered
// canvas, letterboxed artwork, type badges, and the localized name stack.
// Rendering is deterministic: the same Spec always produces identical
// pixels.
package card

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"

	"github.com/printdex/printdex/internal/config"
	"github.com/printdex/printdex/internal/pokedex"
)

// Spec describes one card to render. It is immutable once built.
type Spec struct {
	ID        int
	Languages []pokedex.Language
	Names     map[string]string // language code -> localized display name
	Types     []string          // slot order, may be empty
	Artwork   []byte            // encoded PNG/JPEG bytes
}

// Geometry fixes every pixel measurement of the card canvas.
type Geometry struct {
	Width       int
	Height      int
	Border      int
	Padding     int // artwork frame inset
	TextHeight  int // reserved name block height
	TextPadding int
}

// GeometryFor derives pixel geometry from the physical card settings.
func GeometryFor(cfg config.CardSettings, dpi int) Geometry {
	return Geometry{
		Width:       mmToPx(cfg.WidthMM, dpi),
		Height:      mmToPx(cfg.HeightMM, dpi),
		Border:      cfg.BorderPx,
		Padding:     mmToPx(cfg.PaddingMM, dpi),
		TextHeight:  mmToPx(cfg.TextHeightMM, dpi),
		TextPadding: mmToPx(cfg.TextPaddingMM, dpi),
	}
}

// mmToPx converts a physical length to pixels at dpi.
func mmToPx(mm float64, dpi int) int {
	return int(math.Round(mm * float64(dpi) / 25.4))
}

const (
	singleNameSizePx = 48
	multiNameSizePx  = 36
	nameLineSpacing  = 8
	minNameSizePx    = 12
	idSizePx         = 28
	badgeTextSizePx  = 20

	// headerStrip hosts the numeric identifier and type badges above the
	// artwork frame.
	headerStripPx = 44

	badgePadX = 10
	badgePadY = 4
	badgeGap  = 6
	maxBadges = 2
)

var (
	cardBackground = color.RGBA{255, 255, 255, 255}
	borderColor    = color.RGBA{30, 30, 30, 255}
	idColor        = color.RGBA{90, 90, 90, 255}
	nameColor      = color.RGBA{20, 20, 20, 255}
	badgeTextColor = color.RGBA{255, 255, 255, 255}
)

// Renderer composes card bitmaps. A Renderer is safe for concurrent use;
// each Render call works on its own canvas and font faces.
type Renderer struct {
	Geo   Geometry
	Fonts *FontSet
}

// NewRenderer builds a renderer for one geometry and font set.
func NewRenderer(geo Geometry, fonts *FontSet) *Renderer {
	return &Renderer{Geo: geo, Fonts: fonts}
}

// Render draws one card.
func (r *Renderer) Render(spec Spec) (*image.RGBA, error) {
	if len(spec.Languages) == 0 {
		return nil, fmt.Errorf("card %d: no languages requested", spec.ID)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, r.Geo.Width, r.Geo.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(cardBackground), image.Point{}, draw.Src)

	if err := r.drawArtwork(canvas, spec.Artwork); err != nil {
		return nil, fmt.Errorf("card %d: %w", spec.ID, err)
	}
	faces := r.Fonts.newFaces()
	r.drawHeader(canvas, faces, spec)
	r.drawNames(canvas, faces, spec)
	r.drawBorder(canvas)
	return canvas, nil
}

// artFrame is the inner rectangle artwork may occupy. The name block never
// reaches into it.
func (r *Renderer) artFrame() image.Rectangle {
	return image.Rect(
		r.Geo.Padding,
		r.Geo.Padding+headerStripPx,
		r.Geo.Width-r.Geo.Padding,
		r.Geo.Height-r.Geo.TextHeight-r.Geo.Padding,
	)
}

// textBlock is the reserved name area at the bottom of the card.
func (r *Renderer) textBlock() image.Rectangle {
	return image.Rect(
		r.Geo.Padding+r.Geo.TextPadding,
		r.Geo.Height-r.Geo.TextHeight-r.Geo.Padding+r.Geo.TextPadding,
		r.Geo.Width-r.Geo.Padding-r.Geo.TextPadding,
		r.Geo.Height-r.Geo.Padding,
	)
}

// drawArtwork scales the artwork to fit the frame without distortion and
// centers it, letterboxing the shorter axis.
func (r *Renderer) drawArtwork(canvas *image.RGBA, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("no artwork bytes")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode artwork: %w", err)
	}

	frame := r.artFrame()
	b := img.Bounds()
	scale := math.Min(float64(frame.Dx())/float64(b.Dx()), float64(frame.Dy())/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	fitted := imaging.Resize(img, w, h, imaging.Lanczos)

	x := frame.Min.X + (frame.Dx()-w)/2
	y := frame.Min.Y + (frame.Dy()-h)/2
	draw.Draw(canvas, image.Rect(x, y, x+w, y+h), fitted, image.Point{}, draw.Over)
	return nil
}

// drawHeader places the numeric identifier and type badges in the strip
// above the artwork frame.
func (r *Renderer) drawHeader(canvas *image.RGBA, faces *faceSet, spec Spec) {
	face := faces.labelFace(idSizePx, true)
	label := displayable(face, fmt.Sprintf("#%03d", spec.ID))
	top := r.Geo.Padding + (headerStripPx-lineHeight(face))/2
	drawText(canvas, face, label, r.Geo.Padding+r.Geo.TextPadding, top, idColor)

	r.drawBadges(canvas, faces, spec.Types)
}

// drawBadges draws up to maxBadges type badges right-aligned in the header
// strip, in slot order reading left to right.
func (r *Renderer) drawBadges(canvas *image.RGBA, faces *faceSet, types []string) {
	if len(types) > maxBadges {
		types = types[:maxBadges]
	}
	face := faces.labelFace(badgeTextSizePx, true)
	right := r.Geo.Width - r.Geo.Padding - r.Geo.TextPadding
	for i := len(types) - 1; i >= 0; i-- {
		name := types[i]
		label := displayable(face, strings.ToUpper(name))
		w := textWidth(face, label) + 2*badgePadX
		h := lineHeight(face) + 2*badgePadY
		top := r.Geo.Padding + (headerStripPx-h)/2
		badge := image.Rect(right-w, top, right, top+h)
		draw.Draw(canvas, badge, image.NewUniform(pokedex.TypeColor(name)), image.Point{}, draw.Src)
		drawText(canvas, face, label, badge.Min.X+badgePadX, badge.Min.Y+badgePadY, badgeTextColor)
		right = badge.Min.X - badgeGap
	}
}

// drawNames stacks the localized names in request order inside the text
// block, shrinking the size until everything fits. Text is never truncated
// and the block never grows.
func (r *Renderer) drawNames(canvas *image.RGBA, faces *faceSet, spec Spec) {
	block := r.textBlock()
	size := float64(singleNameSizePx)
	if len(spec.Languages) > 1 {
		size = multiNameSizePx
	}

	type nameLine struct {
		face font.Face
		text string
	}
	var lines []nameLine
	var total int
	for {
		lines = lines[:0]
		total = 0
		widest := 0
		for _, lang := range spec.Languages {
			face := faces.nameFace(lang.Code, size)
			text := displayable(face, spec.Names[lang.Code])
			lines = append(lines, nameLine{face: face, text: text})
			if w := textWidth(face, text); w > widest {
				widest = w
			}
			total += lineHeight(face)
		}
		total += nameLineSpacing * (len(lines) - 1)
		if (total <= block.Dy() && widest <= block.Dx()) || size <= minNameSizePx {
			break
		}
		size -= 2
	}

	top := block.Min.Y + (block.Dy()-total)/2
	if top < block.Min.Y {
		top = block.Min.Y
	}
	for _, ln := range lines {
		drawTextCentered(canvas, ln.face, ln.text, block.Min.X, block.Max.X, top, nameColor)
		top += lineHeight(ln.face) + nameLineSpacing
	}
}

// drawBorder frames the canvas edge.
func (r *Renderer) drawBorder(canvas *image.RGBA) {
	b := canvas.Bounds()
	n := r.Geo.Border
	if n <= 0 {
		return
	}
	src := image.NewUniform(borderColor)
	draw.Draw(canvas, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+n), src, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(b.Min.X, b.Max.Y-n, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(b.Min.X, b.Min.Y, b.Min.X+n, b.Max.Y), src, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(b.Max.X-n, b.Min.Y, b.Max.X, b.Max.Y), src, image.Point{}, draw.Src)
}

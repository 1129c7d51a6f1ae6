package card

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// replacementRune stands in for glyphs the face cannot render, so missing
// coverage degrades a label instead of failing the card.
const replacementRune = '?'

// displayable rewrites text so every rune has a glyph in face.
func displayable(face font.Face, text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if _, ok := face.GlyphAdvance(r); ok {
			out = append(out, r)
			continue
		}
		out = append(out, replacementRune)
	}
	return string(out)
}

// textWidth measures text in whole pixels.
func textWidth(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

// lineHeight is the face's ascent plus descent in whole pixels.
func lineHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}

// drawText draws text so its glyph box starts at (x, top).
func drawText(dst draw.Image, face font.Face, text string, x, top int, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, top+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// drawTextCentered centers text horizontally between x0 and x1.
func drawTextCentered(dst draw.Image, face font.Face, text string, x0, x1, top int, col color.Color) {
	x := x0 + ((x1-x0)-textWidth(face, text))/2
	if x < x0 {
		x = x0
	}
	drawText(dst, face, text, x, top, col)
}

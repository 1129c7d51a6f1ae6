package card

import (
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSet holds the parsed fonts used on a card: one display-name font per
// language where a system font was found, plus embedded fallbacks that are
// always available. A FontSet is immutable after LoadFonts and safe to
// share across goroutines; font.Face instances are not, so each render
// pass mints its own through newFaces.
type FontSet struct {
	names map[string]*opentype.Font
	base  *opentype.Font
	bold  *opentype.Font
}

type faceKey struct {
	lang string
	size float64
	bold bool
}

// LoadFonts parses the embedded fallback fonts and tries each candidate
// path per language, keeping the first file that parses. Missing or
// unreadable candidates only lose language-specific glyph coverage; they
// never fail the load.
func LoadFonts(candidates map[string][]string) (*FontSet, error) {
	base, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded bold font: %w", err)
	}

	fs := &FontSet{
		names: make(map[string]*opentype.Font),
		base:  base,
		bold:  bold,
	}
	for lang, paths := range candidates {
		for _, path := range paths {
			f, err := parseFontFile(path)
			if err != nil {
				slog.Debug("Skipping font candidate", "language", lang, "path", path, "error", err)
				continue
			}
			slog.Debug("Loaded font", "language", lang, "path", path)
			fs.names[lang] = f
			break
		}
	}
	return fs, nil
}

// parseFontFile reads a TTF/OTF file, taking the first font of a
// collection (.ttc) when given one.
func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if f, err := opentype.Parse(data); err == nil {
		return f, nil
	}
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	return coll.Font(0)
}

// faceSet builds and reuses faces for one render pass. A face owns
// rasterizer scratch buffers, so a faceSet must stay on a single goroutine.
type faceSet struct {
	fonts *FontSet
	faces map[faceKey]font.Face
}

// newFaces returns an empty face cache for one render pass.
func (fs *FontSet) newFaces() *faceSet {
	return &faceSet{fonts: fs, faces: make(map[faceKey]font.Face)}
}

// nameFace returns the display-name face for a language at a pixel size.
func (s *faceSet) nameFace(lang string, sizePx float64) font.Face {
	f := s.fonts.names[lang]
	if f == nil {
		f = s.fonts.base
	}
	return s.face(f, faceKey{lang: lang, size: sizePx})
}

// labelFace returns the face used for identifiers and badges.
func (s *faceSet) labelFace(sizePx float64, bold bool) font.Face {
	f := s.fonts.base
	if bold {
		f = s.fonts.bold
	}
	return s.face(f, faceKey{size: sizePx, bold: bold})
}

func (s *faceSet) face(f *opentype.Font, key faceKey) font.Face {
	if face, ok := s.faces[key]; ok {
		return face
	}

	// Size is interpreted in pixels: at 72 DPI one point is one pixel.
	opts := &opentype.FaceOptions{Size: key.size, DPI: 72, Hinting: font.HintingFull}
	face, err := opentype.NewFace(f, opts)
	if err != nil {
		face, _ = opentype.NewFace(s.fonts.base, opts)
	}
	s.faces[key] = face
	return face
}

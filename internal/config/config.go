// Package config carries every tunable of the card pipeline. Settings are
// layered: built-in defaults, then an optional YAML file, then PRINTDEX_*
// environment variables. Flags applied by the CLI sit on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML files can say "30s" or "24h".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Settings holds the full pipeline configuration.
type Settings struct {
	CacheDir    string `yaml:"cache_dir"`
	DPI         int    `yaml:"dpi"`
	Concurrency int    `yaml:"concurrency"`

	Card  CardSettings `yaml:"card"`
	Page  PageSettings `yaml:"page"`
	API   APISettings  `yaml:"api"`
	Fonts FontSettings `yaml:"fonts"`
}

// CardSettings fixes the physical card geometry.
type CardSettings struct {
	WidthMM       float64 `yaml:"width_mm"`
	HeightMM      float64 `yaml:"height_mm"`
	BorderPx      int     `yaml:"border_px"`
	PaddingMM     float64 `yaml:"padding_mm"`
	TextHeightMM  float64 `yaml:"text_height_mm"`
	TextPaddingMM float64 `yaml:"text_padding_mm"`
}

// PageSettings fixes the sheet geometry and grid capacity.
type PageSettings struct {
	WidthMM   float64 `yaml:"width_mm"`
	HeightMM  float64 `yaml:"height_mm"`
	MarginMM  float64 `yaml:"margin_mm"`
	SpacingMM float64 `yaml:"spacing_mm"`
	Columns   int     `yaml:"columns"`
	Rows      int     `yaml:"rows"`
}

// APISettings configures the upstream PokeAPI and artwork endpoints.
type APISettings struct {
	BaseURL     string   `yaml:"base_url"`
	ArtworkBase string   `yaml:"artwork_base"`
	Timeout     Duration `yaml:"timeout"`
	Retries     int      `yaml:"retries"`
	RateDelay   Duration `yaml:"rate_delay"`
	DataTTL     Duration `yaml:"data_ttl"`
}

// FontSettings lists candidate font files per language; the first readable
// file wins, and the embedded default face covers anything unreadable.
type FontSettings struct {
	EN   []string `yaml:"en"`
	ZHTW []string `yaml:"zh_tw"`
	JA   []string `yaml:"ja"`
}

// PerLanguage returns the candidate lists keyed by language code.
func (f FontSettings) PerLanguage() map[string][]string {
	return map[string][]string{
		"en":    f.EN,
		"zh-tw": f.ZHTW,
		"ja":    f.JA,
	}
}

// Defaults returns the stock settings: 63x88mm cards at 300 DPI packed
// 3x3 on A4 sheets, caches under ~/.cache/printdex.
func Defaults() Settings {
	cjkCandidates := []string{
		"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
		"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
		"/System/Library/Fonts/PingFang.ttc",
	}
	return Settings{
		CacheDir:    "~/.cache/printdex",
		DPI:         300,
		Concurrency: 4,
		Card: CardSettings{
			WidthMM:       63,
			HeightMM:      88,
			BorderPx:      2,
			PaddingMM:     5,
			TextHeightMM:  14,
			TextPaddingMM: 2,
		},
		Page: PageSettings{
			WidthMM:   210,
			HeightMM:  297,
			MarginMM:  5,
			SpacingMM: 2,
			Columns:   3,
			Rows:      3,
		},
		API: APISettings{
			BaseURL:     "https://pokeapi.co/api/v2",
			ArtworkBase: "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon",
			Timeout:     Duration(30 * time.Second),
			Retries:     3,
			RateDelay:   Duration(100 * time.Millisecond),
			DataTTL:     Duration(24 * time.Hour),
		},
		Fonts: FontSettings{
			EN: []string{
				"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
				"/usr/share/fonts/dejavu/DejaVuSans-Bold.ttf",
			},
			ZHTW: cjkCandidates,
			JA:   cjkCandidates,
		},
	}
}

// Load builds settings from defaults, an optional YAML file, and the
// environment. An empty path skips the file layer. The cache directory is
// returned with ~ already expanded.
func Load(path string) (Settings, error) {
	settings := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Settings{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&settings)
	settings.CacheDir = ExpandHome(settings.CacheDir)
	return settings, nil
}

// applyEnv overlays PRINTDEX_* environment variables.
func applyEnv(s *Settings) {
	if v := os.Getenv("PRINTDEX_CACHE_DIR"); v != "" {
		s.CacheDir = v
	}
	if v := os.Getenv("PRINTDEX_DPI"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.DPI = n
		}
	}
	if v := os.Getenv("PRINTDEX_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Concurrency = n
		}
	}
	if v := os.Getenv("PRINTDEX_API_BASE_URL"); v != "" {
		s.API.BaseURL = v
	}
	if v := os.Getenv("PRINTDEX_ARTWORK_BASE_URL"); v != "" {
		s.API.ArtworkBase = v
	}
}

// ExpandHome resolves a leading ~ against the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}

// ImageCacheDir is where artwork files live.
func (s Settings) ImageCacheDir() string {
	return filepath.Join(s.CacheDir, "images")
}

// DataCacheDir is where cached API responses live.
func (s Settings) DataCacheDir() string {
	return filepath.Join(s.CacheDir, "data")
}

// Validate rejects settings that cannot produce a printable sheet. It runs
// once at startup; per-call checks rely on it having passed.
func (s Settings) Validate() error {
	if s.DPI < 72 || s.DPI > 1200 {
		return fmt.Errorf("dpi %d out of range 72-1200", s.DPI)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}
	if s.Card.WidthMM <= 0 || s.Card.HeightMM <= 0 {
		return fmt.Errorf("card dimensions must be positive")
	}
	if s.Card.TextHeightMM+2*s.Card.PaddingMM >= s.Card.HeightMM {
		return fmt.Errorf("text block %.1fmm leaves no room for artwork on a %.1fmm card", s.Card.TextHeightMM, s.Card.HeightMM)
	}
	if s.Page.Columns < 1 || s.Page.Rows < 1 {
		return fmt.Errorf("page grid must have at least one column and row")
	}
	gridW := 2*s.Page.MarginMM + float64(s.Page.Columns)*s.Card.WidthMM + float64(s.Page.Columns-1)*s.Page.SpacingMM
	if gridW > s.Page.WidthMM {
		return fmt.Errorf("grid width %.1fmm exceeds page width %.1fmm", gridW, s.Page.WidthMM)
	}
	gridH := 2*s.Page.MarginMM + float64(s.Page.Rows)*s.Card.HeightMM + float64(s.Page.Rows-1)*s.Page.SpacingMM
	if gridH > s.Page.HeightMM {
		return fmt.Errorf("grid height %.1fmm exceeds page height %.1fmm", gridH, s.Page.HeightMM)
	}
	if s.API.Retries < 1 {
		return fmt.Errorf("api retries must be at least 1")
	}
	if time.Duration(s.API.Timeout) <= 0 {
		return fmt.Errorf("api timeout must be positive")
	}
	return nil
}

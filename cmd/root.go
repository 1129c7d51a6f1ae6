package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/printdex/printdex/internal/card"
	"github.com/printdex/printdex/internal/config"
	"github.com/printdex/printdex/internal/datacache"
	"github.com/printdex/printdex/internal/imagecache"
	"github.com/printdex/printdex/internal/layout"
	"github.com/printdex/printdex/internal/pdfout"
	"github.com/printdex/printdex/internal/pipeline"
	"github.com/printdex/printdex/internal/pokeapi"
	"github.com/printdex/printdex/internal/resolve"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "printdex",
		Short: "Printable Pokédex card sheet generator",
		Long: `Printdex renders Pokédex entries as 63x88mm cards and packs them onto
A4 sheets as a print-ready PDF.

Entity data comes from PokeAPI and artwork from the official sprites CDN;
both are cached locally so repeat runs stay off the network.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newCacheCmd())

	return cmd
}

func setupLogging(verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

// resolveIDs turns the selection/generation flags into an ID list. Exactly
// one of the two must be given.
func resolveIDs(selection string, generations []int) ([]int, error) {
	switch {
	case selection != "" && len(generations) > 0:
		return nil, fmt.Errorf("--selection and --generation are mutually exclusive")
	case selection != "":
		return resolve.Selection(selection)
	case len(generations) > 0:
		return resolve.Generations(generations)
	default:
		return nil, fmt.Errorf("one of --selection or --generation is required")
	}
}

// loadSettings reads the config file and applies CLI overrides.
func loadSettings(configPath, cacheDir string, concurrency int) (config.Settings, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Settings{}, err
	}
	if cacheDir != "" {
		cfg.CacheDir = config.ExpandHome(cacheDir)
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if err := cfg.Validate(); err != nil {
		return config.Settings{}, err
	}
	return cfg, nil
}

func newDataStore(cfg config.Settings) *datacache.Store {
	return datacache.New(cfg.DataCacheDir(), time.Duration(cfg.API.DataTTL))
}

func newAPIClient(cfg config.Settings) *pokeapi.Client {
	return pokeapi.NewClient(cfg.API.BaseURL, newDataStore(cfg),
		time.Duration(cfg.API.Timeout), cfg.API.Retries, time.Duration(cfg.API.RateDelay))
}

func newImageCache(cfg config.Settings) *imagecache.Cache {
	return imagecache.New(cfg.ImageCacheDir(), cfg.API.ArtworkBase,
		time.Duration(cfg.API.Timeout), cfg.API.Retries)
}

// buildPipeline wires every stage from settings.
func buildPipeline(cfg config.Settings, cutMarks bool) (*pipeline.Pipeline, error) {
	grid := layout.NewGrid(cfg.Page, cfg.Card)
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	fonts, err := card.LoadFonts(cfg.Fonts.PerLanguage())
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Client:      newAPIClient(cfg),
		Images:      newImageCache(cfg),
		Renderer:    card.NewRenderer(card.GeometryFor(cfg.Card, cfg.DPI), fonts),
		Grid:        grid,
		Emitter:     &pdfout.Emitter{CutMarks: cutMarks},
		DPI:         cfg.DPI,
		Concurrency: cfg.Concurrency,
	}, nil
}

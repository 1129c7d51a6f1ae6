package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/printdex/printdex/internal/imagecache"
	"github.com/printdex/printdex/internal/pokeapi"
	"github.com/printdex/printdex/internal/pokedex"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the local caches",
		Long: `Printdex keeps two caches under one directory: API responses as JSON
(expiring after a TTL) and downloaded artwork as PNG files (kept forever).`,
	}

	cmd.AddCommand(newCacheInfoCmd())
	cmd.AddCommand(newCacheClearCmd())
	cmd.AddCommand(newCacheWarmCmd())

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	var configPath string
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show cache location and contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(configPath, cacheDir, 0)
			if err != nil {
				return err
			}

			store := newDataStore(cfg)
			entries, bytes, err := store.Stats()
			if err != nil {
				return fmt.Errorf("failed to inspect data cache: %w", err)
			}

			images := newImageCache(cfg)
			styleStats, err := images.StatsByStyle()
			if err != nil {
				return fmt.Errorf("failed to inspect artwork cache: %w", err)
			}

			fmt.Printf("Cache directory: %s\n", cfg.CacheDir)
			fmt.Printf("Data entries:    %d (%s)\n", entries, formatBytes(bytes))
			fmt.Println("Artwork:")
			total := 0
			for _, style := range pokedex.Styles {
				s, ok := styleStats[style]
				if !ok {
					continue
				}
				fmt.Printf("  %-9s %d images (%s)\n", string(style)+":", s.Entries, formatBytes(s.Bytes))
				total += s.Entries
			}
			if total == 0 {
				fmt.Println("  (empty)")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory override")

	return cmd
}

func newCacheClearCmd() *cobra.Command {
	var configPath string
	var cacheDir string
	var imagesOnly bool
	var dataOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached data and artwork",
		RunE: func(cmd *cobra.Command, args []string) error {
			if imagesOnly && dataOnly {
				return errors.New("--images-only and --data-only are mutually exclusive")
			}
			cfg, err := loadSettings(configPath, cacheDir, 0)
			if err != nil {
				return err
			}
			if !imagesOnly {
				if err := newDataStore(cfg).Clear(); err != nil {
					return fmt.Errorf("failed to clear data cache: %w", err)
				}
			}
			if !dataOnly {
				if err := newImageCache(cfg).Clear(); err != nil {
					return fmt.Errorf("failed to clear artwork cache: %w", err)
				}
			}
			fmt.Printf("Cleared cache at %s\n", cfg.CacheDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory override")
	cmd.Flags().BoolVar(&imagesOnly, "images-only", false, "Only clear downloaded artwork")
	cmd.Flags().BoolVar(&dataOnly, "data-only", false, "Only clear cached API responses")

	return cmd
}

func newCacheWarmCmd() *cobra.Command {
	var selection string
	var generations []int
	var style string
	var configPath string
	var cacheDir string
	var concurrency int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "warm",
		Short: "Pre-fetch data and artwork for a selection",
		Long: `Warm downloads API responses and artwork for every selected entity so a
later generate run works entirely from the local cache. Entities without
artwork upstream are noted and skipped.`,
		Example: `  # Everything a gen 1 print run needs
  printdex cache warm -g 1

  # Shiny artwork for a few favorites
  printdex cache warm -s 25,133,150 --style shiny`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)

			ids, err := resolveIDs(selection, generations)
			if err != nil {
				return err
			}
			artStyle, err := pokedex.ParseStyle(style)
			if err != nil {
				return err
			}
			cfg, err := loadSettings(configPath, cacheDir, concurrency)
			if err != nil {
				return err
			}

			client := newAPIClient(cfg)
			images := newImageCache(cfg)

			slog.Info("Warming cache", "entities", len(ids), "style", artStyle, "concurrency", cfg.Concurrency)

			var done atomic.Int64
			var missing atomic.Int64
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(cfg.Concurrency)
			for _, id := range ids {
				g.Go(func() error {
					if err := warmEntity(ctx, client, images, id, artStyle); err != nil {
						if errors.Is(err, imagecache.ErrNotFound) || errors.Is(err, pokeapi.ErrNotFound) {
							slog.Warn("No upstream entry", "id", id)
							missing.Add(1)
						} else {
							return fmt.Errorf("entity %d: %w", id, err)
						}
					}
					if n := done.Add(1); n%10 == 0 || n == int64(len(ids)) {
						slog.Info("Warm progress", "done", n, "total", len(ids))
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Printf("Cache warmed for %d entities", len(ids))
			if n := missing.Load(); n > 0 {
				fmt.Printf(" (%d without upstream data)", n)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVarP(&selection, "selection", "s", "", "Entity IDs, comma lists and ranges (e.g. 1,4,7 or 1-151)")
	cmd.Flags().IntSliceVarP(&generations, "generation", "g", nil, "Generation numbers 1-9 (e.g. 1 or 1,2)")
	cmd.Flags().StringVar(&style, "style", "official", "Artwork style (official, shiny, home)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory override")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent downloads (0 = config default)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	return cmd
}

// warmEntity fetches everything a generate run would need for one entity.
// A missing upstream entry comes back as a not-found error so the caller
// can count it without aborting the batch.
func warmEntity(ctx context.Context, client *pokeapi.Client, images *imagecache.Cache, id int, style pokedex.ArtStyle) error {
	var notFound error
	if _, err := images.Get(ctx, id, style); err != nil {
		if !errors.Is(err, imagecache.ErrNotFound) {
			return fmt.Errorf("artwork: %w", err)
		}
		notFound = err
	}
	if _, err := client.Species(ctx, id); err != nil {
		if !errors.Is(err, pokeapi.ErrNotFound) {
			return fmt.Errorf("species: %w", err)
		}
		notFound = err
	}
	if _, err := client.Pokemon(ctx, id); err != nil {
		if !errors.Is(err, pokeapi.ErrNotFound) {
			return fmt.Errorf("pokemon: %w", err)
		}
		notFound = err
	}
	return notFound
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

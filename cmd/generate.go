package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/printdex/printdex/internal/pipeline"
	"github.com/printdex/printdex/internal/pokedex"
	"github.com/printdex/printdex/internal/report"
)

func newGenerateCmd() *cobra.Command {
	var selection string
	var generations []int
	var languages []string
	var style string
	var output string
	var configPath string
	var cacheDir string
	var concurrency int
	var cutMarks bool
	var reportPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a print-ready PDF of cards",
		Long: `Generate renders one card per selected entity and packs them onto A4
sheets, nine cards per page in selection order.

Entities are picked either with --selection (IDs, comma lists, and ranges)
or with --generation. Each card shows the official artwork, the entity
number, type badges, and the name in every requested language.`,
		Example: `  # Nine cards from explicit IDs
  printdex generate -s 1,4,7,25,39,52,94,133,150 -o picks.pdf

  # A whole generation in English and Japanese
  printdex generate -g 1 -l en,ja -o gen1.pdf

  # Shiny artwork with cut marks for trimming
  printdex generate -s 25,133 --style shiny --cut-marks -o shinies.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(verbose)

			ids, err := resolveIDs(selection, generations)
			if err != nil {
				return err
			}
			langs, err := pokedex.ParseLanguages(languages)
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
			p, err := buildPipeline(cfg, cutMarks)
			if err != nil {
				return err
			}

			req := pipeline.Request{
				IDs:        ids,
				Languages:  langs,
				Style:      artStyle,
				OutputPath: output,
			}
			rep, runErr := p.Run(cmd.Context(), req)
			if rep != nil {
				printRunSummary(rep)
				if reportPath != "" {
					if err := report.Save(report.Build(req, rep), reportPath); err != nil {
						slog.Warn("Failed to save run report", "path", reportPath, "error", err)
					} else {
						fmt.Printf("Run report saved to: %s\n", reportPath)
					}
				}
			}
			return runErr
		},
	}

	langCodes := make([]string, len(pokedex.Languages))
	for i, lang := range pokedex.Languages {
		langCodes[i] = lang.Code
	}

	cmd.Flags().StringVarP(&selection, "selection", "s", "", "Entity IDs, comma lists and ranges (e.g. 1,4,7 or 1-151)")
	cmd.Flags().IntSliceVarP(&generations, "generation", "g", nil, "Generation numbers 1-9 (e.g. 1 or 1,2)")
	cmd.Flags().StringSliceVarP(&languages, "languages", "l", []string{"en"}, "Card name languages ("+strings.Join(langCodes, ", ")+")")
	cmd.Flags().StringVar(&style, "style", "official", "Artwork style (official, shiny, home)")
	cmd.Flags().StringVarP(&output, "output", "o", "cards.pdf", "Output PDF path")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory override")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent entity workers (0 = config default)")
	cmd.Flags().BoolVar(&cutMarks, "cut-marks", false, "Draw trim ticks around each card")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML run report to this path")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	return cmd
}

func printRunSummary(rep *pipeline.Report) {
	fmt.Println("\n========================================")
	fmt.Println("Run Summary")
	fmt.Println("========================================")
	fmt.Printf("Requested:   %d\n", len(rep.Results))
	fmt.Printf("Succeeded:   %d\n", rep.Succeeded)
	fmt.Printf("Skipped:     %d\n", rep.Skipped)
	fmt.Printf("Failed:      %d\n", rep.Failed)
	if rep.Pages > 0 {
		fmt.Printf("Pages:       %d\n", rep.Pages)
		fmt.Printf("Output:      %s (%d bytes)\n", rep.OutputPath, rep.Bytes)
	}
	fmt.Printf("Duration:    %s\n", rep.Duration.Round(time.Millisecond))

	for _, res := range rep.Results {
		if res.Status == pipeline.StatusOK {
			continue
		}
		fmt.Printf("  #%03d %-8s %v\n", res.ID, res.Status, res.Err)
	}
	fmt.Println("========================================")
}

// Package report writes a YAML summary of a pipeline run so batch jobs
// can be audited after the fact.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/printdex/printdex/internal/pipeline"
	"github.com/printdex/printdex/internal/pokedex"
)

// RunConfig records what the run was asked to do.
type RunConfig struct {
	Languages []string `yaml:"languages"`
	Style     string   `yaml:"style"`
	Output    string   `yaml:"output"`
	Timestamp string   `yaml:"timestamp"`
}

// Entity is the per-entity outcome line.
type Entity struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name,omitempty"`
	Status string `yaml:"status"`
	Error  string `yaml:"error,omitempty"`
}

// Summary aggregates the run counters.
type Summary struct {
	Requested int    `yaml:"requested"`
	Succeeded int    `yaml:"succeeded"`
	Skipped   int    `yaml:"skipped"`
	Failed    int    `yaml:"failed"`
	Pages     int    `yaml:"pages"`
	Cards     int    `yaml:"cards"`
	Duration  string `yaml:"duration"`
}

// RunReport is the complete YAML document.
type RunReport struct {
	Config   RunConfig `yaml:"config"`
	Summary  Summary   `yaml:"summary"`
	Entities []Entity  `yaml:"entities"`
}

// Build converts a pipeline report into its YAML form.
func Build(req pipeline.Request, rep *pipeline.Report) *RunReport {
	langs := make([]string, 0, len(req.Languages))
	for _, lang := range req.Languages {
		langs = append(langs, lang.Code)
	}
	style := req.Style
	if style == "" {
		style = pokedex.StyleOfficial
	}

	out := &RunReport{
		Config: RunConfig{
			Languages: langs,
			Style:     string(style),
			Output:    rep.OutputPath,
			Timestamp: time.Now().Format("2006-01-02_15-04-05"),
		},
		Summary: Summary{
			Requested: len(rep.Results),
			Succeeded: rep.Succeeded,
			Skipped:   rep.Skipped,
			Failed:    rep.Failed,
			Pages:     rep.Pages,
			Cards:     rep.Cards,
			Duration:  rep.Duration.Round(time.Millisecond).String(),
		},
		Entities: make([]Entity, 0, len(rep.Results)),
	}

	for _, res := range rep.Results {
		e := Entity{
			ID:     res.ID,
			Name:   res.Name,
			Status: string(res.Status),
		}
		if res.Err != nil {
			e.Error = res.Err.Error()
		}
		out.Entities = append(out.Entities, e)
	}
	return out
}

// Save writes the report YAML to path.
func Save(r *RunReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

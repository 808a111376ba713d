package reporting

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"maxpain-lab/internal/storage"
)

// Generator writes report files for the most recent snapshot in the result
// store, plus a drift comparison against the snapshot before it.
type Generator struct {
	store     storage.ResultStore
	outputDir string
	logger    *log.Logger
}

// NewGenerator creates a report generator writing into outputDir.
func NewGenerator(store storage.ResultStore, outputDir string, logger *log.Logger) *Generator {
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{store: store, outputDir: outputDir, logger: logger}
}

// Output lists the files one generation pass produced.
type Output struct {
	CSVPath        string
	MarkdownPath   string
	ComparisonPath string // empty when no previous snapshot exists
}

// GenerateLatest writes CSV and markdown reports for the newest snapshot.
// When an earlier snapshot exists, a comparison CSV is written as well.
// Returns storage.ErrNotFound when the store holds no results.
func (g *Generator) GenerateLatest(ctx context.Context) (*Output, error) {
	times, err := g.store.GetLatestUpdateTimes(ctx, 2)
	if err != nil {
		return nil, fmt.Errorf("list snapshot times: %w", err)
	}
	if len(times) == 0 {
		return nil, storage.ErrNotFound
	}

	latest, err := g.store.GetByUpdateTime(ctx, times[0])
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", times[0], err)
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	stamp := fileStamp(times[0])
	out := &Output{
		CSVPath:      filepath.Join(g.outputDir, "maxpain_"+stamp+".csv"),
		MarkdownPath: filepath.Join(g.outputDir, "maxpain_"+stamp+".md"),
	}

	if err := g.writeFile(out.CSVPath, func(f *os.File) error {
		return WriteCSV(f, latest)
	}); err != nil {
		return nil, err
	}

	title := "Max Pain Report " + times[0]
	if err := g.writeFile(out.MarkdownPath, func(f *os.File) error {
		return WriteMarkdown(f, title, latest)
	}); err != nil {
		return nil, err
	}

	if len(times) > 1 {
		previous, err := g.store.GetByUpdateTime(ctx, times[1])
		if err != nil {
			return nil, fmt.Errorf("load snapshot %s: %w", times[1], err)
		}
		drifts := Compare(latest, previous)
		if len(drifts) > 0 {
			out.ComparisonPath = filepath.Join(g.outputDir, "maxpain_drift_"+stamp+".csv")
			if err := g.writeFile(out.ComparisonPath, func(f *os.File) error {
				return WriteComparisonCSV(f, drifts)
			}); err != nil {
				return nil, err
			}
		}
	}

	g.logger.Printf("Report generated: %d results at %s", len(latest), times[0])
	return out, nil
}

func (g *Generator) writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// fileStamp turns "2026-03-20 15:45:00" into "20260320_154500".
func fileStamp(updateTime string) string {
	r := strings.NewReplacer("-", "", ":", "", " ", "_")
	return r.Replace(updateTime)
}

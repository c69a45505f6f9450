// Package cli holds the small amount of plumbing the commands share:
// logger construction, input discovery, and config-to-settings mapping.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/narratext/narratext/internal/common"
	"github.com/narratext/narratext/internal/entity"
	"github.com/narratext/narratext/internal/export"
	"github.com/narratext/narratext/internal/filter"
)

// NewLogger builds the process-wide JSON logger and installs it as default.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// CollectPDFs resolves the input set from a directory scan, an explicit
// comma-separated list, or both. Directory scans are non-recursive, match
// .pdf case-insensitively, and sort by name so runs are reproducible.
func CollectPDFs(dir, files string) ([]string, error) {
	var out []string
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read input directory: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
				out = append(out, filepath.Join(dir, e.Name()))
			}
		}
		sort.Strings(out)
	}
	for _, f := range strings.Split(files, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, common.NewAppError("CONFIG_ERROR",
			"no input PDFs: pass -dir and/or -files", common.ErrInvalidInput)
	}
	return out, nil
}

// QualityFromConfig maps the env-backed extract settings onto the gate.
func QualityFromConfig(cfg *common.Config) filter.QualitySettings {
	return filter.QualitySettings{
		MinWordsPerParagraph:        cfg.Extract.MinWordsPerParagraph,
		MinAlphaCharsPerParagraph:   cfg.Extract.MinAlphaCharsPerParagraph,
		ShortParagraphWordThreshold: cfg.Extract.ShortParagraphWordThreshold,
		RequireSentenceTerminatorForShortParagraphs: cfg.Extract.RequireSentenceTerminator,
	}.Normalize()
}

// RepeatFromConfig maps the env-backed repeat-filter settings.
func RepeatFromConfig(cfg *common.Config) filter.RepeatOptions {
	return filter.RepeatOptions{
		MaxLen:   cfg.Extract.RepeatMaxLen,
		MinPages: cfg.Extract.RepeatMinPages,
	}
}

// WriteOutputs writes the XLSX workbook and, when csvPath is set, the CSV
// sibling.
func WriteOutputs(rows []entity.ExtractionRow, xlsxPath, csvPath string, logger *slog.Logger) error {
	data, err := export.XLSX(rows, logger)
	if err != nil {
		return err
	}
	if err := os.WriteFile(xlsxPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", xlsxPath, err)
	}
	if csvPath != "" {
		data, err := export.CSV(rows, logger)
		if err != nil {
			return err
		}
		if err := os.WriteFile(csvPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", csvPath, err)
		}
	}
	return nil
}

package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/narratext/narratext/internal/entity"
	"github.com/narratext/narratext/internal/filter"
	"github.com/narratext/narratext/internal/segment"
)

// Parse runs deterministic reconstruction for one document: segmentation per
// page, the per-candidate boilerplate gate, and the cross-page repeat
// filter. It never fails; broken pages reduce the candidate count and leave
// a warning.
func Parse(src Source, segOpts segment.Options, repeatOpts filter.RepeatOptions, logger *slog.Logger) *entity.ParsedDocument {
	if logger == nil {
		logger = slog.Default()
	}
	doc := &entity.ParsedDocument{
		Name:       src.Name(),
		TotalPages: src.NumPages(),
	}

	var stats filter.FilterStats
	for page := 1; page <= doc.TotalPages; page++ {
		runs, err := src.PageRuns(page)
		if err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: %v", page, err))
			doc.PagesWithoutTextLayer = append(doc.PagesWithoutTextLayer, page)
			continue
		}
		paragraphs := segment.Page(runs, segOpts)
		if len(paragraphs) == 0 {
			doc.PagesWithoutTextLayer = append(doc.PagesWithoutTextLayer, page)
			continue
		}
		cands := make([]entity.ParagraphCandidate, 0, len(paragraphs))
		for i, text := range paragraphs {
			cands = append(cands, entity.ParagraphCandidate{
				ID:         entity.CandidateID(page, i+1),
				PageNumber: page,
				Text:       text,
			})
		}
		doc.Paragraphs = append(doc.Paragraphs, filter.Candidates(cands, &stats)...)
	}

	kept, removed := filter.Repeated(doc.Paragraphs, repeatOpts)
	doc.Paragraphs = kept
	stats.Repeated = removed
	doc.Warnings = append(doc.Warnings, stats.Warnings()...)

	if n := len(doc.PagesWithoutTextLayer); n > 0 {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("%d pages without a text layer", n))
	}

	logger.Info("pipeline.parse.ok",
		"pdf", doc.Name,
		"pages", doc.TotalPages,
		"candidates", len(doc.Paragraphs),
		"pages_without_text", len(doc.PagesWithoutTextLayer),
		"warnings", len(doc.Warnings),
	)
	return doc
}

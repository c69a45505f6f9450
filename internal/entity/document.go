package entity

import "fmt"

// ParagraphCandidate is a contiguous span of reconstructed text proposed as
// one paragraph, prior to any LLM judgment. Immutable once produced.
type ParagraphCandidate struct {
	ID         string `json:"id"`
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// CandidateID builds the document-unique candidate id: p<page>-<ordinal>.
func CandidateID(page, ordinal int) string {
	return fmt.Sprintf("p%d-%d", page, ordinal)
}

// ParsedDocument represents one input file after segmentation and filtering.
// Owned by the pipeline invocation; discarded after rows are produced.
type ParsedDocument struct {
	Name                  string               `json:"name"`
	Paragraphs            []ParagraphCandidate `json:"paragraphs"`
	TotalPages            int                  `json:"total_pages"`
	PagesWithoutTextLayer []int                `json:"pages_without_text_layer,omitempty"`
	Warnings              []string             `json:"warnings,omitempty"`
}

// NeedsVisionFallback reports whether text-layer segmentation produced
// nothing and the per-page image path must run instead.
func (d *ParsedDocument) NeedsVisionFallback() bool {
	return len(d.Paragraphs) == 0 && d.TotalPages > 0
}

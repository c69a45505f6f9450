// Package pipeline coordinates extraction for one run: segmentation and
// filtering per document, live LLM classification per chunk or page, and the
// row-assembly tail. The asynchronous batch path reuses the same parse stage
// through the batch package.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/narratext/narratext/internal/chunk"
	"github.com/narratext/narratext/internal/entity"
	"github.com/narratext/narratext/internal/filter"
	"github.com/narratext/narratext/internal/llm"
	"github.com/narratext/narratext/internal/parallel"
	"github.com/narratext/narratext/internal/rows"
	"github.com/narratext/narratext/internal/segment"
)

// Source supplies per-page inputs for one document. Implemented by
// pdfio.Document; tests use in-memory fakes.
type Source interface {
	Name() string
	NumPages() int
	PageRuns(pageNumber int) ([]segment.Run, error)
	RenderPage(ctx context.Context, pageNumber int) (string, error)
	Close() error
}

// DefaultVisionWarningPattern matches model warnings about OCR or image
// resolution limits. Such warnings downgrade to informational when the page
// still produced paragraphs: partial success is not an error.
var DefaultVisionWarningPattern = regexp.MustCompile(`(?i)(resolution|image quality|low.quality|blurr|illegib|unreadable|ocr)`)

// Processor runs the live extraction pipeline.
type Processor struct {
	Logger  *slog.Logger
	Client  llm.ChatClient
	Quality filter.QualitySettings

	ChunkBudget int
	Retry       parallel.RetryConfig
	Segment     segment.Options
	Repeat      filter.RepeatOptions

	// VisionWarningPattern overrides the warning-suppression policy.
	VisionWarningPattern *regexp.Regexp
}

// NewProcessor wires a live processor with clamped settings.
func NewProcessor(logger *slog.Logger, client llm.ChatClient, quality filter.QualitySettings) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:  logger,
		Client:  client,
		Quality: quality.Normalize(),
		Segment: segment.DefaultOptions(),
		Repeat:  filter.DefaultRepeatOptions(),
	}
}

func (p *Processor) warningPattern() *regexp.Regexp {
	if p.VisionWarningPattern != nil {
		return p.VisionWarningPattern
	}
	return DefaultVisionWarningPattern
}

// Run processes documents with bounded file-level concurrency. Output row
// order follows source order, not completion order. Document-level failures
// are contained as placeholder rows; cancellation aborts the whole run.
func (p *Processor) Run(ctx context.Context, sources []Source, concurrency int) ([]entity.ExtractionRow, error) {
	start := time.Now()
	perDoc, err := parallel.Map(ctx, len(sources), concurrency, func(ctx context.Context, i int) ([]entity.ExtractionRow, error) {
		src := sources[i]
		docRows, err := p.ProcessDocument(ctx, src)
		if err != nil {
			if parallel.IsCancellation(err) {
				return nil, err
			}
			p.Logger.Error("pipeline.document.failed", "pdf", src.Name(), "error", err)
			return []entity.ExtractionRow{placeholderRow(src.Name(), nil, fmt.Sprintf("document failed: %v", err))}, nil
		}
		return docRows, nil
	})
	if err != nil {
		return nil, err
	}

	var out []entity.ExtractionRow
	for _, docRows := range perDoc {
		out = append(out, docRows...)
	}
	p.Logger.Info("pipeline.run.ok",
		"documents", len(sources),
		"rows", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// ProcessDocument extracts one document: parse, classify (text chunks or
// vision pages), quality-gate, dedupe, reindex.
func (p *Processor) ProcessDocument(ctx context.Context, src Source) ([]entity.ExtractionRow, error) {
	start := time.Now()
	doc := Parse(src, p.Segment, p.Repeat, p.Logger)

	var out []entity.ExtractionRow
	var err error
	if doc.NeedsVisionFallback() {
		p.Logger.Warn("pipeline.document.no_text_layer", "pdf", doc.Name, "pages", doc.TotalPages)
		out, err = p.visionFallback(ctx, src, doc)
	} else {
		out, err = p.textExtract(ctx, doc)
	}
	if err != nil {
		return nil, err
	}

	out = rows.Dedupe(out)
	p.Logger.Info("pipeline.document.ok",
		"pdf", doc.Name,
		"pages", doc.TotalPages,
		"candidates", len(doc.Paragraphs),
		"rows", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// textExtract classifies chunks sequentially within a document to bound
// memory and respect per-endpoint rate limits.
func (p *Processor) textExtract(ctx context.Context, doc *entity.ParsedDocument) ([]entity.ExtractionRow, error) {
	chunks := chunk.Split(doc.Paragraphs, p.ChunkBudget)
	var out []entity.ExtractionRow
	for _, c := range chunks {
		chunkRows, err := p.processChunk(ctx, doc, c)
		if err != nil {
			if parallel.IsCancellation(err) {
				return nil, err
			}
			p.Logger.Error("pipeline.chunk.failed",
				"pdf", doc.Name, "chunk", c.Index+1, "chunks", c.Total, "error", err)
			out = append(out, placeholderRow(doc.Name, nil,
				fmt.Sprintf("text filter failed for chunk %d/%d (%s..%s): %v",
					c.Index+1, c.Total, c.Candidates[0].ID, c.Candidates[len(c.Candidates)-1].ID, err)))
			continue
		}
		out = append(out, chunkRows...)
	}
	return out, nil
}

func (p *Processor) processChunk(ctx context.Context, doc *entity.ParsedDocument, c chunk.Chunk) ([]entity.ExtractionRow, error) {
	req := llm.Request{
		System:     llm.TextSystemPrompt(p.Quality),
		User:       llm.TextUserPayload(c),
		ExpectJSON: true,
		Schema:     llm.BuildTextDecisionSchema(),
	}
	content, err := parallel.Retry(ctx, p.Retry, func(ctx context.Context) (string, error) {
		return p.Client.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	if verr := llm.ValidateJSONAgainstSchema(llm.BuildTextDecisionSchema(), []byte(mustObject(content))); verr != nil {
		// Normalization re-checks everything it relies on; a schema miss is
		// only worth a log line.
		p.Logger.Warn("pipeline.chunk.schema_mismatch", "pdf", doc.Name, "chunk", c.Index+1, "error", verr)
	}
	decisions, err := llm.NormalizeTextDecisions(content)
	if err != nil {
		return nil, err
	}
	for _, w := range decisions.Warnings {
		p.Logger.Warn("pipeline.chunk.model_warning", "pdf", doc.Name, "chunk", c.Index+1, "warning", w)
	}

	return DecisionRows(doc.Name, c, decisions, p.Quality), nil
}

// DecisionRows converts normalized text-mode decisions into rows, preserving
// the chunk's reading order and applying the quality gate to everything the
// model kept. Shared by the live path and batch reconciliation.
func DecisionRows(pdfName string, c chunk.Chunk, decisions llm.TextDecisions, quality filter.QualitySettings) []entity.ExtractionRow {
	byID := make(map[string]llm.KeepDecision, len(decisions.Keep))
	for _, d := range decisions.Keep {
		byID[d.ID] = d
	}
	var out []entity.ExtractionRow
	for _, cand := range c.Candidates {
		d, kept := byID[cand.ID]
		if !kept {
			continue
		}
		text := filter.NormalizeSpace(cand.Text)
		if !filter.IsAcceptable(text, quality) {
			continue
		}
		page := cand.PageNumber
		out = append(out, entity.ExtractionRow{
			PDFName:        pdfName,
			Paragraph:      text,
			PageNumber:     &page,
			SectionHeading: d.SectionHeading,
			Notes:          decisionNotes(d.Note, d.PossibleBoilerplate),
			Confidence:     d.Confidence,
		})
	}
	return out
}

func decisionNotes(note string, possibleBoilerplate bool) string {
	if possibleBoilerplate {
		if note == "" {
			return "possible boilerplate"
		}
		return note + "; possible boilerplate"
	}
	return note
}

func placeholderRow(pdfName string, page *int, note string) entity.ExtractionRow {
	return entity.ExtractionRow{
		PDFName:    pdfName,
		Paragraph:  "",
		PageNumber: page,
		Notes:      note,
	}
}

// mustObject best-effort reduces content to its JSON object for schema
// validation; extraction errors are handled by normalization proper.
func mustObject(content string) string {
	obj, err := llm.ExtractJSONObject(content)
	if err != nil {
		return content
	}
	return obj
}

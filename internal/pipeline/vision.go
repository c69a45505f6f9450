package pipeline

import (
	"context"
	"fmt"

	"github.com/narratext/narratext/internal/entity"
	"github.com/narratext/narratext/internal/filter"
	"github.com/narratext/narratext/internal/llm"
	"github.com/narratext/narratext/internal/parallel"
)

// visionFallback extracts per rendered page image when the text layer is
// absent. Pages run sequentially; per-page failures produce a placeholder
// row and processing continues. Only cancellation aborts the document.
func (p *Processor) visionFallback(ctx context.Context, src Source, doc *entity.ParsedDocument) ([]entity.ExtractionRow, error) {
	var out []entity.ExtractionRow
	for page := 1; page <= doc.TotalPages; page++ {
		pageRows, err := p.processVisionPage(ctx, src, doc, page)
		if err != nil {
			if parallel.IsCancellation(err) {
				return nil, err
			}
			p.Logger.Error("pipeline.vision.page_failed", "pdf", doc.Name, "page", page, "error", err)
			pg := page
			out = append(out, placeholderRow(doc.Name, &pg, fmt.Sprintf("vision extraction failed for page %d: %v", page, err)))
			continue
		}
		// A page that yields nothing after the gate emits no row.
		out = append(out, pageRows...)
	}

	if len(out) == 0 {
		// The document must never be silently absent from output.
		out = append(out, placeholderRow(doc.Name, nil,
			fmt.Sprintf("no narrative text could be extracted from %d page images", doc.TotalPages)))
	}
	return out, nil
}

func (p *Processor) processVisionPage(ctx context.Context, src Source, doc *entity.ParsedDocument, page int) ([]entity.ExtractionRow, error) {
	dataURL, err := src.RenderPage(ctx, page)
	if err != nil {
		return nil, err
	}

	req := llm.Request{
		System:       llm.VisionSystemPrompt(p.Quality),
		User:         llm.VisionUserText(page, doc.TotalPages),
		ImageDataURL: dataURL,
		ExpectJSON:   true,
		Schema:       llm.BuildVisionSchema(),
	}
	content, err := parallel.Retry(ctx, p.Retry, func(ctx context.Context) (string, error) {
		return p.Client.Complete(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	decisions, err := llm.NormalizeVisionDecisions(content)
	if err != nil {
		return nil, err
	}

	p.logVisionWarnings(doc.Name, page, decisions)
	return VisionRows(doc.Name, page, decisions, p.Quality), nil
}

// logVisionWarnings applies the suppression policy: an OCR/resolution
// limitation is informational when the page still returned paragraphs.
func (p *Processor) logVisionWarnings(pdfName string, page int, decisions llm.VisionDecisions) {
	pattern := p.warningPattern()
	for _, w := range decisions.Warnings {
		if pattern.MatchString(w) && len(decisions.Paragraphs) > 0 {
			p.Logger.Info("pipeline.vision.limitation", "pdf", pdfName, "page", page, "warning", w)
			continue
		}
		p.Logger.Warn("pipeline.vision.model_warning", "pdf", pdfName, "page", page, "warning", w)
	}
}

// VisionRows converts normalized vision-mode decisions into rows, applying
// the quality gate. Shared by the live path and batch reconciliation.
func VisionRows(pdfName string, page int, decisions llm.VisionDecisions, quality filter.QualitySettings) []entity.ExtractionRow {
	var out []entity.ExtractionRow
	for _, para := range decisions.Paragraphs {
		text := filter.NormalizeSpace(para.Text)
		if !filter.IsAcceptable(text, quality) {
			continue
		}
		pg := page
		out = append(out, entity.ExtractionRow{
			PDFName:        pdfName,
			Paragraph:      text,
			PageNumber:     &pg,
			SectionHeading: para.SectionHeading,
			Notes:          decisionNotes(para.Note, para.PossibleBoilerplate),
			Confidence:     para.Confidence,
		})
	}
	return out
}

package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/narratext/narratext/internal/chunk"
	"github.com/narratext/narratext/internal/filter"
)

// TextSystemPrompt instructs the model to act as a narrative classifier over
// already-segmented paragraphs. The quality minimums are repeated in prose
// so the model prunes early; the local gate re-checks everything it keeps.
func TextSystemPrompt(q filter.QualitySettings) string {
	parts := []string{
		"You classify paragraphs extracted from a PDF document.",
		"Keep ONLY main narrative paragraphs: body text a reader would consider the document's substance.",
		"Discard headers, footers, navigation, legal boilerplate, references, captions, page furniture, and tables of contents.",
		fmt.Sprintf("A kept paragraph should have at least %d words and %d letters.", q.MinWordsPerParagraph, q.MinAlphaCharsPerParagraph),
		"Return ONLY a JSON object of the form:",
		`{"keep":[{"id":"<paragraph id>","section_heading":"<nearest heading, optional>","note":"<short remark, optional>","confidence":<0..1, optional>,"possible_boilerplate":<bool>}],"warnings":["<optional>"]}`,
		"The \"keep\" array is mandatory even when empty. Never invent ids.",
	}
	return strings.Join(parts, " ")
}

// TextUserPayload serializes one chunk as the user message: a JSON array of
// {id, page, text} objects in reading order.
func TextUserPayload(c chunk.Chunk) string {
	type item struct {
		ID   string `json:"id"`
		Page int    `json:"page"`
		Text string `json:"text"`
	}
	items := make([]item, 0, len(c.Candidates))
	for _, cand := range c.Candidates {
		items = append(items, item{ID: cand.ID, Page: cand.PageNumber, Text: cand.Text})
	}
	b, _ := json.Marshal(items)
	return "Paragraph candidates:\n" + string(b)
}

// VisionSystemPrompt instructs the model to read a rendered page image and
// transcribe its main narrative paragraphs.
func VisionSystemPrompt(q filter.QualitySettings) string {
	parts := []string{
		"You read a single scanned PDF page image and transcribe its main narrative paragraphs.",
		"Transcribe ONLY body text; skip headers, footers, page numbers, captions, and decorative text.",
		fmt.Sprintf("A transcribed paragraph should have at least %d words and %d letters.", q.MinWordsPerParagraph, q.MinAlphaCharsPerParagraph),
		"Return ONLY a JSON object of the form:",
		`{"paragraphs":[{"text":"<paragraph text>","section_heading":"<nearest heading, optional>","note":"<short remark, optional>","confidence":<0..1, optional>,"possible_boilerplate":<bool>}],"warnings":["<optional>"]}`,
		"The \"paragraphs\" array is mandatory even when empty.",
	}
	return strings.Join(parts, " ")
}

// VisionUserText is the fixed text part accompanying the page image.
func VisionUserText(pageNumber, totalPages int) string {
	return fmt.Sprintf("Page %d of %d. Transcribe the main narrative paragraphs from this page image.", pageNumber, totalPages)
}

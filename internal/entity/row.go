package entity

// RowColumns is the stable, order-significant column contract for export.
var RowColumns = []string{
	"pdf_name",
	"paragraph",
	"paragraph_index",
	"page_number",
	"section_heading",
	"notes",
	"confidence",
}

// ExtractionRow is one output row. ParagraphIndex is assigned only after
// per-document deduplication and is the only field mutated post-creation.
type ExtractionRow struct {
	PDFName        string   `json:"pdf_name"`
	Paragraph      string   `json:"paragraph"`
	ParagraphIndex int      `json:"paragraph_index"`
	PageNumber     *int     `json:"page_number"`
	SectionHeading string   `json:"section_heading"`
	Notes          string   `json:"notes"`
	Confidence     *float64 `json:"confidence"`
}

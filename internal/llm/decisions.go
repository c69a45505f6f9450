package llm

// KeepDecision is the model's verdict on one text-mode paragraph id.
type KeepDecision struct {
	ID                  string   `json:"id"`
	SectionHeading      string   `json:"section_heading,omitempty"`
	Note                string   `json:"note,omitempty"`
	Confidence          *float64 `json:"confidence,omitempty"`
	PossibleBoilerplate bool     `json:"possible_boilerplate"`
}

// TextDecisions is the normalized text-mode reply.
type TextDecisions struct {
	Keep     []KeepDecision `json:"keep"`
	Warnings []string       `json:"warnings,omitempty"`
}

// VisionParagraph is the model's verdict for one OCR'd page paragraph.
// There is no candidate id because no prior segmentation exists.
type VisionParagraph struct {
	Text                string   `json:"text"`
	SectionHeading      string   `json:"section_heading,omitempty"`
	Note                string   `json:"note,omitempty"`
	Confidence          *float64 `json:"confidence,omitempty"`
	PossibleBoilerplate bool     `json:"possible_boilerplate"`
}

// VisionDecisions is the normalized vision-mode reply.
type VisionDecisions struct {
	Paragraphs []VisionParagraph `json:"paragraphs"`
	Warnings   []string          `json:"warnings,omitempty"`
}

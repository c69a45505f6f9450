package constants

import "time"

// Segmentation defaults. Units are PDF points in the page coordinate space.
const (
	LineYTolerance     = 2.2  // runs within this y-distance belong to one line
	DefaultLineGap     = 12.0 // assumed line gap when a page has no measurable gaps
	ParagraphGapFactor = 1.65 // paragraph break = gap > factor * median line gap
)

// Boilerplate filter defaults.
const (
	MinParagraphChars = 4    // normalized text shorter than this is noise
	AlphaRatioFloor   = 0.35 // minimum alphabetic ratio for short strings
	AlphaRatioMaxLen  = 50   // alpha-ratio check applies below this length
	RepeatMaxLen      = 220  // repeat filter only considers short template-ish text
	RepeatMinPages    = 3    // recurring on this many distinct pages = header/footer
)

// Quality gate defaults.
const (
	MinWordsPerParagraph        = 6
	MinAlphaCharsPerParagraph   = 24
	ShortParagraphWordThreshold = 12
)

// Chunking defaults. The budget approximates serialized request size.
const (
	ChunkBudget       = 7000
	ChunkItemOverhead = 64 // id, quotes, braces, commas per candidate
)

// Retry defaults.
const (
	DefaultRetries     = 2
	DefaultBaseDelay   = 800 * time.Millisecond
	RetryJitterCeiling = 220 * time.Millisecond
)

// Vision fallback defaults.
const (
	VisionMaxDimension = 1600 // longest side of a rendered page, px
	VisionJPEGQuality  = 85
)

// Batch API ceilings (OpenAI Batch limits). Exceeding either rejects the
// whole build; there is no partial submission.
const (
	BatchMaxRequests = 50000
	BatchMaxBytes    = 200 * 1024 * 1024
)

// LLM defaults.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultHTTPTimeout = 120 * time.Second
	DefaultConcurrency = 3 // files processed in parallel in live mode
)

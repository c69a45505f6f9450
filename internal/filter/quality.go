// Package filter holds the deterministic acceptance rules applied around the
// LLM: the shared quality gate, the per-candidate boilerplate gate, and the
// cross-page repeat filter.
package filter

import (
	"strings"
	"unicode"

	"github.com/narratext/narratext/constants"
)

// QualitySettings is the shared word/character/punctuation heuristic.
// Validated and clamped at entry, then shared by reference across one run.
// The gate is always applied to whatever the LLM proposes to keep, so the
// model cannot override configured minimums.
type QualitySettings struct {
	MinWordsPerParagraph                        int  `json:"min_words_per_paragraph"`
	MinAlphaCharsPerParagraph                   int  `json:"min_alpha_chars_per_paragraph"`
	ShortParagraphWordThreshold                 int  `json:"short_paragraph_word_threshold"`
	RequireSentenceTerminatorForShortParagraphs bool `json:"require_sentence_terminator_for_short_paragraphs"`
}

// DefaultQualitySettings returns the tuned defaults.
func DefaultQualitySettings() QualitySettings {
	return QualitySettings{
		MinWordsPerParagraph:        constants.MinWordsPerParagraph,
		MinAlphaCharsPerParagraph:   constants.MinAlphaCharsPerParagraph,
		ShortParagraphWordThreshold: constants.ShortParagraphWordThreshold,
		RequireSentenceTerminatorForShortParagraphs: true,
	}
}

// Normalize clamps nonsensical values so the rest of the run can rely on the
// settings without re-checking.
func (s QualitySettings) Normalize() QualitySettings {
	if s.MinWordsPerParagraph < 0 {
		s.MinWordsPerParagraph = 0
	}
	if s.MinAlphaCharsPerParagraph < 0 {
		s.MinAlphaCharsPerParagraph = 0
	}
	if s.ShortParagraphWordThreshold < 0 {
		s.ShortParagraphWordThreshold = 0
	}
	return s
}

// IsAcceptable is the pure quality predicate. Raising either minimum can
// only remove previously-accepted text, never add.
func IsAcceptable(text string, s QualitySettings) bool {
	t := NormalizeSpace(text)
	if t == "" {
		return false
	}
	words := len(strings.Fields(t))
	if words < s.MinWordsPerParagraph {
		return false
	}
	if alphaCount(t) < s.MinAlphaCharsPerParagraph {
		return false
	}
	if s.RequireSentenceTerminatorForShortParagraphs && words < s.ShortParagraphWordThreshold {
		return endsWithTerminator(t, true)
	}
	return true
}

// NormalizeSpace collapses all whitespace runs to single spaces and trims.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func alphaCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

// endsWithTerminator reports whether s ends in '.', '!' or '?'. When
// allowTrailing is set, closing quotes and brackets after the terminator are
// ignored.
func endsWithTerminator(s string, allowTrailing bool) bool {
	rs := []rune(s)
	i := len(rs) - 1
	if allowTrailing {
		for i >= 0 && isTrailingClose(rs[i]) {
			i--
		}
	}
	if i < 0 {
		return false
	}
	switch rs[i] {
	case '.', '!', '?':
		return true
	}
	return false
}

func isTrailingClose(r rune) bool {
	switch r {
	case '"', '\'', '”', '’', ')', ']', '}', '»':
		return true
	}
	return false
}

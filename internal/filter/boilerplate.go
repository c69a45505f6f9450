package filter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/narratext/narratext/constants"
	"github.com/narratext/narratext/internal/entity"
)

// boilerplateVocabulary lists phrases that mark non-narrative page furniture.
// Matching is applied to short normalized strings only, so a real paragraph
// that happens to mention cookies is never at risk.
var boilerplateVocabulary = []string{
	"privacy policy",
	"privacy notice",
	"cookie policy",
	"cookies",
	"accept all cookies",
	"subscribe",
	"newsletter",
	"sign up",
	"sign in",
	"log in",
	"login",
	"register",
	"navigation",
	"menu",
	"about us",
	"contact us",
	"contact",
	"advertisement",
	"sponsored",
	"all rights reserved",
	"copyright",
	"terms of service",
	"terms and conditions",
	"skip to content",
	"share this",
	"follow us",
	"read more",
	"back to top",
	"table of contents",
}

// vocabularyMaxLen bounds the contains-match: only strings this short are
// candidates for vocabulary rejection.
const vocabularyMaxLen = 80

var (
	rePageOfN   = regexp.MustCompile(`(?i)^page\s+\d+(\s+of\s+\d+)?$`)
	reBareNum   = regexp.MustCompile(`^\d+$`)
	rePageRatio = regexp.MustCompile(`^\d+\s*/\s*\d+$`)
)

// IsBoilerplate applies the per-candidate rule gate. It returns the match
// and a short reason used for warning counts.
func IsBoilerplate(text string) (bool, string) {
	t := NormalizeSpace(text)
	if len([]rune(t)) < constants.MinParagraphChars {
		return true, "too_short"
	}
	if rePageOfN.MatchString(t) || reBareNum.MatchString(t) || rePageRatio.MatchString(t) {
		return true, "page_marker"
	}
	lower := strings.ToLower(t)
	if len([]rune(lower)) <= vocabularyMaxLen {
		for _, phrase := range boilerplateVocabulary {
			if strings.Contains(lower, phrase) {
				return true, "vocabulary"
			}
		}
	}
	if len([]rune(t)) < constants.AlphaRatioMaxLen && alphaRatio(t) < constants.AlphaRatioFloor {
		return true, "low_alpha_ratio"
	}
	return false, ""
}

func alphaRatio(s string) float64 {
	total := 0
	alpha := 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alpha) / float64(total)
}

// FilterStats counts removals per reason for human-readable warnings.
type FilterStats struct {
	Vocabulary    int
	PageMarkers   int
	TooShort      int
	LowAlphaRatio int
	Repeated      int
}

// Warnings renders the nonzero counters as log-friendly lines.
func (s FilterStats) Warnings() []string {
	var out []string
	add := func(n int, what string) {
		if n > 0 {
			out = append(out, fmt.Sprintf("removed %d %s", n, what))
		}
	}
	add(s.Vocabulary, "boilerplate paragraphs")
	add(s.PageMarkers, "page markers")
	add(s.TooShort, "too-short fragments")
	add(s.LowAlphaRatio, "low-alpha fragments")
	add(s.Repeated, "repeated template paragraphs")
	return out
}

// Candidates drops boilerplate candidates and tallies reasons. It never
// fails; noise only reduces the candidate count.
func Candidates(cands []entity.ParagraphCandidate, stats *FilterStats) []entity.ParagraphCandidate {
	kept := cands[:0:0]
	for _, c := range cands {
		hit, reason := IsBoilerplate(c.Text)
		if !hit {
			kept = append(kept, c)
			continue
		}
		switch reason {
		case "vocabulary":
			stats.Vocabulary++
		case "page_marker":
			stats.PageMarkers++
		case "too_short":
			stats.TooShort++
		case "low_alpha_ratio":
			stats.LowAlphaRatio++
		}
	}
	return kept
}

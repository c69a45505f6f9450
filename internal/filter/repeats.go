package filter

import (
	"strings"

	"github.com/narratext/narratext/constants"
	"github.com/narratext/narratext/internal/entity"
)

// RepeatOptions tune the cross-page repeat filter. The defaults mirror the
// original policy; they are settings rather than fixed rules.
type RepeatOptions struct {
	// MaxLen: only normalized text shorter than this is considered.
	MaxLen int
	// MinPages: recurring on at least this many distinct pages marks a
	// header/footer/watermark.
	MinPages int
}

// DefaultRepeatOptions returns the tuned defaults.
func DefaultRepeatOptions() RepeatOptions {
	return RepeatOptions{MaxLen: constants.RepeatMaxLen, MinPages: constants.RepeatMinPages}
}

func (o RepeatOptions) withDefaults() RepeatOptions {
	d := DefaultRepeatOptions()
	if o.MaxLen <= 0 {
		o.MaxLen = d.MaxLen
	}
	if o.MinPages <= 0 {
		o.MinPages = d.MinPages
	}
	return o
}

// Repeated drops template elements that recur across pages: short text
// without a sentence terminator appearing on MinPages or more distinct pages
// is removed document-wide. Returns the survivors and the removal count.
func Repeated(cands []entity.ParagraphCandidate, opts RepeatOptions) ([]entity.ParagraphCandidate, int) {
	opts = opts.withDefaults()

	pages := make(map[string]map[int]struct{})
	for _, c := range cands {
		key := repeatKey(c.Text, opts.MaxLen)
		if key == "" {
			continue
		}
		if pages[key] == nil {
			pages[key] = make(map[int]struct{})
		}
		pages[key][c.PageNumber] = struct{}{}
	}

	kept := cands[:0:0]
	removed := 0
	for _, c := range cands {
		key := repeatKey(c.Text, opts.MaxLen)
		if key != "" && len(pages[key]) >= opts.MinPages {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	return kept, removed
}

// repeatKey returns the dedup key for template-ish text, or "" when the text
// is too long or reads like a sentence (terminal punctuation).
func repeatKey(text string, maxLen int) string {
	t := strings.ToLower(NormalizeSpace(text))
	if t == "" || len([]rune(t)) >= maxLen {
		return ""
	}
	if endsWithTerminator(t, false) {
		return ""
	}
	return t
}

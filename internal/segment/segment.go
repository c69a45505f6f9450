// Package segment reconstructs paragraph strings from positioned text runs.
//
// PDF text arrives as unordered runs with page coordinates. Reading order is
// recovered geometrically: runs are clustered into lines by y, lines are
// joined left to right, and paragraph breaks are inferred from vertical gaps
// relative to the page's own median line spacing.
package segment

import (
	"sort"
	"strings"
	"unicode"

	"github.com/narratext/narratext/constants"
)

// Run is one positioned text run as produced by the PDF reader. The origin
// is whatever coordinate transform the reader applied; only relative
// positions matter here.
type Run struct {
	Text string
	X    float64
	Y    float64
}

// Options tune the geometric heuristics. Zero values fall back to defaults.
type Options struct {
	// YTolerance is the maximum y-distance between runs on the same line.
	YTolerance float64
	// DefaultLineGap is assumed when a page has fewer than two lines.
	DefaultLineGap float64
	// GapFactor scales the median line gap into a paragraph-break threshold.
	GapFactor float64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		YTolerance:     constants.LineYTolerance,
		DefaultLineGap: constants.DefaultLineGap,
		GapFactor:      constants.ParagraphGapFactor,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.YTolerance <= 0 {
		o.YTolerance = d.YTolerance
	}
	if o.DefaultLineGap <= 0 {
		o.DefaultLineGap = d.DefaultLineGap
	}
	if o.GapFactor <= 0 {
		o.GapFactor = d.GapFactor
	}
	return o
}

type line struct {
	y    float64
	text string
}

// Page turns one page's runs into ordered paragraph strings. A page with no
// usable runs yields nil; the caller decides whether that means a missing
// text layer.
func Page(runs []Run, opts Options) []string {
	opts = opts.withDefaults()

	usable := make([]Run, 0, len(runs))
	for _, r := range runs {
		if strings.TrimSpace(r.Text) != "" {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		return nil
	}

	// Top of page first (descending y), left to right within equal y.
	sort.SliceStable(usable, func(i, j int) bool {
		if usable[i].Y != usable[j].Y {
			return usable[i].Y > usable[j].Y
		}
		return usable[i].X < usable[j].X
	})

	lines := clusterLines(usable, opts.YTolerance)
	threshold := opts.GapFactor * medianGap(lines, opts.DefaultLineGap)

	var paragraphs []string
	var cur strings.Builder
	prevY := lines[0].y
	for i, ln := range lines {
		if i > 0 && prevY-ln.y > threshold {
			if p := strings.TrimSpace(cur.String()); p != "" {
				paragraphs = append(paragraphs, p)
			}
			cur.Reset()
		}
		appendToken(&cur, ln.text)
		prevY = ln.y
	}
	if p := strings.TrimSpace(cur.String()); p != "" {
		paragraphs = append(paragraphs, p)
	}
	return paragraphs
}

// clusterLines groups y-sorted runs into lines. A run joins the current line
// while its y stays within tolerance of the line's anchor.
func clusterLines(runs []Run, tol float64) []line {
	var lines []line
	var group []Run
	anchor := runs[0].Y
	flush := func() {
		sort.SliceStable(group, func(i, j int) bool { return group[i].X < group[j].X })
		var b strings.Builder
		for _, r := range group {
			appendToken(&b, strings.TrimSpace(r.Text))
		}
		lines = append(lines, line{y: anchor, text: b.String()})
		group = group[:0]
	}
	for _, r := range runs {
		if len(group) > 0 && anchor-r.Y > tol {
			flush()
			anchor = r.Y
		}
		group = append(group, r)
	}
	flush()
	return lines
}

// medianGap computes the median vertical distance between consecutive lines.
func medianGap(lines []line, fallback float64) float64 {
	var gaps []float64
	for i := 1; i < len(lines); i++ {
		if g := lines[i-1].y - lines[i].y; g > 0 {
			gaps = append(gaps, g)
		}
	}
	if len(gaps) == 0 {
		return fallback
	}
	sort.Float64s(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 0 {
		return (gaps[mid-1] + gaps[mid]) / 2
	}
	return gaps[mid]
}

// appendToken joins tok onto b applying de-hyphenation and punctuation rules:
// a trailing hyphen followed by a lowercase continuation merges the split
// word, and no space is inserted around opening brackets or before closing
// punctuation.
func appendToken(b *strings.Builder, tok string) {
	if tok == "" {
		return
	}
	cur := b.String()
	if cur == "" {
		b.WriteString(tok)
		return
	}
	first := []rune(tok)[0]
	if strings.HasSuffix(cur, "-") && unicode.IsLower(first) {
		// Hyphenated line/token break: "acceler-" + "ated" -> "accelerated".
		trimmed := strings.TrimSuffix(cur, "-")
		b.Reset()
		b.WriteString(trimmed)
		b.WriteString(tok)
		return
	}
	last := []rune(cur)[len([]rune(cur))-1]
	if isOpening(last) || isClosing(first) {
		b.WriteString(tok)
		return
	}
	b.WriteString(" ")
	b.WriteString(tok)
}

func isOpening(r rune) bool {
	switch r {
	case '(', '[', '{', '/':
		return true
	}
	return false
}

func isClosing(r rune) bool {
	switch r {
	case ')', ']', '}', ',', '.', ';', ':', '!', '?':
		return true
	}
	return false
}

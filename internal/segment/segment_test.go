package segment

import (
	"reflect"
	"testing"
)

func TestPageEmpty(t *testing.T) {
	if got := Page(nil, Options{}); got != nil {
		t.Fatalf("Page(nil) = %v, want nil", got)
	}
	if got := Page([]Run{{Text: "   ", X: 0, Y: 100}}, Options{}); got != nil {
		t.Fatalf("Page(whitespace only) = %v, want nil", got)
	}
}

func TestPageLineClustering(t *testing.T) {
	// Same line despite a small y wobble; ordered by x, not input order.
	runs := []Run{
		{Text: "world.", X: 50, Y: 99.5},
		{Text: "Hello", X: 10, Y: 100.4},
	}
	got := Page(runs, Options{})
	want := []string{"Hello world."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Page() = %v, want %v", got, want)
	}
}

func TestPageReadingOrder(t *testing.T) {
	// Input order is scrambled; output must follow top-down, left-right.
	runs := []Run{
		{Text: "line.", X: 40, Y: 88},
		{Text: "First line,", X: 10, Y: 100},
		{Text: "second", X: 10, Y: 88},
		{Text: "then the", X: 80, Y: 100},
	}
	got := Page(runs, Options{})
	want := []string{"First line, then the second line."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Page() = %v, want %v", got, want)
	}
}

func TestPageParagraphBreak(t *testing.T) {
	// Gaps of 12 establish the median; the 30-point gap exceeds 1.65x12
	// and starts a new paragraph.
	runs := []Run{
		{Text: "The first paragraph starts here", X: 10, Y: 100},
		{Text: "and continues on the next line.", X: 10, Y: 88},
		{Text: "It keeps going a little further.", X: 10, Y: 76},
		{Text: "A second paragraph begins after the gap.", X: 10, Y: 46},
	}
	got := Page(runs, Options{})
	want := []string{
		"The first paragraph starts here and continues on the next line. It keeps going a little further.",
		"A second paragraph begins after the gap.",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Page() = %v, want %v", got, want)
	}
}

func TestPageDehyphenation(t *testing.T) {
	runs := []Run{
		{Text: "The market acceler-", X: 10, Y: 100},
		{Text: "ated rapidly last year.", X: 10, Y: 88},
	}
	got := Page(runs, Options{})
	want := []string{"The market accelerated rapidly last year."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Page() = %v, want %v", got, want)
	}
}

func TestPageHyphenBeforeUppercaseKept(t *testing.T) {
	// A hyphen before an uppercase continuation is a real compound, not a
	// line-break artifact.
	runs := []Run{
		{Text: "The Alsace-", X: 10, Y: 100},
		{Text: "Lorraine region borders the river.", X: 10, Y: 88},
	}
	got := Page(runs, Options{})
	want := []string{"The Alsace- Lorraine region borders the river."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Page() = %v, want %v", got, want)
	}
}

func TestAppendTokenPunctuation(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"no space after opening", []string{"see (", "figure 3"}, "see (figure 3"},
		{"no space before closing", []string{"done", ")", ". Next"}, "done). Next"},
		{"no space before comma", []string{"first", ", second"}, "first, second"},
		{"regular join", []string{"plain", "words"}, "plain words"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := make([]Run, len(tt.tokens))
			for i, tok := range tt.tokens {
				runs[i] = Run{Text: tok, X: float64(i * 10), Y: 100}
			}
			got := Page(runs, Options{})
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("Page() = %v, want [%q]", got, tt.want)
			}
		})
	}
}

func TestMedianGapFallback(t *testing.T) {
	// A single line has no gaps; the paragraph threshold comes from the
	// default gap and the lone line survives as one paragraph.
	runs := []Run{{Text: "Only one line on this page.", X: 10, Y: 100}}
	got := Page(runs, Options{})
	want := []string{"Only one line on this page."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Page() = %v, want %v", got, want)
	}
}

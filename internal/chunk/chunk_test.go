package chunk

import (
	"reflect"
	"strings"
	"testing"

	"github.com/narratext/narratext/internal/entity"
)

func candidates(n, textLen int) []entity.ParagraphCandidate {
	out := make([]entity.ParagraphCandidate, n)
	for i := range out {
		out[i] = entity.ParagraphCandidate{
			ID:         entity.CandidateID(1, i+1),
			PageNumber: 1,
			Text:       strings.Repeat("x", textLen),
		}
	}
	return out
}

func TestSplitEmpty(t *testing.T) {
	if got := Split(nil, 1000); got != nil {
		t.Fatalf("Split(nil) = %v, want nil", got)
	}
}

func TestSplitPacksGreedily(t *testing.T) {
	// Cost per item is 50+64=114; two fit in 250, a third does not.
	chunks := Split(candidates(5, 50), 250)
	wantSizes := []int{2, 2, 1}
	if len(chunks) != len(wantSizes) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(wantSizes))
	}
	for i, c := range chunks {
		if len(c.Candidates) != wantSizes[i] {
			t.Fatalf("chunk %d has %d candidates, want %d", i, len(c.Candidates), wantSizes[i])
		}
		if c.Index != i || c.Total != len(wantSizes) {
			t.Fatalf("chunk %d labeled (%d,%d), want (%d,%d)", i, c.Index, c.Total, i, len(wantSizes))
		}
	}
}

func TestSplitNeverSplitsACandidate(t *testing.T) {
	// Each item exceeds the budget on its own; every chunk still holds one
	// whole candidate.
	chunks := Split(candidates(3, 500), 100)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if len(c.Candidates) != 1 {
			t.Fatalf("chunk %d has %d candidates, want 1", i, len(c.Candidates))
		}
	}
}

func TestSplitPreservesOrder(t *testing.T) {
	cands := candidates(7, 100)
	chunks := Split(cands, 400)
	var flat []entity.ParagraphCandidate
	for _, c := range chunks {
		if len(c.Candidates) == 0 {
			t.Fatal("empty chunk produced")
		}
		flat = append(flat, c.Candidates...)
	}
	if !reflect.DeepEqual(flat, cands) {
		t.Fatalf("flattened chunks differ from input order")
	}
}

func TestSplitDeterministic(t *testing.T) {
	cands := candidates(20, 300)
	a := Split(cands, 1000)
	b := Split(cands, 1000)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical input produced different chunkings")
	}
}

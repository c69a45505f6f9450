// Package rows finalizes extraction rows: exact-duplicate removal within one
// document and dense reindexing. This is the last step before rows leave the
// pipeline.
package rows

import (
	"github.com/narratext/narratext/internal/entity"
	"github.com/narratext/narratext/internal/filter"
)

// Dedupe removes exact duplicates (whitespace-normalized paragraph text)
// within one document's rows, then reassigns ParagraphIndex as a dense
// 1-based sequence in the surviving order. Rows with empty paragraph text
// are placeholders and are always kept. Running Dedupe on its own output is
// a no-op.
func Dedupe(in []entity.ExtractionRow) []entity.ExtractionRow {
	seen := make(map[string]struct{}, len(in))
	out := make([]entity.ExtractionRow, 0, len(in))
	for _, r := range in {
		key := filter.NormalizeSpace(r.Paragraph)
		if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, r)
	}
	for i := range out {
		out[i].ParagraphIndex = i + 1
	}
	return out
}

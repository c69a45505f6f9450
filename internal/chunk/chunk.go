// Package chunk groups paragraph candidates into LLM-request-sized batches.
package chunk

import (
	"github.com/narratext/narratext/constants"
	"github.com/narratext/narratext/internal/entity"
)

// Chunk is an ordered, non-empty sequence of candidates whose serialized
// size fits the budget. Index and Total exist for logging only.
type Chunk struct {
	Candidates []entity.ParagraphCandidate `json:"candidates"`
	Index      int                         `json:"index"`
	Total      int                         `json:"total"`
}

// Cost estimates the serialized size of one candidate: its text plus a fixed
// envelope overhead for the id and JSON punctuation.
func Cost(c entity.ParagraphCandidate) int {
	return len(c.Text) + constants.ChunkItemOverhead
}

// Split greedily bin-packs candidates in order. A candidate is never split
// across chunks, no chunk is empty, and boundaries depend only on
// accumulated size, so identical input always yields identical chunks.
func Split(cands []entity.ParagraphCandidate, budget int) []Chunk {
	if len(cands) == 0 {
		return nil
	}
	if budget <= 0 {
		budget = constants.ChunkBudget
	}

	var chunks []Chunk
	var cur []entity.ParagraphCandidate
	size := 0
	for _, c := range cands {
		cost := Cost(c)
		if len(cur) > 0 && size+cost > budget {
			chunks = append(chunks, Chunk{Candidates: cur})
			cur = nil
			size = 0
		}
		cur = append(cur, c)
		size += cost
	}
	chunks = append(chunks, Chunk{Candidates: cur})

	for i := range chunks {
		chunks[i].Index = i
		chunks[i].Total = len(chunks)
	}
	return chunks
}

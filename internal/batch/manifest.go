// Package batch builds request manifests for the asynchronous bulk API and
// reconciles downloaded results against them, possibly in a different
// process than the one that submitted. The manifest is the only record
// linking custom ids back to documents, chunks, and pages; it must
// round-trip through JSON losslessly.
package batch

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/narratext/narratext/internal/chunk"
	"github.com/narratext/narratext/internal/filter"
)

// TaskKind discriminates the task union.
type TaskKind string

const (
	TaskTextFilter TaskKind = "text_filter"
	TaskVisionPage TaskKind = "vision_page"
)

// Task is one submitted request. Kind selects the populated variant:
// text_filter carries the chunk (with its candidates, so results can be
// matched back to text), vision_page carries the page coordinates.
type Task struct {
	CustomID  string   `json:"custom_id"`
	FileIndex int      `json:"file_index"`
	Kind      TaskKind `json:"kind"`

	// text_filter
	Chunk       *chunk.Chunk `json:"chunk,omitempty"`
	ChunkIndex  int          `json:"chunk_index,omitempty"`
	TotalChunks int          `json:"total_chunks,omitempty"`

	// vision_page
	PageNumber int `json:"page_number,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// FilePlan records one document's place in the batch.
type FilePlan struct {
	Name       string   `json:"name"`
	Mode       TaskKind `json:"mode"`
	TotalPages int      `json:"total_pages"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Manifest is the durable record correlating submitted requests to their
// origin. It persists from submission until the user discards it or imports
// results, surviving process restarts.
type Manifest struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Model     string                 `json:"model"`
	Quality   filter.QualitySettings `json:"quality"`
	Files     []FilePlan             `json:"files"`
	Tasks     []Task                 `json:"tasks"`
}

// CustomID encodes (fileIndex, kind, taskIndex) for origin-independent
// matching: f<fileIndex>-<kind>-<taskIndex>.
func CustomID(fileIndex int, kind TaskKind, taskIndex int) string {
	return fmt.Sprintf("f%d-%s-%d", fileIndex, kind, taskIndex)
}

var reCustomID = regexp.MustCompile(`^f(\d+)-(text_filter|vision_page)-(\d+)$`)

// ParseCustomID decodes a custom id back into its coordinates.
func ParseCustomID(id string) (fileIndex int, kind TaskKind, taskIndex int, err error) {
	m := reCustomID.FindStringSubmatch(id)
	if m == nil {
		return 0, "", 0, fmt.Errorf("malformed custom id %q", id)
	}
	fileIndex, _ = strconv.Atoi(m[1])
	taskIndex, _ = strconv.Atoi(m[3])
	return fileIndex, TaskKind(m[2]), taskIndex, nil
}

package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/narratext/narratext/constants"
	"github.com/narratext/narratext/internal/chunk"
	"github.com/narratext/narratext/internal/common"
	"github.com/narratext/narratext/internal/filter"
	"github.com/narratext/narratext/internal/llm"
	"github.com/narratext/narratext/internal/pipeline"
	"github.com/narratext/narratext/internal/segment"
)

// BuildOptions tune manifest construction. Zero ceilings use the API limits.
type BuildOptions struct {
	Model       string
	Temperature float32
	Quality     filter.QualitySettings
	ChunkBudget int
	Segment     segment.Options
	Repeat      filter.RepeatOptions

	MaxRequests int
	MaxBytes    int
}

// BuildResult pairs the manifest with the newline-delimited request payload.
// The caller must persist the manifest before submitting the payload.
type BuildResult struct {
	Manifest *Manifest
	Requests []byte // JSONL, one request line per task, trailing newline
}

// requestLine is the bulk-API framing around one chat body.
type requestLine struct {
	CustomID string         `json:"custom_id"`
	Method   string         `json:"method"`
	URL      string         `json:"url"`
	Body     map[string]any `json:"body"`
}

// Build runs segmentation, filtering, and chunking for every source exactly
// as the live path would, but emits one request line per chunk or page
// instead of calling the model. Exceeding either ceiling rejects the whole
// build; there is no partial submission.
func Build(ctx context.Context, sources []pipeline.Source, opts BuildOptions, logger *slog.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Model == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "batch build requires a model", common.ErrInvalidInput)
	}
	if len(sources) == 0 {
		return nil, common.NewAppError("CONFIG_ERROR", "batch build requires at least one document", common.ErrInvalidInput)
	}
	maxRequests := opts.MaxRequests
	if maxRequests <= 0 {
		maxRequests = constants.BatchMaxRequests
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = constants.BatchMaxBytes
	}
	quality := opts.Quality.Normalize()
	start := time.Now()

	m := &Manifest{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Model:     opts.Model,
		Quality:   quality,
	}
	var lines []byte

	appendLine := func(task Task, req llm.Request) error {
		line := requestLine{
			CustomID: task.CustomID,
			Method:   "POST",
			URL:      "/v1/chat/completions",
			Body:     llm.BuildChatBody(opts.Model, opts.Temperature, req),
		}
		b, err := json.Marshal(line)
		if err != nil {
			return fmt.Errorf("marshal request line %s: %w", task.CustomID, err)
		}
		m.Tasks = append(m.Tasks, task)
		lines = append(lines, b...)
		lines = append(lines, '\n')
		return nil
	}

	for fileIndex, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := pipeline.Parse(src, opts.Segment, opts.Repeat, logger)
		plan := FilePlan{Name: doc.Name, Mode: TaskTextFilter, TotalPages: doc.TotalPages, Warnings: doc.Warnings}

		if doc.NeedsVisionFallback() {
			plan.Mode = TaskVisionPage
			for page := 1; page <= doc.TotalPages; page++ {
				dataURL, err := src.RenderPage(ctx, page)
				if err != nil {
					return nil, fmt.Errorf("render %s page %d: %w", doc.Name, page, err)
				}
				task := Task{
					CustomID:   CustomID(fileIndex, TaskVisionPage, page-1),
					FileIndex:  fileIndex,
					Kind:       TaskVisionPage,
					PageNumber: page,
					TotalPages: doc.TotalPages,
				}
				req := llm.Request{
					System:       llm.VisionSystemPrompt(quality),
					User:         llm.VisionUserText(page, doc.TotalPages),
					ImageDataURL: dataURL,
					ExpectJSON:   true,
					Schema:       llm.BuildVisionSchema(),
				}
				if err := appendLine(task, req); err != nil {
					return nil, err
				}
			}
		} else {
			chunks := chunk.Split(doc.Paragraphs, opts.ChunkBudget)
			for _, c := range chunks {
				cc := c
				task := Task{
					CustomID:    CustomID(fileIndex, TaskTextFilter, c.Index),
					FileIndex:   fileIndex,
					Kind:        TaskTextFilter,
					Chunk:       &cc,
					ChunkIndex:  c.Index,
					TotalChunks: c.Total,
				}
				req := llm.Request{
					System:     llm.TextSystemPrompt(quality),
					User:       llm.TextUserPayload(c),
					ExpectJSON: true,
					Schema:     llm.BuildTextDecisionSchema(),
				}
				if err := appendLine(task, req); err != nil {
					return nil, err
				}
			}
		}
		m.Files = append(m.Files, plan)
	}

	if len(m.Tasks) == 0 {
		return nil, common.NewAppError("BATCH_EMPTY", "no tasks to submit", common.ErrInvalidInput)
	}
	if len(m.Tasks) > maxRequests {
		logger.Error("batch.build.reject", "reason", "request_count", "tasks", len(m.Tasks), "max", maxRequests)
		return nil, common.NewAppError("BATCH_TOO_LARGE",
			fmt.Sprintf("%d requests exceed the ceiling of %d", len(m.Tasks), maxRequests), common.ErrInvalidInput)
	}
	if len(lines) > maxBytes {
		logger.Error("batch.build.reject", "reason", "byte_size", "bytes", len(lines), "max", maxBytes)
		return nil, common.NewAppError("BATCH_TOO_LARGE",
			fmt.Sprintf("%d bytes exceed the ceiling of %d", len(lines), maxBytes), common.ErrInvalidInput)
	}

	logger.Info("batch.build.ok",
		"batch_id", m.ID,
		"files", len(m.Files),
		"tasks", len(m.Tasks),
		"bytes", len(lines),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &BuildResult{Manifest: m, Requests: lines}, nil
}

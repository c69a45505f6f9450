package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/narratext/narratext/internal/entity"
	"github.com/narratext/narratext/internal/llm"
	"github.com/narratext/narratext/internal/llm/openai"
	"github.com/narratext/narratext/internal/pipeline"
	"github.com/narratext/narratext/internal/rows"
)

// ResultLine is one external result, keyed by custom id: either a response
// envelope around a chat body or an error object.
type ResultLine struct {
	CustomID string          `json:"custom_id"`
	Response *ResultResponse `json:"response,omitempty"`
	Error    *ResultError    `json:"error,omitempty"`
}

// ResultResponse carries the HTTP outcome of one request.
type ResultResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// ResultError is the bulk API's error object.
type ResultError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// usable reports whether the line carries a decodable success.
func (l *ResultLine) usable() bool {
	return l.Response != nil && l.Response.StatusCode/100 == 2 && len(l.Response.Body) > 0
}

// failureMessage synthesizes a descriptive failure for an unusable line:
// explicit error message first, then HTTP status with a body excerpt.
func (l *ResultLine) failureMessage() string {
	if l.Error != nil && l.Error.Message != "" {
		return l.Error.Message
	}
	if l.Response != nil {
		return fmt.Sprintf("HTTP %d: %s", l.Response.StatusCode, bodyExcerpt(l.Response.Body, 160))
	}
	return "no result"
}

func bodyExcerpt(b json.RawMessage, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		s = s[:n] + "..."
	}
	if s == "" {
		return "(empty body)"
	}
	return s
}

// resultLineMaxBytes bounds a single JSONL line; vision request echoes can
// be large but responses stay well under this.
const resultLineMaxBytes = 16 * 1024 * 1024

// ParseResultLines reads a newline-delimited result stream into a map keyed
// by custom id. A nil reader yields an empty map. Lines that fail to decode
// are skipped with a warning; their tasks resolve as missing later.
func ParseResultLines(r io.Reader, logger *slog.Logger) (map[string]ResultLine, error) {
	out := make(map[string]ResultLine)
	if r == nil {
		return out, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), resultLineMaxBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rl ResultLine
		if err := json.Unmarshal([]byte(line), &rl); err != nil {
			logger.Warn("batch.results.bad_line", "line", lineNo, "error", err)
			continue
		}
		if rl.CustomID == "" {
			logger.Warn("batch.results.missing_custom_id", "line", lineNo)
			continue
		}
		out[rl.CustomID] = rl
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read result stream: %w", err)
	}
	return out, nil
}

// Reconcile matches result streams back to the manifest. Every task
// resolves: usable results flow through the same normalizer and quality
// gate as the live path, everything else becomes a placeholder row. Rows
// group by originating document in manifest file order; per-document
// deduplication and the vision nothing-extracted placeholder apply last.
func Reconcile(m *Manifest, output, errStream io.Reader, logger *slog.Logger) ([]entity.ExtractionRow, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	okLines, err := ParseResultLines(output, logger)
	if err != nil {
		return nil, err
	}
	errLines, err := ParseResultLines(errStream, logger)
	if err != nil {
		return nil, err
	}

	perFile := make([][]entity.ExtractionRow, len(m.Files))
	failed := 0
	for _, task := range m.Tasks {
		if task.FileIndex < 0 || task.FileIndex >= len(m.Files) {
			return nil, fmt.Errorf("manifest task %s references unknown file index %d", task.CustomID, task.FileIndex)
		}
		plan := m.Files[task.FileIndex]

		line, found := okLines[task.CustomID]
		if !found {
			line, found = errLines[task.CustomID]
		}

		var taskRows []entity.ExtractionRow
		var taskErr error
		switch {
		case found && line.usable():
			taskRows, taskErr = resolveTask(m, plan.Name, task, line.Response.Body)
		case found:
			taskErr = fmt.Errorf("%s", line.failureMessage())
		default:
			taskErr = fmt.Errorf("no result for %s in output or error stream", task.CustomID)
		}
		if taskErr != nil {
			failed++
			logger.Warn("batch.reconcile.task_failed", "custom_id", task.CustomID, "pdf", plan.Name, "error", taskErr)
			taskRows = []entity.ExtractionRow{fallbackRow(plan.Name, task, taskErr)}
		}
		perFile[task.FileIndex] = append(perFile[task.FileIndex], taskRows...)
	}

	var out []entity.ExtractionRow
	for i, plan := range m.Files {
		docRows := rows.Dedupe(perFile[i])
		if len(docRows) == 0 && plan.Mode == TaskVisionPage {
			docRows = []entity.ExtractionRow{{
				PDFName: plan.Name,
				Notes:   fmt.Sprintf("no narrative text could be extracted from %d page images", plan.TotalPages),
			}}
			docRows[0].ParagraphIndex = 1
		}
		out = append(out, docRows...)
	}

	logger.Info("batch.reconcile.ok",
		"batch_id", m.ID,
		"files", len(m.Files),
		"tasks", len(m.Tasks),
		"failed_tasks", failed,
		"rows", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// resolveTask turns one usable response body into rows for its task kind.
// Batch mode has no retries, so any malformed output is an immediate
// per-task failure.
func resolveTask(m *Manifest, pdfName string, task Task, body json.RawMessage) ([]entity.ExtractionRow, error) {
	content, err := openai.DecodeChatContent(body)
	if err != nil {
		return nil, err
	}
	switch task.Kind {
	case TaskTextFilter:
		if task.Chunk == nil {
			return nil, fmt.Errorf("text_filter task %s has no chunk in manifest", task.CustomID)
		}
		decisions, err := llm.NormalizeTextDecisions(content)
		if err != nil {
			return nil, err
		}
		return pipeline.DecisionRows(pdfName, *task.Chunk, decisions, m.Quality), nil
	case TaskVisionPage:
		decisions, err := llm.NormalizeVisionDecisions(content)
		if err != nil {
			return nil, err
		}
		return pipeline.VisionRows(pdfName, task.PageNumber, decisions, m.Quality), nil
	default:
		return nil, fmt.Errorf("unknown task kind %q for %s", task.Kind, task.CustomID)
	}
}

func fallbackRow(pdfName string, task Task, err error) entity.ExtractionRow {
	row := entity.ExtractionRow{PDFName: pdfName}
	switch task.Kind {
	case TaskVisionPage:
		pg := task.PageNumber
		row.PageNumber = &pg
		row.Notes = fmt.Sprintf("vision extraction failed for page %d: %v", task.PageNumber, err)
	default:
		first, last := "", ""
		if task.Chunk != nil && len(task.Chunk.Candidates) > 0 {
			first = task.Chunk.Candidates[0].ID
			last = task.Chunk.Candidates[len(task.Chunk.Candidates)-1].ID
		}
		row.Notes = fmt.Sprintf("text filter failed for chunk %d/%d (%s..%s): %v",
			task.ChunkIndex+1, task.TotalChunks, first, last, err)
	}
	return row
}

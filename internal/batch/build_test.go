package batch

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/narratext/narratext/internal/common"
	"github.com/narratext/narratext/internal/filter"
	"github.com/narratext/narratext/internal/pipeline"
	"github.com/narratext/narratext/internal/segment"
)

const buildNarrative = "The committee reviewed the annual budget and approved several new infrastructure projects across the region."

type fakeSource struct {
	name  string
	pages [][]segment.Run
}

func (s *fakeSource) Name() string  { return s.name }
func (s *fakeSource) NumPages() int { return len(s.pages) }
func (s *fakeSource) PageRuns(pageNumber int) ([]segment.Run, error) {
	return s.pages[pageNumber-1], nil
}
func (s *fakeSource) RenderPage(ctx context.Context, pageNumber int) (string, error) {
	return "data:image/jpeg;base64,ZmFrZQ==", nil
}
func (s *fakeSource) Close() error { return nil }

func textFakeSource(name string, pageTexts ...string) *fakeSource {
	pages := make([][]segment.Run, len(pageTexts))
	for i, text := range pageTexts {
		pages[i] = []segment.Run{{Text: text, X: 50, Y: 700}}
	}
	return &fakeSource{name: name, pages: pages}
}

func scannedFakeSource(name string, pages int) *fakeSource {
	return &fakeSource{name: name, pages: make([][]segment.Run, pages)}
}

func buildOpts() BuildOptions {
	return BuildOptions{Model: "gpt-4o-mini", Quality: filter.QualitySettings{}}
}

func decodeLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad JSONL line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestBuildTextDocument(t *testing.T) {
	src := textFakeSource("a.pdf", buildNarrative)
	result, err := Build(context.Background(), []pipeline.Source{src}, buildOpts(), slog.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	m := result.Manifest
	if len(m.Files) != 1 || m.Files[0].Mode != TaskTextFilter || m.Files[0].Name != "a.pdf" {
		t.Fatalf("files = %+v", m.Files)
	}
	if len(m.Tasks) != 1 || m.Tasks[0].CustomID != "f0-text_filter-0" {
		t.Fatalf("tasks = %+v", m.Tasks)
	}
	if m.Tasks[0].Chunk == nil || len(m.Tasks[0].Chunk.Candidates) != 1 {
		t.Fatalf("task chunk = %+v", m.Tasks[0].Chunk)
	}

	lines := decodeLines(t, result.Requests)
	if len(lines) != 1 {
		t.Fatalf("got %d request lines, want 1", len(lines))
	}
	line := lines[0]
	if line["custom_id"] != "f0-text_filter-0" || line["method"] != "POST" || line["url"] != "/v1/chat/completions" {
		t.Fatalf("request framing = %v", line)
	}
	body, ok := line["body"].(map[string]any)
	if !ok || body["model"] != "gpt-4o-mini" {
		t.Fatalf("body = %v", line["body"])
	}
}

func TestBuildVisionDocument(t *testing.T) {
	src := scannedFakeSource("scan.pdf", 2)
	result, err := Build(context.Background(), []pipeline.Source{src}, buildOpts(), slog.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	m := result.Manifest
	if m.Files[0].Mode != TaskVisionPage {
		t.Fatalf("mode = %s, want vision_page", m.Files[0].Mode)
	}
	if len(m.Tasks) != 2 {
		t.Fatalf("got %d tasks, want one per page", len(m.Tasks))
	}
	wantIDs := []string{"f0-vision_page-0", "f0-vision_page-1"}
	for i, task := range m.Tasks {
		if task.CustomID != wantIDs[i] || task.PageNumber != i+1 {
			t.Fatalf("task %d = %+v", i, task)
		}
	}
}

func TestBuildMixedDocumentsIndexByFile(t *testing.T) {
	sources := []pipeline.Source{
		textFakeSource("a.pdf", buildNarrative),
		scannedFakeSource("b.pdf", 1),
	}
	result, err := Build(context.Background(), sources, buildOpts(), slog.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	var ids []string
	for _, task := range result.Manifest.Tasks {
		ids = append(ids, task.CustomID)
	}
	want := []string{"f0-text_filter-0", "f1-vision_page-0"}
	if len(ids) != len(want) || ids[0] != want[0] || ids[1] != want[1] {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestBuildRejectsEmpty(t *testing.T) {
	_, err := Build(context.Background(), []pipeline.Source{scannedFakeSource("empty.pdf", 0)}, buildOpts(), slog.Default())
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "BATCH_EMPTY" {
		t.Fatalf("err = %v, want BATCH_EMPTY", err)
	}
}

func TestBuildRejectsTooManyRequests(t *testing.T) {
	opts := buildOpts()
	opts.MaxRequests = 1
	_, err := Build(context.Background(), []pipeline.Source{scannedFakeSource("scan.pdf", 2)}, opts, slog.Default())
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "BATCH_TOO_LARGE" {
		t.Fatalf("err = %v, want BATCH_TOO_LARGE", err)
	}
}

func TestBuildRejectsTooManyBytes(t *testing.T) {
	opts := buildOpts()
	opts.MaxBytes = 64
	_, err := Build(context.Background(), []pipeline.Source{textFakeSource("a.pdf", buildNarrative)}, opts, slog.Default())
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "BATCH_TOO_LARGE" {
		t.Fatalf("err = %v, want BATCH_TOO_LARGE", err)
	}
}

func TestBuildRequiresModel(t *testing.T) {
	_, err := Build(context.Background(), []pipeline.Source{textFakeSource("a.pdf", buildNarrative)}, BuildOptions{}, slog.Default())
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
		t.Fatalf("err = %v, want CONFIG_ERROR", err)
	}
}

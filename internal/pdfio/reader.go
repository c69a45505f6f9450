// Package pdfio adapts the external PDF collaborators: positioned text runs
// via ledongthuc/pdf and page rasterization via go-fitz. The pipeline only
// sees the provider interfaces it declares.
package pdfio

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/narratext/narratext/internal/segment"
)

// Reader yields positioned text runs per page from a PDF's text layer.
type Reader struct {
	f *os.File
	r *pdf.Reader
}

// OpenReader opens the PDF at path for text-run extraction.
func OpenReader(path string) (*Reader, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &Reader{f: f, r: r}, nil
}

// NumPages returns the page count.
func (r *Reader) NumPages() int { return r.r.NumPage() }

// PageRuns returns the positioned runs of one page (1-based). Pages that
// fail to parse yield an error; pages with no text layer yield zero runs.
func (r *Reader) PageRuns(pageNumber int) (runs []segment.Run, err error) {
	defer func() {
		// ledongthuc/pdf panics on some malformed content streams; a broken
		// page surfaces as an error rather than killing the process.
		if rec := recover(); rec != nil {
			runs = nil
			err = fmt.Errorf("page %d: unreadable content stream: %v", pageNumber, rec)
		}
	}()
	page := r.r.Page(pageNumber)
	if page.V.IsNull() {
		return nil, nil
	}
	content := page.Content()
	runs = make([]segment.Run, 0, len(content.Text))
	for _, t := range content.Text {
		runs = append(runs, segment.Run{Text: t.S, X: t.X, Y: t.Y})
	}
	return runs, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	if r.f != nil {
		return r.f.Close()
	}
	return nil
}

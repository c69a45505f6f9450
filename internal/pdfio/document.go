package pdfio

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/narratext/narratext/internal/segment"
)

// Document implements the pipeline's Source over one PDF file. The text-run
// reader opens eagerly; the rasterizer opens lazily, only when the vision
// fallback actually asks for a page image.
type Document struct {
	path     string
	name     string
	reader   *Reader
	renderer *Renderer
}

// Open opens the PDF at path as a pipeline source.
func Open(path string) (*Document, error) {
	reader, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	return &Document{
		path:   path,
		name:   filepath.Base(path),
		reader: reader,
	}, nil
}

// Name returns the file's base name, used as pdf_name in output rows.
func (d *Document) Name() string { return d.name }

// NumPages returns the page count.
func (d *Document) NumPages() int { return d.reader.NumPages() }

// PageRuns returns the positioned text runs of one page (1-based).
func (d *Document) PageRuns(pageNumber int) ([]segment.Run, error) {
	return d.reader.PageRuns(pageNumber)
}

// RenderPage rasterizes one page (1-based) as a JPEG data URL.
func (d *Document) RenderPage(ctx context.Context, pageNumber int) (string, error) {
	if d.renderer == nil {
		r, err := OpenRenderer(d.path)
		if err != nil {
			return "", err
		}
		d.renderer = r
	}
	return d.renderer.RenderPage(ctx, pageNumber)
}

// Close releases both underlying documents.
func (d *Document) Close() error {
	var errs []error
	if d.reader != nil {
		errs = append(errs, d.reader.Close())
	}
	if d.renderer != nil {
		errs = append(errs, d.renderer.Close())
	}
	return errors.Join(errs...)
}

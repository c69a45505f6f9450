// Package export writes extraction rows to XLSX and CSV.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/narratext/narratext/internal/entity"
)

const sheetName = "Paragraphs"

// XLSX renders rows into an XLSX workbook and returns its bytes. Column
// order follows entity.RowColumns; pointer fields render as blank cells
// when absent so spreadsheets distinguish "no page" from page zero.
func XLSX(rows []entity.ExtractionRow, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	if _, err := f.NewSheet(sheetName); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(sheetName)
	if err != nil {
		return nil, fmt.Errorf("locate sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, h := range entity.RowColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for i, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, i+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		write(1, r.PDFName)
		write(2, r.Paragraph)
		write(3, r.ParagraphIndex)
		if r.PageNumber != nil {
			write(4, *r.PageNumber)
		}
		write(5, r.SectionHeading)
		write(6, r.Notes)
		if r.Confidence != nil {
			write(7, *r.Confidence)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 28) // pdf_name
	_ = f.SetColWidth(sheetName, "B", "B", 90) // paragraph
	_ = f.SetColWidth(sheetName, "C", "D", 12) // indexes
	_ = f.SetColWidth(sheetName, "E", "E", 28) // heading
	_ = f.SetColWidth(sheetName, "F", "F", 48) // notes
	_ = f.SetColWidth(sheetName, "G", "G", 12) // confidence

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

package export

import (
	"bytes"
	"encoding/csv"
	"log/slog"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/narratext/narratext/internal/entity"
)

func sampleRows() []entity.ExtractionRow {
	page := 2
	confidence := 0.85
	return []entity.ExtractionRow{
		{
			PDFName:        "report.pdf",
			Paragraph:      "The committee reviewed the annual budget and approved several projects.",
			ParagraphIndex: 1,
			PageNumber:     &page,
			SectionHeading: "Overview",
			Confidence:     &confidence,
		},
		{
			PDFName:        "report.pdf",
			ParagraphIndex: 2,
			Notes:          "text filter failed for chunk 2/2 (p3-1..p4-2): HTTP 500",
		},
	}
}

func TestCSV(t *testing.T) {
	data, err := CSV(sampleRows(), slog.Default())
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}
	if len(records[0]) != len(entity.RowColumns) || records[0][0] != "pdf_name" {
		t.Fatalf("header = %v", records[0])
	}
	if records[1][3] != "2" || records[1][6] != "0.85" {
		t.Fatalf("first row = %v", records[1])
	}
	// Placeholder row: empty page and confidence cells, not zeros.
	if records[2][3] != "" || records[2][6] != "" {
		t.Fatalf("placeholder row = %v", records[2])
	}
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sampleRows(), slog.Default())
	if err != nil {
		t.Fatalf("XLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d sheet rows, want header + 2", len(rows))
	}
	if rows[0][0] != "pdf_name" || rows[0][1] != "paragraph" {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][0] != "report.pdf" || rows[1][4] != "Overview" {
		t.Fatalf("first row = %v", rows[1])
	}
}

func TestCSVEmpty(t *testing.T) {
	data, err := CSV(nil, slog.Default())
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("empty export must still carry the header: %v", records)
	}
}

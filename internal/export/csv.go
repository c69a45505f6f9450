package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/narratext/narratext/internal/entity"
)

// CSV renders rows as UTF-8 CSV with a header line. Absent pointer fields
// become empty cells, matching the XLSX output.
func CSV(rows []entity.ExtractionRow, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(entity.RowColumns); err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for _, r := range rows {
		page := ""
		if r.PageNumber != nil {
			page = strconv.Itoa(*r.PageNumber)
		}
		confidence := ""
		if r.Confidence != nil {
			confidence = strconv.FormatFloat(*r.Confidence, 'f', -1, 64)
		}
		record := []string{
			r.PDFName,
			r.Paragraph,
			strconv.Itoa(r.ParagraphIndex),
			page,
			r.SectionHeading,
			r.Notes,
			confidence,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("csv flush: %w", err)
	}

	logger.Info("export.csv.ok", "rows", len(rows), "bytes", buf.Len())
	return buf.Bytes(), nil
}

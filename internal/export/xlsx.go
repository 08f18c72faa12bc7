package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mkaravas/intake/internal/template"
)

const sheetName = "unified_records"

// XLSXSink writes rows into an Excel workbook at a fixed path, replacing
// any previous file.
type XLSXSink struct {
	path   string
	logger *slog.Logger
}

func NewXLSXSink(path string, logger *slog.Logger) *XLSXSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXSink{path: path, logger: logger}
}

func (s *XLSXSink) Write(ctx context.Context, headers []string, rows []template.Row) (WriteResult, error) {
	start := time.Now()

	f := excelize.NewFile()
	if _, err := f.NewSheet(sheetName); err != nil {
		return WriteResult{}, fmt.Errorf("create sheet: %w", err)
	}
	index, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	// Widen the text-heavy columns.
	_ = f.SetColWidth(sheetName, "A", "C", 14)
	_ = f.SetColWidth(sheetName, "D", "H", 24)
	_ = f.SetColWidth(sheetName, "N", "N", 48)
	_ = f.SetColWidth(sheetName, "P", "Q", 40)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return WriteResult{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := f.SaveAs(s.path); err != nil {
		return WriteResult{}, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"path", s.path,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return WriteResult{RowsWritten: len(rows)}, nil
}

package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mkaravas/intake/internal/template"
)

// CSVSink writes rows as UTF-8 CSV, truncating any previous file at the
// same path.
type CSVSink struct {
	path   string
	logger *slog.Logger
}

func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSink{path: path, logger: logger}
}

func (s *CSVSink) Write(ctx context.Context, headers []string, rows []template.Row) (WriteResult, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return WriteResult{}, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return WriteResult{}, fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return WriteResult{}, fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return WriteResult{}, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return WriteResult{}, fmt.Errorf("flush csv: %w", err)
	}

	s.logger.Info("export.csv.ok", "path", s.path, "rows", len(rows))
	return WriteResult{RowsWritten: len(rows)}, nil
}

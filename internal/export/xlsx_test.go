package export

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("reading sheet: %v", err)
	}
	return rows
}

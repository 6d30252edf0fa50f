package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	input := "\xEF\xBB\xBFQuarterly Export\n" +
		"Customer Name,Amount,Notes\n" +
		"\"Acme, Corp\",1200.50,net 30\n" +
		"Globex,99.95\n" // ragged on purpose

	grid, err := ParseCSV(strings.NewReader(input), 0)
	if err != nil {
		t.Fatalf("ParseCSV() error = %v", err)
	}

	if len(grid) != 4 {
		t.Fatalf("rows = %d, want 4", len(grid))
	}
	if got := grid.Cell(0, 0); got != "Quarterly Export" {
		t.Errorf("cell(0,0) = %q, BOM should be stripped", got)
	}
	if got := grid.Cell(2, 0); got != "Acme, Corp" {
		t.Errorf("cell(2,0) = %q, want quoted comma preserved", got)
	}
	if got := grid.Cell(3, 2); got != "" {
		t.Errorf("cell(3,2) = %q, ragged rows should read empty", got)
	}
}

func TestParseCSVTooLarge(t *testing.T) {
	input := strings.Repeat("a,b,c\n", 100)
	_, err := ParseCSV(strings.NewReader(input), 32)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("error = %v, want ErrFileTooLarge", err)
	}
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""), 0)
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("error = %v, want ErrEmptyFile", err)
	}
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Vendor Billing", "", ""},
		{"Customer Name", "Amount", "Notes"},
		{"Acme Corp", 1200.5, "net 30"},
	})

	grid, err := ParseXLSX(bytes.NewReader(data), 0)
	if err != nil {
		t.Fatalf("ParseXLSX() error = %v", err)
	}

	if len(grid) != 3 {
		t.Fatalf("rows = %d, want 3", len(grid))
	}
	if got := grid.Cell(1, 1); got != "Amount" {
		t.Errorf("cell(1,1) = %q, want %q", got, "Amount")
	}
	if got := grid.Cell(2, 1); got != "1200.5" {
		t.Errorf("cell(2,1) = %q, want %q", got, "1200.5")
	}
}

func TestParseXLSXGarbage(t *testing.T) {
	_, err := ParseXLSX(strings.NewReader("definitely not a zip archive"), 0)
	if err == nil {
		t.Fatal("expected error for non-xlsx bytes")
	}
	if !strings.Contains(err.Error(), "invalid xlsx") {
		t.Errorf("error = %v, want invalid xlsx", err)
	}
}

func TestParseDispatch(t *testing.T) {
	csvData := "a,b\n1,2\n"

	if _, err := Parse("report.csv", strings.NewReader(csvData), 0); err != nil {
		t.Errorf("Parse(.csv) error = %v", err)
	}
	// Extension matching is case-insensitive.
	if _, err := Parse("REPORT.CSV", strings.NewReader(csvData), 0); err != nil {
		t.Errorf("Parse(.CSV) error = %v", err)
	}

	xlsxData := buildWorkbook(t, [][]interface{}{{"a", "b"}})
	if _, err := Parse("report.xlsx", bytes.NewReader(xlsxData), 0); err != nil {
		t.Errorf("Parse(.xlsx) error = %v", err)
	}

	for _, name := range []string{"report.txt", "report", "report.xls"} {
		if _, err := Parse(name, strings.NewReader(csvData), 0); !errors.Is(err, ErrUnsupportedType) {
			t.Errorf("Parse(%q) error = %v, want ErrUnsupportedType", name, err)
		}
	}
}

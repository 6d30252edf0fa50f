package core

import (
	"errors"
	"testing"
)

// cleanGrid is a table that starts at A1 with no decoration.
func cleanGrid() RawGrid {
	return RawGrid{
		{"Customer Name", "Amount", "Date"},
		{"Acme Corp", "1200.00", "2024-01-05"},
		{"Globex", "850.50", "2024-01-06"},
		{"Initech", "99.95", "2024-01-07"},
	}
}

// vendorGrid mimics a real export: title banner, blank spacers, the table,
// then a sparse footnote.
func vendorGrid() RawGrid {
	return RawGrid{
		{"Monthly Revenue Report", "", ""},
		{"Generated 2024-02-01", "", ""},
		{"", "", ""},
		{"Customer Name", "Amount", "Date"},
		{"Acme Corp", "1200.00", "2024-01-05"},
		{"Globex", "850.50", "2024-01-06"},
		{"Initech", "99.95", "2024-01-07"},
		{"", "", ""},
		{"", "", "Notes: preliminary figures"},
	}
}

// ----------------------------------------------------------------------------
// DetectTable Tests
// ----------------------------------------------------------------------------

func TestDetectTable_CleanGrid(t *testing.T) {
	table, err := DetectTable(cleanGrid(), DetectorOptions{})
	if err != nil {
		t.Fatalf("DetectTable failed: %v", err)
	}

	want := DetectedTable{HeaderRow: 0, DataStart: 1, DataEnd: 4, ColumnCount: 3}
	if table != want {
		t.Errorf("DetectTable = %+v, want %+v", table, want)
	}
}

func TestDetectTable_SkipsBannerRows(t *testing.T) {
	table, err := DetectTable(vendorGrid(), DetectorOptions{})
	if err != nil {
		t.Fatalf("DetectTable failed: %v", err)
	}

	if table.HeaderRow != 3 {
		t.Errorf("HeaderRow = %d, want 3 (below the banner)", table.HeaderRow)
	}
	if table.DataStart != 4 || table.DataEnd != 7 {
		t.Errorf("data range = [%d, %d), want [4, 7) excluding the footnote", table.DataStart, table.DataEnd)
	}
	if table.DataRows() != 3 {
		t.Errorf("DataRows = %d, want 3", table.DataRows())
	}
}

func TestDetectTable_StopsAtSparseFooter(t *testing.T) {
	grid := append(cleanGrid(),
		[]string{"", "", ""},
		[]string{"Notes: excludes refunds", "", ""},
	)

	table, err := DetectTable(grid, DetectorOptions{})
	if err != nil {
		t.Fatalf("DetectTable failed: %v", err)
	}
	if table.DataEnd != 4 {
		t.Errorf("DataEnd = %d, want 4 (footer excluded)", table.DataEnd)
	}
}

func TestDetectTable_EarliestQualifyingRowWins(t *testing.T) {
	// Two complete tables separated by a blank row; the data range of the
	// first ends at the blank, and the second block is never considered.
	grid := append(cleanGrid(), []string{"", "", ""})
	grid = append(grid, cleanGrid()...)

	table, err := DetectTable(grid, DetectorOptions{})
	if err != nil {
		t.Fatalf("DetectTable failed: %v", err)
	}
	if table.HeaderRow != 0 || table.DataEnd != 4 {
		t.Errorf("table = %+v, want the first block only", table)
	}
}

func TestDetectTable_PrefersHeaderDirectlyAboveData(t *testing.T) {
	// Row 0 is header-shaped but sits on another text row; only row 1 has
	// typed values beneath it.
	grid := RawGrid{
		{"Region", "Owner", "Code"},
		{"Customer Name", "Amount", "Date"},
		{"Acme Corp", "1200.00", "2024-01-05"},
		{"Globex", "850.50", "2024-01-06"},
	}

	table, err := DetectTable(grid, DetectorOptions{})
	if err != nil {
		t.Fatalf("DetectTable failed: %v", err)
	}
	if table.HeaderRow != 1 {
		t.Errorf("HeaderRow = %d, want 1", table.HeaderRow)
	}
}

func TestDetectTable_RaggedRows(t *testing.T) {
	// Short rows are treated as padded with empty cells.
	grid := RawGrid{
		{"Customer Name", "Amount", "Date"},
		{"Acme Corp", "1200.00", "2024-01-05"},
		{"Globex", "850.50"},
		{"Initech", "99.95", "2024-01-07"},
	}

	table, err := DetectTable(grid, DetectorOptions{})
	if err != nil {
		t.Fatalf("DetectTable failed: %v", err)
	}
	if table.DataEnd != 4 {
		t.Errorf("DataEnd = %d, want 4 (ragged row kept)", table.DataEnd)
	}
}

func TestDetectTable_NoTableFound(t *testing.T) {
	tests := []struct {
		name string
		grid RawGrid
	}{
		{"empty grid", RawGrid{}},
		{"rows of empty cells", RawGrid{{"", ""}, {"", ""}}},
		{"sparse prose", RawGrid{
			{"Quarterly summary", "", ""},
			{"Prepared by finance", "", ""},
			{"Draft", "", ""},
		}},
		{"numbers only", RawGrid{
			{"1", "2", "3"},
			{"4", "5", "6"},
			{"7", "8", "9"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DetectTable(tt.grid, DetectorOptions{})
			if !errors.Is(err, ErrNoTableFound) {
				t.Errorf("DetectTable error = %v, want ErrNoTableFound", err)
			}
		})
	}
}

func TestDetectTable_InsufficientData(t *testing.T) {
	grid := RawGrid{
		{"Customer Name", "Amount", "Date"},
		{"Acme Corp", "1200.00", "2024-01-05"},
	}

	_, err := DetectTable(grid, DetectorOptions{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("DetectTable error = %v, want ErrInsufficientData", err)
	}
}

func TestDetectTable_HeaderSearchDepthCapped(t *testing.T) {
	grid := make(RawGrid, 0, 24)
	for i := 0; i < 21; i++ {
		grid = append(grid, []string{"", "", ""})
	}
	grid = append(grid, cleanGrid()...)

	// The table starts at row 21, one past the default scan depth.
	_, err := DetectTable(grid, DetectorOptions{})
	if err == nil {
		t.Fatal("DetectTable found a table beyond the search depth")
	}

	table, err := DetectTable(grid, DetectorOptions{MaxHeaderSearchRows: 30})
	if err != nil {
		t.Fatalf("DetectTable failed with deeper scan: %v", err)
	}
	if table.HeaderRow != 21 {
		t.Errorf("HeaderRow = %d, want 21", table.HeaderRow)
	}
}

// ----------------------------------------------------------------------------
// ExtractCandidates Tests
// ----------------------------------------------------------------------------

func TestExtractCandidates(t *testing.T) {
	table, err := DetectTable(vendorGrid(), DetectorOptions{})
	if err != nil {
		t.Fatalf("DetectTable failed: %v", err)
	}

	candidates := ExtractCandidates(vendorGrid(), table, 2)
	if len(candidates) != 3 {
		t.Fatalf("got %d candidates, want 3", len(candidates))
	}

	first := candidates[0]
	if first.RawHeader != "Customer Name" || first.ColumnIndex != 0 {
		t.Errorf("first candidate = %+v", first)
	}
	if len(first.SampleValues) != 2 || first.SampleValues[0] != "Acme Corp" {
		t.Errorf("sample values = %v, want first two data cells", first.SampleValues)
	}
}

func TestExtractCandidates_SkipsEmptyHeaderCells(t *testing.T) {
	grid := RawGrid{
		{"Customer Name", "", "Date"},
		{"Acme Corp", "1200.00", "2024-01-05"},
		{"Globex", "850.50", "2024-01-06"},
	}
	table := DetectedTable{HeaderRow: 0, DataStart: 1, DataEnd: 3, ColumnCount: 2}

	candidates := ExtractCandidates(grid, table, 5)
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[1].ColumnIndex != 2 {
		t.Errorf("second candidate column = %d, want 2 (gap preserved)", candidates[1].ColumnIndex)
	}
}

func TestExtractCandidates_SkipsEmptyDataCells(t *testing.T) {
	grid := RawGrid{
		{"Customer Name", "Amount"},
		{"Acme Corp", ""},
		{"", "850.50"},
		{"Initech", "99.95"},
	}
	table := DetectedTable{HeaderRow: 0, DataStart: 1, DataEnd: 4, ColumnCount: 2}

	candidates := ExtractCandidates(grid, table, 5)
	if got := candidates[0].SampleValues; len(got) != 2 || got[0] != "Acme Corp" || got[1] != "Initech" {
		t.Errorf("samples = %v, want non-empty cells only", got)
	}
}

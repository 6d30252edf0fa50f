package core

// detect.go locates the tabular region inside a raw spreadsheet grid.
//
// Vendor exports rarely start at A1: title banners, export timestamps, and
// blank spacer rows precede the real table, and footers with totals or
// notes trail it. The detector profiles every row (how full it is, what
// kinds of values it holds) and looks for the signature of a header: a
// dense, text-dominated row sitting on top of a block of rows whose cells
// parse as typed values.
//
// Detection is pure: same grid and options in, same region out.

import (
	"github.com/montanaflynn/stats"
)

// DetectorOptions tunes the header scan and data range extension.
// Zero fields fall back to the defaults.
type DetectorOptions struct {
	// MaxHeaderSearchRows caps how deep the header scan goes.
	MaxHeaderSearchRows int

	// MinDataRows is the minimum number of data rows below the header.
	MinDataRows int

	// MinHeaderDensity is the minimum non-empty cell fraction for a
	// header row. Title banners in one cell of a wide grid fall below it.
	MinHeaderDensity float64

	// MinHeaderTextRatio is the minimum fraction of text cells among the
	// header row's non-empty cells.
	MinHeaderTextRatio float64

	// MinDataDensity is the non-empty fraction below which a row ends the
	// data range. Footnotes and spacer rows fall below it.
	MinDataDensity float64

	// MinDataTypedRatio is the minimum mean fraction of typed (numeric,
	// date, boolean) cells across the leading data rows. This is what
	// separates a header-over-data from a banner-over-more-text.
	MinDataTypedRatio float64

	// MaxSampleValues is how many sample cell values to keep per column.
	MaxSampleValues int
}

// DefaultDetectorOptions returns the standard detection tuning.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		MaxHeaderSearchRows: 20,
		MinDataRows:         2,
		MinHeaderDensity:    0.6,
		MinHeaderTextRatio:  0.6,
		MinDataDensity:      0.4,
		MinDataTypedRatio:   0.35,
		MaxSampleValues:     5,
	}
}

func (o DetectorOptions) withDefaults() DetectorOptions {
	def := DefaultDetectorOptions()
	if o.MaxHeaderSearchRows <= 0 {
		o.MaxHeaderSearchRows = def.MaxHeaderSearchRows
	}
	if o.MinDataRows <= 0 {
		o.MinDataRows = def.MinDataRows
	}
	if o.MinHeaderDensity <= 0 {
		o.MinHeaderDensity = def.MinHeaderDensity
	}
	if o.MinHeaderTextRatio <= 0 {
		o.MinHeaderTextRatio = def.MinHeaderTextRatio
	}
	if o.MinDataDensity <= 0 {
		o.MinDataDensity = def.MinDataDensity
	}
	if o.MinDataTypedRatio <= 0 {
		o.MinDataTypedRatio = def.MinDataTypedRatio
	}
	if o.MaxSampleValues <= 0 {
		o.MaxSampleValues = def.MaxSampleValues
	}
	return o
}

// rowProfile summarizes one row's shape for the header scan.
type rowProfile struct {
	width    int
	nonEmpty int
	text     int
	typed    int
}

// density is the non-empty fraction over the full grid width, so a lone
// title cell in a wide grid scores low.
func (p rowProfile) density() float64 {
	if p.width == 0 {
		return 0
	}
	return float64(p.nonEmpty) / float64(p.width)
}

// textRatio is the text fraction among non-empty cells.
func (p rowProfile) textRatio() float64 {
	if p.nonEmpty == 0 {
		return 0
	}
	return float64(p.text) / float64(p.nonEmpty)
}

// typedRatio is the parsed-value fraction among non-empty cells.
func (p rowProfile) typedRatio() float64 {
	if p.nonEmpty == 0 {
		return 0
	}
	return float64(p.typed) / float64(p.nonEmpty)
}

func profileRow(row []string, width int) rowProfile {
	p := rowProfile{width: width}
	for col := 0; col < width; col++ {
		var cell string
		if col < len(row) {
			cell = row[col]
		}
		switch ClassifyCell(cell) {
		case KindEmpty:
		case KindText:
			p.nonEmpty++
			p.text++
		default:
			p.nonEmpty++
			p.typed++
		}
	}
	return p
}

// DetectTable scans the grid for its tabular region: the header row plus
// the contiguous data rows beneath it.
//
// The earliest row that qualifies wins. A row qualifies as the header when
// its density and text ratio clear the thresholds and at least MinDataRows
// rows follow whose mean density holds up and whose mean typed-cell ratio
// says "values, not more prose". The data range then extends downward
// until density falls below MinDataDensity or the grid ends.
//
// Returns ErrNoTableFound when no row qualifies, and ErrInsufficientData
// when a header-shaped row exists but too few data rows sit under it.
func DetectTable(grid RawGrid, opts DetectorOptions) (DetectedTable, error) {
	opts = opts.withDefaults()

	width := grid.Width()
	if len(grid) == 0 || width == 0 {
		return DetectedTable{}, ErrNoTableFound
	}

	profiles := make([]rowProfile, len(grid))
	for i, row := range grid {
		profiles[i] = profileRow(row, width)
	}

	scan := len(grid)
	if scan > opts.MaxHeaderSearchRows {
		scan = opts.MaxHeaderSearchRows
	}

	shortCandidate := false
	for i := 0; i < scan; i++ {
		p := profiles[i]
		if p.density() < opts.MinHeaderDensity || p.textRatio() < opts.MinHeaderTextRatio {
			continue
		}

		dataStart := i + 1
		dataEnd := extendDataRange(profiles, dataStart, opts.MinDataDensity)
		rows := dataEnd - dataStart

		if rows < opts.MinDataRows {
			// Header-shaped row without enough data under it. Remember the
			// near miss so an empty scan reports the right failure.
			if rows == 0 || meanTypedRatio(profiles[dataStart:dataEnd]) >= opts.MinDataTypedRatio {
				shortCandidate = true
			}
			continue
		}

		lead := profiles[dataStart : dataStart+opts.MinDataRows]
		if meanDensity(lead) < opts.MinDataDensity {
			continue
		}
		if meanTypedRatio(lead) < opts.MinDataTypedRatio {
			continue
		}

		return DetectedTable{
			HeaderRow:   i,
			DataStart:   dataStart,
			DataEnd:     dataEnd,
			ColumnCount: p.nonEmpty,
		}, nil
	}

	if shortCandidate {
		return DetectedTable{}, ErrInsufficientData
	}
	return DetectedTable{}, ErrNoTableFound
}

// extendDataRange walks downward from start until a row's density falls
// below the floor. Returns the exclusive end index.
func extendDataRange(profiles []rowProfile, start int, floor float64) int {
	end := start
	for end < len(profiles) && profiles[end].density() >= floor {
		end++
	}
	return end
}

func meanDensity(profiles []rowProfile) float64 {
	return meanOf(profiles, rowProfile.density)
}

func meanTypedRatio(profiles []rowProfile) float64 {
	return meanOf(profiles, rowProfile.typedRatio)
}

func meanOf(profiles []rowProfile, f func(rowProfile) float64) float64 {
	if len(profiles) == 0 {
		return 0
	}
	values := make([]float64, len(profiles))
	for i, p := range profiles {
		values[i] = f(p)
	}
	m, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// ExtractCandidates pulls one candidate per non-empty header cell in the
// detected region, with up to maxSamples leading non-empty data values
// for resolution display.
func ExtractCandidates(grid RawGrid, table DetectedTable, maxSamples int) []ColumnCandidate {
	if maxSamples <= 0 {
		maxSamples = DefaultDetectorOptions().MaxSampleValues
	}

	width := grid.Width()
	candidates := make([]ColumnCandidate, 0, table.ColumnCount)

	for col := 0; col < width; col++ {
		header := CleanCell(grid.Cell(table.HeaderRow, col))
		if header == "" {
			continue
		}

		cand := ColumnCandidate{RawHeader: header, ColumnIndex: col}
		for row := table.DataStart; row < table.DataEnd && len(cand.SampleValues) < maxSamples; row++ {
			if v := CleanCell(grid.Cell(row, col)); v != "" {
				cand.SampleValues = append(cand.SampleValues, v)
			}
		}
		candidates = append(candidates, cand)
	}

	return candidates
}

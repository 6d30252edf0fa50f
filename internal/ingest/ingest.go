// Package ingest parses uploaded spreadsheet files into raw cell grids.
//
// Supported inputs are .csv (BOM-skipping, UTF-8-sanitizing, lazy-quoted)
// and .xlsx (first worksheet). Parsing enforces a byte budget but makes no
// judgement about the grid's content; table detection owns that.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/reconcile/internal/core"
)

// DefaultMaxFileBytes caps uploads when the caller does not configure one.
const DefaultMaxFileBytes int64 = 100 * 1024 * 1024

// Error texts feed the user-facing error taxonomy; change them in step
// with the FILE message patterns.
var (
	ErrNoFile          = errors.New("no file provided")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyFile       = errors.New("empty file")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Parse dispatches on the file extension and returns the parsed grid.
// maxBytes of zero applies DefaultMaxFileBytes.
func Parse(fileName string, r io.Reader, maxBytes int64) (core.RawGrid, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return ParseCSV(r, maxBytes)
	case ".xlsx":
		return ParseXLSX(r, maxBytes)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

// ParseCSV streams a CSV file into a grid. Rows may be ragged; quoting is
// lazy because spreadsheet exports routinely violate RFC 4180.
func ParseCSV(r io.Reader, maxBytes int64) (core.RawGrid, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	cr := csv.NewReader(WrapReader(r, maxBytes))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	return core.RawGrid(records), nil
}

// ParseXLSX reads the first worksheet of an XLSX workbook into a grid.
// The file is buffered in full; the format is a zip archive and cannot be
// row-streamed, so the byte cap is the memory bound.
func ParseXLSX(r io.Reader, maxBytes int64) (core.RawGrid, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	data, err := io.ReadAll(NewCappedReader(r, maxBytes))
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return core.RawGrid(rows), nil
}

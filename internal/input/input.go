// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package input reads disease names from one column of a spreadsheet
// exported as CSV or TSV.
package input

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ConfigError reports an input setting that makes extraction impossible.
// It is raised before any network activity.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// Column is the extracted content of one spreadsheet column.
type Column struct {
	// Header is the cell just above the first data row, or "" when data
	// starts on row 1.
	Header string
	Values []string
}

// ColumnIndex converts a column letter designator ("A", "o", "AA") to a
// zero-based index.
func ColumnIndex(letters string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(letters))
	if s == "" {
		return 0, &ConfigError{Field: "column", Msg: "empty column designator"}
	}
	idx := 0
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return 0, &ConfigError{Field: "column", Msg: fmt.Sprintf("%q is not a column letter designator", letters)}
		}
		idx = idx*26 + int(r-'A'+1)
		if idx > 1<<20 {
			return 0, &ConfigError{Field: "column", Msg: fmt.Sprintf("%q is out of range", letters)}
		}
	}
	return idx - 1, nil
}

// ReadColumn reads the non-empty trimmed values of column from path,
// starting at the 1-based startRow. Files ending in .csv are comma
// separated; .tsv and .txt are tab separated.
func ReadColumn(path, column string, startRow int) (Column, error) {
	col, err := ColumnIndex(column)
	if err != nil {
		return Column{}, err
	}
	if startRow < 1 {
		return Column{}, &ConfigError{Field: "start_row", Msg: fmt.Sprintf("must be at least 1, got %d", startRow)}
	}

	var comma rune
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		comma = ','
	case ".tsv", ".txt":
		comma = '\t'
	default:
		return Column{}, &ConfigError{Field: "input", Msg: fmt.Sprintf("unsupported file type %q: export the sheet as .csv or .tsv", filepath.Ext(path))}
	}

	f, err := os.Open(path)
	if err != nil {
		return Column{}, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	return readColumn(f, comma, col, column, startRow)
}

func readColumn(r io.Reader, comma rune, col int, designator string, startRow int) (Column, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var out Column
	widest := 0
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Column{}, fmt.Errorf("reading input row %d: %w", row, err)
		}
		widest = max(widest, len(rec))
		if col >= len(rec) {
			continue
		}
		cell := strings.TrimSpace(rec[col])
		switch {
		case row == startRow-1:
			out.Header = cell
		case row >= startRow && cell != "":
			out.Values = append(out.Values, cell)
		}
	}

	if col >= widest {
		return Column{}, &ConfigError{
			Field: "column",
			Msg:   fmt.Sprintf("column %s not present (sheet has %d columns)", strings.ToUpper(strings.TrimSpace(designator)), widest),
		}
	}
	return out, nil
}

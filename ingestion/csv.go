package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// table is a parsed CSV file with a header row.
type table struct {
	columns map[string]int
	header  []string
	rows    [][]string
}

// readTable reads a CSV document. Header names are trimmed and lower-cased so
// column lookup is case-insensitive. Rows may have fewer or more fields than the header.
func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &table{columns: map[string]int{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	t := &table{columns: make(map[string]int, len(header)), header: make([]string, len(header))}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		t.header[i] = name
		if _, dup := t.columns[name]; !dup {
			t.columns[name] = i
		}
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(t.rows)+2, err)
		}
		t.rows = append(t.rows, record)
	}
	return t, nil
}

// columnsOf returns the index of each named column and the names the header lacks.
func (t *table) columnsOf(names ...string) ([]int, []string) {
	idx := make([]int, len(names))
	var missing []string
	for i, name := range names {
		col, ok := t.columns[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		idx[i] = col
	}
	return idx, missing
}

// field returns the trimmed value at col and whether the row has it.
func field(row []string, col int) (string, bool) {
	if col >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[col]), true
}

// extras collects every non-required column of row.
func (t *table) extras(row []string, skip ...int) map[string]string {
	var out map[string]string
	for i, name := range t.header {
		if i >= len(row) || name == "" || slices.Contains(skip, i) {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = row[i]
	}
	return out
}


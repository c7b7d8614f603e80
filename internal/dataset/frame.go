// Package dataset loads the raw housing observations into an in-memory Frame.
//
// A Frame keeps every cell as text exactly as the source rendered it. Type
// coercion belongs to the feature schema so that training and inference share
// one set of rules.
package dataset

import (
	"fmt"
	"strings"
)

// Frame is a rectangular table of raw cells with a header row
type Frame struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewFrame validates the header and pads or truncates rows to its width
func NewFrame(columns []string, rows [][]string) (*Frame, error) {
	header := make([]string, len(columns))
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		name := strings.TrimSpace(c)
		if name == "" {
			return nil, fmt.Errorf("dataset: empty column name at position %d", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("dataset: duplicate column %q", name)
		}
		header[i] = name
		index[name] = i
	}

	width := len(header)
	normalized := make([][]string, 0, len(rows))
	for _, r := range rows {
		if isBlank(r) {
			continue
		}
		row := make([]string, width)
		copy(row, r)
		normalized = append(normalized, row)
	}

	return &Frame{Columns: header, Rows: normalized, index: index}, nil
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Index returns the position of a column or -1
func (f *Frame) Index(column string) int {
	if f.index != nil {
		if i, ok := f.index[column]; ok {
			return i
		}
		return -1
	}
	for i, c := range f.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Has reports whether the column exists
func (f *Frame) Has(column string) bool {
	return f.Index(column) >= 0
}

// Column returns a copy of every cell of one column
func (f *Frame) Column(column string) ([]string, error) {
	i := f.Index(column)
	if i < 0 {
		return nil, fmt.Errorf("dataset: column %q not found", column)
	}

	out := make([]string, len(f.Rows))
	for r, row := range f.Rows {
		out[r] = row[i]
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

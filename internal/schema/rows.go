package schema

import (
	"fmt"

	"github.com/wonny/vivienda/internal/dataset"
)

// CellError locates a dataset cell that could not be coerced
type CellError struct {
	Row    int // 1-based data row, header excluded
	Column string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("schema: row %d column %q value %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// Rows converts every dataset row into a typed Row in schema order
func (s *Schema) Rows(frame *dataset.Frame) ([]Row, error) {
	idx := make([]int, len(s.Columns))
	for i, c := range s.Columns {
		idx[i] = frame.Index(c.Name)
		if idx[i] < 0 {
			return nil, &MissingColumnError{Column: c.Name}
		}
	}

	rows := make([]Row, len(frame.Rows))
	for r, raw := range frame.Rows {
		row := make(Row, len(s.Columns))
		for i, c := range s.Columns {
			cell := raw[idx[i]]
			if c.Kind == Categorical {
				row[i].Str = NormalizeCategory(cell)
				continue
			}

			num, err := ParseNumeric(cell)
			if err != nil {
				return nil, &CellError{Row: r + 1, Column: c.Name, Value: cell, Err: err}
			}
			row[i].Num = num
		}
		rows[r] = row
	}

	return rows, nil
}

// TargetValues parses the target column of every dataset row
func (s *Schema) TargetValues(frame *dataset.Frame) ([]float64, error) {
	i := frame.Index(s.Target)
	if i < 0 {
		return nil, &MissingColumnError{Column: s.Target}
	}

	y := make([]float64, len(frame.Rows))
	for r, raw := range frame.Rows {
		v, err := ParseNumeric(raw[i])
		if err != nil {
			return nil, &CellError{Row: r + 1, Column: s.Target, Value: raw[i], Err: err}
		}
		y[r] = v
	}
	return y, nil
}

// Package preprocess turns typed schema rows into the numeric matrix consumed
// by the forest: one-hot blocks for categorical columns, numeric columns passed
// through unchanged.
package preprocess

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wonny/vivienda/internal/schema"
)

// ErrRowWidth is returned when a row does not match the fitted schema width
var ErrRowWidth = errors.New("row width does not match schema")

// ErrNotFitted is returned by Transform on a zero Encoder
var ErrNotFitted = errors.New("encoder is not fitted")

// Block is the vocabulary of one categorical column
type Block struct {
	Column     string
	Index      int      // position in the schema row
	Categories []string // sorted, one indicator per entry
}

// Passthrough is one numeric column copied as is
type Passthrough struct {
	Column string
	Index  int
}

// Encoder is the fitted transformer state. It is never modified after Fit.
// Output layout: every categorical block in schema order, then numeric columns.
type Encoder struct {
	Blocks  []Block
	Numeric []Passthrough
	Columns int // schema width
}

// Fit learns the category vocabulary of every categorical column
func Fit(s *schema.Schema, rows []schema.Row) (*Encoder, error) {
	if len(rows) == 0 {
		return nil, errors.New("preprocess: no rows to fit")
	}

	enc := &Encoder{Columns: s.Len()}
	for r, row := range rows {
		if len(row) != enc.Columns {
			return nil, fmt.Errorf("preprocess: row %d: %w", r, ErrRowWidth)
		}
	}

	for i, c := range s.Columns {
		if c.Kind != schema.Categorical {
			enc.Numeric = append(enc.Numeric, Passthrough{Column: c.Name, Index: i})
			continue
		}

		seen := make(map[string]bool)
		for _, row := range rows {
			seen[row[i].Str] = true
		}

		cats := make([]string, 0, len(seen))
		for v := range seen {
			cats = append(cats, v)
		}
		sort.Strings(cats)

		enc.Blocks = append(enc.Blocks, Block{Column: c.Name, Index: i, Categories: cats})
	}

	return enc, nil
}

// Width returns the number of output features
func (e *Encoder) Width() int {
	w := len(e.Numeric)
	for _, b := range e.Blocks {
		w += len(b.Categories)
	}
	return w
}

// FeatureNames names every output feature, e.g. "BARRIO=Sol"
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for _, b := range e.Blocks {
		for _, c := range b.Categories {
			names = append(names, b.Column+"="+c)
		}
	}
	for _, p := range e.Numeric {
		names = append(names, p.Column)
	}
	return names
}

// Transform encodes a batch of rows
func (e *Encoder) Transform(rows []schema.Row) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		x, err := e.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = x
	}
	return out, nil
}

// TransformRow encodes one row. A category absent from the vocabulary leaves
// its block all zero.
func (e *Encoder) TransformRow(row schema.Row) ([]float64, error) {
	if e.Columns == 0 {
		return nil, ErrNotFitted
	}
	if len(row) != e.Columns {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrRowWidth, len(row), e.Columns)
	}

	x := make([]float64, e.Width())
	pos := 0
	for _, b := range e.Blocks {
		v := row[b.Index].Str
		if k := sort.SearchStrings(b.Categories, v); k < len(b.Categories) && b.Categories[k] == v {
			x[pos+k] = 1
		}
		pos += len(b.Categories)
	}
	for _, p := range e.Numeric {
		x[pos] = row[p.Index].Num
		pos++
	}
	return x, nil
}

// Known reports whether a category was seen during Fit
func (e *Encoder) Known(column, value string) bool {
	for _, b := range e.Blocks {
		if b.Column != column {
			continue
		}
		k := sort.SearchStrings(b.Categories, value)
		return k < len(b.Categories) && b.Categories[k] == value
	}
	return false
}

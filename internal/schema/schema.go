// Package schema derives the ordered feature columns a model is trained on and
// converts raw cells into typed rows.
//
// Training and inference both go through NormalizeCategory and ParseNumeric, so
// a value typed into the prediction form is coerced exactly like the same value
// read from the dataset.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/vivienda/internal/dataset"
)

// Kind is the declared type of a feature column
type Kind string

const (
	Categorical Kind = "categorical"
	Numeric     Kind = "numeric"
)

// ErrMissingColumn matches every MissingColumnError
var ErrMissingColumn = errors.New("missing column")

// ErrNoFeatures is returned when the policy drops every column
var ErrNoFeatures = errors.New("schema: no feature columns left after filtering")

// MissingColumnError names a column the dataset or request does not carry
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("schema: missing column %q", e.Column)
}

// Is makes errors.Is(err, ErrMissingColumn) work
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// Column is one retained feature
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Schema is the ordered feature list a pipeline is fit against
type Schema struct {
	Target  string   `json:"target"`
	Columns []Column `json:"columns"`
}

// Policy decides which dataset columns become features
type Policy struct {
	Target      string
	Categorical []string
	LeakSuffix  string // join artifact suffix, e.g. "_x"
}

// Derive applies the policy to the dataset header.
//
// Dropped: the target, every column containing the target's base name
// (target minus LeakSuffix), and every LeakSuffix column that is not a declared
// categorical. Retained columns keep dataset order.
func Derive(frame *dataset.Frame, p Policy) (*Schema, error) {
	if p.Target == "" {
		return nil, errors.New("schema: target column not configured")
	}
	if !frame.Has(p.Target) {
		return nil, &MissingColumnError{Column: p.Target}
	}

	declared := make(map[string]bool, len(p.Categorical))
	for _, c := range p.Categorical {
		if !frame.Has(c) {
			return nil, &MissingColumnError{Column: c}
		}
		declared[c] = true
	}

	base := p.Target
	if p.LeakSuffix != "" {
		if trimmed := strings.TrimSuffix(p.Target, p.LeakSuffix); trimmed != "" {
			base = trimmed
		}
	}

	s := &Schema{Target: p.Target}
	for _, name := range frame.Columns {
		if name == p.Target || strings.Contains(name, base) {
			if declared[name] {
				return nil, fmt.Errorf("schema: categorical %q collides with target name %q", name, base)
			}
			continue
		}

		if declared[name] {
			s.Columns = append(s.Columns, Column{Name: name, Kind: Categorical})
			continue
		}
		if p.LeakSuffix != "" && strings.HasSuffix(name, p.LeakSuffix) {
			continue
		}
		s.Columns = append(s.Columns, Column{Name: name, Kind: Numeric})
	}

	if len(s.Columns) == 0 {
		return nil, ErrNoFeatures
	}
	return s, nil
}

// Len returns the number of feature columns
func (s *Schema) Len() int {
	return len(s.Columns)
}

// Names returns the feature column names in order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Categorical returns the categorical column names in order
func (s *Schema) Categorical() []string {
	return s.namesOf(Categorical)
}

// Numeric returns the numeric column names in order
func (s *Schema) Numeric() []string {
	return s.namesOf(Numeric)
}

func (s *Schema) namesOf(kind Kind) []string {
	var out []string
	for _, c := range s.Columns {
		if c.Kind == kind {
			out = append(out, c.Name)
		}
	}
	return out
}

// Index returns the position of a feature column or -1
func (s *Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Lookup returns a feature column by name
func (s *Schema) Lookup(name string) (Column, bool) {
	if i := s.Index(name); i >= 0 {
		return s.Columns[i], true
	}
	return Column{}, false
}

// MatchesColumns reports whether names equals the schema order exactly
func (s *Schema) MatchesColumns(names []string) bool {
	if len(names) != len(s.Columns) {
		return false
	}
	for i, c := range s.Columns {
		if names[i] != c.Name {
			return false
		}
	}
	return true
}

// Fingerprint identifies the schema version (sha256 of its canonical JSON)
func (s *Schema) Fingerprint() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

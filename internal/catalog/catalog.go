// Package catalog holds the valid (district, neighborhood) pairs offered by the
// cascading selectors of the prediction form.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wonny/vivienda/internal/dataset"
	"github.com/wonny/vivienda/internal/schema"
	"github.com/wonny/vivienda/pkg/fileutil"
)

// Entry is one (district, neighborhood) pair
type Entry struct {
	District     string `json:"district"`
	Neighborhood string `json:"neighborhood"`
}

// Catalog is an immutable, sorted set of entries
type Catalog struct {
	DistrictColumn     string
	NeighborhoodColumn string

	entries []Entry
	byDist  map[string][]string
}

// New builds a catalog from arbitrary entries; duplicates and blanks are dropped
func New(districtCol, neighborhoodCol string, entries []Entry) *Catalog {
	seen := make(map[Entry]bool, len(entries))
	uniq := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.District = schema.NormalizeCategory(e.District)
		e.Neighborhood = schema.NormalizeCategory(e.Neighborhood)
		if e.District == "" || e.Neighborhood == "" || seen[e] {
			continue
		}
		seen[e] = true
		uniq = append(uniq, e)
	}

	sort.Slice(uniq, func(i, j int) bool {
		if uniq[i].District != uniq[j].District {
			return uniq[i].District < uniq[j].District
		}
		return uniq[i].Neighborhood < uniq[j].Neighborhood
	})

	byDist := make(map[string][]string)
	for _, e := range uniq {
		byDist[e.District] = append(byDist[e.District], e.Neighborhood)
	}

	return &Catalog{
		DistrictColumn:     districtCol,
		NeighborhoodColumn: neighborhoodCol,
		entries:            uniq,
		byDist:             byDist,
	}
}

// Extract collects the distinct pairs present in the dataset
func Extract(frame *dataset.Frame, districtCol, neighborhoodCol string) (*Catalog, error) {
	di := frame.Index(districtCol)
	if di < 0 {
		return nil, &schema.MissingColumnError{Column: districtCol}
	}
	ni := frame.Index(neighborhoodCol)
	if ni < 0 {
		return nil, &schema.MissingColumnError{Column: neighborhoodCol}
	}

	entries := make([]Entry, 0, frame.Len())
	for _, row := range frame.Rows {
		entries = append(entries, Entry{District: row[di], Neighborhood: row[ni]})
	}

	return New(districtCol, neighborhoodCol, entries), nil
}

// Len returns the number of pairs
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the sorted pairs
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Districts returns every district in sorted order
func (c *Catalog) Districts() []string {
	out := make([]string, 0, len(c.byDist))
	for d := range c.byDist {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Neighborhoods returns the neighborhoods of one district, sorted.
// An unknown district yields an empty list.
func (c *Catalog) Neighborhoods(district string) []string {
	list := c.byDist[schema.NormalizeCategory(district)]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Contains reports whether the pair is valid
func (c *Catalog) Contains(district, neighborhood string) bool {
	n := schema.NormalizeCategory(neighborhood)
	for _, b := range c.byDist[schema.NormalizeCategory(district)] {
		if b == n {
			return true
		}
	}
	return false
}

// Write stores the catalog as CSV with the dataset's column names as header
func (c *Catalog) Write(path string) error {
	return fileutil.WriteAtomic(path, c.Encode)
}

// Encode writes the catalog CSV to w
func (c *Catalog) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{c.DistrictColumn, c.NeighborhoodColumn}); err != nil {
		return fmt.Errorf("write catalog header: %w", err)
	}
	for _, e := range c.entries {
		if err := cw.Write([]string{e.District, e.Neighborhood}); err != nil {
			return fmt.Errorf("write catalog entry: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load reads a catalog file written by Write
func Load(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer file.Close()

	frame, err := dataset.ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if len(frame.Columns) != 2 {
		return nil, fmt.Errorf("catalog %s: want 2 columns, got %d", path, len(frame.Columns))
	}

	return Extract(frame, frame.Columns[0], frame.Columns[1])
}

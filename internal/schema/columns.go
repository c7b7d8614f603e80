package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wonny/vivienda/pkg/fileutil"
)

// WriteColumns persists the feature column order as a JSON array
func WriteColumns(path string, names []string) error {
	return fileutil.WriteAtomic(path, ColumnsEncoder(names))
}

// ColumnsEncoder returns a writer func that encodes names as the columns file
func ColumnsEncoder(names []string) func(w io.Writer) error {
	return func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}
}

// ReadColumns reads a column order written by WriteColumns
func ReadColumns(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read columns file: %w", err)
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse columns file %s: %w", path, err)
	}
	if len(names) == 0 {
		return nil, errors.New("columns file is empty")
	}
	return names, nil
}

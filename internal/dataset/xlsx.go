package dataset

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads one worksheet; an empty sheet name selects the first one
func LoadXLSX(path, sheet string) (*Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	return readSheet(f, path, sheet)
}

// ReadXLSX reads one worksheet of a workbook stream
func ReadXLSX(r io.Reader, sheet string) (*Frame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	return readSheet(f, "stream", sheet)
}

func readSheet(f *excelize.File, name, sheet string) (*Frame, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("dataset: workbook %s has no sheets", name)
		}
		sheet = sheets[0]
	}

	// 원본 셀 값 사용 (표시 형식 무시)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset: sheet %q has no header row", sheet)
	}

	return NewFrame(rows[0], rows[1:])
}

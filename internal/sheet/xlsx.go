// SPDX-License-Identifier: Apache-2.0

package sheet

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fleetops/laneimport/internal/importapi"
)

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// XLSXReader reads the first non-empty worksheet of an Office Open XML
// workbook. The first row with any content is the header row; fully blank
// rows below it are skipped.
type XLSXReader struct{}

func NewXLSXReader() *XLSXReader {
	return &XLSXReader{}
}

func (r *XLSXReader) Name() string {
	return "xlsx"
}

func (r *XLSXReader) CanHandle(file importapi.File) bool {
	switch extension(file.Name) {
	case ".xlsx", ".xlsm":
		return true
	case ".csv", ".tsv", ".txt":
		return false
	}
	return bytes.HasPrefix(file.Data, zipMagic)
}

func (r *XLSXReader) Read(ctx context.Context, file importapi.File) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found")
	}

	for _, name := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}

		header := -1
		for i, row := range rows {
			if !blank(row) {
				header = i
				break
			}
		}
		if header < 0 {
			continue
		}

		table := newTable(r.Name(), rows[header])
		for i := header + 1; i < len(rows); i++ {
			if blank(rows[i]) {
				continue
			}
			table.add(i+1, rows[i])
		}
		return table, nil
	}
	return nil, fmt.Errorf("empty file: no header row found")
}

// SPDX-License-Identifier: Apache-2.0

package sheet

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fleetops/laneimport/internal/importapi"
)

// Warning is a non-fatal issue met while reading a spreadsheet.
type Warning struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Record is one data row. Line is the row number as the operator sees it
// in the spreadsheet, the header being line 1 in the usual layout.
type Record struct {
	Line   int
	Values []string
}

// Table is a spreadsheet read into memory: distinct column headers and
// records padded or truncated to the header width.
type Table struct {
	Format   string
	Columns  []string
	Records  []Record
	Warnings []Warning

	index map[string]int
}

func newTable(format string, headers []string) *Table {
	cols := Headers(headers)
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	return &Table{Format: format, Columns: cols, index: index}
}

func (t *Table) add(line int, values []string) {
	width := len(t.Columns)
	switch {
	case len(values) < width:
		padded := make([]string, width)
		copy(padded, values)
		values = padded
	case len(values) > width:
		t.warn(line, "row has %d columns, expected %d; truncating extra columns", len(values), width)
		values = values[:width]
	}
	t.Records = append(t.Records, Record{Line: line, Values: values})
}

func (t *Table) warn(line int, format string, args ...any) {
	t.Warnings = append(t.Warnings, Warning{Line: line, Message: fmt.Sprintf(format, args...)})
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Records)
}

// Index returns the position of column.
func (t *Table) Index(column string) (int, bool) {
	i, ok := t.index[column]
	return i, ok
}

// Value returns the cell of record i under column, or "" when the column
// does not exist.
func (t *Table) Value(i int, column string) string {
	c, ok := t.index[column]
	if !ok {
		return ""
	}
	return t.Records[i].Values[c]
}

// Row returns record i as a loosely typed map; blank cells are nil.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.Columns))
	for c, col := range t.Columns {
		v := t.Records[i].Values[c]
		if strings.TrimSpace(v) == "" {
			row[col] = nil
			continue
		}
		row[col] = v
	}
	return row
}

// Preview returns at most n rows from the top of the table.
func (t *Table) Preview(n int) []map[string]any {
	if n > t.Len() {
		n = t.Len()
	}
	out := make([]map[string]any, 0, max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, t.Row(i))
	}
	return out
}

// Reader turns one spreadsheet format into a Table.
type Reader interface {
	CanHandle(file importapi.File) bool
	Read(ctx context.Context, file importapi.File) (*Table, error)
	Name() string
}

// Pipeline picks the first registered Reader that can handle a file.
type Pipeline struct {
	readers []Reader
}

func NewPipeline(readers ...Reader) *Pipeline {
	return &Pipeline{readers: readers}
}

// DefaultPipeline registers the XLSX reader before the CSV reader; CSV
// accepts almost any text so it must come last.
func DefaultPipeline() *Pipeline {
	return NewPipeline(NewXLSXReader(), NewCSVReader())
}

func (p *Pipeline) Read(ctx context.Context, file importapi.File) (*Table, error) {
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("empty file: no header row found")
	}
	reader, err := p.selectReader(file)
	if err != nil {
		return nil, err
	}
	table, err := reader.Read(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("reader %q failed: %w", reader.Name(), err)
	}
	return table, nil
}

func (p *Pipeline) selectReader(file importapi.File) (Reader, error) {
	for _, r := range p.readers {
		if r.CanHandle(file) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("unsupported spreadsheet format: no reader found for %q", file.Name)
}

// RegisteredReaders returns the names of the registered readers in order.
func (p *Pipeline) RegisteredReaders() []string {
	names := make([]string, len(p.readers))
	for i, r := range p.readers {
		names[i] = r.Name()
	}
	return names
}

func extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

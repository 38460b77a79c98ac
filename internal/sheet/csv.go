// SPDX-License-Identifier: Apache-2.0

package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fleetops/laneimport/internal/importapi"
)

// CSVReader reads delimited text exports. It tolerates stray quotes and
// ragged rows: short rows are padded and long rows truncated with a
// warning. The delimiter is sniffed from the header line.
type CSVReader struct{}

func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

func (r *CSVReader) Name() string {
	return "csv"
}

// CanHandle accepts .csv, .tsv and .txt uploads, and any upload without a
// known extension whose content looks like text.
func (r *CSVReader) CanHandle(file importapi.File) bool {
	switch extension(file.Name) {
	case ".csv", ".tsv", ".txt":
		return true
	case ".xlsx", ".xlsm", ".xls", ".ods":
		return false
	}
	return looksLikeText(file.Data)
}

func (r *CSVReader) Read(ctx context.Context, file importapi.File) (*Table, error) {
	decoded, _, err := DetectAndDecode(file.Data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = sniffDelimiter(decoded, extension(file.Name))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: no header row found")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	table := newTable(r.Name(), headers)
	for n := 0; ; n++ {
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				table.warn(perr.Line, "parse error: %v", perr.Err)
				continue
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		if blank(row) {
			continue
		}
		line, _ := reader.FieldPos(0)
		table.add(line, row)
	}
	return table, nil
}

// sniffDelimiter picks the most frequent of , ; tab | outside quotes on the
// first line. Ties and lines without any candidate fall back to a comma.
func sniffDelimiter(data []byte, ext string) rune {
	if ext == ".tsv" {
		return '\t'
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	counts := map[rune]int{}
	inQuotes := false
	for _, c := range string(line) {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case !inQuotes && (c == ',' || c == ';' || c == '\t' || c == '|'):
			counts[c]++
		}
	}

	best, bestCount := ',', counts[',']
	for _, c := range []rune{';', '\t', '|'} {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

func looksLikeText(data []byte) bool {
	if bytes.HasPrefix(data, bomUTF16LE) || bytes.HasPrefix(data, bomUTF16BE) {
		return true
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return !bytes.HasPrefix(data, zipMagic) && bytes.IndexByte(head, 0) < 0
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

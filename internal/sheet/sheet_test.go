// SPDX-License-Identifier: Apache-2.0

package sheet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fleetops/laneimport/internal/importapi"
	"github.com/fleetops/laneimport/internal/sheet"
)

// ---------------------------------------------------------------------------
// Headers
// ---------------------------------------------------------------------------

func TestHeaders(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{name: "distinct headers are trimmed", raw: []string{" Lane ", "Dest"}, want: []string{"Lane", "Dest"}},
		{name: "duplicates get positional suffix", raw: []string{"Dest", "Dest", "Dest"}, want: []string{"Dest", "Dest (2)", "Dest (3)"}},
		{name: "suffix skips names already taken", raw: []string{"Dest (2)", "Dest", "Dest"}, want: []string{"Dest (2)", "Dest", "Dest (3)"}},
		{name: "blank header named by position", raw: []string{"Lane", "", "  "}, want: []string{"Lane", "Column 2", "Column 3"}},
		{name: "byte order mark stripped", raw: []string{"\ufeffLane", "Dest"}, want: []string{"Lane", "Dest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sheet.Headers(tt.raw))
		})
	}
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

func TestDetectAndDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		want     string
		encoding string
	}{
		{name: "plain utf-8", data: []byte("Lane,Dest"), want: "Lane,Dest", encoding: "utf-8"},
		{name: "utf-8 bom", data: append([]byte{0xEF, 0xBB, 0xBF}, []byte("Lane")...), want: "Lane", encoding: "utf-8-bom"},
		{name: "utf-16 little endian", data: []byte{0xFF, 0xFE, 'L', 0, 'a', 0, ',', 0, 'D', 0}, want: "La,D", encoding: "utf-16le"},
		{name: "utf-16 big endian", data: []byte{0xFE, 0xFF, 0, 'L', 0, 'a'}, want: "La", encoding: "utf-16be"},
		{name: "latin-1 fallback", data: []byte{'C', 'a', 'f', 0xE9}, want: "Café", encoding: "latin-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, enc, err := sheet.DetectAndDecode(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
			assert.Equal(t, tt.encoding, enc)
		})
	}
}

// ---------------------------------------------------------------------------
// CSVReader
// ---------------------------------------------------------------------------

func TestCSVReader_CanHandle(t *testing.T) {
	r := sheet.NewCSVReader()

	assert.True(t, r.CanHandle(importapi.File{Name: "lanes.csv"}))
	assert.True(t, r.CanHandle(importapi.File{Name: "lanes.TSV"}))
	assert.True(t, r.CanHandle(importapi.File{Name: "export", Data: []byte("a,b\n1,2")}))
	assert.False(t, r.CanHandle(importapi.File{Name: "lanes.xlsx"}))
	assert.False(t, r.CanHandle(importapi.File{Name: "export", Data: []byte{'P', 'K', 3, 4, 0, 0}}))
}

func TestCSVReader_Read(t *testing.T) {
	r := sheet.NewCSVReader()
	src := importapi.File{Name: "lanes.csv", Data: []byte("Lane,Dest,Truck\nL1,Pune,20ft\n\nL2,,32ft\n")}

	table, err := r.Read(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "csv", table.Format)
	assert.Equal(t, []string{"Lane", "Dest", "Truck"}, table.Columns)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, 2, table.Records[0].Line)
	assert.Equal(t, 4, table.Records[1].Line, "blank lines keep the spreadsheet numbering")
	assert.Equal(t, "Pune", table.Value(0, "Dest"))
	assert.Equal(t, "", table.Value(0, "Nope"))

	row := table.Row(1)
	assert.Equal(t, "L2", row["Lane"])
	assert.Nil(t, row["Dest"])
}

func TestCSVReader_Read_RaggedRows(t *testing.T) {
	r := sheet.NewCSVReader()
	table, err := r.Read(context.Background(), importapi.File{Name: "r.csv", Data: []byte("a,b,c\n1,2\n1,2,3,4\n")})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, []string{"1", "2", ""}, table.Records[0].Values)
	assert.Equal(t, []string{"1", "2", "3"}, table.Records[1].Values)
	require.Len(t, table.Warnings, 1)
	assert.Equal(t, 3, table.Warnings[0].Line)
	assert.Contains(t, table.Warnings[0].Message, "truncating")
}

func TestCSVReader_Read_Delimiters(t *testing.T) {
	tests := []struct {
		name string
		file importapi.File
		want []string
	}{
		{name: "semicolon", file: importapi.File{Name: "s.csv", Data: []byte("Lane;Dest;Truck\nA;B;C\n")}, want: []string{"Lane", "Dest", "Truck"}},
		{name: "quoted comma ignored when sniffing", file: importapi.File{Name: "q.csv", Data: []byte("\"Lane, main\";Dest\nA;B\n")}, want: []string{"Lane, main", "Dest"}},
		{name: "tab by extension", file: importapi.File{Name: "t.tsv", Data: []byte("Lane\tDest\nA\tB\n")}, want: []string{"Lane", "Dest"}},
		{name: "pipe", file: importapi.File{Name: "p.txt", Data: []byte("Lane|Dest\nA|B\n")}, want: []string{"Lane", "Dest"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := sheet.NewCSVReader().Read(context.Background(), tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.want, table.Columns)
			assert.Equal(t, 1, table.Len())
		})
	}
}

func TestCSVReader_Read_HeaderOnly(t *testing.T) {
	table, err := sheet.NewCSVReader().Read(context.Background(), importapi.File{Name: "h.csv", Data: []byte("Lane,Dest\n")})
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, table.Preview(5))
}

// ---------------------------------------------------------------------------
// XLSXReader
// ---------------------------------------------------------------------------

func workbook(t *testing.T, rows map[string][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for cell, values := range rows {
		v := values
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &v))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXLSXReader_Read(t *testing.T) {
	data := workbook(t, map[string][]any{
		"A2": {"Lane Code", "Destination", "Truck Size", "KM"},
		"A3": {"L-1", "Pune", "20ft", 140},
		"A5": {"L-2", "Nashik", "32ft"},
	})

	r := sheet.NewXLSXReader()
	file := importapi.File{Name: "lanes.xlsx", Data: data}
	require.True(t, r.CanHandle(file))
	require.True(t, r.CanHandle(importapi.File{Name: "upload", Data: data}), "zip content sniffed without extension")

	table, err := r.Read(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", table.Format)
	assert.Equal(t, []string{"Lane Code", "Destination", "Truck Size", "KM"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, 3, table.Records[0].Line)
	assert.Equal(t, "140", table.Value(0, "KM"))
	assert.Equal(t, 5, table.Records[1].Line)
	assert.Equal(t, "", table.Value(1, "KM"), "short row padded")
}

func TestXLSXReader_Read_Corrupt(t *testing.T) {
	_, err := sheet.NewXLSXReader().Read(context.Background(), importapi.File{Name: "bad.xlsx", Data: []byte("PK\x03\x04garbage")})
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

func TestPipeline_RegisteredReaders(t *testing.T) {
	assert.Equal(t, []string{"xlsx", "csv"}, sheet.DefaultPipeline().RegisteredReaders())
}

func TestPipeline_Read_Errors(t *testing.T) {
	p := sheet.DefaultPipeline()

	_, err := p.Read(context.Background(), importapi.File{Name: "empty.csv"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty file")

	_, err = p.Read(context.Background(), importapi.File{Name: "legacy.xls", Data: []byte{0xD0, 0xCF, 0x11, 0xE0}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported spreadsheet format")

	_, err = sheet.NewPipeline().Read(context.Background(), importapi.File{Name: "a.csv", Data: []byte("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported spreadsheet format")
}

// ---------------------------------------------------------------------------
// LocalPreviewer
// ---------------------------------------------------------------------------

func TestLocalPreviewer_Preview(t *testing.T) {
	data := "Lane,Dest,Truck\n"
	for i := 0; i < 8; i++ {
		data += "L,Pune,20ft\n"
	}
	data += "L9,,20ft\n"

	p := sheet.NewLocalPreviewer(nil, 0)
	got, err := p.Preview(context.Background(), importapi.File{Name: "lanes.csv", Data: []byte(data)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lane", "Dest", "Truck"}, got.Columns)
	assert.Equal(t, 9, got.TotalRows)
	assert.Len(t, got.Preview, sheet.DefaultSampleSize)

	small := sheet.NewLocalPreviewer(nil, 2)
	got, err = small.Preview(context.Background(), importapi.File{Name: "lanes.csv", Data: []byte(data)})
	require.NoError(t, err)
	assert.Len(t, got.Preview, 2)
}

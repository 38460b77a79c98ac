// SPDX-License-Identifier: Apache-2.0

package importapi

import (
	"context"
	"fmt"

	"github.com/fleetops/laneimport/internal/fields"
)

// File is an uploaded spreadsheet held in memory. It is read once for the
// preview and re-sent in full for the import.
type File struct {
	Name string
	Data []byte
}

// PreviewData is what the preview call returns for one upload. Preview
// rows are loosely typed: a cell is a string, a number, or nil when empty.
type PreviewData struct {
	Columns   []string         `json:"columns"`
	Preview   []map[string]any `json:"preview"`
	TotalRows int              `json:"totalRows"`
}

// ImportRequest is one batch import submission.
type ImportRequest struct {
	File     File
	ClientID string
	Mapping  fields.Mapping
	// Fallbacks holds literal defaults for fields left unmapped. A key that
	// is also mapped is never transmitted.
	Fallbacks map[string]string
}

// RowError is a single row that failed to import. Row is the spreadsheet
// row number.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult is the structured outcome of a batch import. Row failures
// are data here, not errors.
type ImportResult struct {
	Total         int        `json:"total"`
	Successful    int        `json:"successful"`
	Failed        int        `json:"failed"`
	Errors        []RowError `json:"errors"`
	HasMoreErrors bool       `json:"hasMoreErrors"`
}

// Check reports a result whose counts contradict each other.
func (r *ImportResult) Check() error {
	if r.Total < 0 || r.Successful < 0 || r.Failed < 0 {
		return fmt.Errorf("negative counts in import result: total=%d successful=%d failed=%d", r.Total, r.Successful, r.Failed)
	}
	if r.Successful+r.Failed != r.Total {
		return fmt.Errorf("import result counts do not add up: successful=%d + failed=%d != total=%d", r.Successful, r.Failed, r.Total)
	}
	if len(r.Errors) > r.Total {
		return fmt.Errorf("import result lists %d row errors for %d rows", len(r.Errors), r.Total)
	}
	return nil
}

// Previewer extracts columns, row count and a row sample from an upload.
type Previewer interface {
	Preview(ctx context.Context, file File) (*PreviewData, error)
}

// Importer submits a batch import and relays the structured result.
type Importer interface {
	Import(ctx context.Context, req ImportRequest) (*ImportResult, error)
}

// TokenSource supplies the bearer credential for backend calls. Its
// lifecycle belongs to the auth layer.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns itself.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

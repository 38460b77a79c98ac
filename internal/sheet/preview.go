// SPDX-License-Identifier: Apache-2.0

package sheet

import (
	"context"

	"github.com/fleetops/laneimport/internal/importapi"
)

// DefaultSampleSize is the number of rows a preview carries.
const DefaultSampleSize = 5

// LocalPreviewer builds PreviewData in-process, without the backend. It
// implements importapi.Previewer.
type LocalPreviewer struct {
	pipeline   *Pipeline
	sampleSize int
}

// NewLocalPreviewer creates a LocalPreviewer. A nil pipeline uses
// DefaultPipeline and a non-positive sample size uses DefaultSampleSize.
func NewLocalPreviewer(pipeline *Pipeline, sampleSize int) *LocalPreviewer {
	if pipeline == nil {
		pipeline = DefaultPipeline()
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &LocalPreviewer{pipeline: pipeline, sampleSize: sampleSize}
}

func (p *LocalPreviewer) Preview(ctx context.Context, file importapi.File) (*importapi.PreviewData, error) {
	table, err := p.pipeline.Read(ctx, file)
	if err != nil {
		return nil, err
	}
	return PreviewOf(table, p.sampleSize), nil
}

// PreviewOf summarises table as PreviewData with at most n sample rows.
func PreviewOf(table *Table, n int) *importapi.PreviewData {
	columns := make([]string, len(table.Columns))
	copy(columns, table.Columns)
	return &importapi.PreviewData{
		Columns:   columns,
		Preview:   table.Preview(n),
		TotalRows: table.Len(),
	}
}

// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fleetops/laneimport/internal/importapi"
)

// Status classifies a finished import.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// TruncatedNotice is shown when the backend capped its error list.
const TruncatedNotice = "Only the first errors are shown; more rows failed than are listed here."

// Summary is the operator-facing view of an ImportResult.
type Summary struct {
	Total      int                  `json:"total"`
	Successful int                  `json:"successful"`
	Failed     int                  `json:"failed"`
	Rows       []importapi.RowError `json:"rows"`
	Truncated  bool                 `json:"truncated"`
	Notice     string               `json:"notice,omitempty"`
	Status     Status               `json:"status"`
}

// Summarize builds the Summary for r. Counts come from the result as
// reported; len(r.Errors) may be smaller than r.Failed.
func Summarize(r importapi.ImportResult) Summary {
	rows := make([]importapi.RowError, len(r.Errors))
	copy(rows, r.Errors)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Row < rows[j].Row })

	s := Summary{
		Total:      r.Total,
		Successful: r.Successful,
		Failed:     r.Failed,
		Rows:       rows,
		Truncated:  r.HasMoreErrors,
		Status:     statusOf(r),
	}
	if r.HasMoreErrors {
		s.Notice = TruncatedNotice
	}
	return s
}

func statusOf(r importapi.ImportResult) Status {
	switch {
	case r.Failed == 0:
		return StatusComplete
	case r.Successful == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}

// Render writes s as plain text.
func Render(w io.Writer, s Summary) error {
	if _, err := fmt.Fprintf(w, "Import %s: %d of %d rows imported, %d failed\n",
		s.Status, s.Successful, s.Total, s.Failed); err != nil {
		return err
	}
	if len(s.Rows) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "\nROW\tERROR")
		for _, row := range s.Rows {
			fmt.Fprintf(tw, "%d\t%s\n", row.Row, row.Error)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if s.Notice != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n", s.Notice); err != nil {
			return err
		}
	}
	return nil
}

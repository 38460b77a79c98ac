// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fleetops/laneimport/internal/importapi"
)

func newPreviewCmd(a *app) *cobra.Command {
	var offline, asJSON bool
	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Show the columns, row count and first rows of a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := readFile(args[0])
			if err != nil {
				return err
			}
			var previewer importapi.Previewer = a.client()
			if offline {
				previewer = a.localPreviewer()
			}
			data, err := previewer.Preview(cmd.Context(), file)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), data)
			}
			return renderPreview(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "read the file locally instead of calling the backend")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func renderPreview(w io.Writer, data *importapi.PreviewData) error {
	fmt.Fprintf(w, "%d data rows, %d columns\n\n", data.TotalRows, len(data.Columns))
	if len(data.Columns) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(data.Columns, "\t"))
	for _, row := range data.Preview {
		cells := make([]string, len(data.Columns))
		for i, col := range data.Columns {
			if v := row[col]; v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

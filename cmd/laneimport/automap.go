// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fleetops/laneimport/internal/automap"
	"github.com/fleetops/laneimport/internal/fields"
)

func newAutomapCmd(a *app) *cobra.Command {
	var (
		columns []string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "automap [FILE]",
		Short: "Propose a column mapping for a spreadsheet or a list of headers",
		Example: `  laneimport automap lanes.xlsx
  laneimport automap --columns "Lane,Dest,Truck,KM"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(columns) > 0 && len(args) > 0:
				return fmt.Errorf("use either --columns or FILE, not both")
			case len(args) == 1:
				file, err := readFile(args[0])
				if err != nil {
					return err
				}
				preview, err := a.localPreviewer().Preview(cmd.Context(), file)
				if err != nil {
					return err
				}
				columns = preview.Columns
			case len(columns) == 0:
				return fmt.Errorf("no columns given: pass FILE or --columns")
			}

			p := a.mapper.Propose(columns)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					automap.Proposal
					Missing []string `json:"missing"`
				}{p, fields.Keys(a.registry.Missing(p.Mapping))})
			}
			return renderProposal(cmd.OutOrStdout(), a.registry, p)
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "comma separated column headers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func renderProposal(w io.Writer, registry *fields.Registry, p automap.Proposal) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tCOLUMN")
	for _, f := range registry.Fields() {
		col := "-"
		if p.Mapping.Mapped(f.Key) {
			col = p.Mapping[f.Key]
		}
		name := f.Key
		if f.Required {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\n", name, col)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	shared := make([]string, 0, len(p.Shared))
	for col := range p.Shared {
		shared = append(shared, col)
	}
	sort.Strings(shared)
	for _, col := range shared {
		fmt.Fprintf(w, "note: %q was proposed for %s\n", col, strings.Join(p.Shared[col], ", "))
	}
	if len(p.Unmatched) > 0 {
		fmt.Fprintf(w, "unmatched columns: %s\n", strings.Join(p.Unmatched, ", "))
	}
	if missing := registry.Missing(p.Mapping); len(missing) > 0 {
		fmt.Fprintf(w, "missing required fields: %s\n", strings.Join(fields.Keys(missing), ", "))
	}
	return nil
}

// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFieldsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "fields",
		Short: "List the canonical lane fields and their header aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			type row struct {
				Key      string   `json:"key"`
				Label    string   `json:"label"`
				Required bool     `json:"required"`
				Aliases  []string `json:"aliases"`
			}
			var rows []row
			for _, f := range a.registry.Fields() {
				rows = append(rows, row{Key: f.Key, Label: f.Label, Required: f.Required, Aliases: a.registry.AliasesFor(f.Key)})
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL\tREQUIRED\tALIASES")
			for _, r := range rows {
				req := ""
				if r.Required {
					req = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Key, r.Label, req, strings.Join(r.Aliases, ", "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

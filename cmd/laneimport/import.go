// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleetops/laneimport/internal/automap"
	"github.com/fleetops/laneimport/internal/fields"
	"github.com/fleetops/laneimport/internal/importapi"
	"github.com/fleetops/laneimport/internal/mapping"
	"github.com/fleetops/laneimport/internal/report"
	"github.com/fleetops/laneimport/internal/wizard"
)

type importFlags struct {
	clientID  string
	maps      []string
	unmaps    []string
	fallbacks []string
	asJSON    bool
}

func newImportCmd(a *app) *cobra.Command {
	var f importFlags
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import the lanes of a spreadsheet",
		Long: `Upload FILE, propose a column mapping, apply --map/--unmap overrides and
--fallback defaults, then submit the import and print the per-row report.

Rows that fail validation are listed in the report and do not make the
command fail. The command fails when the whole request is refused.`,
		Example: `  laneimport import lanes.xlsx --client acme
  laneimport import lanes.csv --client acme --map truckSize="Vehicle" --unmap notes --fallback origin="Pune DC"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, args[0], f)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.clientID, "client", "", "client the lanes belong to (overrides LANEIMPORT_CLIENT_ID)")
	flags.StringArrayVar(&f.maps, "map", nil, "map a field to a column, as field=column (repeatable)")
	flags.StringArrayVar(&f.unmaps, "unmap", nil, "leave a field unmapped (repeatable)")
	flags.StringArrayVar(&f.fallbacks, "fallback", nil, "default for an unmapped optional field, as field=value (repeatable)")
	flags.BoolVar(&f.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, path string, f importFlags) error {
	clientID := f.clientID
	if clientID == "" {
		clientID = a.cfg.ClientID
	}
	if strings.TrimSpace(clientID) == "" {
		return fmt.Errorf("a client is required: pass --client or set LANEIMPORT_CLIENT_ID")
	}

	maps, err := parsePairs("map", f.maps)
	if err != nil {
		return err
	}
	fallbacks, err := parsePairs("fallback", f.fallbacks)
	if err != nil {
		return err
	}

	file, err := readFile(path)
	if err != nil {
		return err
	}

	client := a.client()
	w, err := wizard.New(client, importapi.NewExecutor(client, a.registry, a.logger), wizard.Options{
		ClientID: clientID,
		Defaults: a.cfg.Defaults(),
		Mapper:   a.mapper,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}

	if err := w.Upload(cmd.Context(), file); err != nil {
		return err
	}
	ed, err := w.Editor()
	if err != nil {
		return err
	}
	if err := applyOverrides(ed, f.unmaps, maps, fallbacks); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !w.CanImport() {
		return incompleteMapping(cmd.ErrOrStderr(), a.registry, ed)
	}

	a.logger.Debug("mapping ready", zap.Any("mapping", ed.Mapping()), zap.Any("fallbacks", ed.Fallbacks()))
	result, err := w.Import(cmd.Context())
	if err != nil {
		return err
	}

	summary := report.Summarize(*result)
	if f.asJSON {
		return writeJSON(out, summary)
	}
	return report.Render(out, summary)
}

func applyOverrides(ed *mapping.Editor, unmaps []string, maps, fallbacks [][2]string) error {
	for _, key := range unmaps {
		if err := ed.Unset(strings.TrimSpace(key)); err != nil {
			return fmt.Errorf("--unmap %s: %w", key, err)
		}
	}
	for _, kv := range maps {
		if err := ed.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("--map %s=%s: %w", kv[0], kv[1], err)
		}
	}
	for _, kv := range fallbacks {
		if err := ed.SetFallback(kv[0], kv[1]); err != nil {
			return fmt.Errorf("--fallback %s: %w", kv[0], err)
		}
	}
	return nil
}

// incompleteMapping prints the current mapping to w and returns the
// *importapi.IncompleteMappingError, joined with any print failure.
func incompleteMapping(w io.Writer, registry *fields.Registry, ed *mapping.Editor) error {
	incomplete := &importapi.IncompleteMappingError{Missing: fields.Keys(ed.Missing())}
	if err := renderProposal(w, registry, proposalOf(ed)); err != nil {
		return errors.Join(incomplete, fmt.Errorf("failed to print mapping: %w", err))
	}
	return incomplete
}

// proposalOf reports the editor's current state in the automap layout.
func proposalOf(ed *mapping.Editor) automap.Proposal {
	m := ed.Mapping()
	used := map[string]bool{}
	for _, col := range m {
		used[col] = true
	}
	p := automap.Proposal{Mapping: m, Shared: ed.Shared()}
	for _, col := range ed.Columns() {
		if !used[col] {
			p.Unmatched = append(p.Unmatched, col)
		}
	}
	return p
}

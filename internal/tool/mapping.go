// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fleetops/laneimport/internal/automap"
	"github.com/fleetops/laneimport/internal/fields"
)

// MetadataProposeColumnMapping describes the propose_column_mapping tool.
var MetadataProposeColumnMapping = &mcp.Tool{
	Name: "propose_column_mapping",
	Description: "Propose a mapping from spreadsheet column headers to the canonical lane fields. " +
		"Headers are compared case- and accent-insensitively; a header maps to a field when it " +
		"equals or contains one of the field's aliases. The result lists the proposed mapping, " +
		"headers proposed for more than one field, headers that matched nothing, and the required " +
		"fields still unmapped. An import can only run once 'complete' is true.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"headers"},
		"properties": map[string]interface{}{
			"headers": map[string]interface{}{
				"type":        "array",
				"description": "Column headers in file order, exactly as they appear in the header row",
				"items":       map[string]interface{}{"type": "string"},
			},
		},
	},
}

// InputProposeColumnMapping is the input for the ProposeColumnMapping tool.
type InputProposeColumnMapping struct {
	Headers []string `json:"headers"`
}

// OutputProposeColumnMapping is the output for the ProposeColumnMapping tool.
type OutputProposeColumnMapping struct {
	// Mapping maps canonical field keys to source headers.
	Mapping map[string]string `json:"mapping"`
	// Shared lists headers proposed for several fields.
	Shared    map[string][]string `json:"shared,omitempty"`
	Unmatched []string            `json:"unmatched"`
	// Missing holds the required field keys left unmapped.
	Missing  []string `json:"missing"`
	Complete bool     `json:"complete"`
}

// MetadataListCanonicalFields describes the list_canonical_fields tool.
var MetadataListCanonicalFields = &mcp.Tool{
	Name: "list_canonical_fields",
	Description: "List the canonical lane fields a spreadsheet can be mapped to, in display order, " +
		"with their labels, whether they are required, and the header aliases recognised for each.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
}

type InputListCanonicalFields struct{}

// FieldInfo describes one canonical field.
type FieldInfo struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Aliases  []string `json:"aliases"`
}

type OutputListCanonicalFields struct {
	Fields []FieldInfo `json:"fields"`
}

// Tools serves the mapping tools for one field registry.
type Tools struct {
	mapper *automap.Mapper
}

// New creates Tools for mapper. A nil mapper uses the built-in lane table.
func New(mapper *automap.Mapper) *Tools {
	if mapper == nil {
		mapper = automap.New(nil)
	}
	return &Tools{mapper: mapper}
}

// ProposeColumnMapping runs the auto-mapper over the provided headers.
func (t *Tools) ProposeColumnMapping(_ context.Context, _ *mcp.CallToolRequest, input InputProposeColumnMapping) (*mcp.CallToolResult, OutputProposeColumnMapping, error) {
	if len(input.Headers) == 0 {
		return nil, OutputProposeColumnMapping{}, fmt.Errorf("headers are required")
	}
	for i, h := range input.Headers {
		if strings.TrimSpace(h) == "" {
			return nil, OutputProposeColumnMapping{}, fmt.Errorf("header %d is blank", i+1)
		}
	}

	p := t.mapper.Propose(input.Headers)
	unmatched := p.Unmatched
	if unmatched == nil {
		unmatched = []string{}
	}
	missing := fields.Keys(t.mapper.Registry().Missing(p.Mapping))
	return nil, OutputProposeColumnMapping{
		Mapping:   p.Mapping,
		Shared:    p.Shared,
		Unmatched: unmatched,
		Missing:   missing,
		Complete:  len(missing) == 0,
	}, nil
}

// ListCanonicalFields returns the registry with its aliases.
func (t *Tools) ListCanonicalFields(_ context.Context, _ *mcp.CallToolRequest, _ InputListCanonicalFields) (*mcp.CallToolResult, OutputListCanonicalFields, error) {
	reg := t.mapper.Registry()
	out := OutputListCanonicalFields{}
	for _, f := range reg.Fields() {
		out.Fields = append(out.Fields, FieldInfo{
			Key:      f.Key,
			Label:    f.Label,
			Required: f.Required,
			Aliases:  reg.AliasesFor(f.Key),
		})
	}
	return nil, out, nil
}

// Register adds the mapping tools to server.
func (t *Tools) Register(server *mcp.Server) {
	mcp.AddTool(server, MetadataProposeColumnMapping, t.ProposeColumnMapping)
	mcp.AddTool(server, MetadataListCanonicalFields, t.ListCanonicalFields)
}

// NewServer creates an MCP server exposing the mapping tools.
func NewServer(mapper *automap.Mapper, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "laneimport", Version: version}, nil)
	New(mapper).Register(server)
	return server
}

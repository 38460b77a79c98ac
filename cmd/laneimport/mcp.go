// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/fleetops/laneimport/internal/tool"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the column mapping tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.logger.Info("serving MCP tools on stdio")
			return tool.NewServer(a.mapper, version).Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

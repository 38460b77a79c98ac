// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/fleetops/laneimport/internal/batch"
	"github.com/fleetops/laneimport/internal/server"
	"github.com/fleetops/laneimport/internal/sheet"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference import backend with in-memory storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			processor := batch.NewProcessor(batch.NewMemoryStore(), a.registry, a.logger)
			processor.MaxErrors = a.cfg.MaxRowErrors

			srv := server.New(sheet.DefaultPipeline(), processor, a.registry, server.Options{Token: a.cfg.Token}, a.logger)
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LANEIMPORT_LISTEN_ADDR)")
	return cmd
}

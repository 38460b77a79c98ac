// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleetops/laneimport/internal/automap"
	"github.com/fleetops/laneimport/internal/config"
	"github.com/fleetops/laneimport/internal/fields"
	"github.com/fleetops/laneimport/internal/importapi"
	"github.com/fleetops/laneimport/internal/sheet"
)

type app struct {
	out      io.Writer
	cfg      *config.Config
	logger   *zap.Logger
	registry *fields.Registry
	mapper   *automap.Mapper
}

type globalFlags struct {
	apiURL     string
	token      string
	fieldsFile string
	logLevel   string
	logFormat  string
	timeout    time.Duration
	envFile    string
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	var g globalFlags

	root := &cobra.Command{
		Use:           "laneimport",
		Short:         "Bulk import truck lanes from spreadsheets",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, g)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(os.Stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&g.apiURL, "api-url", "", "import backend base URL (overrides "+config.EnvAPIURL+")")
	pf.StringVar(&g.token, "token", "", "bearer token (overrides "+config.EnvToken+")")
	pf.StringVar(&g.fieldsFile, "fields-file", "", "YAML field table replacing the built-in lane fields")
	pf.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&g.logFormat, "log-format", "", "console or json")
	pf.DurationVar(&g.timeout, "timeout", 0, "backend call timeout")

	root.AddCommand(
		newFieldsCmd(a),
		newAutomapCmd(a),
		newPreviewCmd(a),
		newImportCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
	)

	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w\nRun '%s --help' for usage", err, c.CommandPath())
	})
	return root
}

func (a *app) init(cmd *cobra.Command, g globalFlags) error {
	cfg, err := config.LoadFile(g.envFile)
	if err != nil {
		return err
	}
	if g.apiURL != "" {
		cfg.APIURL = g.apiURL
	}
	if g.token != "" {
		cfg.Token = g.token
	}
	if g.fieldsFile != "" {
		cfg.FieldsFile = g.fieldsFile
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = g.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.registry = registry
	a.mapper = automap.New(registry)
	return nil
}

func (a *app) client() *importapi.Client {
	return importapi.NewClient(a.cfg.APIURL, importapi.StaticToken(a.cfg.Token), a.cfg.Timeout, a.logger)
}

func readFile(path string) (importapi.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return importapi.File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return importapi.File{Name: path, Data: data}, nil
}

func (a *app) localPreviewer() *sheet.LocalPreviewer {
	return sheet.NewLocalPreviewer(sheet.DefaultPipeline(), sheet.DefaultSampleSize)
}

// parsePairs splits key=value flag values.
func parsePairs(flag string, values []string) ([][2]string, error) {
	out := make([][2]string, 0, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--%s expects key=value, got %q", flag, v)
		}
		out = append(out, [2]string{key, value})
	}
	return out, nil
}

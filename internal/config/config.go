// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fleetops/laneimport/internal/fields"
)

// Environment variable names.
const (
	EnvAPIURL         = "LANEIMPORT_API_URL"
	EnvToken          = "LANEIMPORT_TOKEN"
	EnvClientID       = "LANEIMPORT_CLIENT_ID"
	EnvDefaultOrigin  = "LANEIMPORT_DEFAULT_ORIGIN"
	EnvTimeoutSeconds = "LANEIMPORT_TIMEOUT_SECONDS"
	EnvFieldsFile     = "LANEIMPORT_FIELDS_FILE"
	EnvListenAddr     = "LANEIMPORT_LISTEN_ADDR"
	EnvMaxRowErrors   = "LANEIMPORT_MAX_ROW_ERRORS"
	EnvLogLevel       = "LOG_LEVEL"
	EnvLogFormat      = "LOG_FORMAT"
)

// Config is the process configuration shared by the CLI commands.
type Config struct {
	APIURL        string
	Token         string
	ClientID      string
	DefaultOrigin string
	Timeout       time.Duration
	FieldsFile    string
	ListenAddr    string
	MaxRowErrors  int

	LogLevel  string
	LogFormat string
}

// Load reads .env from the working directory when present, then the
// environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error. Variables already set in the environment win over the file.
func LoadFile(dotenv string) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	timeout, err := getEnvAsInt(EnvTimeoutSeconds, 30)
	if err != nil {
		return nil, err
	}
	maxErrors, err := getEnvAsInt(EnvMaxRowErrors, 50)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIURL:        getEnv(EnvAPIURL, "http://localhost:8080"),
		Token:         getEnv(EnvToken, ""),
		ClientID:      getEnv(EnvClientID, ""),
		DefaultOrigin: getEnv(EnvDefaultOrigin, ""),
		Timeout:       time.Duration(timeout) * time.Second,
		FieldsFile:    getEnv(EnvFieldsFile, ""),
		ListenAddr:    getEnv(EnvListenAddr, ":8080"),
		MaxRowErrors:  maxErrors,
		LogLevel:      getEnv(EnvLogLevel, "info"),
		LogFormat:     getEnv(EnvLogFormat, "console"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would only fail later, mid-request.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", EnvAPIURL, c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvTimeoutSeconds)
	}
	if c.MaxRowErrors <= 0 {
		return fmt.Errorf("%s must be positive", EnvMaxRowErrors)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%s must be json or console, got %q", EnvLogFormat, c.LogFormat)
	}
	return nil
}

// Registry returns the canonical field registry: the override file when
// one is configured, otherwise the built-in lane table.
func (c *Config) Registry() (*fields.Registry, error) {
	if c.FieldsFile == "" {
		return fields.Default(), nil
	}
	return fields.LoadFile(c.FieldsFile)
}

// Defaults returns the client-level fallback values.
func (c *Config) Defaults() map[string]string {
	out := map[string]string{}
	if strings.TrimSpace(c.DefaultOrigin) != "" {
		out[fields.KeyOrigin] = c.DefaultOrigin
	}
	return out
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, valueStr)
	}
	return value, nil
}

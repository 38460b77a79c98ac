// SPDX-License-Identifier: Apache-2.0

package importapi

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fleetops/laneimport/internal/fields"
)

// Executor shapes an import request, refuses it locally when it cannot
// succeed, and relays the backend's structured result.
type Executor struct {
	importer Importer
	registry *fields.Registry
	logger   *zap.Logger
}

// NewExecutor creates an Executor. A nil registry uses fields.Default().
func NewExecutor(importer Importer, registry *fields.Registry, logger *zap.Logger) *Executor {
	if registry == nil {
		registry = fields.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{importer: importer, registry: registry, logger: logger}
}

// Execute runs one batch import. Whole-request failures come back as
// *IncompleteMappingError, *TransportError or *RequestRejectedError; row
// failures are reported inside the result.
func (e *Executor) Execute(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if missing := e.registry.Missing(req.Mapping); len(missing) > 0 {
		return nil, &IncompleteMappingError{Missing: fields.Keys(missing)}
	}
	if strings.TrimSpace(req.ClientID) == "" {
		return nil, fmt.Errorf("client id is required")
	}
	if len(req.File.Data) == 0 {
		return nil, fmt.Errorf("file %q is empty", req.File.Name)
	}

	shaped := ImportRequest{
		File:      req.File,
		ClientID:  req.ClientID,
		Mapping:   mappedOnly(req.Mapping),
		Fallbacks: ExclusiveFallbacks(req.Mapping, req.Fallbacks),
	}

	log := e.logger.With(zap.String("client_id", req.ClientID), zap.String("file", req.File.Name))
	for key := range shaped.Fallbacks {
		if _, ok := e.registry.Lookup(key); !ok {
			log.Warn("dropping fallback for unknown field", zap.String("field", key))
			delete(shaped.Fallbacks, key)
		}
	}
	log.Info("submitting batch import",
		zap.Int("mapped_fields", len(shaped.Mapping)),
		zap.Strings("fallbacks", sortedKeys(shaped.Fallbacks)))

	result, err := e.importer.Import(ctx, shaped)
	if err != nil {
		log.Warn("batch import failed", zap.Error(err))
		return nil, err
	}

	if err := result.Check(); err != nil {
		log.Warn("inconsistent import result", zap.Error(err))
	}
	log.Info("batch import finished",
		zap.Int("total", result.Total),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
		zap.Bool("has_more_errors", result.HasMoreErrors))
	return result, nil
}

// ExclusiveFallbacks returns the fallbacks whose field is unmapped and
// whose value is non-empty. A mapped field never carries a fallback.
func ExclusiveFallbacks(m fields.Mapping, fallbacks map[string]string) map[string]string {
	out := make(map[string]string, len(fallbacks))
	for key, value := range fallbacks {
		if m.Mapped(key) || strings.TrimSpace(value) == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func mappedOnly(m fields.Mapping) fields.Mapping {
	out := make(fields.Mapping, len(m))
	for key := range m {
		if m.Mapped(key) {
			out[key] = m[key]
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

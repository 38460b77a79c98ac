// SPDX-License-Identifier: Apache-2.0

// Package batch turns a spreadsheet table and a column mapping into saved
// lanes, collecting per-row failures instead of aborting.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fleetops/laneimport/internal/fields"
	"github.com/fleetops/laneimport/internal/importapi"
	"github.com/fleetops/laneimport/internal/sheet"
)

// DefaultMaxErrors bounds the row errors listed in a result.
const DefaultMaxErrors = 50

// InvalidMappingError rejects a mapping that names unknown fields or
// columns absent from the file.
type InvalidMappingError struct {
	UnknownFields  []string
	UnknownColumns []string
}

func (e *InvalidMappingError) Error() string {
	var parts []string
	if len(e.UnknownFields) > 0 {
		parts = append(parts, "unknown fields: "+strings.Join(e.UnknownFields, ", "))
	}
	if len(e.UnknownColumns) > 0 {
		parts = append(parts, "columns not in file: "+strings.Join(e.UnknownColumns, ", "))
	}
	return "invalid mapping: " + strings.Join(parts, "; ")
}

// Processor validates and stores the rows of one import.
type Processor struct {
	store    Store
	registry *fields.Registry
	logger   *zap.Logger

	// MaxErrors caps the listed row errors; non-positive means
	// DefaultMaxErrors.
	MaxErrors int
}

// NewProcessor creates a Processor. A nil registry uses fields.Default().
func NewProcessor(store Store, registry *fields.Registry, logger *zap.Logger) *Processor {
	if registry == nil {
		registry = fields.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{store: store, registry: registry, logger: logger, MaxErrors: DefaultMaxErrors}
}

// CheckMapping reports whether m can be applied to table.
func (p *Processor) CheckMapping(table *sheet.Table, m fields.Mapping) error {
	invalid := &InvalidMappingError{}
	for _, f := range p.registry.Fields() {
		if !m.Mapped(f.Key) {
			continue
		}
		if _, found := table.Index(m[f.Key]); !found {
			invalid.UnknownColumns = append(invalid.UnknownColumns, m[f.Key])
		}
	}
	for key := range m {
		if _, ok := p.registry.Lookup(key); !ok {
			invalid.UnknownFields = append(invalid.UnknownFields, key)
		}
	}
	sort.Strings(invalid.UnknownFields)
	if len(invalid.UnknownFields) > 0 || len(invalid.UnknownColumns) > 0 {
		return invalid
	}
	if missing := p.registry.Missing(m); len(missing) > 0 {
		return &importapi.IncompleteMappingError{Missing: fields.Keys(missing)}
	}
	return nil
}

// Process imports every record of table. Whole-request problems (an
// unusable mapping, a cancelled context) are returned as errors; anything
// wrong with a single row is recorded in the result.
func (p *Processor) Process(ctx context.Context, table *sheet.Table, m fields.Mapping, fallbacks map[string]string, clientID string) (*importapi.ImportResult, error) {
	if err := p.CheckMapping(table, m); err != nil {
		return nil, err
	}
	maxErrors := p.MaxErrors
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	fallbacks = importapi.ExclusiveFallbacks(m, fallbacks)

	result := &importapi.ImportResult{Errors: []importapi.RowError{}}
	for i, rec := range table.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Total++

		err := p.processRow(ctx, clientID, p.rowValues(table, i, m, fallbacks), rec.Line)
		if err == nil {
			result.Successful++
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		result.Failed++
		if len(result.Errors) < maxErrors {
			result.Errors = append(result.Errors, importapi.RowError{Row: rec.Line, Error: err.Error()})
		} else {
			result.HasMoreErrors = true
		}
	}

	p.logger.Info("batch processed",
		zap.String("client_id", clientID),
		zap.Int("total", result.Total),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (p *Processor) rowValues(table *sheet.Table, i int, m fields.Mapping, fallbacks map[string]string) map[string]string {
	values := make(map[string]string, len(p.registry.Fields()))
	for _, f := range p.registry.Fields() {
		if m.Mapped(f.Key) {
			values[f.Key] = strings.TrimSpace(table.Value(i, m[f.Key]))
			continue
		}
		if v, ok := fallbacks[f.Key]; ok {
			values[f.Key] = strings.TrimSpace(v)
		}
	}
	return values
}

func (p *Processor) processRow(ctx context.Context, clientID string, values map[string]string, line int) error {
	for _, f := range p.registry.Required() {
		if values[f.Key] == "" {
			return fmt.Errorf("%s is required", f.Label)
		}
	}

	lane := Lane{
		ID:          uuid.New(),
		Row:         line,
		LaneCode:    values[fields.KeyLaneCode],
		LaneName:    values[fields.KeyLaneName],
		Origin:      values[fields.KeyOrigin],
		Destination: values[fields.KeyDestination],
		TruckSize:   values[fields.KeyTruckSize],
		Notes:       values[fields.KeyNotes],
	}
	numeric := []struct {
		key string
		dst *decimal.NullDecimal
	}{
		{fields.KeyDistanceKm, &lane.DistanceKm},
		{fields.KeyTransitHours, &lane.TransitHours},
		{fields.KeyRate, &lane.Rate},
	}
	for _, n := range numeric {
		v, err := p.parseAmount(n.key, values[n.key])
		if err != nil {
			return err
		}
		*n.dst = v
	}

	if err := p.store.SaveLane(ctx, clientID, lane); err != nil {
		return fmt.Errorf("failed to save lane: %w", err)
	}
	return nil
}

func (p *Processor) parseAmount(key, raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	label := key
	if f, ok := p.registry.Lookup(key); ok {
		label = f.Label
	}
	d, err := ParseAmount(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %q is not a number", label, raw)
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%s must not be negative, got %s", label, raw)
	}
	return decimal.NewNullDecimal(d), nil
}

// ParseAmount parses a spreadsheet number such as "1,250.50" or " 42 ".
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(s)
}

// SPDX-License-Identifier: Apache-2.0

package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fleetops/laneimport/internal/automap"
	"github.com/fleetops/laneimport/internal/fields"
)

// None unmaps a field unless the file has a column with that name.
const None = "none"

var (
	ErrUnknownField    = errors.New("unknown canonical field")
	ErrUnknownColumn   = errors.New("column not present in the uploaded file")
	ErrFallbackOnField = errors.New("fallback values apply to optional fields only")
)

// Editor holds the operator's column mapping for one wizard session,
// seeded by the auto-mapper and then overridden by hand. It is not safe
// for concurrent use.
type Editor struct {
	mapper    *automap.Mapper
	registry  *fields.Registry
	columns   []string
	known     map[string]bool
	mapping   fields.Mapping
	fallbacks map[string]string
	shared    map[string][]string
}

// NewEditor creates an empty Editor. A nil mapper uses the built-in lane
// table.
func NewEditor(mapper *automap.Mapper) *Editor {
	if mapper == nil {
		mapper = automap.New(nil)
	}
	return &Editor{
		mapper:    mapper,
		registry:  mapper.Registry(),
		known:     map[string]bool{},
		mapping:   fields.Mapping{},
		fallbacks: map[string]string{},
	}
}

// Reset replaces the known columns and reseeds the mapping from the
// auto-mapper's proposal. Fallback defaults are client-level and survive.
func (e *Editor) Reset(columns []string) {
	e.columns = append([]string(nil), columns...)
	e.known = make(map[string]bool, len(columns))
	for _, c := range columns {
		e.known[c] = true
	}
	p := e.mapper.Propose(columns)
	e.mapping = p.Mapping
	e.shared = p.Shared
}

// Set maps key to column. A column of None or "" removes the field from
// the mapping; a header actually named "none" is still mappable.
func (e *Editor) Set(key, column string) error {
	if _, ok := e.registry.Lookup(key); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	switch {
	case e.known[column]:
		e.mapping[key] = column
	case column == "" || strings.EqualFold(column, None):
		delete(e.mapping, key)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	return nil
}

// Unset removes key from the mapping.
func (e *Editor) Unset(key string) error {
	if _, ok := e.registry.Lookup(key); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	delete(e.mapping, key)
	return nil
}

// Clear removes every mapping entry.
func (e *Editor) Clear() {
	e.mapping = fields.Mapping{}
}

// Column returns the column mapped to key.
func (e *Editor) Column(key string) (string, bool) {
	c, ok := e.mapping[key]
	return c, ok
}

// Mapping returns a copy of the current mapping.
func (e *Editor) Mapping() fields.Mapping {
	return e.mapping.Clone()
}

func (e *Editor) Columns() []string {
	return append([]string(nil), e.columns...)
}

// IsComplete reports whether every required field is mapped. It is
// derived from the current mapping on each call.
func (e *Editor) IsComplete() bool {
	return e.registry.Complete(e.mapping)
}

// Missing returns the required fields still unmapped, in registry order.
func (e *Editor) Missing() []fields.CanonicalField {
	return e.registry.Missing(e.mapping)
}

// Shared returns the columns the auto-mapper proposed for more than one
// field at the last Reset.
func (e *Editor) Shared() map[string][]string {
	out := make(map[string][]string, len(e.shared))
	for k, v := range e.shared {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// SetFallback records a client-level default for an optional field. An
// empty value removes it.
func (e *Editor) SetFallback(key, value string) error {
	f, ok := e.registry.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	if f.Required {
		return fmt.Errorf("%w: %q is required", ErrFallbackOnField, key)
	}
	if strings.TrimSpace(value) == "" {
		delete(e.fallbacks, key)
		return nil
	}
	e.fallbacks[key] = value
	return nil
}

// FallbackFor returns the default to surface for key. It is only offered
// while the field is unmapped.
func (e *Editor) FallbackFor(key string) (string, bool) {
	if e.mapping.Mapped(key) {
		return "", false
	}
	v, ok := e.fallbacks[key]
	return v, ok
}

// Fallbacks returns the defaults to transmit: only those whose field is
// currently unmapped.
func (e *Editor) Fallbacks() map[string]string {
	out := make(map[string]string, len(e.fallbacks))
	for key, v := range e.fallbacks {
		if !e.mapping.Mapped(key) {
			out[key] = v
		}
	}
	return out
}

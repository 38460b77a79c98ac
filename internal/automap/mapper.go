// SPDX-License-Identifier: Apache-2.0

package automap

import (
	"strings"

	"github.com/fleetops/laneimport/internal/fields"
)

// fieldRule is a canonical field key with its normalized aliases.
type fieldRule struct {
	key     string
	aliases []string
}

// Mapper proposes a ColumnMapping from spreadsheet headers using the alias
// table of a Registry. Rules are evaluated in registry order; for each
// field the first header in file order that equals or contains one of the
// field's aliases wins.
type Mapper struct {
	registry *fields.Registry
	rules    []fieldRule
}

// Proposal is the mapper's full answer for one header list.
type Proposal struct {
	Mapping fields.Mapping `json:"mapping"`
	// Shared lists columns proposed for more than one field, keyed by
	// column, with field keys in registry order.
	Shared map[string][]string `json:"shared,omitempty"`
	// Unmatched lists headers no field claimed, in file order.
	Unmatched []string `json:"unmatched,omitempty"`
}

// New creates a Mapper over registry. A nil registry uses fields.Default().
func New(registry *fields.Registry) *Mapper {
	if registry == nil {
		registry = fields.Default()
	}

	fs := registry.Fields()
	rules := make([]fieldRule, 0, len(fs))
	for _, f := range fs {
		var aliases []string
		for _, a := range registry.AliasesFor(f.Key) {
			if n := Normalize(a); n != "" {
				aliases = append(aliases, n)
			}
		}
		rules = append(rules, fieldRule{key: f.Key, aliases: aliases})
	}
	return &Mapper{registry: registry, rules: rules}
}

func (m *Mapper) Registry() *fields.Registry {
	return m.registry
}

// Map returns the proposed mapping for columns. It never fails; when
// nothing matches the mapping is empty.
func (m *Mapper) Map(columns []string) fields.Mapping {
	return m.Propose(columns).Mapping
}

func (m *Mapper) Propose(columns []string) Proposal {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = Normalize(c)
	}

	mapping := make(fields.Mapping)
	claims := make(map[string][]string)
	for _, rule := range m.rules {
		col, ok := rule.match(columns, normalized)
		if !ok {
			continue
		}
		mapping[rule.key] = col
		claims[col] = append(claims[col], rule.key)
	}

	p := Proposal{Mapping: mapping}
	for _, col := range columns {
		keys, ok := claims[col]
		switch {
		case !ok:
			p.Unmatched = append(p.Unmatched, col)
		case len(keys) > 1:
			if p.Shared == nil {
				p.Shared = make(map[string][]string)
			}
			p.Shared[col] = keys
		}
	}
	return p
}

func (r fieldRule) match(columns, normalized []string) (string, bool) {
	for i, header := range normalized {
		if header == "" {
			continue
		}
		for _, alias := range r.aliases {
			if header == alias || strings.Contains(header, alias) {
				return columns[i], true
			}
		}
	}
	return "", false
}

var defaultMapper = New(nil)

// AutoMap proposes a mapping for columns using the built-in lane table.
func AutoMap(columns []string) fields.Mapping {
	return defaultMapper.Map(columns)
}

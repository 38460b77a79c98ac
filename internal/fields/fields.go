// SPDX-License-Identifier: Apache-2.0

package fields

import (
	"fmt"
	"strings"
)

// CanonicalField is one target attribute a lane import understands.
type CanonicalField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// Definition pairs a canonical field with the alias fragments used to
// recognise it in spreadsheet headers.
type Definition struct {
	CanonicalField
	Aliases []string `json:"aliases"`
}

// Mapping associates canonical field keys with source column headers.
// A key with no entry is unmapped.
type Mapping map[string]string

// Clone returns an independent copy of m. A nil mapping clones to an empty one.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Mapped reports whether key has a non-empty column assigned.
func (m Mapping) Mapped(key string) bool {
	return strings.TrimSpace(m[key]) != ""
}

// Registry is an immutable, ordered set of canonical fields and their aliases.
type Registry struct {
	fields  []CanonicalField
	aliases map[string][]string
	index   map[string]int
}

// New builds a Registry from definitions in declaration order.
func New(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("registry requires at least one field")
	}

	r := &Registry{
		fields:  make([]CanonicalField, 0, len(defs)),
		aliases: make(map[string][]string, len(defs)),
		index:   make(map[string]int, len(defs)),
	}
	for i, def := range defs {
		key := strings.TrimSpace(def.Key)
		if key == "" {
			return nil, fmt.Errorf("field %d: key is required", i)
		}
		if _, dup := r.index[key]; dup {
			return nil, fmt.Errorf("field %q: duplicate key", key)
		}
		if strings.TrimSpace(def.Label) == "" {
			return nil, fmt.Errorf("field %q: label is required", key)
		}

		aliases := make([]string, 0, len(def.Aliases))
		for _, a := range def.Aliases {
			if a != strings.ToLower(a) {
				return nil, fmt.Errorf("field %q: alias %q must be lowercase", key, a)
			}
			if strings.TrimSpace(a) == "" {
				return nil, fmt.Errorf("field %q: empty alias", key)
			}
			aliases = append(aliases, a)
		}

		r.index[key] = len(r.fields)
		r.fields = append(r.fields, CanonicalField{Key: key, Label: def.Label, Required: def.Required})
		r.aliases[key] = aliases
	}
	return r, nil
}

// MustNew is like New but panics on an invalid table. It is meant for
// compiled-in tables only.
func MustNew(defs []Definition) *Registry {
	r, err := New(defs)
	if err != nil {
		panic(err)
	}
	return r
}

// Fields returns the canonical fields in declaration order.
func (r *Registry) Fields() []CanonicalField {
	out := make([]CanonicalField, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r *Registry) Lookup(key string) (CanonicalField, bool) {
	i, ok := r.index[key]
	if !ok {
		return CanonicalField{}, false
	}
	return r.fields[i], true
}

// AliasesFor returns the alias fragments registered for key, or nil.
func (r *Registry) AliasesFor(key string) []string {
	aliases := r.aliases[key]
	if aliases == nil {
		return nil
	}
	out := make([]string, len(aliases))
	copy(out, aliases)
	return out
}

// Required returns the required fields in declaration order.
func (r *Registry) Required() []CanonicalField {
	var out []CanonicalField
	for _, f := range r.fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Missing returns the required fields that m leaves unmapped, in
// declaration order. An empty result means m is complete.
func (r *Registry) Missing(m Mapping) []CanonicalField {
	var out []CanonicalField
	for _, f := range r.fields {
		if f.Required && !m.Mapped(f.Key) {
			out = append(out, f)
		}
	}
	return out
}

// Complete reports whether every required field is mapped.
func (r *Registry) Complete(m Mapping) bool {
	return len(r.Missing(m)) == 0
}

// Keys returns the keys of fields, preserving order.
func Keys(fields []CanonicalField) []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// SPDX-License-Identifier: Apache-2.0

package fields

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/goccy/go-yaml"
)

// fieldSchema constrains override files before they reach New.
const fieldSchema = `
#Field: {
	key:      =~"^[a-z][A-Za-z0-9]*$"
	label:    string & !=""
	required: bool
	aliases: [...(string & =~"^[^A-Z]+$" & =~"[^ _-]")]
}
fields: [#Field, ...#Field]
`

type fileField struct {
	Key      string   `yaml:"key" json:"key"`
	Label    string   `yaml:"label" json:"label"`
	Required bool     `yaml:"required" json:"required"`
	Aliases  []string `yaml:"aliases" json:"aliases"`
}

type fieldFile struct {
	Fields []fileField `yaml:"fields" json:"fields"`
}

// LoadFile reads a YAML field table from path. See Parse.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read field table %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("field table %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes a YAML field table, validates it against the field schema
// and builds a Registry preserving the file's field order.
func Parse(data []byte) (*Registry, error) {
	var file fieldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal field table: %w", err)
	}
	if file.Fields == nil {
		file.Fields = []fileField{}
	}
	for i := range file.Fields {
		if file.Fields[i].Aliases == nil {
			file.Fields[i].Aliases = []string{}
		}
	}
	if err := validate(file); err != nil {
		return nil, err
	}

	defs := make([]Definition, len(file.Fields))
	for i, f := range file.Fields {
		defs[i] = Definition{
			CanonicalField: CanonicalField{Key: f.Key, Label: f.Label, Required: f.Required},
			Aliases:        f.Aliases,
		}
	}
	return New(defs)
}

func validate(file fieldFile) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(fieldSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("invalid field schema: %w", err)
	}

	data := ctx.Encode(file)
	if err := data.Err(); err != nil {
		return fmt.Errorf("failed to encode field table: %w", err)
	}
	if err := schema.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("field table does not match schema: %w", err)
	}
	return nil
}

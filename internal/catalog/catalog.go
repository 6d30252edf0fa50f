// Package catalog registers operator-supplied schema definitions from
// YAML files, extending the built-ins without a rebuild.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/JonMunkholm/reconcile/internal/core"
)

// schemaFile is the YAML shape of one catalog entry. One schema per file;
// os.ReadDir ordering makes registration deterministic.
type schemaFile struct {
	Key             string      `yaml:"key"`
	Group           string      `yaml:"group"`
	Label           string      `yaml:"label"`
	Description     string      `yaml:"description"`
	TablePrefix     string      `yaml:"table_prefix"`
	AliasConfidence float64     `yaml:"alias_confidence"`
	Fields          []fieldFile `yaml:"fields"`
}

type fieldFile struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Required   bool     `yaml:"required"`
	AllowEmpty bool     `yaml:"allow_empty"`
	Enum       []string `yaml:"enum"`
	Aliases    []string `yaml:"aliases"`
}

// Load registers every *.yaml/*.yml schema definition found in dir and
// returns the number registered. A missing directory is not an error; a
// malformed file is, so a bad catalog stops startup instead of silently
// serving a partial schema set.
func Load(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read catalog dir: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !isYamlName(entry.Name()) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return count, fmt.Errorf("catalog file %s: %w", entry.Name(), err)
		}

		def, err := parse(data)
		if err != nil {
			return count, fmt.Errorf("catalog file %s: %w", entry.Name(), err)
		}

		// Register panics on conflicts, which is right for compiled-in
		// definitions but not for operator files.
		if _, exists := core.Get(def.Info.Key); exists {
			return count, fmt.Errorf("catalog file %s: schema %q already registered", entry.Name(), def.Info.Key)
		}
		if err := core.ValidateDefinition(&def); err != nil {
			return count, fmt.Errorf("catalog file %s: %w", entry.Name(), err)
		}

		core.Register(def)
		count++
	}
	return count, nil
}

func isYamlName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func parse(data []byte) (core.SchemaDefinition, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return core.SchemaDefinition{}, fmt.Errorf("parse yaml: %w", err)
	}

	def := core.SchemaDefinition{
		Info: core.SchemaInfo{
			Key:         f.Key,
			Group:       f.Group,
			Label:       f.Label,
			Description: f.Description,
		},
		AliasConfidence: f.AliasConfidence,
		TablePrefix:     f.TablePrefix,
	}
	if def.Info.Group == "" {
		def.Info.Group = "Catalog"
	}
	if def.Info.Label == "" {
		def.Info.Label = f.Key
	}

	aliases := make(map[string]string)
	for _, ff := range f.Fields {
		t, err := parseFieldType(ff.Type)
		if err != nil {
			return def, fmt.Errorf("field %q: %w", ff.Name, err)
		}
		def.Fields = append(def.Fields, core.FieldSpec{
			Name:       ff.Name,
			Type:       t,
			Required:   ff.Required,
			AllowEmpty: ff.AllowEmpty,
			EnumValues: ff.Enum,
		})
		for _, spelling := range ff.Aliases {
			if prev, dup := aliases[spelling]; dup && prev != ff.Name {
				return def, fmt.Errorf("alias %q claimed by both %q and %q", spelling, prev, ff.Name)
			}
			aliases[spelling] = ff.Name
		}
	}
	if len(aliases) > 0 {
		def.Aliases = aliases
	}
	return def, nil
}

func parseFieldType(s string) (core.FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return core.FieldText, nil
	case "enum":
		return core.FieldEnum, nil
	case "date":
		return core.FieldDate, nil
	case "numeric", "number":
		return core.FieldNumeric, nil
	case "bool", "boolean":
		return core.FieldBool, nil
	}
	return core.FieldText, fmt.Errorf("unknown field type %q", s)
}

package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]SchemaDefinition)
	registryMu sync.RWMutex
)

// DefaultTablePrefix is prepended to derived target table names when a
// schema does not declare its own prefix.
const DefaultTablePrefix = "report_"

// Register adds a schema definition to the registry.
// Panics if the definition is invalid or a schema with the same key is
// already registered; registration happens in init functions where a bad
// definition should stop the process.
func Register(def SchemaDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if err := ValidateDefinition(&def); err != nil {
		panic(fmt.Sprintf("invalid schema definition %q: %v", def.Info.Key, err))
	}

	if _, exists := registry[def.Info.Key]; exists {
		panic(fmt.Sprintf("schema already registered: %s", def.Info.Key))
	}

	// Normalize alias keys so definitions can list natural spellings.
	// "Cust #" and "cust" land on the same lookup key.
	if len(def.Aliases) > 0 {
		normalized := make(map[string]string, len(def.Aliases))
		for alias, field := range def.Aliases {
			key := NormalizeHeader(alias)
			if key == "" {
				continue
			}
			normalized[key] = field
		}
		def.Aliases = normalized
	}

	if def.TablePrefix == "" {
		def.TablePrefix = DefaultTablePrefix
	}

	registry[def.Info.Key] = def
}

// Get returns a schema definition by key.
// Returns false if not found.
func Get(key string) (SchemaDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[key]
	return def, ok
}

// All returns all registered schema definitions.
// Sorted by group then by key for consistent ordering.
func All() []SchemaDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]SchemaDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// ByGroup returns all schema definitions for a specific group.
// Sorted by key for consistent ordering.
func ByGroup(group string) []SchemaDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []SchemaDefinition
	for _, def := range registry {
		if def.Info.Group == group {
			result = append(result, def)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Key < result[j].Info.Key
	})

	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, def := range registry {
		seen[def.Info.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// SchemaCount returns the number of registered schemas.
func SchemaCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered schemas.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]SchemaDefinition)
}

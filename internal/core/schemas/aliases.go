package schemas

import "fmt"

// aliasMap inverts a field -> spellings table into the spelling -> field
// map the registry wants. Definitions read better grouped by field.
// Panics on a spelling claimed by two fields; this runs from init, where
// a conflicting definition should stop the process.
func aliasMap(byField map[string][]string) map[string]string {
	out := make(map[string]string)
	for field, spellings := range byField {
		for _, spelling := range spellings {
			if prev, dup := out[spelling]; dup {
				panic(fmt.Sprintf("alias %q claimed by both %q and %q", spelling, prev, field))
			}
			out[spelling] = field
		}
	}
	return out
}

// Package variables expands {name} placeholders in topics and payloads.
package variables

import (
	"regexp"
	"slices"
)

// maxPasses bounds chained expansion such as {a} -> {b} -> value.
const maxPasses = 10

var placeholder = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Substitute replaces every {name} in template with vars[name].
//
// Placeholders without a value are left verbatim. Values may themselves
// contain placeholders; expansion repeats until nothing changes or
// maxPasses is reached, so self-referencing values terminate.
func Substitute(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}

	result := template
	for range maxPasses {
		next := placeholder.ReplaceAllStringFunc(result, func(match string) string {
			if v, ok := vars[match[1:len(match)-1]]; ok {
				return v
			}
			return match
		})
		if next == result {
			break
		}
		result = next
	}
	return result
}

// Unresolved returns the placeholder names still present in s, in order of
// first appearance.
func Unresolved(s string) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

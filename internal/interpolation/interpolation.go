// Package interpolation shields Laravel and printf placeholders from the
// model by swapping them for numbered tokens.
package interpolation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mapping stores the original placeholder and its safe replacement.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

// varMatch stores a detected interpolation variable position.
type varMatch struct {
	start, end int
	value      string
}

// patterns to detect interpolation variables in application strings.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`:[A-Za-z_][A-Za-z0-9_]*`),                         // :name, :count
	regexp.MustCompile(`\{[0-9]+\}`),                                      // {0}, {1}
	regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`),                      // {name}
	regexp.MustCompile(`%(?:[0-9]+\$)?[-+0]*[0-9]*(?:\.[0-9]+)?[dfsuxX]`), // %s, %1$s, %05.2f
	regexp.MustCompile(`%%`),                                              // escaped percent literal
}

// Protect replaces all interpolation variables with safe {{var_N}} placeholders.
// Returns the safe string and a mapping to restore originals after translation.
func Protect(text string) (string, []Mapping) {
	var matches []varMatch
	for _, p := range patterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			if text[loc[0]] == ':' && loc[0] > 0 && isWordByte(text[loc[0]-1]) {
				// "12:30" or "Note:Hello" is not a placeholder.
				continue
			}
			matches = append(matches, varMatch{start: loc[0], end: loc[1], value: text[loc[0]:loc[1]]})
		}
	}
	if len(matches) == 0 {
		return text, nil
	}

	// By position, longest first on ties.
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	var sb strings.Builder
	var mappings []Mapping
	last := 0
	for _, m := range matches {
		if m.start < last {
			continue
		}
		idx := len(mappings) + 1
		placeholder := fmt.Sprintf("{{var_%d}}", idx)
		mappings = append(mappings, Mapping{Original: m.value, Placeholder: placeholder, Index: idx})
		sb.WriteString(text[last:m.start])
		sb.WriteString(placeholder)
		last = m.end
	}
	sb.WriteString(text[last:])
	return sb.String(), mappings
}

// Restore replaces {{var_N}} placeholders back with the original interpolation variables.
func Restore(translated string, mappings []Mapping) string {
	result := translated
	for _, m := range mappings {
		result = strings.ReplaceAll(result, m.Placeholder, m.Original)
	}
	return result
}

// Missing returns the originals whose placeholder does not appear in
// translated.
func Missing(translated string, mappings []Mapping) []string {
	var missing []string
	for _, m := range mappings {
		if !strings.Contains(translated, m.Placeholder) {
			missing = append(missing, m.Original)
		}
	}
	return missing
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

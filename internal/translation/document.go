package translation

import (
	"path/filepath"
	"strings"

	"i18n-refactor/internal/collector"
)

// IdentifyUntranslated returns the indexes of entries lacking a translation
// for any of codes. Entries marked not translatable are skipped.
func IdentifyUntranslated(entries []collector.Entry, codes []string) []int {
	var out []int
	for i, e := range entries {
		t := e.Translations
		if t != nil && t.NotTranslatable {
			continue
		}
		for _, code := range codes {
			if !t.Has(code) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// NewItem builds a translation item from an entry. The reference is the
// context of the first occurrence that has one.
func NewItem(e collector.Entry) Item {
	item := Item{Text: e.Text}
	for _, occ := range e.Occurrences {
		for _, pos := range occ.Positions {
			if len(pos.Context) > 0 {
				item.Reference = strings.Join(pos.Context, "\n")
				return item
			}
		}
	}
	return item
}

// Merge applies results to entries matched by text and returns the number of
// entries changed. A not translatable result overrides any translations; a
// translation map is merged into an existing map.
func Merge(entries []collector.Entry, results []Result) int {
	byText := make(map[string]Result, len(results))
	for _, r := range results {
		if !r.Missing {
			byText[r.Text] = r
		}
	}

	var changed int
	for i := range entries {
		r, ok := byText[entries[i].Text]
		if !ok {
			continue
		}
		switch {
		case r.NotTranslatable:
			entries[i].Translations = &collector.Translations{NotTranslatable: true}
		case len(r.Translations) > 0:
			t := entries[i].Translations
			if t == nil || t.Values == nil {
				t = &collector.Translations{Values: make(map[string]string, len(r.Translations))}
				entries[i].Translations = t
			}
			for code, v := range r.Translations {
				t.Values[code] = v
			}
		default:
			continue
		}
		changed++
	}
	return changed
}

// OutputPath returns where translations of input are written:
// "strings.json" becomes "strings-translated.json".
func OutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "-translated" + ext
}

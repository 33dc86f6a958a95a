package translation

import (
	"fmt"
	"strings"
)

// Language is a target language code with the description shown to the model.
type Language struct {
	Code        string
	Description string
}

// DefaultLanguages are used when no --lang flag is given.
var DefaultLanguages = []Language{
	{Code: "ja", Description: "Japanese"},
	{Code: "en", Description: "American English"},
}

var defaultDescriptions = map[string]string{
	"ja": "Japanese",
	"en": "American English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"zh": "Chinese",
	"ko": "Korean",
	"pt": "Portuguese",
	"ru": "Russian",
	"it": "Italian",
	"nl": "Dutch",
	"pl": "Polish",
	"tr": "Turkish",
	"vi": "Vietnamese",
	"th": "Thai",
	"ar": "Arabic",
	"hi": "Hindi",
}

// ParseLanguage parses "code:description" or a bare code. Unknown bare codes
// are described by their upper-cased code.
func ParseLanguage(spec string) (Language, error) {
	spec = strings.TrimSpace(spec)
	code, desc, found := strings.Cut(spec, ":")
	code = strings.TrimSpace(code)
	if code == "" {
		return Language{}, fmt.Errorf("invalid language %q: empty code", spec)
	}
	if found {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			return Language{}, fmt.Errorf("invalid language %q: empty description", spec)
		}
		return Language{Code: code, Description: desc}, nil
	}
	if d, ok := defaultDescriptions[code]; ok {
		return Language{Code: code, Description: d}, nil
	}
	return Language{Code: code, Description: strings.ToUpper(code)}, nil
}

// ParseLanguages parses every spec, falling back to DefaultLanguages when
// specs is empty.
func ParseLanguages(specs []string) ([]Language, error) {
	if len(specs) == 0 {
		return append([]Language(nil), DefaultLanguages...), nil
	}
	langs := make([]Language, 0, len(specs))
	for _, s := range specs {
		l, err := ParseLanguage(s)
		if err != nil {
			return nil, err
		}
		langs = append(langs, l)
	}
	return langs, nil
}

// Codes returns the language codes in order.
func Codes(langs []Language) []string {
	codes := make([]string, len(langs))
	for i, l := range langs {
		codes[i] = l.Code
	}
	return codes
}

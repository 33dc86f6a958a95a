package translation

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	responseRe     = regexp.MustCompile(`(?is)<response>(.*?)</response>`)
	textRe         = regexp.MustCompile(`(?is)<text>(.*?)</text>`)
	falseRe        = regexp.MustCompile(`(?is)<translations>\s*false\s*</translations>`)
	translationsRe = regexp.MustCompile(`(?is)<translations>(.*?)</translations>`)
)

// Reply is one parsed <response> block.
type Reply struct {
	Text            string
	Translations    map[string]string
	NotTranslatable bool
}

// ParseResponse extracts the <response> blocks of a model reply. Blocks
// without a <text> or without any requested translation are dropped.
func ParseResponse(reply string, langs []Language) []Reply {
	var out []Reply
	for _, m := range responseRe.FindAllStringSubmatch(reply, -1) {
		block := m[1]
		tm := textRe.FindStringSubmatch(block)
		if tm == nil {
			continue
		}
		text := html.UnescapeString(strings.TrimSpace(tm[1]))

		if falseRe.MatchString(block) {
			out = append(out, Reply{Text: text, NotTranslatable: true})
			continue
		}

		body := block
		if bm := translationsRe.FindStringSubmatch(block); bm != nil {
			body = bm[1]
		}
		values := make(map[string]string)
		for _, l := range langs {
			re, err := regexp.Compile(`(?is)<` + regexp.QuoteMeta(l.Code) + `>(.*?)</` + regexp.QuoteMeta(l.Code) + `>`)
			if err != nil {
				continue
			}
			if vm := re.FindStringSubmatch(body); vm != nil {
				values[l.Code] = html.UnescapeString(strings.TrimSpace(vm[1]))
			}
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, Reply{Text: text, Translations: values})
	}
	return out
}

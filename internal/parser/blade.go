package parser

import (
	"regexp"
	"strings"

	"i18n-refactor/internal/filter"
	"i18n-refactor/internal/phpscan"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// callArgOpener matches an identifier or member chain followed by an open
// parenthesis at the end of the text before a script literal.
var callArgOpener = regexp.MustCompile(`[A-Za-z_$][\w$]*(?:\s*\??\.\s*[A-Za-z_$][\w$]*)*\s*\(\s*$`)

// callArgWindow bounds how far back the call opener is searched.
const callArgWindow = 256

// BladeParser extracts text from Blade templates: markup text nodes, user
// visible attributes, <script> literals and literals inside embedded PHP.
type BladeParser struct {
	filter *filter.Filter
}

func NewBladeParser(f *filter.Filter) *BladeParser { return &BladeParser{filter: f} }

func (p *BladeParser) CanParse(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".blade.php")
}

func (p *BladeParser) Parse(filePath string) (*ParseResult, error) {
	text, err := readSource(filePath)
	if err != nil {
		return nil, err
	}
	return p.ParseText(filePath, text), nil
}

// ParseText extracts from already loaded template text.
func (p *BladeParser) ParseText(filePath, text string) *ParseResult {
	view := BlankComments(text)
	scripts := phpscan.ScriptBlocks(view, true)
	excluded := phpscan.Union(scripts, DirectiveZones(view))

	e := newEmitter(p.filter, filePath, text, p.filter.Prepare(view, scripts))

	for _, r := range scripts {
		for _, lit := range phpscan.Literals(text, r.Start, r.End) {
			e.add(text, lit.Start, lit.End, true)
		}
	}

	frags, err := ScanMarkup(view)
	if err != nil {
		log.Debug().Err(err).Str("file", filePath).Msg("Markup parse failed, skipping markup")
		frags = nil
	}
	p.extractMarkup(e, view, frags, excluded)

	return e.result("blade")
}

func (p *BladeParser) extractMarkup(e *emitter, view string, frags []Fragment, excluded phpscan.Ranges) {
	// Raw element bodies first, so text-node lookups can skip them.
	var raw []phpscan.Range
	cursor := 0
	for _, f := range frags {
		if f.Kind != ScriptFragment && f.Kind != StyleFragment {
			continue
		}
		start, end := locateBody(view, f.Text, cursor)
		if start < 0 {
			continue
		}
		cursor = end
		raw = append(raw, phpscan.Range{Start: start, End: end})
		if f.Kind == ScriptFragment {
			scriptLiterals(e, view, start, end, excluded)
		}
	}
	blocked := phpscan.Union(excluded, phpscan.Merge(raw))

	for _, f := range frags {
		switch f.Kind {
		case TextFragment:
			for _, needle := range sourceForms(f.Text) {
				for _, off := range occurrences(view, needle) {
					end := off + len(needle)
					if blocked.Contains(off) || !textBounded(view, off, end) {
						continue
					}
					e.add(view, off, end, false)
				}
			}
		case AttributeFragment:
			for _, val := range sourceForms(f.Text) {
				for _, q := range []string{`"`, `'`} {
					needle := f.Attr + "=" + q + val + q
					for _, off := range occurrences(view, needle) {
						start := off + len(f.Attr) + 2
						if !attributeBounded(view, off) || blocked.Contains(start) {
							continue
						}
						e.add(view, start, start+len(val), false)
					}
				}
			}
		}
	}
}

// scriptLiterals lexes a <script> body. Literals passed straight into a call
// are code, not text.
func scriptLiterals(e *emitter, view string, start, end int, excluded phpscan.Ranges) {
	for _, lit := range phpscan.Literals(view, start, end) {
		quote := lit.Start - 1
		if excluded.Contains(quote) || excluded.Contains(lit.Start) {
			continue
		}
		if callArgOpener.MatchString(view[max(start, quote-callArgWindow):quote]) {
			continue
		}
		e.add(view, lit.Start, lit.End, true)
	}
}

// sourceForms returns the ways a decoded markup string can be spelled in the
// source: verbatim, and with HTML special characters escaped.
func sourceForms(s string) []string {
	escaped := html.EscapeString(s)
	if escaped == s {
		return []string{s}
	}
	return []string{s, escaped}
}

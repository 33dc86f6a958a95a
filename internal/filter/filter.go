// Package filter decides whether a candidate literal is user-facing text.
//
// The decision is an ordered rule list. Shape rules (empty, escape-only,
// length, regex prefix, leading punctuation, symbol-only) run first and need
// only the text. Context rules (call site, array key, excluded zone) need the
// surrounding source and apply to code literals only. The optional exclusion
// dictionary runs last.
package filter

import (
	"regexp"
	"strings"
	"unicode"

	"i18n-refactor/internal/phpscan"
	"i18n-refactor/internal/position"
)

// DefaultMinBytes is the minimum UTF-8 length of an ASCII-only literal.
const DefaultMinBytes = 2

// arrowLookahead bounds the multi-line search for a "=>" after a literal.
const arrowLookahead = 100

var escapeOnly = regexp.MustCompile(`^(\\[ntrfvabe\\"'])+$`)

var regexPrefixes = []string{`(?:`, `(?=`, `(?!`, `(?<`, `\d`, `\w`, `\s`, `\b`, `^[`, `^\`}

const deniedLeading = "#,/$.!:;)]}%&@?^~`"

// Excluder is a user supplied reject list, such as an exclusion dictionary.
type Excluder interface {
	ShouldExclude(text string) bool
}

// Filter applies the inclusion rules. It holds no per-file state and may be
// shared between goroutines.
type Filter struct {
	minBytes  int
	callSites *CallSites
	excluder  Excluder
}

// Option customises a Filter.
type Option func(*Filter)

// WithMinBytes sets the minimum byte length for ASCII-only text.
func WithMinBytes(n int) Option {
	return func(f *Filter) { f.minBytes = n }
}

// WithCallSites replaces the default call-site denylist.
func WithCallSites(cs *CallSites) Option {
	return func(f *Filter) { f.callSites = cs }
}

// WithExcluder attaches an exclusion dictionary.
func WithExcluder(e Excluder) Option {
	return func(f *Filter) { f.excluder = e }
}

// New creates a Filter with the default denylist.
func New(opts ...Option) *Filter {
	f := &Filter{minBytes: DefaultMinBytes}
	for _, o := range opts {
		o(f)
	}
	if f.callSites == nil {
		f.callSites = DefaultCallSites()
	}
	return f
}

// Source is a file prepared for filtering: its position index and the
// excluded call and definition zones of its PHP code.
type Source struct {
	Text  string
	Index *position.Index
	Zones phpscan.Ranges
}

// Prepare indexes text and computes the excluded zones inside the code
// spans. Text outside them, such as template markup, never opens a zone.
func (f *Filter) Prepare(text string, code phpscan.Ranges) *Source {
	return &Source{
		Text:  text,
		Index: position.NewIndex(text),
		Zones: f.callSites.Zones(text, code),
	}
}

// Whole is the code span covering all of text, for plain PHP files.
func Whole(text string) phpscan.Ranges {
	return phpscan.Ranges{{Start: 0, End: len(text)}}
}

// Candidate is a trimmed piece of text together with the raw span it was
// cut from. Code candidates are quoted literals and get the call-site and
// array-key checks. Markup text has no code context and skips them.
type Candidate struct {
	Text  string
	Start int
	End   int
	Code  bool
}

// Include runs the full rule list for c.
func (f *Filter) Include(src *Source, c Candidate) bool {
	if !Valid(c.Text, f.minBytes) {
		return false
	}
	if c.Code {
		before, after := f.lineContext(src, c)
		if f.callSites.MatchBefore(before) {
			return false
		}
		if isArrayKey(src.Text, before, after, c.End) {
			return false
		}
		if src.Zones.Contains(c.Start) {
			return false
		}
	}
	if f.excluder != nil && f.excluder.ShouldExclude(c.Text) {
		return false
	}
	return true
}

// Valid applies the shape rules that need nothing but the text. It never
// panics for any input.
func Valid(text string, minBytes int) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if escapeOnly.MatchString(t) {
		return false
	}
	if !HasNonASCII(t) && len(t) < minBytes {
		return false
	}
	for _, p := range regexPrefixes {
		if strings.HasPrefix(t, p) {
			return false
		}
	}
	if strings.IndexByte(deniedLeading, t[0]) >= 0 {
		return false
	}
	return hasWordContent(t)
}

// HasNonASCII reports whether s contains a code point above 127.
func HasNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return true
		}
	}
	return false
}

// hasWordContent reports whether anything but ASCII digits, punctuation,
// symbols and whitespace remains.
func hasWordContent(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return true
		}
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			return true
		}
	}
	return false
}

// lineContext returns the text before the opening quote and after the
// closing quote on the candidate's line. after is left-trimmed.
func (f *Filter) lineContext(src *Source, c Candidate) (before, after string) {
	lineStart := src.Index.LineStart(c.Start)
	quoteAt := c.Start - 1
	if quoteAt < lineStart {
		quoteAt = lineStart
	}
	before = src.Text[lineStart:quoteAt]

	lineEnd := src.Index.LineEnd(c.End)
	if c.End <= lineEnd {
		rest := src.Text[c.End:lineEnd]
		if rest != "" && phpscan.IsQuote(rest[0]) {
			rest = rest[1:]
		}
		after = strings.TrimLeftFunc(rest, unicode.IsSpace)
	}
	return before, after
}

func isArrayKey(text, before, after string, end int) bool {
	if strings.HasSuffix(strings.TrimRightFunc(before, unicode.IsSpace), "[") && strings.HasPrefix(after, "]") {
		return true
	}
	if strings.HasPrefix(after, "=>") {
		return true
	}

	if end > len(text) {
		return false
	}
	rest := text[end:min(end+arrowLookahead, len(text))]
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	if rest != "" && phpscan.IsQuote(rest[0]) {
		rest = strings.TrimLeftFunc(rest[1:], unicode.IsSpace)
	}
	return strings.HasPrefix(rest, "=>")
}

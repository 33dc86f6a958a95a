// Package exclusion implements the user supplied exclusion dictionary.
//
// Each non-blank, non-comment line is one pattern: an exact string, a glob
// (contains * or a closed [...]), or a raw regexp introduced by "regex:".
// A leading ! negates the pattern. Patterns are evaluated in file order and
// the last matching one decides.
package exclusion

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/rs/zerolog/log"
)

type kind int

const (
	exact kind = iota
	globKind
	regexKind
)

type pattern struct {
	raw     string
	kind    kind
	negated bool
	value   string
	glob    glob.Glob
	re      *regexp.Regexp
}

func (p *pattern) matches(text string) bool {
	switch p.kind {
	case globKind:
		if p.glob != nil {
			return p.glob.Match(text)
		}
		return p.re != nil && p.re.MatchString(text)
	case regexKind:
		return p.re != nil && p.re.MatchString(text)
	default:
		return text == p.value
	}
}

// Dictionary is an ordered list of exclusion patterns. It is read-only after
// loading and safe for concurrent use.
type Dictionary struct {
	patterns []*pattern
}

// New returns an empty dictionary.
func New() *Dictionary {
	return &Dictionary{}
}

// Load reads every file in order and appends its patterns.
func Load(paths ...string) (*Dictionary, error) {
	d := New()
	for _, path := range paths {
		if err := d.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// LoadFile appends the patterns of one dictionary file.
func (d *Dictionary) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open exclusion dictionary: %w", err)
	}
	defer f.Close()

	before := len(d.patterns)
	if err := d.Read(f); err != nil {
		return fmt.Errorf("read exclusion dictionary %s: %w", path, err)
	}

	log.Info().Str("file", path).Int("patterns", len(d.patterns)-before).Msg("Loaded exclusion dictionary")
	return nil
}

// Read appends the patterns found in r.
func (d *Dictionary) Read(r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		d.Add(sc.Text())
	}
	return sc.Err()
}

// Add parses a single dictionary line. Blank lines and # comments are ignored.
func (d *Dictionary) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	p := &pattern{raw: line}
	if rest, ok := strings.CutPrefix(line, "!"); ok {
		line = strings.TrimSpace(rest)
		if line == "" {
			return
		}
		p.negated = true
	}

	switch {
	case strings.HasPrefix(line, "regex:"):
		p.kind = regexKind
		expr := strings.TrimPrefix(line, "regex:")
		re, err := regexp.Compile(`^(?:` + expr + `)`)
		if err != nil {
			log.Warn().Err(err).Str("pattern", p.raw).Msg("Invalid exclusion regex, it will never match")
		}
		p.re = re
	case isGlob(line):
		p.kind = globKind
		compileGlob(p, line)
	default:
		p.value = line
	}

	d.patterns = append(d.patterns, p)
}

// Len returns the number of loaded patterns.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.patterns)
}

// ShouldExclude reports whether text is rejected by the dictionary.
func (d *Dictionary) ShouldExclude(text string) bool {
	if d == nil {
		return false
	}
	excluded := false
	for _, p := range d.patterns {
		if p.matches(text) {
			excluded = !p.negated
		}
	}
	return excluded
}

func isGlob(s string) bool {
	if strings.Contains(s, "*") {
		return true
	}
	open := strings.IndexByte(s, '[')
	return open >= 0 && strings.IndexByte(s[open+1:], ']') > 0
}

// compileGlob translates the dictionary glob dialect (only * and [...] are
// special) into gobwas syntax. Character classes gobwas cannot express, such
// as [a-zA-Z], fall back to an equivalent regexp.
func compileGlob(p *pattern, s string) {
	var g, re strings.Builder
	re.WriteString(`^`)
	simple := true

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '*':
			g.WriteByte('*')
			re.WriteString(`.*`)
		case '[':
			end := strings.IndexByte(s[i+1:], ']')
			if end <= 0 {
				g.WriteString(`\[`)
				re.WriteString(`\[`)
				continue
			}
			class := s[i+1 : i+1+end]
			negate := false
			if class[0] == '!' || class[0] == '^' {
				negate = true
				class = class[1:]
			}
			g.WriteByte('[')
			re.WriteByte('[')
			if negate {
				g.WriteByte('!')
				re.WriteByte('^')
			}
			if !simpleClass(class) {
				simple = false
			}
			g.WriteString(class)
			re.WriteString(strings.ReplaceAll(class, `\`, `\\`))
			g.WriteByte(']')
			re.WriteByte(']')
			i += end + 1
		case '?', '{', '}', '\\', ']', ',':
			g.WriteByte('\\')
			g.WriteByte(c)
			re.WriteString(regexp.QuoteMeta(s[i : i+1]))
		default:
			g.WriteByte(c)
			re.WriteString(regexp.QuoteMeta(s[i : i+1]))
		}
	}
	re.WriteString(`$`)

	if simple {
		if compiled, err := glob.Compile(g.String()); err == nil {
			p.glob = compiled
			return
		}
	}
	compiled, err := regexp.Compile(re.String())
	if err != nil {
		log.Warn().Err(err).Str("pattern", p.raw).Msg("Invalid exclusion glob, it will never match")
		return
	}
	p.re = compiled
}

// simpleClass reports whether gobwas can express the class body: either a
// plain rune list or a single lo-hi range.
func simpleClass(class string) bool {
	if !strings.Contains(class, "-") {
		return true
	}
	r := []rune(class)
	return len(r) == 3 && r[1] == '-'
}

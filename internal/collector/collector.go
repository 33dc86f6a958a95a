// Package collector consolidates extracted strings across files and writes
// the extraction document.
package collector

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"i18n-refactor/internal/parser"
)

// DefaultContextLines is the number of source lines kept on each side of an
// occurrence.
const DefaultContextLines = 2

type fileOccurrences struct {
	file      string
	positions []Position
}

type collected struct {
	files []*fileOccurrences
	byRel map[string]*fileOccurrences
}

// Collector merges identical strings and tracks all their occurrences. It is
// safe for concurrent use.
type Collector struct {
	baseDir      string
	contextLines int

	mu    sync.Mutex
	texts map[string]*collected
	total int
}

// Option customises a Collector.
type Option func(*Collector)

// WithContextLines sets the context radius. Zero disables context output.
func WithContextLines(n int) Option {
	return func(c *Collector) { c.contextLines = max(n, 0) }
}

// New creates a Collector reporting file paths relative to baseDir.
func New(baseDir string, opts ...Option) *Collector {
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	c := &Collector{
		baseDir:      baseDir,
		contextLines: DefaultContextLines,
		texts:        make(map[string]*collected),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Add records one occurrence of text in file.
func (c *Collector) Add(text, file string, pos Position) {
	rel := c.relative(file)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.texts[text]
	if !ok {
		entry = &collected{byRel: make(map[string]*fileOccurrences)}
		c.texts[text] = entry
	}
	occ, ok := entry.byRel[rel]
	if !ok {
		occ = &fileOccurrences{file: rel}
		entry.byRel[rel] = occ
		entry.files = append(entry.files, occ)
	}
	occ.positions = append(occ.positions, pos)
	c.total++
}

// AddResult records every string of a parsed file and returns how many were
// added.
func (c *Collector) AddResult(r *parser.ParseResult) int {
	for _, t := range r.Texts {
		pos := Position{Line: t.Line, Column: t.Column, Length: t.Length}
		if r.Source != nil {
			pos.Context = r.Source.ContextLines(t.Line, c.contextLines)
		}
		c.Add(t.Text, t.File, pos)
	}
	return len(r.Texts)
}

// Results returns the consolidated entries sorted by text.
func (c *Collector) Results() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.texts))
	for text, entry := range c.texts {
		e := Entry{Text: text, Occurrences: make([]Occurrence, 0, len(entry.files))}
		for _, f := range entry.files {
			e.Occurrences = append(e.Occurrences, Occurrence{
				File:      f.file,
				Positions: append([]Position(nil), f.positions...),
			})
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}

// StringCount returns the number of unique strings.
func (c *Collector) StringCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.texts)
}

// TotalOccurrences returns the number of recorded positions.
func (c *Collector) TotalOccurrences() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *Collector) relative(file string) string {
	abs := file
	if !filepath.IsAbs(abs) {
		if a, err := filepath.Abs(file); err == nil {
			abs = a
		}
	}
	rel, err := filepath.Rel(c.baseDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

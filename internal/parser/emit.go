package parser

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"i18n-refactor/internal/filter"
	"i18n-refactor/internal/position"
)

// emitter trims raw spans, runs them through the filter and records the
// survivors. Each start offset is reported at most once.
type emitter struct {
	filter *filter.Filter
	src    *filter.Source
	index  *position.Index
	file   string
	seen   map[int]bool
	texts  []ExtractedText
}

// newEmitter prepares src for filtering. Positions are resolved against
// original, which must have the same byte layout as src.
func newEmitter(f *filter.Filter, file, original string, src *filter.Source) *emitter {
	return &emitter{
		filter: f,
		src:    src,
		index:  position.NewIndex(original),
		file:   file,
		seen:   make(map[int]bool),
	}
}

func (e *emitter) add(view string, start, end int, code bool) {
	if start < 0 || end > len(view) || start >= end || e.seen[start] {
		return
	}
	raw := view[start:end]
	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}
	if !e.filter.Include(e.src, filter.Candidate{Text: text, Start: start, End: end, Code: code}) {
		return
	}
	e.seen[start] = true

	lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	line, col := e.index.Position(start + lead)
	e.texts = append(e.texts, ExtractedText{
		Text:   text,
		File:   e.file,
		Line:   line,
		Column: col,
		Length: position.RuneLen(text),
	})
}

func (e *emitter) result(fileType string) *ParseResult {
	sort.SliceStable(e.texts, func(i, j int) bool {
		if e.texts[i].Line != e.texts[j].Line {
			return e.texts[i].Line < e.texts[j].Line
		}
		return e.texts[i].Column < e.texts[j].Column
	})
	return &ParseResult{
		FilePath: e.file,
		FileType: fileType,
		Texts:    e.texts,
		Source:   e.index,
	}
}

func readSource(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read source: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read source %s: not valid UTF-8", filePath)
	}
	return string(data), nil
}

package position

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Index converts between byte offsets and (line, column) pairs over a single
// file's text. Lines are 1-based, columns are 0-based and count runes.
type Index struct {
	text       string
	lineStarts []int
}

// NewIndex builds the line table for text.
func NewIndex(text string) *Index {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Index{text: text, lineStarts: starts}
}

// Text returns the indexed text.
func (x *Index) Text() string { return x.text }

// Position returns the line and column of offset. Offsets outside the text
// are clamped.
func (x *Index) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(x.text) {
		offset = len(x.text)
	}
	// Last line start that is <= offset.
	i := sort.Search(len(x.lineStarts), func(i int) bool { return x.lineStarts[i] > offset }) - 1
	return i + 1, utf8.RuneCountInString(x.text[x.lineStarts[i]:offset])
}

// Offset is the inverse of Position. It returns -1 when line is out of range
// or the column runs past the end of the text.
func (x *Index) Offset(line, column int) int {
	if line < 1 || line > len(x.lineStarts) || column < 0 {
		return -1
	}
	off := x.lineStarts[line-1]
	for n := 0; n < column; n++ {
		if off >= len(x.text) {
			return -1
		}
		_, size := utf8.DecodeRuneInString(x.text[off:])
		off += size
	}
	return off
}

// LineStart returns the offset of the first byte of the line holding offset.
func (x *Index) LineStart(offset int) int {
	line, _ := x.Position(offset)
	return x.lineStarts[line-1]
}

// LineEnd returns the offset of the newline ending the line holding offset,
// or len(text) on the last line.
func (x *Index) LineEnd(offset int) int {
	line, _ := x.Position(offset)
	if line < len(x.lineStarts) {
		return x.lineStarts[line] - 1
	}
	return len(x.text)
}

// Line returns the text of a 1-based line without its newline.
func (x *Index) Line(line int) string {
	if line < 1 || line > len(x.lineStarts) {
		return ""
	}
	start := x.lineStarts[line-1]
	end := len(x.text)
	if line < len(x.lineStarts) {
		end = x.lineStarts[line] - 1
	}
	return strings.TrimSuffix(x.text[start:end], "\r")
}

// ContextLines returns the lines from line-radius to line+radius, clipped to
// the file. A radius of zero or less yields nil.
func (x *Index) ContextLines(line, radius int) []string {
	if radius <= 0 {
		return nil
	}
	from := max(1, line-radius)
	to := min(len(x.lineStarts), line+radius)
	out := make([]string, 0, to-from+1)
	for l := from; l <= to; l++ {
		out = append(out, x.Line(l))
	}
	return out
}

// RuneLen returns the character count used for reported lengths.
func RuneLen(s string) int { return utf8.RuneCountInString(s) }

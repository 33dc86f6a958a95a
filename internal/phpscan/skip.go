// Package phpscan holds the lexical primitives used to scan embedded PHP:
// comment and string skipping, literal extraction, script-block detection,
// bracket matching and excluded range sets.
//
// Every scanner in the package works on byte offsets into the original text
// and advances monotonically, so malformed input always terminates.
package phpscan

import "strings"

// SkipComment reports whether a comment starts at offset i and returns the
// offset just past it. Block comments without a closer and line comments
// without a trailing newline run to the end of text.
func SkipComment(text string, i int) (int, bool) {
	if i >= len(text) {
		return i, false
	}
	if text[i] == '#' {
		return pastNewline(text, i+1), true
	}
	if text[i] != '/' || i+1 >= len(text) {
		return i, false
	}
	switch text[i+1] {
	case '*':
		if end := strings.Index(text[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 2, true
		}
		return len(text), true
	case '/':
		return pastNewline(text, i+2), true
	}
	return i, false
}

// SkipString skips the quoted literal whose opening quote is at offset i.
// A backslash always consumes the following byte. It returns the offset past
// the closing quote, or len(text) and false when the literal is unterminated.
func SkipString(text string, i int) (int, bool) {
	quote := text[i]
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			if j+1 < len(text) {
				j++
			}
		case quote:
			return j + 1, true
		}
	}
	return len(text), false
}

// IsQuote reports whether b opens a PHP string literal.
func IsQuote(b byte) bool { return b == '\'' || b == '"' }

func pastNewline(text string, from int) int {
	if from >= len(text) {
		return len(text)
	}
	if nl := strings.IndexByte(text[from:], '\n'); nl >= 0 {
		return from + nl + 1
	}
	return len(text)
}

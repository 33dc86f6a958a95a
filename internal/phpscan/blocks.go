package phpscan

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	openTag       = "<?php"
	closeTag      = "?>"
	bladeOpenTag  = "@php"
	bladeCloseTag = "@endphp"
)

// FindBlockEnd returns the offset of the first marker at or after from that
// is not inside a string literal or comment, or -1.
func FindBlockEnd(text string, from int, marker string) int {
	i := from
	for i <= len(text)-len(marker) {
		if next, ok := SkipComment(text, i); ok {
			i = next
			continue
		}
		if IsQuote(text[i]) {
			i, _ = SkipString(text, i)
			continue
		}
		if strings.HasPrefix(text[i:], marker) {
			return i
		}
		i++
	}
	return -1
}

// ScriptBlocks returns the merged ranges of embedded PHP in a template. A
// block without a closing tag extends to the end of the text. When blade is
// set, @php ... @endphp blocks are detected as well, and @php(expr) spans
// only its balanced parentheses.
func ScriptBlocks(text string, blade bool) Ranges {
	var found []Range

	pos := 0
	for {
		rel := strings.Index(text[pos:], openTag)
		if rel < 0 {
			break
		}
		start := pos + rel
		end := FindBlockEnd(text, start+len(openTag), closeTag)
		if end < 0 {
			found = append(found, Range{start, len(text)})
			break
		}
		found = append(found, Range{start, end + len(closeTag)})
		pos = end + len(closeTag)
	}

	if blade {
		pos = 0
		for pos < len(text) {
			rel := strings.Index(text[pos:], bladeOpenTag)
			if rel < 0 {
				break
			}
			start := pos + rel
			if alnumBefore(text, start) {
				pos = start + len(bladeOpenTag)
				continue
			}
			if closing := inlineExpression(text, start+len(bladeOpenTag)); closing >= 0 {
				found = append(found, Range{start, closing + 1})
				pos = closing + 1
				continue
			}
			end := FindBlockEnd(text, start+len(bladeOpenTag), bladeCloseTag)
			for end >= 0 && alnumAt(text, end+len(bladeCloseTag)) {
				end = FindBlockEnd(text, end+1, bladeCloseTag)
			}
			if end < 0 {
				found = append(found, Range{start, len(text)})
				break
			}
			found = append(found, Range{start, end + len(bladeCloseTag)})
			pos = end + len(bladeCloseTag)
		}
	}

	return Merge(found)
}

// inlineExpression returns the closing parenthesis of a @php(expr) call
// whose argument starts at i after optional blanks, or -1.
func inlineExpression(text string, i int) int {
	for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
		i++
	}
	return MatchParen(text, i)
}

func alnumBefore(text string, i int) bool {
	if i <= 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func alnumAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

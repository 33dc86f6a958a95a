package parser

import (
	"regexp"
	"strings"

	"i18n-refactor/internal/phpscan"
)

var (
	translationEcho = regexp.MustCompile(`\{\{\s*(?:__|trans)\(|\{!!\s*(?:__|trans)\(`)
	langDirective   = regexp.MustCompile(`@lang\s*\(`)
	variableEcho    = regexp.MustCompile(`\{\{\s*\$|\{!!\s*\$`)
	directiveCall   = regexp.MustCompile(`@\w+\s*\(`)
)

// DirectiveZones returns the Blade spans whose content is never user-facing
// markup: translation and variable echoes, directive argument lists and echo
// blocks in general. A construct without its closer runs to the end of text.
func DirectiveZones(text string) phpscan.Ranges {
	var zones []phpscan.Range

	for _, loc := range translationEcho.FindAllStringIndex(text, -1) {
		end := len(text)
		if closing := phpscan.MatchParen(text, loc[1]-1); closing >= 0 {
			end = echoEnd(text, closing+1)
		}
		zones = append(zones, phpscan.Range{Start: loc[0], End: end})
	}

	for _, loc := range langDirective.FindAllStringIndex(text, -1) {
		end := len(text)
		if closing := phpscan.MatchParen(text, loc[1]-1); closing >= 0 {
			end = closing + 1
		}
		zones = append(zones, phpscan.Range{Start: loc[0], End: end})
	}

	for _, loc := range variableEcho.FindAllStringIndex(text, -1) {
		zones = append(zones, phpscan.Range{Start: loc[0], End: echoEnd(text, loc[1])})
	}

	for _, loc := range directiveCall.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && isWordByte(text[loc[0]-1]) {
			continue
		}
		if closing := phpscan.MatchParen(text, loc[1]-1); closing >= 0 {
			zones = append(zones, phpscan.Range{Start: loc[0], End: closing + 1})
		}
	}

	zones = append(zones, echoBlocks(text)...)

	return phpscan.Merge(zones)
}

// echoEnd returns the offset just past the first }} or !!} at or after from,
// or len(text).
func echoEnd(text string, from int) int {
	if from >= len(text) {
		return len(text)
	}
	rest := text[from:]
	end := len(text)
	if i := strings.Index(rest, "}}"); i >= 0 {
		end = from + i + 2
	}
	if i := strings.Index(rest, "!!}"); i >= 0 && from+i+3 < end {
		end = from + i + 3
	}
	return end
}

// echoBlocks finds every {{ ... }} and {!! ... !!} block.
func echoBlocks(text string) []phpscan.Range {
	var out []phpscan.Range
	for _, delim := range [][2]string{{"{!!", "!!}"}, {"{{", "}}"}} {
		pos := 0
		for pos < len(text) {
			i := strings.Index(text[pos:], delim[0])
			if i < 0 {
				break
			}
			start := pos + i
			end := len(text)
			if j := strings.Index(text[start+len(delim[0]):], delim[1]); j >= 0 {
				end = start + len(delim[0]) + j + len(delim[1])
			}
			out = append(out, phpscan.Range{Start: start, End: end})
			pos = end
		}
	}
	return out
}

func isWordByte(c byte) bool {
	return c == '_' || c == '@' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

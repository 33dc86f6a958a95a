package phpscan

// MatchClose returns the offset of the bracket closing the one at open, or -1.
// open must hold openCh. Brackets inside strings and comments are ignored.
func MatchClose(text string, open int, openCh, closeCh byte) int {
	if open < 0 || open >= len(text) || text[open] != openCh {
		return -1
	}
	depth := 1
	i := open + 1
	for i < len(text) {
		if next, ok := SkipComment(text, i); ok {
			i = next
			continue
		}
		switch c := text[i]; {
		case IsQuote(c):
			i, _ = SkipString(text, i)
			continue
		case c == openCh:
			depth++
		case c == closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// MatchParen is MatchClose for parentheses.
func MatchParen(text string, open int) int { return MatchClose(text, open, '(', ')') }

// MatchBrace is MatchClose for curly braces.
func MatchBrace(text string, open int) int { return MatchClose(text, open, '{', '}') }

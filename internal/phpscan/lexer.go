package phpscan

import "strings"

// Literal is a quoted string constant found in PHP code. Start and End are
// byte offsets of the content, excluding the quotes.
type Literal struct {
	Content string
	Start   int
	End     int
}

// Literals returns every completed string literal in text[from:to]. Offsets
// are absolute. Escapes are kept verbatim, unterminated literals yield
// nothing and empty or blank literals are dropped.
func Literals(text string, from, to int) []Literal {
	if from < 0 {
		from = 0
	}
	if to > len(text) {
		to = len(text)
	}
	if from >= to {
		return nil
	}
	span := text[:to]

	var out []Literal
	i := from
	for i < to {
		if next, ok := SkipComment(span, i); ok {
			i = next
			continue
		}
		if !IsQuote(span[i]) {
			i++
			continue
		}
		end, closed := SkipString(span, i)
		if !closed {
			break
		}
		content := span[i+1 : end-1]
		if strings.TrimSpace(content) != "" {
			out = append(out, Literal{
				Content: content,
				Start:   i + 1,
				End:     end - 1,
			})
		}
		i = end
	}
	return out
}

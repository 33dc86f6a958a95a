package parser

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FragmentKind tells where a markup fragment came from.
type FragmentKind int

const (
	TextFragment FragmentKind = iota
	AttributeFragment
	ScriptFragment
	StyleFragment
)

// Fragment is a piece of text reported by the markup parser. Positions are
// resolved later against the source.
type Fragment struct {
	Kind FragmentKind
	// Text is a trimmed text-node line, an attribute value or a raw element body.
	Text string
	// Attr is the attribute name for AttributeFragment.
	Attr string
}

// Attributes whose values are shown to users.
var textAttributes = map[string]bool{
	"placeholder": true,
	"title":       true,
	"alt":         true,
	"value":       true,
	"aria-label":  true,
	"data-title":  true,
}

var markupComments = []*regexp.Regexp{
	regexp.MustCompile(`(?s)\{\{--.*?--\}\}`),
	regexp.MustCompile(`(?s)<!--.*?-->`),
}

// BlankComments replaces Blade and HTML comments with spaces. Line breaks
// and byte length are preserved so offsets stay valid.
func BlankComments(text string) string {
	for _, re := range markupComments {
		text = re.ReplaceAllStringFunc(text, blank)
	}
	return text
}

func blank(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c != '\n' && c != '\r' {
			b[i] = ' '
		}
	}
	return string(b)
}

// ScanMarkup parses text as HTML and returns its fragments in document order.
func ScanMarkup(text string) ([]Fragment, error) {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	var out []Fragment
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			for _, a := range n.Attr {
				if a.Namespace == "" && textAttributes[a.Key] && strings.TrimSpace(a.Val) != "" {
					out = append(out, Fragment{Kind: AttributeFragment, Attr: a.Key, Text: a.Val})
				}
			}
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				var body strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						body.WriteString(c.Data)
					}
				}
				if body.Len() > 0 {
					kind := ScriptFragment
					if n.DataAtom == atom.Style {
						kind = StyleFragment
					}
					out = append(out, Fragment{Kind: kind, Text: body.String()})
				}
				return
			}
		case html.TextNode:
			for _, seg := range strings.Split(n.Data, "\n") {
				if seg = strings.TrimSpace(seg); seg != "" {
					out = append(out, Fragment{Kind: TextFragment, Text: seg})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return out, nil
}

// occurrences returns the offset of every occurrence of needle in text.
func occurrences(text, needle string) []int {
	if needle == "" {
		return nil
	}
	var out []int
	for from := 0; from <= len(text)-len(needle); {
		i := strings.Index(text[from:], needle)
		if i < 0 {
			break
		}
		out = append(out, from+i)
		from += i + 1
	}
	return out
}

// textBounded reports whether text[start:end] stands on its own as a text
// node line: only horizontal space separates it from a tag, a line break, a
// Blade echo or directive, or the edge of the text.
func textBounded(text string, start, end int) bool {
	i := start - 1
	for i >= 0 && (text[i] == ' ' || text[i] == '\t') {
		i--
	}
	if i >= 0 && !strings.ContainsRune(">\n\r})", rune(text[i])) {
		return false
	}
	j := end
	for j < len(text) && (text[j] == ' ' || text[j] == '\t') {
		j++
	}
	return j >= len(text) || strings.ContainsRune("<\n\r{@", rune(text[j]))
}

// attributeBounded reports whether an attribute name starts at offset i
// rather than in the middle of a longer name.
func attributeBounded(text string, i int) bool {
	if i == 0 {
		return true
	}
	switch c := text[i-1]; {
	case c == ' ', c == '\t', c == '\n', c == '\r', c == '"', c == '\'', c == '/':
		return true
	}
	return false
}

// locateBody finds a raw element body at or after from. CRLF sources are
// normalised by the HTML tokenizer, so the CRLF form is tried as well.
func locateBody(text, body string, from int) (int, int) {
	if from > len(text) {
		return -1, -1
	}
	for _, candidate := range []string{body, strings.ReplaceAll(body, "\n", "\r\n")} {
		if i := strings.Index(text[from:], candidate); i >= 0 {
			return from + i, from + i + len(candidate)
		}
	}
	return -1, -1
}

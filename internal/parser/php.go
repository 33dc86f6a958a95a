package parser

import (
	"strings"

	"i18n-refactor/internal/filter"
	"i18n-refactor/internal/phpscan"
)

// PHPParser extracts string literals from plain PHP sources. The whole file
// is treated as PHP code.
type PHPParser struct {
	filter *filter.Filter
}

func NewPHPParser(f *filter.Filter) *PHPParser { return &PHPParser{filter: f} }

func (p *PHPParser) CanParse(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".php") && !strings.HasSuffix(lower, ".blade.php")
}

func (p *PHPParser) Parse(filePath string) (*ParseResult, error) {
	text, err := readSource(filePath)
	if err != nil {
		return nil, err
	}
	return p.ParseText(filePath, text), nil
}

// ParseText extracts from already loaded source text.
func (p *PHPParser) ParseText(filePath, text string) *ParseResult {
	e := newEmitter(p.filter, filePath, text, p.filter.Prepare(text, filter.Whole(text)))
	for _, lit := range phpscan.Literals(text, 0, len(text)) {
		e.add(text, lit.Start, lit.End, true)
	}
	return e.result("php")
}

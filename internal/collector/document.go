package collector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidDocument is returned when a document does not have the extract
// output shape.
var ErrInvalidDocument = errors.New("invalid extraction document")

// Position is one occurrence of a string inside a file.
type Position struct {
	Line    int      `json:"line"`
	Column  int      `json:"column"`
	Length  int      `json:"length"`
	Context []string `json:"context,omitempty"`
}

// Occurrence groups the positions of a string within one file.
type Occurrence struct {
	File      string     `json:"file"`
	Positions []Position `json:"positions"`
}

// Entry is one unique string with everywhere it was found.
type Entry struct {
	Text         string        `json:"text"`
	Occurrences  []Occurrence  `json:"occurrences"`
	Translations *Translations `json:"translations,omitempty"`
}

// Translations is either a map of language code to translated text or the
// literal false for strings that should not be translated. Any other JSON
// value is kept verbatim.
type Translations struct {
	NotTranslatable bool
	Values          map[string]string
	Raw             json.RawMessage
}

func (t Translations) MarshalJSON() ([]byte, error) {
	switch {
	case t.NotTranslatable:
		return []byte("false"), nil
	case t.Values != nil:
		return json.Marshal(t.Values)
	case len(t.Raw) > 0:
		return t.Raw, nil
	}
	return []byte("{}"), nil
}

func (t *Translations) UnmarshalJSON(data []byte) error {
	*t = Translations{}
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("false")):
		t.NotTranslatable = true
		return nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		values := make(map[string]string)
		if err := json.Unmarshal(trimmed, &values); err == nil {
			t.Values = values
			return nil
		}
	}
	t.Raw = append(json.RawMessage(nil), trimmed...)
	return nil
}

// Has reports whether a translation for code is present.
func (t *Translations) Has(code string) bool {
	if t == nil || t.Values == nil {
		return false
	}
	_, ok := t.Values[code]
	return ok
}

// Load reads and validates an extraction document.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Decode(data)
}

// Decode parses an extraction document. The top level must be an array and
// each item needs text and occurrences.
func Decode(data []byte) ([]Entry, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	for i, item := range raw {
		if _, ok := item["text"]; !ok {
			return nil, fmt.Errorf("%w: item %d has no text", ErrInvalidDocument, i)
		}
		if _, ok := item["occurrences"]; !ok {
			return nil, fmt.Errorf("%w: item %d has no occurrences", ErrInvalidDocument, i)
		}
	}

	entries := make([]Entry, 0, len(raw))
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return entries, nil
}

// Encode renders entries as 2-space indented JSON with non-ASCII text kept
// as is. The output ends with a newline.
func Encode(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

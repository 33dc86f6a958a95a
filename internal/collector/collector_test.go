package collector

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"i18n-refactor/internal/parser"
	"i18n-refactor/internal/position"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_DedupAcrossFiles(t *testing.T) {
	base := t.TempDir()
	c := New(base)

	c.Add("Save", filepath.Join(base, "a.blade.php"), Position{Line: 3, Column: 4, Length: 4})
	c.Add("Save", filepath.Join(base, "views", "b.blade.php"), Position{Line: 7, Column: 0, Length: 4})
	c.Add("Save", filepath.Join(base, "a.blade.php"), Position{Line: 9, Column: 2, Length: 4})
	c.Add("Cancel", filepath.Join(base, "a.blade.php"), Position{Line: 4, Column: 4, Length: 6})

	results := c.Results()
	require.Len(t, results, 2)
	assert.Equal(t, 2, c.StringCount())
	assert.Equal(t, 4, c.TotalOccurrences())

	assert.Equal(t, "Cancel", results[0].Text)
	save := results[1]
	assert.Equal(t, "Save", save.Text)
	require.Len(t, save.Occurrences, 2)
	assert.Equal(t, "a.blade.php", save.Occurrences[0].File)
	assert.Equal(t, []Position{{Line: 3, Column: 4, Length: 4}, {Line: 9, Column: 2, Length: 4}}, save.Occurrences[0].Positions)
	assert.Equal(t, "views/b.blade.php", save.Occurrences[1].File)
}

func TestCollector_OutsideBaseKeepsAbsolutePath(t *testing.T) {
	base := t.TempDir()
	other := t.TempDir()
	c := New(base)

	file := filepath.Join(other, "x.php")
	c.Add("Hello", file, Position{Line: 1})

	assert.Equal(t, filepath.ToSlash(file), c.Results()[0].Occurrences[0].File)
}

func TestCollector_AddResultContext(t *testing.T) {
	base := t.TempDir()
	src := "one\ntwo\nthree\nfour\nfive"
	r := &parser.ParseResult{
		FilePath: filepath.Join(base, "f.php"),
		Texts: []parser.ExtractedText{
			{Text: "three", File: filepath.Join(base, "f.php"), Line: 3, Column: 0, Length: 5},
		},
		Source: position.NewIndex(src),
	}

	c := New(base, WithContextLines(1))
	assert.Equal(t, 1, c.AddResult(r))
	assert.Equal(t, []string{"two", "three", "four"}, c.Results()[0].Occurrences[0].Positions[0].Context)

	c = New(base, WithContextLines(0))
	c.AddResult(r)
	assert.Nil(t, c.Results()[0].Occurrences[0].Positions[0].Context)
}

func TestCollector_ConcurrentAdd(t *testing.T) {
	base := t.TempDir()
	c := New(base)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Add("Shared", filepath.Join(base, "s.php"), Position{Line: j + 1})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, c.StringCount())
	assert.Equal(t, 800, c.TotalOccurrences())
	assert.Len(t, c.Results()[0].Occurrences[0].Positions, 800)
}

func TestEncode(t *testing.T) {
	entries := []Entry{{
		Text:        "こんにちは <b>",
		Occurrences: []Occurrence{{File: "a.php", Positions: []Position{{Line: 1, Column: 2, Length: 9}}}},
	}}
	data, err := Encode(entries)
	require.NoError(t, err)

	want := `[
  {
    "text": "こんにちは <b>",
    "occurrences": [
      {
        "file": "a.php",
        "positions": [
          {
            "line": 1,
            "column": 2,
            "length": 9
          }
        ]
      }
    ]
  }
]
`
	assert.Equal(t, want, string(data))

	empty, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(empty))
}

func TestWrite_Split(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "strings.json")

	entries := make([]Entry, 5)
	for i := range entries {
		entries[i] = Entry{Text: string(rune('a' + i)), Occurrences: []Occurrence{}}
	}

	written, err := Write(entries, path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		path,
		filepath.Join(dir, "out", "strings-2.json"),
		filepath.Join(dir, "out", "strings-3.json"),
	}, written)

	last, err := Load(written[2])
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "e", last[0].Text)
}

func TestWrite_NoSplitBelowThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strings.json")
	written, err := Write([]Entry{{Text: "a"}}, path, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(data, []byte("\n")))
}

func TestWrite_Stdout(t *testing.T) {
	var buf bytes.Buffer
	written, err := write(&buf, nil, "", 0)
	require.NoError(t, err)
	assert.Nil(t, written)
	assert.Equal(t, "[]\n", buf.String())
}

func TestChunkPath(t *testing.T) {
	assert.Equal(t, "out/a.json", ChunkPath("out/a.json", 0))
	assert.Equal(t, "out/a-2.json", ChunkPath("out/a.json", 1))
	assert.Equal(t, "noext-3", ChunkPath("noext", 2))
}

func TestDecode(t *testing.T) {
	doc := `[
  {"text": "Save", "occurrences": [], "translations": {"ja": "保存"}},
  {"text": "v1.0", "occurrences": [], "translations": false},
  {"text": "Other", "occurrences": [], "translations": "pending"},
  {"text": "New", "occurrences": []}
]`
	entries, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.True(t, entries[0].Translations.Has("ja"))
	assert.False(t, entries[0].Translations.Has("en"))
	assert.True(t, entries[1].Translations.NotTranslatable)
	assert.Equal(t, `"pending"`, string(entries[2].Translations.Raw))
	assert.Nil(t, entries[3].Translations)

	out, err := Encode(entries)
	require.NoError(t, err)
	again, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, entries, again)
}

func TestDecode_Invalid(t *testing.T) {
	tests := map[string]string{
		"not an array":   `{"text": "a"}`,
		"missing text":   `[{"occurrences": []}]`,
		"missing occurs": `[{"text": "a"}]`,
		"not json":       `[`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			assert.True(t, errors.Is(err, ErrInvalidDocument), "got %v", err)
		})
	}
}

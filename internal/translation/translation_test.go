package translation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"i18n-refactor/internal/collector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jaEn = []Language{{Code: "ja", Description: "Japanese"}, {Code: "en", Description: "American English"}}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		spec string
		want Language
	}{
		{"ja", Language{"ja", "Japanese"}},
		{"en", Language{"en", "American English"}},
		{"xx", Language{"xx", "XX"}},
		{"pt-BR:Brazilian Portuguese", Language{"pt-BR", "Brazilian Portuguese"}},
		{" fr : French ", Language{"fr", "French"}},
	}
	for _, tt := range tests {
		got, err := ParseLanguage(tt.spec)
		require.NoError(t, err, tt.spec)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLanguage(":Japanese")
	assert.Error(t, err)
	_, err = ParseLanguage("ja:")
	assert.Error(t, err)

	langs, err := ParseLanguages(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ja", "en"}, Codes(langs))
}

func TestPromptBuilder_Build(t *testing.T) {
	pb := NewPromptBuilder("A recipe sharing site")
	prompt := pb.Build([]Request{
		{Text: "Save & exit", Reference: "<button>Save & exit</button>"},
		{Text: "btn-primary"},
	}, jaEn, PromptContext{
		Glossary: []Term{{Name: "Recipe", Translations: map[string]string{"ja": "レシピ"}}},
		Approved: []Approved{{Source: "Save", Lang: "ja", Translated: "保存"}},
	})

	assert.True(t, strings.HasPrefix(prompt, "You are a professional translator for Laravel web applications.\n\n# Application Context\nA recipe sharing site\n"))
	assert.Contains(t, prompt, "3. If user-facing: provide natural translations in <ja> and <en> tags")
	assert.Contains(t, prompt, "<request>\n<text>Save &amp; exit</text>\n<reference>\n&lt;button&gt;Save &amp; exit&lt;/button&gt;\n</reference>\n</request>\n\n")
	assert.Contains(t, prompt, "<request>\n<text>btn-primary</text>\n<reference>\n\n</reference>\n</request>\n\n")
	assert.Contains(t, prompt, "# Glossary\nUse these approved terms consistently:\n- Recipe: <ja>レシピ</ja>\n")
	assert.Contains(t, prompt, "# Previously approved translations\n- \"Save\" (ja): 保存\n")
	assert.Contains(t, prompt, "<translations>\n   - <ja>: Japanese\n   - <en>: American English\n</translations>")
	assert.NotContains(t, prompt, "{{var_1}}")

	plain := NewPromptBuilder("").Build([]Request{{Text: "Hi"}}, jaEn, PromptContext{})
	assert.NotContains(t, plain, "# Application Context")
	assert.NotContains(t, plain, "# Glossary")
	assert.True(t, strings.HasSuffix(plain, "- Maintain the order of requests in your responses\n"))
}

func TestParseResponse(t *testing.T) {
	reply := `Sure! Here you go.
<response>
<text>Save &amp; exit</text>
<translations>
<ja>保存して終了</ja>
<en> Save &amp; exit </en>
</translations>
</response>
<RESPONSE><TEXT>btn-primary</TEXT><translations> FALSE </translations></RESPONSE>
<response><text>Only other</text><translations><fr>Autre</fr></translations></response>
<response><translations><ja>x</ja></translations></response>`

	got := ParseResponse(reply, jaEn)
	require.Len(t, got, 2)
	assert.Equal(t, Reply{Text: "Save & exit", Translations: map[string]string{"ja": "保存して終了", "en": "Save & exit"}}, got[0])
	assert.Equal(t, Reply{Text: "btn-primary", NotTranslatable: true}, got[1])
}

type fakeProvider struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) ListModels(context.Context) ([]string, error) { return nil, nil }
func (f *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestTranslator_TranslateBatch(t *testing.T) {
	p := &fakeProvider{reply: `
<response><text>Hello {{var_1}}</text><translations><ja>こんにちは {{var_1}}</ja><en>Hello {{var_1}}</en></translations></response>
<response><text>nav-item</text><translations>false</translations></response>
<response><text>Unknown</text><translations><ja>?</ja></translations></response>`}

	glossaryCalls := 0
	tr := NewTranslator(p,
		WithSummary("Shop"),
		WithGlossary(func(_ context.Context, text string) ([]Term, error) {
			glossaryCalls++
			return []Term{{Name: "Shop", Translations: map[string]string{"ja": "ショップ"}}}, nil
		}),
		WithMemory(func(_ context.Context, text string, _ []Language) ([]Approved, error) {
			return nil, errors.New("offline")
		}),
	)

	results, err := tr.TranslateBatch(context.Background(), []Item{
		{Text: "Hello :name", Reference: "<p>Hello :name</p>"},
		{Text: "nav-item"},
		{Text: "Forgotten"},
	}, jaEn)
	require.NoError(t, err)

	assert.Equal(t, []Result{
		{Text: "Hello :name", Translations: map[string]string{"ja": "こんにちは :name", "en": "Hello :name"}},
		{Text: "nav-item", NotTranslatable: true},
		{Text: "Forgotten", Missing: true},
	}, results)

	assert.Equal(t, 3, glossaryCalls)
	assert.Contains(t, p.prompt, "<text>Hello {{var_1}}</text>")
	assert.Contains(t, p.prompt, "<reference>\n&lt;p&gt;Hello :name&lt;/p&gt;\n</reference>")
	assert.Contains(t, p.prompt, "Copy placeholders like {{var_1}}")
	assert.Equal(t, 1, strings.Count(p.prompt, "- Shop: <ja>ショップ</ja>"))
}

func TestTranslator_ProviderError(t *testing.T) {
	tr := NewTranslator(&fakeProvider{err: errors.New("down")})
	_, err := tr.TranslateBatch(context.Background(), []Item{{Text: "Hi"}}, jaEn)
	assert.EqualError(t, err, "fake: down")

	results, err := tr.TranslateBatch(context.Background(), nil, jaEn)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestIdentifyUntranslated(t *testing.T) {
	entries := []collector.Entry{
		{Text: "a"},
		{Text: "b", Translations: &collector.Translations{Values: map[string]string{"ja": "B"}}},
		{Text: "c", Translations: &collector.Translations{Values: map[string]string{"ja": "C", "en": "C"}}},
		{Text: "d", Translations: &collector.Translations{NotTranslatable: true}},
		{Text: "e", Translations: &collector.Translations{Raw: []byte(`"odd"`)}},
	}
	assert.Equal(t, []int{0, 1, 4}, IdentifyUntranslated(entries, []string{"ja", "en"}))
	assert.Equal(t, []int{0, 4}, IdentifyUntranslated(entries, []string{"ja"}))
}

func TestNewItem(t *testing.T) {
	item := NewItem(collector.Entry{
		Text: "Hi",
		Occurrences: []collector.Occurrence{
			{File: "a.php", Positions: []collector.Position{{Line: 1}}},
			{File: "b.php", Positions: []collector.Position{{Line: 3, Context: []string{"<div>", "  <p>Hi</p>", "</div>"}}}},
		},
	})
	assert.Equal(t, Item{Text: "Hi", Reference: "<div>\n  <p>Hi</p>\n</div>"}, item)
}

func TestMerge(t *testing.T) {
	entries := []collector.Entry{
		{Text: "a", Translations: &collector.Translations{Values: map[string]string{"fr": "A"}}},
		{Text: "b", Translations: &collector.Translations{Values: map[string]string{"ja": "B"}}},
		{Text: "c", Translations: &collector.Translations{Raw: []byte(`"odd"`)}},
		{Text: "d"},
	}
	changed := Merge(entries, []Result{
		{Text: "a", Translations: map[string]string{"ja": "エー"}},
		{Text: "b", NotTranslatable: true},
		{Text: "c", Translations: map[string]string{"en": "C"}},
		{Text: "d", Missing: true},
		{Text: "zzz", Translations: map[string]string{"en": "Z"}},
	})
	assert.Equal(t, 3, changed)
	assert.Equal(t, map[string]string{"fr": "A", "ja": "エー"}, entries[0].Translations.Values)
	assert.True(t, entries[1].Translations.NotTranslatable)
	assert.Equal(t, map[string]string{"en": "C"}, entries[2].Translations.Values)
	assert.Nil(t, entries[3].Translations)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "out/strings-translated.json", OutputPath("out/strings.json"))
	assert.Equal(t, "strings-translated", OutputPath("strings"))
}

func TestLimiter(t *testing.T) {
	var nilLimiter *Limiter
	assert.NoError(t, nilLimiter.Acquire(context.Background()))
	assert.Nil(t, NewLimiter(0, 5))

	l := NewLimiter(1, 1)
	defer l.Stop()
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)
}

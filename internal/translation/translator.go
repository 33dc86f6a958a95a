package translation

import (
	"context"
	"fmt"

	"i18n-refactor/internal/interpolation"

	"github.com/rs/zerolog/log"
)

// Item is a string to translate with the source excerpt it came from.
type Item struct {
	Text      string
	Reference string
}

// Result is the outcome for one item. Missing is set when the reply had no
// usable response for the item.
type Result struct {
	Text            string
	Translations    map[string]string
	NotTranslatable bool
	Missing         bool
}

// GlossaryFunc returns the glossary terms relevant to text.
type GlossaryFunc func(ctx context.Context, text string) ([]Term, error)

// MemoryFunc returns approved translations of strings similar to text.
type MemoryFunc func(ctx context.Context, text string, langs []Language) ([]Approved, error)

// Translator turns batches of items into translations through a Provider.
type Translator struct {
	provider Provider
	prompts  *PromptBuilder
	limiter  *Limiter
	glossary GlossaryFunc
	memory   MemoryFunc
}

// Option customises a Translator.
type Option func(*Translator)

// WithSummary adds an application description to every prompt.
func WithSummary(summary string) Option {
	return func(t *Translator) { t.prompts = NewPromptBuilder(summary) }
}

// WithLimiter throttles provider calls.
func WithLimiter(l *Limiter) Option {
	return func(t *Translator) { t.limiter = l }
}

// WithGlossary looks up glossary terms for each item.
func WithGlossary(fn GlossaryFunc) Option {
	return func(t *Translator) { t.glossary = fn }
}

// WithMemory looks up similar approved translations for each item.
func WithMemory(fn MemoryFunc) Option {
	return func(t *Translator) { t.memory = fn }
}

// NewTranslator creates a translator for provider.
func NewTranslator(provider Provider, opts ...Option) *Translator {
	t := &Translator{provider: provider, prompts: NewPromptBuilder("")}
	for _, o := range opts {
		o(t)
	}
	return t
}

type prepared struct {
	item      Item
	protected string
	mappings  []interpolation.Mapping
}

func prepare(items []Item) []prepared {
	out := make([]prepared, len(items))
	for i, it := range items {
		protected, mappings := interpolation.Protect(it.Text)
		out[i] = prepared{item: it, protected: protected, mappings: mappings}
	}
	return out
}

// Prompt renders the prompt TranslateBatch would send for items.
func (t *Translator) Prompt(ctx context.Context, items []Item, langs []Language) string {
	batch := prepare(items)
	return t.prompts.Build(t.requests(batch), langs, t.promptContext(ctx, batch, langs))
}

func (t *Translator) requests(batch []prepared) []Request {
	reqs := make([]Request, len(batch))
	for i, p := range batch {
		reqs[i] = Request{Text: p.protected, Reference: p.item.Reference}
	}
	return reqs
}

func (t *Translator) promptContext(ctx context.Context, batch []prepared, langs []Language) PromptContext {
	var pc PromptContext
	seenTerms := make(map[string]bool)
	seenApproved := make(map[string]bool)
	for _, p := range batch {
		if len(p.mappings) > 0 {
			pc.Placeholders = true
		}
		if t.glossary != nil {
			terms, err := t.glossary(ctx, p.item.Text)
			if err != nil {
				log.Warn().Err(err).Str("text", p.item.Text).Msg("Glossary lookup failed")
			}
			for _, term := range terms {
				if !seenTerms[term.Name] {
					seenTerms[term.Name] = true
					pc.Glossary = append(pc.Glossary, term)
				}
			}
		}
		if t.memory != nil {
			approved, err := t.memory(ctx, p.item.Text, langs)
			if err != nil {
				log.Warn().Err(err).Str("text", p.item.Text).Msg("Translation memory lookup failed")
			}
			for _, a := range approved {
				key := a.Lang + "\x00" + a.Source
				if a.Source != p.item.Text && !seenApproved[key] {
					seenApproved[key] = true
					pc.Approved = append(pc.Approved, a)
				}
			}
		}
	}
	return pc
}

// TranslateBatch sends one prompt for items and matches the reply back to
// them by text. Items the reply does not cover are returned with Missing set.
func (t *Translator) TranslateBatch(ctx context.Context, items []Item, langs []Language) ([]Result, error) {
	if len(items) == 0 {
		return nil, nil
	}
	batch := prepare(items)
	prompt := t.prompts.Build(t.requests(batch), langs, t.promptContext(ctx, batch, langs))

	if err := t.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	reply, err := t.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.provider.Name(), err)
	}

	index := make(map[string]int, len(batch)*2)
	for i := len(batch) - 1; i >= 0; i-- {
		index[batch[i].item.Text] = i
		index[batch[i].protected] = i
	}

	results := make([]Result, len(batch))
	for i, p := range batch {
		results[i] = Result{Text: p.item.Text, Missing: true}
	}

	for _, r := range ParseResponse(reply, langs) {
		i, ok := index[r.Text]
		if !ok {
			log.Debug().Str("text", r.Text).Msg("Response does not match any request")
			continue
		}
		res := &results[i]
		res.Missing = false
		if r.NotTranslatable {
			res.NotTranslatable = true
			continue
		}
		res.Translations = make(map[string]string, len(r.Translations))
		for code, value := range r.Translations {
			if missing := interpolation.Missing(value, batch[i].mappings); len(missing) > 0 {
				log.Warn().Str("text", res.Text).Str("lang", code).Strs("placeholders", missing).Msg("Translation dropped placeholders")
			}
			res.Translations[code] = interpolation.Restore(value, batch[i].mappings)
		}
	}

	var missing int
	for _, r := range results {
		if r.Missing {
			missing++
		}
	}
	if missing > 0 {
		log.Warn().Int("missing", missing).Int("batch", len(items)).Msg("Reply did not cover every item")
	}
	return results, nil
}

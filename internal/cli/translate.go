package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"i18n-refactor/internal/cache"
	"i18n-refactor/internal/collector"
	"i18n-refactor/internal/config"
	"i18n-refactor/internal/glossary"
	"i18n-refactor/internal/memory"
	"i18n-refactor/internal/textutil"
	"i18n-refactor/internal/translation"
	"i18n-refactor/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// dryRunPreview is the number of pending strings listed by --dry-run.
const dryRunPreview = 5

type translateOptions struct {
	inputs      []string
	langs       []string
	model       string
	apiKey      string
	apiBase     string
	temperature float64
	maxTokens   int
	batchSize   int
	summary     string
	dryRun      bool
	noCache     bool
}

func translateCmd(root *rootOptions) *cobra.Command {
	var o translateOptions

	cmd := &cobra.Command{
		Use:   "translate <provider>",
		Short: "Translate an extraction document with an LLM provider",
		Long: fmt.Sprintf(`Reads one or more extraction documents, sends every string that lacks a
translation for one of the requested languages to the provider and writes
<name>-translated.json next to each input.

Providers: %s`, strings.Join(translation.Providers, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc := root.cfg.Provider(args[0])
			o.apply(cmd, &pc)
			return runTranslate(cmd.Context(), args[0], pc, o, root)
		},
	}

	cmd.Flags().StringArrayVarP(&o.inputs, "input", "i", nil, "extraction document to translate (repeatable)")
	cmd.Flags().StringArrayVar(&o.langs, "lang", nil, "target language as code or code:description (repeatable, default ja and en)")
	cmd.Flags().StringVar(&o.model, "model", "", "model name")
	cmd.Flags().StringVar(&o.apiKey, "api-key", "", "API key (default: provider environment variable)")
	cmd.Flags().StringVar(&o.apiBase, "api-base", "", "API base URL for compatible endpoints and ollama")
	cmd.Flags().Float64Var(&o.temperature, "temperature", 0, "sampling temperature")
	cmd.Flags().IntVar(&o.maxTokens, "max-tokens", 0, "maximum tokens per reply")
	cmd.Flags().IntVar(&o.batchSize, "batch-size", config.DefaultBatchSize, "strings per request")
	cmd.Flags().StringVar(&o.summary, "summary", "", "short description of the application, added to every prompt")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "show what would be translated without calling the provider")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "ignore cached translations")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// apply overlays the flags the user set on the provider configuration.
func (o *translateOptions) apply(cmd *cobra.Command, pc *config.ProviderConfig) {
	flags := cmd.Flags()
	if flags.Changed("model") {
		pc.Model = o.model
	}
	if flags.Changed("api-key") {
		pc.APIKey = o.apiKey
	}
	if flags.Changed("api-base") {
		pc.APIBase = o.apiBase
	}
	if flags.Changed("temperature") {
		t := o.temperature
		pc.Temperature = &t
	}
	if flags.Changed("max-tokens") {
		pc.MaxTokens = o.maxTokens
	}
	if flags.Changed("batch-size") && o.batchSize > 0 {
		pc.BatchSize = o.batchSize
	}
}

// translateSession holds everything shared by the documents of one run.
type translateSession struct {
	translator    *translation.Translator
	cache         *cache.TranslationCache
	retriever     *memory.Retriever
	langs         []translation.Language
	batchSize     int
	maxConcurrent int
	dryRun        bool
	noCache       bool
	quiet         bool
}

func runTranslate(ctx context.Context, name string, pc config.ProviderConfig, o translateOptions, root *rootOptions) error {
	cfg := root.cfg

	specs := o.langs
	if len(specs) == 0 {
		specs = cfg.Translate.Languages
	}
	langs, err := translation.ParseLanguages(specs)
	if err != nil {
		return err
	}

	summary := o.summary
	if summary == "" {
		summary = cfg.Translate.Summary
	}

	var provider translation.Provider
	if !o.dryRun {
		provider, err = translation.NewProvider(ctx, name, pc.Settings())
		if err != nil {
			return err
		}
	}

	var pool *pgxpool.Pool
	var store cache.Store
	if cfg.Storage.DatabaseURL != "" {
		pool, err = openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = cache.NewPostgresStore(pool)
	}

	tc, err := cache.NewTranslationCache(cfg.Translate.CacheSize, store)
	if err != nil {
		return err
	}
	if err := tc.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload cache")
	}

	limiter := translation.NewLimiter(cfg.Translate.RPS, cfg.Translate.Burst)
	defer limiter.Stop()

	opts := []translation.Option{
		translation.WithSummary(summary),
		translation.WithLimiter(limiter),
	}

	if cfg.Storage.Neo4jURI != "" {
		driver, terms, err := openGlossary(ctx, cfg)
		if err != nil {
			return err
		}
		defer driver.Close(ctx)
		opts = append(opts, translation.WithGlossary(glossaryLookup(terms)))
	}

	var retriever *memory.Retriever
	if cfg.Storage.MemoryEnabled() {
		retriever = newRetriever(cfg, pool)
		opts = append(opts, translation.WithMemory(memoryLookup(retriever, cfg.Translate.MemoryTopK)))
	}

	s := &translateSession{
		translator:    translation.NewTranslator(provider, opts...),
		cache:         tc,
		retriever:     retriever,
		langs:         langs,
		batchSize:     pc.BatchSize,
		maxConcurrent: cfg.Translate.MaxConcurrent,
		dryRun:        o.dryRun,
		noCache:       o.noCache,
		quiet:         root.quiet,
	}

	log.Info().
		Str("provider", name).
		Str("model", pc.Model).
		Strs("langs", translation.Codes(langs)).
		Int("batch_size", s.batchSize).
		Msg("Starting translation")

	for _, input := range o.inputs {
		if err := s.translateFile(ctx, input); err != nil {
			return err
		}
	}
	return nil
}

// translateFile translates one document and writes the result next to it.
func (s *translateSession) translateFile(ctx context.Context, input string) error {
	entries, err := collector.Load(input)
	if err != nil {
		return err
	}
	codes := translation.Codes(s.langs)

	pending := translation.IdentifyUntranslated(entries, codes)
	var results []translation.Result
	var items []translation.Item
	for _, i := range pending {
		e := entries[i]
		if !s.noCache {
			if values, notTranslatable, ok := s.cache.Lookup(ctx, e.Text, codes); ok {
				results = append(results, translation.Result{Text: e.Text, Translations: values, NotTranslatable: notTranslatable})
				continue
			}
		}
		items = append(items, translation.NewItem(e))
	}

	log.Info().
		Str("input", input).
		Int("strings", len(entries)).
		Int("untranslated", len(pending)).
		Int("cached", len(results)).
		Int("to_translate", len(items)).
		Msg("Translation plan")

	if s.dryRun {
		s.preview(ctx, items)
		return nil
	}

	batches := worker.Batch(items, s.batchSize)
	bar := newProgress(s.quiet, len(batches), "Translating", "batches/s")
	pool := worker.NewPool[[]translation.Item, []translation.Result](s.maxConcurrent,
		func(ctx context.Context, batch []translation.Item) ([]translation.Result, error) {
			return s.translator.TranslateBatch(ctx, batch, s.langs)
		},
		worker.WithProgress(bar.step),
		worker.WithName("translate"),
	)
	tasks := pool.Execute(ctx, batches)
	bar.finish()

	var failed int
	var fresh []translation.Result
	for i, t := range tasks {
		if t.Err != nil {
			failed++
			log.Warn().Err(t.Err).Int("batch", i+1).Int("size", len(t.Input)).Msg("Batch translation failed")
			continue
		}
		if t.Done {
			fresh = append(fresh, t.Result...)
		}
	}
	s.remember(ctx, fresh)
	results = append(results, fresh...)

	changed := translation.Merge(entries, results)
	output := translation.OutputPath(input)
	data, err := collector.Encode(entries)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	log.Info().
		Str("output", output).
		Int("updated", changed).
		Int("failed_batches", failed).
		Msg("Translation complete")
	return ctx.Err()
}

// preview lists a few pending strings and logs the first prompt at debug
// level.
func (s *translateSession) preview(ctx context.Context, items []translation.Item) {
	for i, it := range items {
		if i == dryRunPreview {
			log.Info().Int("more", len(items)-dryRunPreview).Msg("...")
			break
		}
		log.Info().Str("text", textutil.Truncate(it.Text, 50)).Msg("Would translate")
	}
	if len(items) > 0 {
		first := items[:min(s.batchSize, len(items))]
		log.Debug().Msg("First prompt:\n" + s.translator.Prompt(ctx, first, s.langs))
	}
}

// remember stores fresh results in the cache and the translation memory.
func (s *translateSession) remember(ctx context.Context, results []translation.Result) {
	approved := make(map[string]map[string]string)
	for _, r := range results {
		switch {
		case r.Missing:
			continue
		case r.NotTranslatable:
			if err := s.cache.SetNotTranslatable(ctx, r.Text); err != nil {
				log.Warn().Err(err).Str("text", textutil.Truncate(r.Text, 30)).Msg("Failed to cache result")
			}
		case len(r.Translations) > 0:
			if err := s.cache.SetBatch(ctx, r.Text, r.Translations); err != nil {
				log.Warn().Err(err).Str("text", textutil.Truncate(r.Text, 30)).Msg("Failed to cache result")
			}
			approved[r.Text] = r.Translations
		}
	}

	if s.retriever == nil || len(approved) == 0 {
		return
	}
	n, err := s.retriever.Remember(ctx, approved, s.batchSize)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to update translation memory")
		return
	}
	log.Debug().Int("records", n).Msg("Updated translation memory")
}

func newRetriever(cfg *config.Config, pool *pgxpool.Pool) *memory.Retriever {
	st := cfg.Storage
	emb := memory.NewEmbeddingClient(st.EmbeddingAPIKey, st.EmbeddingModel, st.EmbeddingAPIBase, st.EmbeddingDimensions)
	return memory.NewRetriever(emb, memory.NewVectorStore(pool), cfg.Translate.MemoryScore)
}

func glossaryLookup(store *glossary.Store) translation.GlossaryFunc {
	return func(ctx context.Context, text string) ([]translation.Term, error) {
		terms, err := store.FindTerms(ctx, text)
		if err != nil {
			return nil, err
		}
		out := make([]translation.Term, len(terms))
		for i, t := range terms {
			out[i] = translation.Term{Name: t.Name, Translations: t.Translations}
		}
		return out, nil
	}
}

func memoryLookup(r *memory.Retriever, k int) translation.MemoryFunc {
	return func(ctx context.Context, text string, langs []translation.Language) ([]translation.Approved, error) {
		matches, err := r.Similar(ctx, text, translation.Codes(langs), k)
		if err != nil {
			return nil, err
		}
		out := make([]translation.Approved, len(matches))
		for i, m := range matches {
			out[i] = translation.Approved{Source: m.Source, Lang: m.Lang, Translated: m.Translated}
		}
		return out, nil
	}
}

package memory

import (
	"context"
	"fmt"
	"sort"

	"i18n-refactor/internal/textutil"

	"github.com/rs/zerolog/log"
)

// DefaultMinScore drops matches less similar than this.
const DefaultMinScore = 0.75

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Index stores and searches embedded translations.
type Index interface {
	Store(ctx context.Context, records []Record) error
	Search(ctx context.Context, query []float32, lang string, topK int) ([]Match, error)
}

// Retriever finds approved translations of strings similar to a new one.
type Retriever struct {
	embedder Embedder
	index    Index
	minScore float64
}

// NewRetriever creates a retriever. minScore <= 0 selects DefaultMinScore.
func NewRetriever(embedder Embedder, index Index, minScore float64) *Retriever {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Retriever{embedder: embedder, index: index, minScore: minScore}
}

// Similar returns up to k matches per language, best first.
func (r *Retriever) Similar(ctx context.Context, text string, langs []string, k int) ([]Match, error) {
	vecs, err := r.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}
	if len(vecs) == 0 || vecs[0] == nil {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	var out []Match
	for _, lang := range langs {
		matches, err := r.index.Search(ctx, vecs[0], lang, k)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if m.Score >= r.minScore {
				out = append(out, m)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// Remember embeds each source once and stores its translations.
// translations maps source text to translations by language.
func (r *Retriever) Remember(ctx context.Context, translations map[string]map[string]string, batchSize int) (int, error) {
	sources := make([]string, 0, len(translations))
	for src, byLang := range translations {
		if len(byLang) > 0 {
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		return 0, nil
	}
	sort.Strings(sources)

	if batchSize <= 0 {
		batchSize = 32
	}
	var stored int
	for i := 0; i < len(sources); i += batchSize {
		chunk := sources[i:min(i+batchSize, len(sources))]
		vecs, err := r.embedder.Embed(ctx, chunk)
		if err != nil {
			return stored, fmt.Errorf("embed sources: %w", err)
		}
		var records []Record
		for j, src := range chunk {
			if j >= len(vecs) || vecs[j] == nil {
				log.Warn().Str("text", textutil.Truncate(src, 30)).Msg("Missing embedding for source text")
				continue
			}
			hash := textutil.Hash(src)
			for lang, translated := range translations[src] {
				records = append(records, Record{Hash: hash, Lang: lang, Source: src, Translated: translated, Vector: vecs[j]})
			}
		}
		if err := r.index.Store(ctx, records); err != nil {
			return stored, err
		}
		stored += len(records)
	}
	log.Info().Int("stored", stored).Msg("Translation memory updated")
	return stored, nil
}

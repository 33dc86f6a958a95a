package memory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
)

// Record is an approved translation with the embedding of its source.
type Record struct {
	Hash       string
	Lang       string
	Source     string
	Translated string
	Vector     []float32
}

// Match is a similarity search hit. Score is the cosine similarity.
type Match struct {
	Source     string
	Lang       string
	Translated string
	Score      float64
}

// VectorStore handles pgvector-backed embedding storage and similarity search
// over the translation_memory table.
type VectorStore struct {
	pool *pgxpool.Pool
}

// NewVectorStore creates a new vector store.
func NewVectorStore(pool *pgxpool.Pool) *VectorStore {
	return &VectorStore{pool: pool}
}

// Store upserts records in one batch.
func (vs *VectorStore) Store(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO translation_memory (hash, lang, source, translated, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (hash, lang) DO UPDATE
			SET translated = EXCLUDED.translated, embedding = EXCLUDED.embedding
		`, r.Hash, r.Lang, r.Source, r.Translated, pgvector.NewVector(r.Vector))
	}
	if err := vs.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert embeddings: %w", err)
	}
	log.Debug().Int("count", len(records)).Msg("Stored embeddings")
	return nil
}

// Search finds the topK translations into lang whose sources are closest to
// the query vector.
func (vs *VectorStore) Search(ctx context.Context, query []float32, lang string, topK int) ([]Match, error) {
	rows, err := vs.pool.Query(ctx, `
		SELECT source, lang, translated, 1 - (embedding <=> $1) AS similarity
		FROM translation_memory
		WHERE lang = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, pgvector.NewVector(query), lang, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	matches, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (Match, error) {
		var m Match
		err := r.Scan(&m.Source, &m.Lang, &m.Translated, &m.Score)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return matches, nil
}

// Package database opens the Postgres pool shared by the translation cache,
// the seed store and the translation memory.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/rs/zerolog/log"
)

// DefaultDimensions is the embedding width used when none is configured.
const DefaultDimensions = 1024

const baseSchema = `
CREATE TABLE IF NOT EXISTS translation_cache (
	hash             TEXT NOT NULL,
	lang             TEXT NOT NULL,
	source           TEXT NOT NULL,
	translated       TEXT NOT NULL DEFAULT '',
	not_translatable BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (hash, lang)
);

CREATE TABLE IF NOT EXISTS seed_translations (
	hash       TEXT NOT NULL,
	lang       TEXT NOT NULL,
	source     TEXT NOT NULL,
	translated TEXT NOT NULL,
	file       TEXT NOT NULL,
	PRIMARY KEY (hash, lang)
);
`

const memorySchema = `
CREATE TABLE IF NOT EXISTS translation_memory (
	hash       TEXT NOT NULL,
	lang       TEXT NOT NULL,
	source     TEXT NOT NULL,
	translated TEXT NOT NULL,
	embedding  vector(%d) NOT NULL,
	PRIMARY KEY (hash, lang)
);
CREATE INDEX IF NOT EXISTS translation_memory_embedding_idx
	ON translation_memory USING hnsw (embedding vector_cosine_ops);
`

// Options selects the optional parts of the schema.
type Options struct {
	// Vector enables the pgvector extension and the translation_memory table.
	Vector     bool
	Dimensions int
}

// Connect migrates the schema and returns a pool. With Vector set, every
// pooled connection has the pgvector types registered.
func Connect(ctx context.Context, url string, opts Options) (*pgxpool.Pool, error) {
	if err := migrate(ctx, url, opts); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.Vector {
		cfg.AfterConnect = pgxvec.RegisterTypes
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func migrate(ctx context.Context, url string, opts Options) error {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, baseSchema); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if opts.Vector {
		dims := opts.Dimensions
		if dims <= 0 {
			dims = DefaultDimensions
		}
		if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return fmt.Errorf("enable pgvector: %w", err)
		}
		if _, err := conn.Exec(ctx, fmt.Sprintf(memorySchema, dims)); err != nil {
			return fmt.Errorf("create memory table: %w", err)
		}
	}
	log.Debug().Bool("vector", opts.Vector).Msg("Database schema ensured")
	return nil
}

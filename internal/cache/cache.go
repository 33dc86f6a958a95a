package cache

import (
	"context"
	"errors"
	"fmt"

	"i18n-refactor/internal/textutil"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// DefaultSize is the number of entries kept in memory.
const DefaultSize = 10000

// notTranslatableLang is the language key recording that a string must not
// be translated at all.
const notTranslatableLang = "*"

// Row is one persisted cache entry.
type Row struct {
	Hash            string
	Lang            string
	Source          string
	Translated      string
	NotTranslatable bool
}

// Store persists cache rows. A nil Store keeps the cache in memory only.
type Store interface {
	Get(ctx context.Context, hash, lang string) (Row, bool, error)
	Put(ctx context.Context, row Row) error
	All(ctx context.Context) ([]Row, error)
}

type key struct {
	hash string
	lang string
}

// TranslationCache provides in-memory LRU + optional PostgreSQL-backed
// caching of translations by source text and language.
type TranslationCache struct {
	store  Store
	memory *lru.Cache[key, Row]
}

// NewTranslationCache creates a cache holding up to size entries in memory.
func NewTranslationCache(size int, store Store) (*TranslationCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	memory, err := lru.New[key, Row](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &TranslationCache{store: store, memory: memory}, nil
}

func (c *TranslationCache) get(ctx context.Context, text, lang string) (Row, bool) {
	k := key{hash: textutil.Hash(text), lang: lang}
	if row, ok := c.memory.Get(k); ok {
		return row, true
	}
	if c.store == nil {
		return Row{}, false
	}
	row, ok, err := c.store.Get(ctx, k.hash, lang)
	if err != nil {
		log.Warn().Err(err).Str("lang", lang).Msg("Cache lookup failed")
		return Row{}, false
	}
	if ok {
		c.memory.Add(k, row)
	}
	return row, ok
}

// Get returns the cached translation of text into lang.
func (c *TranslationCache) Get(ctx context.Context, text, lang string) (string, bool) {
	row, ok := c.get(ctx, text, lang)
	if !ok {
		return "", false
	}
	return row.Translated, true
}

// IsNotTranslatable reports whether text was recorded as not translatable.
func (c *TranslationCache) IsNotTranslatable(ctx context.Context, text string) bool {
	row, ok := c.get(ctx, text, notTranslatableLang)
	return ok && row.NotTranslatable
}

// Lookup answers a request for text in every one of langs. It succeeds only
// when the string is not translatable or all languages are cached.
func (c *TranslationCache) Lookup(ctx context.Context, text string, langs []string) (values map[string]string, notTranslatable, ok bool) {
	if c.IsNotTranslatable(ctx, text) {
		return nil, true, true
	}
	values = make(map[string]string, len(langs))
	for _, lang := range langs {
		v, found := c.Get(ctx, text, lang)
		if !found {
			return nil, false, false
		}
		values[lang] = v
	}
	return values, false, len(langs) > 0
}

// Set stores a translation in both in-memory and persistent cache.
func (c *TranslationCache) Set(ctx context.Context, text, lang, translated string) error {
	return c.put(ctx, Row{Hash: textutil.Hash(text), Lang: lang, Source: text, Translated: translated})
}

// SetNotTranslatable records that text must never be translated.
func (c *TranslationCache) SetNotTranslatable(ctx context.Context, text string) error {
	return c.put(ctx, Row{Hash: textutil.Hash(text), Lang: notTranslatableLang, Source: text, NotTranslatable: true})
}

// SetBatch stores the translations of one text keyed by language.
func (c *TranslationCache) SetBatch(ctx context.Context, text string, translations map[string]string) error {
	for lang, v := range translations {
		if err := c.Set(ctx, text, lang, v); err != nil {
			return err
		}
	}
	return nil
}

func (c *TranslationCache) put(ctx context.Context, row Row) error {
	c.memory.Add(key{hash: row.Hash, lang: row.Lang}, row)
	if c.store == nil {
		return nil
	}
	if err := c.store.Put(ctx, row); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Preload loads persisted rows into memory, up to the LRU size.
func (c *TranslationCache) Preload(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	rows, err := c.store.All(ctx)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}
	for _, row := range rows {
		c.memory.Add(key{hash: row.Hash, lang: row.Lang}, row)
	}
	log.Info().Int("count", len(rows)).Msg("Preloaded translation cache")
	return nil
}

// Len returns the number of entries in memory.
func (c *TranslationCache) Len() int { return c.memory.Len() }

// PostgresStore keeps cache rows in the translation_cache table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store over pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, hash, lang string) (Row, bool, error) {
	row := Row{Hash: hash, Lang: lang}
	err := s.pool.QueryRow(ctx,
		`SELECT source, translated, not_translatable FROM translation_cache WHERE hash = $1 AND lang = $2`,
		hash, lang,
	).Scan(&row.Source, &row.Translated, &row.NotTranslatable)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, err
	}
	return row, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, row Row) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO translation_cache (hash, lang, source, translated, not_translatable)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (hash, lang) DO UPDATE
		SET translated = EXCLUDED.translated,
		    not_translatable = EXCLUDED.not_translatable,
		    updated_at = now()
	`, row.Hash, row.Lang, row.Source, row.Translated, row.NotTranslatable)
	return err
}

func (s *PostgresStore) All(ctx context.Context) ([]Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT hash, lang, source, translated, not_translatable FROM translation_cache ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Row, error) {
		var row Row
		err := r.Scan(&row.Hash, &row.Lang, &row.Source, &row.Translated, &row.NotTranslatable)
		return row, err
	})
}

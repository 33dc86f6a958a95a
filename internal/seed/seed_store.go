package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// SeedStore handles persistence of seed translation pairs in PostgreSQL and file export.
type SeedStore struct {
	pool *pgxpool.Pool
}

// NewSeedStore creates a new seed store.
func NewSeedStore(pool *pgxpool.Pool) *SeedStore {
	return &SeedStore{pool: pool}
}

// Upsert inserts or updates seed entries keyed by hash and language.
func (ss *SeedStore) Upsert(ctx context.Context, entries []SeedEntry) (int, error) {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO seed_translations (hash, lang, source, translated, file)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (hash, lang) DO UPDATE
			SET translated = EXCLUDED.translated, file = EXCLUDED.file
		`, e.Hash, e.Lang, e.SourceText, e.TranslatedText, e.File)
	}
	results := ss.pool.SendBatch(ctx, batch)
	defer results.Close()

	var affected int
	for range entries {
		tag, err := results.Exec()
		if err != nil {
			return affected, fmt.Errorf("upsert seed entry: %w", err)
		}
		affected += int(tag.RowsAffected())
	}

	log.Info().Int("upserted", affected).Msg("Upserted seed entries")
	return affected, nil
}

// GetAll retrieves all seed entries from the store.
func (ss *SeedStore) GetAll(ctx context.Context) ([]SeedEntry, error) {
	rows, err := ss.pool.Query(ctx,
		`SELECT hash, lang, source, translated, file FROM seed_translations ORDER BY source, lang`)
	if err != nil {
		return nil, fmt.Errorf("query seed entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (SeedEntry, error) {
		var e SeedEntry
		err := r.Scan(&e.Hash, &e.Lang, &e.SourceText, &e.TranslatedText, &e.File)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("query seed entries: %w", err)
	}
	return entries, nil
}

// Export writes entries to path as TSV or, for a .json path, as JSON.
func Export(entries []SeedEntry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = WriteJSON(f, entries)
	} else {
		err = WriteTSV(f, entries)
	}
	if err != nil {
		return err
	}
	log.Info().Str("path", path).Int("entries", len(entries)).Msg("Exported seed corpus")
	return nil
}

// WriteTSV writes a header line and one row per entry.
func WriteTSV(w io.Writer, entries []SeedEntry) error {
	if _, err := fmt.Fprintln(w, "source_text\ttranslated_text\tlang\tfile"); err != nil {
		return fmt.Errorf("write TSV: %w", err)
	}
	for _, e := range entries {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			escapeTSV(e.SourceText),
			escapeTSV(e.TranslatedText),
			e.Lang,
			e.File,
		)
		if err != nil {
			return fmt.Errorf("write TSV: %w", err)
		}
	}
	return nil
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []SeedEntry) error {
	if entries == nil {
		entries = []SeedEntry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// escapeTSV replaces tabs and newlines in a string for TSV safety.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}

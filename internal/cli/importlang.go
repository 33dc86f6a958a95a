package cli

import (
	"context"
	"fmt"

	"i18n-refactor/internal/cache"
	"i18n-refactor/internal/seed"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func importLangCmd(root *rootOptions) *cobra.Command {
	var export string

	cmd := &cobra.Command{
		Use:   "import-lang <lang-dir>",
		Short: "Import Laravel JSON translation files as approved translations",
		Long: `Reads every <code>.json file in <lang-dir> (for example resources/lang or
lang) and stores the pairs in the seed table, the translation cache and, when
embeddings are configured, the translation memory. Requires DATABASE_URL.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportLang(cmd.Context(), root, args[0], export)
		},
	}

	cmd.Flags().StringVar(&export, "export", "", "also write the imported pairs to this file (.tsv or .json)")

	return cmd
}

func runImportLang(ctx context.Context, root *rootOptions, dir, export string) error {
	cfg := root.cfg

	entries, err := seed.LoadLangDir(dir)
	if err != nil {
		return err
	}
	log.Info().Int("pairs", len(entries)).Str("dir", dir).Msg("Loaded translation files")

	if export != "" {
		if err := seed.Export(entries, export); err != nil {
			return err
		}
	}

	if cfg.Storage.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required to import translations")
	}
	pool, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	stored, err := seed.NewSeedStore(pool).Upsert(ctx, entries)
	if err != nil {
		return err
	}

	tc, err := cache.NewTranslationCache(cfg.Translate.CacheSize, cache.NewPostgresStore(pool))
	if err != nil {
		return err
	}
	translations := seed.BuildTranslationMap(entries)
	for text, byLang := range translations {
		if err := tc.SetBatch(ctx, text, byLang); err != nil {
			return fmt.Errorf("cache seed translation: %w", err)
		}
	}

	var remembered int
	if cfg.Storage.MemoryEnabled() {
		remembered, err = newRetriever(cfg, pool).Remember(ctx, translations, 0)
		if err != nil {
			return err
		}
	}

	log.Info().
		Int("pairs", len(entries)).
		Int("stored", stored).
		Int("cached", len(translations)).
		Int("memory", remembered).
		Msg("Import complete")
	return nil
}

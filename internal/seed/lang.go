// Package seed imports translations that already exist in a Laravel
// project's lang directory so they can steer and short-circuit the model.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"i18n-refactor/internal/textutil"

	"github.com/rs/zerolog/log"
)

// SeedEntry is one source string with an existing translation.
type SeedEntry struct {
	SourceText     string `json:"source_text"`
	TranslatedText string `json:"translated_text"`
	Lang           string `json:"lang"`
	File           string `json:"file"`
	Hash           string `json:"hash"`
}

// LoadLangDir reads every <code>.json file directly inside dir. Each file is
// a flat {"source": "translation"} object as used by Laravel's __() lookup.
// Entries with an empty translation are skipped.
func LoadLangDir(dir string) ([]SeedEntry, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list lang files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no <code>.json files in %s", dir)
	}
	sort.Strings(files)

	var entries []SeedEntry
	for _, file := range files {
		lang := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		loaded, err := LoadLangFile(file, lang)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", file).Str("lang", lang).Int("entries", len(loaded)).Msg("Loaded lang file")
		entries = append(entries, loaded...)
	}

	log.Info().Int("files", len(files)).Int("entries", len(entries)).Msg("Loaded lang directory")
	return entries, nil
}

// LoadLangFile reads one JSON translation file for lang.
func LoadLangFile(path, lang string) ([]SeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lang file: %w", err)
	}
	var pairs map[string]any
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	sources := make([]string, 0, len(pairs))
	for src := range pairs {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	entries := make([]SeedEntry, 0, len(pairs))
	for _, src := range sources {
		translated, ok := pairs[src].(string)
		if !ok {
			log.Warn().Str("file", path).Str("key", textutil.Truncate(src, 40)).Msg("Skipping non-string translation")
			continue
		}
		if src == "" || translated == "" {
			continue
		}
		entries = append(entries, SeedEntry{
			SourceText:     src,
			TranslatedText: translated,
			Lang:           lang,
			File:           filepath.ToSlash(path),
			Hash:           textutil.Hash(src),
		})
	}
	return entries, nil
}

// BuildTranslationMap groups entries as source → lang → translation.
func BuildTranslationMap(entries []SeedEntry) map[string]map[string]string {
	m := make(map[string]map[string]string)
	for _, e := range entries {
		if m[e.SourceText] == nil {
			m[e.SourceText] = make(map[string]string)
		}
		m[e.SourceText][e.Lang] = e.TranslatedText
	}
	return m
}

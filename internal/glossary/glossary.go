// Package glossary keeps approved terminology in Neo4j as
// (:Term)-[:TRANSLATED_AS]->(:Translation) and finds the terms used in a
// string.
package glossary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Term is a glossary entry with translations keyed by language code.
type Term struct {
	Name         string
	Translations map[string]string
}

// Store reads and writes the glossary graph.
type Store struct {
	driver neo4j.DriverWithContext
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect neo4j: %w", err)
	}
	return driver, nil
}

// NewStore creates a store over driver.
func NewStore(driver neo4j.DriverWithContext) *Store {
	return &Store{driver: driver}
}

// EnsureSchema creates constraints on the Neo4j database.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (t:Term) REQUIRE t.name IS UNIQUE",
	}
	for _, c := range constraints {
		if _, err := session.Run(ctx, c, nil); err != nil {
			return fmt.Errorf("create constraint: %w", err)
		}
	}
	log.Debug().Msg("Glossary schema ensured")
	return nil
}

// Upsert creates the term if needed and sets its translations. Languages not
// named in translations are left as they are.
func (s *Store) Upsert(ctx context.Context, term Term) error {
	name := strings.TrimSpace(term.Name)
	if name == "" {
		return fmt.Errorf("empty term")
	}
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	if _, err := session.Run(ctx, `MERGE (:Term {name: $name})`, map[string]any{"name": name}); err != nil {
		return fmt.Errorf("upsert term %s: %w", name, err)
	}
	for lang, text := range term.Translations {
		_, err := session.Run(ctx, `
			MATCH (t:Term {name: $name})
			MERGE (t)-[:TRANSLATED_AS]->(tr:Translation {lang: $lang})
			SET tr.text = $text
		`, map[string]any{"name": name, "lang": lang, "text": text})
		if err != nil {
			return fmt.Errorf("upsert translation %s/%s: %w", name, lang, err)
		}
	}
	return nil
}

const termsQuery = `
	MATCH (t:Term)
	%s
	OPTIONAL MATCH (t)-[:TRANSLATED_AS]->(tr:Translation)
	WITH t, collect({lang: tr.lang, text: tr.text}) AS translations
	RETURN t.name AS name, translations
	ORDER BY %s
`

// FindTerms returns the terms contained in text, case-insensitively,
// longest first.
func (s *Store) FindTerms(ctx context.Context, text string) ([]Term, error) {
	terms, err := s.query(ctx,
		fmt.Sprintf(termsQuery, "WHERE toLower($text) CONTAINS toLower(t.name)", "size(t.name) DESC, t.name"),
		map[string]any{"text": text})
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}
	log.Debug().Int("terms", len(terms)).Msg("Glossary query complete")
	return terms, nil
}

// All returns the whole glossary sorted by name.
func (s *Store) All(ctx context.Context) ([]Term, error) {
	terms, err := s.query(ctx, fmt.Sprintf(termsQuery, "", "t.name"), nil)
	if err != nil {
		return nil, fmt.Errorf("get all terms: %w", err)
	}
	return terms, nil
}

func (s *Store) query(ctx context.Context, cypher string, params map[string]any) ([]Term, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	var terms []Term
	for result.Next(ctx) {
		record := result.Record()
		name, _ := record.Get("name")
		translations, _ := record.Get("translations")
		terms = append(terms, Term{Name: fmt.Sprintf("%v", name), Translations: decodeTranslations(translations)})
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return terms, nil
}

// decodeTranslations converts the collected {lang, text} maps of a record.
// Rows from an OPTIONAL MATCH without a translation have nil values.
func decodeTranslations(v any) map[string]string {
	list, _ := v.([]any)
	out := make(map[string]string, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		lang, _ := m["lang"].(string)
		text, _ := m["text"].(string)
		if lang != "" {
			out[lang] = text
		}
	}
	return out
}

// ParseTranslations parses "code=translation" arguments.
func ParseTranslations(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, a := range args {
		lang, text, ok := strings.Cut(a, "=")
		lang = strings.TrimSpace(lang)
		if !ok || lang == "" || strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("invalid translation %q, want code=text", a)
		}
		out[lang] = text
	}
	return out, nil
}

// Codes returns the language codes of t sorted.
func (t Term) Codes() []string {
	codes := make([]string, 0, len(t.Translations))
	for c := range t.Translations {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

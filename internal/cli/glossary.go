package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"i18n-refactor/internal/glossary"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func glossaryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the terminology glossary used in translation prompts (requires NEO4J_URI)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if root.cfg.Storage.Neo4jURI == "" {
				return fmt.Errorf("NEO4J_URI is required for the glossary")
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <term> <code>=<translation>...",
		Short: "Add or update a term",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			translations, err := glossary.ParseTranslations(args[1:])
			if err != nil {
				return err
			}
			return withGlossary(cmd.Context(), root, func(store *glossary.Store) error {
				term := glossary.Term{Name: args[0], Translations: translations}
				if err := store.Upsert(cmd.Context(), term); err != nil {
					return err
				}
				log.Info().Str("term", term.Name).Strs("langs", term.Codes()).Msg("Glossary term saved")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print every term with its translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGlossary(cmd.Context(), root, func(store *glossary.Store) error {
				terms, err := store.All(cmd.Context())
				if err != nil {
					return err
				}
				printTerms(os.Stdout, terms)
				return nil
			})
		},
	})

	return cmd
}

func withGlossary(ctx context.Context, root *rootOptions, fn func(*glossary.Store) error) error {
	driver, store, err := openGlossary(ctx, root.cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)
	return fn(store)
}

// printTerms writes one term per line: the name, a tab, then code=text pairs
// in code order.
func printTerms(w io.Writer, terms []glossary.Term) {
	for _, t := range terms {
		pairs := make([]string, 0, len(t.Translations))
		for _, code := range t.Codes() {
			pairs = append(pairs, code+"="+t.Translations[code])
		}
		fmt.Fprintf(w, "%s\t%s\n", t.Name, strings.Join(pairs, " "))
	}
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"i18n-refactor/internal/config"
	"i18n-refactor/internal/translation"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func listModelsCmd(root *rootOptions) *cobra.Command {
	var apiKey, apiBase string

	cmd := &cobra.Command{
		Use:   "list-models <provider>",
		Short: "List the models available from a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc := root.cfg.Provider(args[0])
			if cmd.Flags().Changed("api-key") {
				pc.APIKey = apiKey
			}
			if cmd.Flags().Changed("api-base") {
				pc.APIBase = apiBase
			}
			return runListModels(cmd.Context(), os.Stdout, args[0], pc)
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key (default: provider environment variable)")
	cmd.Flags().StringVar(&apiBase, "api-base", "", "API base URL for compatible endpoints and ollama")

	return cmd
}

func runListModels(ctx context.Context, out io.Writer, name string, pc config.ProviderConfig) error {
	settings := pc.Settings()
	settings.ListOnly = true

	provider, err := translation.NewProvider(ctx, name, settings)
	if err != nil {
		return err
	}
	models, err := provider.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		log.Warn().Str("provider", provider.Name()).Msg("Provider does not report any models")
		return nil
	}
	sort.Strings(models)
	for _, m := range models {
		fmt.Fprintln(out, m)
	}
	return nil
}

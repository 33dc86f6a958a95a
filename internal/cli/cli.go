package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"i18n-refactor/internal/config"
	"i18n-refactor/internal/database"
	"i18n-refactor/internal/glossary"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// rootOptions carries the persistent flags and the loaded configuration to
// every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	cfg        *config.Config
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := setupContext()
	err := newRootCmd().ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	cancel()

	if err != nil {
		if interrupted {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "i18n-refactor",
		Short: "Find hardcoded user-facing strings in Laravel projects and translate them",
		Long: `i18n-refactor scans Laravel PHP sources and Blade templates for hardcoded
user-facing strings, writes them to a JSON document with every occurrence,
and can translate that document with an LLM provider.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Arguments are valid at this point; runtime errors should not
			// print usage.
			cmd.SilenceUsage = true

			switch {
			case opts.verbose:
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			case opts.quiet:
				zerolog.SetGlobalLevel(zerolog.WarnLevel)
			default:
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: ./.i18n-refactor.yaml or $HOME/.i18n-refactor.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "only log warnings and hide progress bars")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(extractCmd(opts))
	rootCmd.AddCommand(translateCmd(opts))
	rootCmd.AddCommand(listModelsCmd(opts))
	rootCmd.AddCommand(importLangCmd(opts))
	rootCmd.AddCommand(glossaryCmd(opts))

	return rootCmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// openDatabase connects to PostgreSQL and migrates the schema. The
// translation memory table is only created when embeddings are configured.
func openDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.Connect(ctx, cfg.Storage.DatabaseURL, database.Options{
		Vector:     cfg.Storage.MemoryEnabled(),
		Dimensions: cfg.Storage.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	log.Info().Bool("memory", cfg.Storage.MemoryEnabled()).Msg("Connected to PostgreSQL")
	return pool, nil
}

// openGlossary connects to Neo4j and ensures the glossary constraints.
func openGlossary(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, *glossary.Store, error) {
	driver, err := glossary.Connect(ctx, cfg.Storage.Neo4jURI, cfg.Storage.Neo4jUser, cfg.Storage.Neo4jPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	store := glossary.NewStore(driver)
	if err := store.EnsureSchema(ctx); err != nil {
		driver.Close(ctx)
		return nil, nil, fmt.Errorf("ensure glossary schema: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, store, nil
}

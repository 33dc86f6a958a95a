package cli

import (
	"context"
	"fmt"

	"i18n-refactor/internal/collector"
	"i18n-refactor/internal/config"
	"i18n-refactor/internal/exclusion"
	"i18n-refactor/internal/filewalker"
	"i18n-refactor/internal/filter"
	"i18n-refactor/internal/parser"
	"i18n-refactor/internal/watch"
	"i18n-refactor/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	pattern        string
	output         string
	splitThreshold int
	minBytes       int
	contextLines   int
	workers        int
	excludeDirs    []string
	excludeDicts   []string
	functions      []string
	noGitignore    bool
	watch          bool
	quiet          bool
}

func extractCmd(root *rootOptions) *cobra.Command {
	var o extractOptions

	cmd := &cobra.Command{
		Use:   "extract <dir>",
		Short: "Extract hardcoded user-facing strings from PHP and Blade files",
		Long: `Scans every file under <dir> matching the pattern, keeps strings that look
like user-facing text and writes them as a JSON array sorted by text. Each
entry lists every file and position the string occurs at.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.merge(cmd, root.cfg.Extract)
			o.quiet = root.quiet
			return runExtract(cmd.Context(), args[0], o)
		},
	}

	cmd.Flags().StringVarP(&o.pattern, "pattern", "p", filewalker.DefaultPattern, "glob of files to scan, relative to <dir>")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&o.splitThreshold, "split-threshold", 0, "split the output into files of at most this many strings")
	cmd.Flags().IntVar(&o.minBytes, "min-bytes", filter.DefaultMinBytes, "minimum byte length of ASCII-only strings")
	cmd.Flags().IntVar(&o.contextLines, "context-lines", collector.DefaultContextLines, "source lines of context around each occurrence")
	cmd.Flags().IntVar(&o.workers, "workers", 8, "number of files processed in parallel")
	cmd.Flags().StringArrayVar(&o.excludeDirs, "exclude-dir", nil, "additional directory to skip (repeatable)")
	cmd.Flags().StringArrayVar(&o.excludeDicts, "exclude-dict", nil, "exclusion dictionary file (repeatable)")
	cmd.Flags().StringArrayVar(&o.functions, "exclude-function", nil, "additional function whose string arguments are ignored (repeatable)")
	cmd.Flags().BoolVar(&o.noGitignore, "no-gitignore", false, "do not skip files matched by .gitignore")
	cmd.Flags().BoolVar(&o.watch, "watch", false, "re-extract whenever a PHP file changes")

	return cmd
}

// merge fills every flag the user did not set from the config file.
func (o *extractOptions) merge(cmd *cobra.Command, cfg config.ExtractConfig) {
	flags := cmd.Flags()
	if !flags.Changed("pattern") && cfg.Pattern != "" {
		o.pattern = cfg.Pattern
	}
	if !flags.Changed("min-bytes") {
		o.minBytes = cfg.MinBytes
	}
	if !flags.Changed("context-lines") {
		o.contextLines = cfg.ContextLines
	}
	if !flags.Changed("split-threshold") {
		o.splitThreshold = cfg.SplitThreshold
	}
	if !flags.Changed("workers") && cfg.Workers > 0 {
		o.workers = cfg.Workers
	}
	if !cfg.RespectGitignore {
		o.noGitignore = true
	}
	o.excludeDirs = append(append([]string{}, cfg.ExcludeDirs...), o.excludeDirs...)
	o.excludeDicts = append(append([]string{}, cfg.ExcludeDicts...), o.excludeDicts...)
	o.functions = append(append([]string{}, cfg.Functions...), o.functions...)
}

// extractor runs one full extraction. It is reused by watch mode.
type extractor struct {
	root   string
	walker *filewalker.Walker
	opts   extractOptions
}

func newExtractor(root string, o extractOptions) (*extractor, error) {
	dict, err := exclusion.Load(o.excludeDicts...)
	if err != nil {
		return nil, fmt.Errorf("load exclusion dictionary: %w", err)
	}

	callSites, err := filter.NewCallSites(o.functions, filter.DefaultFunctionDefs)
	if err != nil {
		return nil, fmt.Errorf("compile excluded functions: %w", err)
	}

	opts := []filter.Option{filter.WithMinBytes(o.minBytes), filter.WithCallSites(callSites)}
	if dict.Len() > 0 {
		opts = append(opts, filter.WithExcluder(dict))
	}
	f := filter.New(opts...)

	parsers := []parser.Parser{parser.NewBladeParser(f), parser.NewPHPParser(f)}
	w, err := filewalker.NewWalker(parsers, filewalker.Options{
		Pattern:          o.pattern,
		ExcludeDirs:      append(append([]string{}, filewalker.DefaultExcludeDirs...), o.excludeDirs...),
		RespectGitignore: !o.noGitignore,
	})
	if err != nil {
		return nil, err
	}
	return &extractor{root: root, walker: w, opts: o}, nil
}

// extractStats summarises one run.
type extractStats struct {
	Files       int
	Failed      int
	Strings     int
	Occurrences int
	Written     []string
}

func (e *extractor) run(ctx context.Context) (*extractStats, error) {
	files, err := e.walker.Walk(e.root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warn().Str("dir", e.root).Str("pattern", e.opts.pattern).Msg("No matching files found")
	}

	bar := newProgress(e.opts.quiet, len(files), "Extracting", "files/s")
	pool := worker.NewPool[filewalker.FileEntry, *parser.ParseResult](e.opts.workers,
		func(_ context.Context, entry filewalker.FileEntry) (*parser.ParseResult, error) {
			return e.walker.ParseFile(entry)
		},
		worker.WithProgress(bar.step),
		worker.WithName("extract"),
	)
	tasks := pool.Execute(ctx, files)
	bar.finish()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := collector.New(e.root, collector.WithContextLines(e.opts.contextLines))
	stats := &extractStats{}
	for _, t := range tasks {
		if t.Err != nil {
			stats.Failed++
			log.Warn().Err(t.Err).Str("file", t.Input.RelPath).Msg("Failed to process file")
			continue
		}
		if t.Result == nil {
			continue
		}
		stats.Files++
		n := c.AddResult(t.Result)
		log.Debug().Str("file", t.Input.RelPath).Int("strings", n).Msg("Processed file")
	}

	results := c.Results()
	written, err := collector.Write(results, e.opts.output, e.opts.splitThreshold)
	if err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	stats.Strings = c.StringCount()
	stats.Occurrences = c.TotalOccurrences()
	stats.Written = written

	log.Info().
		Int("files", stats.Files).
		Int("strings", stats.Strings).
		Int("occurrences", stats.Occurrences).
		Int("errors", stats.Failed).
		Strs("output", written).
		Msg("Extraction complete")
	return stats, nil
}

func runExtract(ctx context.Context, dir string, o extractOptions) error {
	ex, err := newExtractor(dir, o)
	if err != nil {
		return err
	}
	if _, err := ex.run(ctx); err != nil {
		return err
	}
	if !o.watch {
		return nil
	}

	w, err := watch.New(dir, watch.WithSkipDir(ex.walker.IsExcludedDir))
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	log.Info().Str("dir", dir).Msg("Watching for changes, press Ctrl+C to stop")
	return w.Run(ctx, func(files []string) {
		log.Info().Int("changed", len(files)).Msg("Change detected, re-extracting")
		if _, err := ex.run(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Extraction failed")
		}
	})
}
